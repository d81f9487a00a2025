package model

// Archetype is one of the eight fixed behavioral-pattern tags
type Archetype string

const (
	ArchetypePerformanceProving       Archetype = "performance_proving"
	ArchetypeRelationshipDependent    Archetype = "relationship_dependent"
	ArchetypePerfectionMask           Archetype = "perfection_mask"
	ArchetypeSacrificeDevotion        Archetype = "sacrifice_devotion"
	ArchetypeRebellionDifferentiation Archetype = "rebellion_differentiation"
	ArchetypeSilentObserver           Archetype = "silent_observer"
	ArchetypeDisplayExpressive        Archetype = "display_expressive"
	ArchetypeVolatileAnxious          Archetype = "volatile_anxious"
)

// AllArchetypes lists the closed archetype set in display order
var AllArchetypes = []Archetype{
	ArchetypePerformanceProving,
	ArchetypeRelationshipDependent,
	ArchetypePerfectionMask,
	ArchetypeSacrificeDevotion,
	ArchetypeRebellionDifferentiation,
	ArchetypeSilentObserver,
	ArchetypeDisplayExpressive,
	ArchetypeVolatileAnxious,
}

// IsValid reports whether a is a member of the closed set
func (a Archetype) IsValid() bool {
	for _, known := range AllArchetypes {
		if a == known {
			return true
		}
	}
	return false
}

// ArchetypePair is a classification result: a primary archetype and an
// optional secondary one.
type ArchetypePair struct {
	Primary   Archetype  `json:"primary"`
	Secondary *Archetype `json:"secondary,omitempty"`
}

// Matches reports whether the pair targets the given archetype in either slot
func (p ArchetypePair) Matches(a Archetype) bool {
	if p.Primary == a {
		return true
	}
	return p.Secondary != nil && *p.Secondary == a
}

// Category is the behavior area a topic and its cards belong to
type Category string

const (
	CategoryWorkPerformance           Category = "work-performance"
	CategoryRelationshipCommunication Category = "relationship-communication"
	CategoryEmotionStress             Category = "emotion-stress"
	CategoryHabitAddiction            Category = "habit-addiction"
	CategorySelfAwareness             Category = "self-awareness"
	CategoryGrowthChange              Category = "growth-change"
)

// AllCategories lists the closed category set
var AllCategories = []Category{
	CategoryWorkPerformance,
	CategoryRelationshipCommunication,
	CategoryEmotionStress,
	CategoryHabitAddiction,
	CategorySelfAwareness,
	CategoryGrowthChange,
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}
