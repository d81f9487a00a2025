package service

import (
	"fmt"

	"github.com/pausemo/api/internal/model"
)

// answerPredicate tests a boolean combination over specific answer indices
type answerPredicate func(answers []bool) bool

// classificationRule pairs a predicate with the archetypes it assigns
type classificationRule struct {
	name      string
	predicate answerPredicate
	result    model.ArchetypePair
}

// questionSet is an ordered rule table for one questionnaire. Rules are
// evaluated top to bottom and the first match wins; later rules are never
// consulted, even when they would also match.
type questionSet struct {
	name          string
	questionCount int
	rules         []classificationRule
	// yesThreshold and the two fallbacks form the final default rule
	yesThreshold int
	aboveDefault model.Archetype
	belowDefault model.Archetype
}

func all(indices ...int) answerPredicate {
	return func(answers []bool) bool {
		for _, i := range indices {
			if !answers[i] {
				return false
			}
		}
		return true
	}
}

func yesAndNo(yes, no int) answerPredicate {
	return func(answers []bool) bool {
		return answers[yes] && !answers[no]
	}
}

func pair(primary model.Archetype) model.ArchetypePair {
	return model.ArchetypePair{Primary: primary}
}

func pairWith(primary, secondary model.Archetype) model.ArchetypePair {
	return model.ArchetypePair{Primary: primary, Secondary: &secondary}
}

// selfAwarenessSet is the six-question questionnaire for the self-awareness
// category:
//
//	q0 worries what others think      q3 proves worth through results
//	q1 anxious without praise         q4 puts own needs last when helping
//	q2 struggles to show imperfection q5 often feels lonely or empty
var selfAwarenessSet = questionSet{
	name:          "self-awareness-v1",
	questionCount: 6,
	rules: []classificationRule{
		{"approval-seeking", all(0, 1), pair(model.ArchetypeRelationshipDependent)},
		{"perfection-and-results", all(2, 3), pair(model.ArchetypePerformanceProving)},
		{"perfection", all(2), pair(model.ArchetypePerfectionMask)},
		{"self-sacrifice", all(4), pair(model.ArchetypeSacrificeDevotion)},
	},
	yesThreshold: 4,
	aboveDefault: model.ArchetypeVolatileAnxious,
	belowDefault: model.ArchetypeSilentObserver,
}

// generalSet is the eight-question questionnaire used by every other
// category. A true answer means the first option was chosen:
//
//	q0 reacts outwardly under pressure   q4 finds it hard to refuse requests
//	q1 others' expectations come first   q5 plans before starting
//	q2 feels empty without recognition   q6 stress shows externally
//	q3 pushes back on suggestions        q7 strong feelings linger for days
var generalSet = questionSet{
	name:          "general-v1",
	questionCount: 8,
	rules: []classificationRule{
		{"outward-pushback", all(3, 0), pair(model.ArchetypeRebellionDifferentiation)},
		{"visible-reaction", all(0, 6), pair(model.ArchetypeDisplayExpressive)},
		{"cannot-refuse", all(1, 4), pairWith(model.ArchetypeSacrificeDevotion, model.ArchetypeRelationshipDependent)},
		{"recognition-for-others", all(2, 1), pairWith(model.ArchetypePerformanceProving, model.ArchetypeRelationshipDependent)},
		{"recognition", all(2), pair(model.ArchetypePerformanceProving)},
		{"quiet-planning", yesAndNo(5, 0), pair(model.ArchetypePerfectionMask)},
		{"lingering-inward", yesAndNo(7, 6), pairWith(model.ArchetypeVolatileAnxious, model.ArchetypeSilentObserver)},
	},
	yesThreshold: 5,
	aboveDefault: model.ArchetypeVolatileAnxious,
	belowDefault: model.ArchetypeSilentObserver,
}

// Classifier maps a full questionnaire to an archetype. It is stateless and
// safe for concurrent use.
type Classifier struct {
	sets map[model.Category]*questionSet
}

// NewClassifier creates a classifier with the built-in question sets
func NewClassifier() *Classifier {
	sets := make(map[model.Category]*questionSet, len(model.AllCategories))
	for _, c := range model.AllCategories {
		sets[c] = &generalSet
	}
	sets[model.CategorySelfAwareness] = &selfAwarenessSet
	return &Classifier{sets: sets}
}

// QuestionSet reports which questionnaire is active for a category
func (c *Classifier) QuestionSet(category model.Category) (*model.QuestionSetInfo, error) {
	set, ok := c.sets[category]
	if !ok {
		return nil, ErrInvalidCategory
	}
	return &model.QuestionSetInfo{
		Category:      category,
		QuestionSet:   set.name,
		QuestionCount: set.questionCount,
	}, nil
}

// Classify evaluates the category's rule table against answers
func (c *Classifier) Classify(category model.Category, answers []bool) (model.ArchetypePair, error) {
	result, _, err := c.Explain(category, answers)
	return result, err
}

// Explain is Classify plus the name of the rule that matched. The default
// rule is reported as "default".
func (c *Classifier) Explain(category model.Category, answers []bool) (model.ArchetypePair, string, error) {
	set, ok := c.sets[category]
	if !ok {
		return model.ArchetypePair{}, "", ErrInvalidCategory
	}
	if len(answers) != set.questionCount {
		return model.ArchetypePair{}, "", fmt.Errorf("%w: got %d, want %d", ErrInvalidAnswerCount, len(answers), set.questionCount)
	}
	result, rule := set.classify(answers)
	return result, rule, nil
}

func (s *questionSet) classify(answers []bool) (model.ArchetypePair, string) {
	for _, rule := range s.rules {
		if rule.predicate(answers) {
			// copy so callers never share the table's secondary pointer
			result := model.ArchetypePair{Primary: rule.result.Primary}
			if rule.result.Secondary != nil {
				secondary := *rule.result.Secondary
				result.Secondary = &secondary
			}
			return result, rule.name
		}
	}

	yes := 0
	for _, a := range answers {
		if a {
			yes++
		}
	}
	if yes >= s.yesThreshold {
		return pair(s.aboveDefault), "default"
	}
	return pair(s.belowDefault), "default"
}
