package model

import "testing"

func TestArchetype_IsValid(t *testing.T) {
	t.Parallel()

	for _, a := range AllArchetypes {
		if !a.IsValid() {
			t.Errorf("expected %s to be valid", a)
		}
	}
	if len(AllArchetypes) != 8 {
		t.Errorf("expected 8 archetypes, got %d", len(AllArchetypes))
	}
	if Archetype("dreamer").IsValid() {
		t.Error("expected unknown archetype to be invalid")
	}
}

func TestArchetypePair_Matches(t *testing.T) {
	t.Parallel()

	secondary := ArchetypeRelationshipDependent
	pair := ArchetypePair{Primary: ArchetypeSacrificeDevotion, Secondary: &secondary}

	if !pair.Matches(ArchetypeSacrificeDevotion) {
		t.Error("expected primary to match")
	}
	if !pair.Matches(ArchetypeRelationshipDependent) {
		t.Error("expected secondary to match")
	}
	if pair.Matches(ArchetypeSilentObserver) {
		t.Error("expected unrelated archetype not to match")
	}
}

func TestCategory_IsValid(t *testing.T) {
	t.Parallel()

	if !CategorySelfAwareness.IsValid() {
		t.Error("expected self-awareness to be valid")
	}
	if Category("gardening").IsValid() {
		t.Error("expected unknown category to be invalid")
	}
}

func TestValidDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		d    int
		want bool
	}{
		{0, false},
		{1, true},
		{4, true},
		{5, false},
		{-1, false},
	}
	for _, tt := range tests {
		if got := ValidDifficulty(tt.d); got != tt.want {
			t.Errorf("ValidDifficulty(%d) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestPhaseAndAnswer_IsValid(t *testing.T) {
	t.Parallel()

	if !PhaseGap.IsValid() || Phase("pause").IsValid() {
		t.Error("unexpected phase validity")
	}
	if !AnswerYes.IsValid() || !AnswerNo.IsValid() || Answer("maybe").IsValid() {
		t.Error("unexpected answer validity")
	}
}
