package domain

import "time"

// PreferenceEntry is one token's weight in a user's preference vector.
// Entries keep insertion order so equal-weight tokens rank deterministically
// for identical input state.
type PreferenceEntry struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// PreferenceVector is a user's derived taste profile: a normalized mapping
// from genre tokens to non-negative weights summing to 1. It is recomputed
// wholesale on every aggregation, never patched incrementally.
type PreferenceVector struct {
	UserID     string            `json:"user_id"`
	Entries    []PreferenceEntry `json:"entries"`
	ComputedAt time.Time         `json:"computed_at"`
}

// IsEmpty reports whether the vector carries no content signal.
// Callers must treat an empty vector as "nothing to score with".
func (v *PreferenceVector) IsEmpty() bool {
	return v == nil || len(v.Entries) == 0
}

// Weight returns the weight for a token, or 0 if the token is absent.
func (v *PreferenceVector) Weight(token string) float64 {
	if v == nil {
		return 0
	}
	for _, e := range v.Entries {
		if e.Token == token {
			return e.Weight
		}
	}
	return 0
}
