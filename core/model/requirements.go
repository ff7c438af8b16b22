package model

// RequirementSet lists the resource pools an emergency needs. It is frozen at
// submission time and reused verbatim for the eventual release.
type RequirementSet struct {
	ICU       bool `json:"icu"`
	Bed       bool `json:"bed"`
	Ambulance bool `json:"ambulance"`
	Oxygen    bool `json:"oxygen"`
}

// IsZero reports whether no requirement is set.
func (r RequirementSet) IsZero() bool {
	return !r.ICU && !r.Bed && !r.Ambulance && !r.Oxygen
}

// DeriveRequirements computes the default requirement set for a severity:
// severe cases need an ICU bed, lighter cases a regular bed, and every
// emergency gets an ambulance.
func DeriveRequirements(s Severity) RequirementSet {
	return RequirementSet{
		ICU:       s >= 4,
		Bed:       s < 4,
		Ambulance: true,
		Oxygen:    false,
	}
}
