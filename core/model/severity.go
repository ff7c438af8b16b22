package model

// Severity grades an emergency from 1 (minor) to 5 (life-threatening).
type Severity int

const (
	SeverityMin Severity = 1
	SeverityMax Severity = 5
)

// Valid reports whether the severity is within the accepted 1-5 range.
func (s Severity) Valid() bool {
	return s >= SeverityMin && s <= SeverityMax
}

// Label returns the display label for the severity. This is the single
// severity-to-label mapping used everywhere ordering or display matters.
func (s Severity) Label() string {
	switch {
	case s <= 2:
		return LabelLow
	case s == 3:
		return LabelMedium
	case s == 4:
		return LabelHigh
	default:
		return LabelCritical
	}
}

// Severity labels as shown to operators and carried on queue entries.
const (
	LabelLow      = "Low"
	LabelMedium   = "Medium"
	LabelHigh     = "High"
	LabelCritical = "Critical"
)

// LabelRank maps a severity label to its queue ordering rank. Higher ranks are
// served first. Unknown labels rank lowest.
func LabelRank(label string) int {
	switch label {
	case LabelCritical:
		return 4
	case LabelHigh:
		return 3
	case LabelMedium:
		return 2
	case LabelLow:
		return 1
	default:
		return 0
	}
}
