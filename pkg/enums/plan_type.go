package enums

import "fmt"

// PlanType is the billing cadence of a subscription plan.
type PlanType string

const (
	PlanTypeDaily   PlanType = "DAILY"
	PlanTypeWeekly  PlanType = "WEEKLY"
	PlanTypeMonthly PlanType = "MONTHLY"
)

var validPlanTypes = []PlanType{
	PlanTypeDaily,
	PlanTypeWeekly,
	PlanTypeMonthly,
}

// String implements fmt.Stringer.
func (p PlanType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PlanType.
func (p PlanType) IsValid() bool {
	for _, candidate := range validPlanTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlanType converts raw input into a PlanType.
func ParsePlanType(value string) (PlanType, error) {
	for _, candidate := range validPlanTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan type %q", value)
}
