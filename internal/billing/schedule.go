package billing

import (
	"time"

	"github.com/Samyy-Momin/onefooddialer/pkg/enums"
)

// Order horizons per cadence: how many orders are materialized up front when a
// subscription is created or renewed.
const (
	dailyHorizon   = 7
	weeklyHorizon  = 4
	monthlyHorizon = 3
)

// NextBillingDate advances a date by one billing step. MONTHLY moves a full
// calendar month rather than 30 days so day-of-month semantics survive month
// boundaries. An unknown cadence falls back to a 30-day step; that is defined
// behavior, not an error.
func NextBillingDate(from time.Time, planType enums.PlanType) time.Time {
	switch planType {
	case enums.PlanTypeDaily:
		return from.AddDate(0, 0, 1)
	case enums.PlanTypeWeekly:
		return from.AddDate(0, 0, 7)
	case enums.PlanTypeMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 30)
	}
}

// Horizon returns how many order dates a cadence projects forward.
func Horizon(planType enums.PlanType) int {
	switch planType {
	case enums.PlanTypeDaily:
		return dailyHorizon
	case enums.PlanTypeWeekly:
		return weeklyHorizon
	default:
		return monthlyHorizon
	}
}

// ProjectOrderDates returns count ascending delivery dates starting at start,
// one billing step apart. Pure date arithmetic, no side effects.
func ProjectOrderDates(start time.Time, planType enums.PlanType, count int) []time.Time {
	if count <= 0 {
		return nil
	}
	dates := make([]time.Time, 0, count)
	switch planType {
	case enums.PlanTypeDaily:
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
	case enums.PlanTypeWeekly:
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, 0, 7*i))
		}
	case enums.PlanTypeMonthly:
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, i, 0))
		}
	default:
		for i := 0; i < count; i++ {
			dates = append(dates, start.AddDate(0, 0, 30*i))
		}
	}
	return dates
}
