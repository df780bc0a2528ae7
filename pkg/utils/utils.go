package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// CalculateTotalAmount calculates what a loan owes in full
// Formula: WeeklyPayment * Installments
func CalculateTotalAmount(weeklyPayment decimal.Decimal, installments int) decimal.Decimal {
	return weeklyPayment.Mul(decimal.NewFromInt(int64(installments)))
}

// CalculateDueDate calculates the due date for a specific week
// Assumes weekly payments are due every 7 days starting from loan origination
func CalculateDueDate(loanStartDate time.Time, weekNumber int) time.Time {
	days := weekNumber * 7 // Week 1 is due 7 days after start, Week 2 is due 14 days after, etc.
	return loanStartDate.AddDate(0, 0, days)
}

// GetCurrentWeek calculates which week we're currently in based on loan start date
func GetCurrentWeek(loanStartDate time.Time, currentDate time.Time) int {
	duration := currentDate.Sub(loanStartDate)
	days := int(duration.Hours() / 24)
	week := (days / 7) + 1

	if week < 1 {
		return 1
	}

	return week
}

// IsDateOverdue checks if a due date has passed as of now
func IsDateOverdue(dueDate time.Time, now time.Time) bool {
	return now.After(dueDate)
}

// DecimalFromString converts string to decimal.Decimal
func DecimalFromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
