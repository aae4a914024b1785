package domain

import "github.com/shopspring/decimal"

// Summary holds the aggregate financial stats shown on the dashboard
// overview. All fields besides HasData are meaningless when HasData is
// false; the view layer renders placeholders in that case.
type Summary struct {
	HasData          bool            `json:"has_data"`
	Balance          decimal.Decimal `json:"balance"`
	MonthlyExpense   decimal.Decimal `json:"monthly_expense"`
	Confidence       float64         `json:"confidence"`
	TransactionCount int             `json:"transaction_count"`
	DateRange        string          `json:"date_range"`
}

// PersonalizationStatus reflects whether the user has uploaded transaction
// data and trained a model.
type PersonalizationStatus struct {
	HasData           bool `json:"has_data"`
	HasModel          bool `json:"has_model"`
	TotalTransactions int  `json:"total_transactions"`
}
