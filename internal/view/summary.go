package view

import (
	"fmt"
	"math"

	"github.com/copenny/penny-web/internal/domain"
	"github.com/shopspring/decimal"
)

// Placeholders rendered when no transaction data has been uploaded yet.
const (
	PlaceholderCurrency   = "₹ --"
	PlaceholderConfidence = "0%"
)

// SummaryView is the rendered overview panel. When HasData is false every
// display field holds its placeholder, regardless of what the payload
// carried.
type SummaryView struct {
	HasData         bool   `json:"has_data"`
	Balance         string `json:"balance"`
	MonthlyExpense  string `json:"monthly_expense"`
	Confidence      string `json:"confidence"`
	TransactionNote string `json:"transaction_note,omitempty"`
	DateRangeNote   string `json:"date_range_note,omitempty"`
}

// BuildSummary converts backend summary stats into their rendered form.
func BuildSummary(s *domain.Summary) SummaryView {
	if s == nil || !s.HasData {
		return SummaryView{
			Balance:        PlaceholderCurrency,
			MonthlyExpense: PlaceholderCurrency,
			Confidence:     PlaceholderConfidence,
		}
	}

	return SummaryView{
		HasData:         true,
		Balance:         FormatCurrency(s.Balance),
		MonthlyExpense:  FormatCurrency(s.MonthlyExpense),
		Confidence:      FormatPercent(s.Confidence),
		TransactionNote: transactionNote(s.TransactionCount),
		DateRangeNote:   s.DateRange,
	}
}

// FormatCurrency renders a rupee amount with two decimal places.
func FormatCurrency(amount decimal.Decimal) string {
	return "₹ " + amount.StringFixed(2)
}

// FormatPercent renders a 0..1 ratio as a rounded whole percentage.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(ratio*100)))
}

func transactionNote(count int) string {
	if count == 1 {
		return "Based on 1 transaction"
	}
	return fmt.Sprintf("Based on %d transactions", count)
}

// StatusView is the rendered personalization status line.
type StatusView struct {
	HasData  bool   `json:"has_data"`
	HasModel bool   `json:"has_model"`
	Label    string `json:"label"`
}

// BuildStatus converts a personalization status into its rendered form.
func BuildStatus(s *domain.PersonalizationStatus) StatusView {
	if s == nil || !s.HasData {
		return StatusView{Label: "No transaction data uploaded yet."}
	}
	label := fmt.Sprintf("%d transactions on file", s.TotalTransactions)
	if s.HasModel {
		label += " · model trained"
	}
	return StatusView{HasData: true, HasModel: s.HasModel, Label: label}
}
