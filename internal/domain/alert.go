package domain

import "time"

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertLargeTransaction AlertType = "large_transaction"
	AlertNegativeBalance  AlertType = "negative_balance"
	AlertUnusualSpending  AlertType = "unusual_spending"
)

// Alert is a backend-generated spending alert. The client renders alerts
// as-is; it never creates or mutates them.
type Alert struct {
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
