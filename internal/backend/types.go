package backend

import (
	"github.com/shopspring/decimal"
)

// AuthResult carries the identity returned by a successful login or
// registration.
type AuthResult struct {
	UserID string
	Name   string
}

// ChatRequest is the payload sent to the advisor chat endpoint.
type ChatRequest struct {
	SessionID string   `json:"session_id"`
	Message   string   `json:"message"`
	Context   []string `json:"context"`
	UserID    string   `json:"user_id"`
}

// ChatStatus categorizes chat responses.
type ChatStatus string

const (
	// ChatStatusSuccess is a normal answer.
	ChatStatusSuccess ChatStatus = "success"
	// ChatStatusLimitReached signals the user's tier message quota is spent.
	ChatStatusLimitReached ChatStatus = "limit_reached"
)

// ChatResult is the advisor's reply. Visualizations maps chart names to
// base64 image payloads; entries that are not image data must be skipped by
// the renderer.
type ChatResult struct {
	Status         ChatStatus
	Answer         string
	Visualizations map[string]string
}

// UploadResult reports the outcome of a CSV upload.
type UploadResult struct {
	Message string
}

// TrainResult reports the outcome of a model training run.
type TrainResult struct {
	TestAccuracy float64
}

// Wire-level response shapes. Only the fields the client consumes are
// declared; everything else in the payload is ignored.

type authResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	Name    string `json:"name"`
	Error   string `json:"error"`
}

type statusOnlyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type subscriptionStatusResponse struct {
	Tier string `json:"tier"`
}

type chatResponse struct {
	Status         string            `json:"status"`
	Answer         string            `json:"answer"`
	Visualizations map[string]string `json:"visualizations"`
	Error          string            `json:"error"`
}

type personalizationStatusResponse struct {
	HasData  bool `json:"has_data"`
	HasModel bool `json:"has_model"`
	Metadata struct {
		TotalTransactions int `json:"total_transactions"`
	} `json:"metadata"`
}

type trainResponse struct {
	Success      bool    `json:"success"`
	TestAccuracy float64 `json:"test_accuracy"`
	Error        string  `json:"error"`
}

type alertPayload struct {
	Type      string `json:"type"`
	Severity  string `json:"severity"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type alertsResponse struct {
	Success bool           `json:"success"`
	Alerts  []alertPayload `json:"alerts"`
	Error   string         `json:"error"`
}

type summaryResponse struct {
	HasData          bool            `json:"has_data"`
	Balance          decimal.Decimal `json:"balance"`
	MonthlyExpense   decimal.Decimal `json:"monthly_expense"`
	Confidence       float64         `json:"confidence"`
	TransactionCount int             `json:"transaction_count"`
	DateRange        string          `json:"date_range"`
}
