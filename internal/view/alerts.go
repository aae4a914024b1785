// Package view builds render instructions from backend data. Everything in
// this package is pure: data in, display strings and style tokens out.
package view

import (
	"time"

	"github.com/copenny/penny-web/internal/domain"
)

// StyleToken is a named style hook the templates map to CSS classes.
type StyleToken string

const (
	TokenRed   StyleToken = "red"
	TokenAmber StyleToken = "amber"
	TokenBlue  StyleToken = "blue"
)

// EmptyAlertsMessage is shown when the alert history is empty.
const EmptyAlertsMessage = "No alerts yet — you're all caught up."

var severityTokens = map[domain.Severity]StyleToken{
	domain.SeverityHigh:   TokenRed,
	domain.SeverityMedium: TokenAmber,
}

var alertIcons = map[domain.AlertType]string{
	domain.AlertLargeTransaction: "💳",
	domain.AlertNegativeBalance:  "⚠️",
	domain.AlertUnusualSpending:  "📈",
}

const genericAlertIcon = "🔔"

// SeverityToken maps an alert severity to its style token. Unknown
// severities render as blue.
func SeverityToken(s domain.Severity) StyleToken {
	if token, ok := severityTokens[s]; ok {
		return token
	}
	return TokenBlue
}

// AlertIcon maps an alert type to its icon. Unknown types get the generic
// bell.
func AlertIcon(t domain.AlertType) string {
	if icon, ok := alertIcons[t]; ok {
		return icon
	}
	return genericAlertIcon
}

// AlertView is a single rendered alert row.
type AlertView struct {
	Icon      string     `json:"icon"`
	Color     StyleToken `json:"color"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	TimeLabel string     `json:"time_label"`
}

// AlertListView is the rendered alert history panel.
type AlertListView struct {
	Alerts       []AlertView `json:"alerts"`
	Empty        bool        `json:"empty"`
	EmptyMessage string      `json:"empty_message,omitempty"`
}

// BuildAlertList converts an alert history into its rendered form. An empty
// history produces the fixed empty-state message.
func BuildAlertList(alerts []domain.Alert) AlertListView {
	if len(alerts) == 0 {
		return AlertListView{Empty: true, EmptyMessage: EmptyAlertsMessage}
	}

	views := make([]AlertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, AlertView{
			Icon:      AlertIcon(a.Type),
			Color:     SeverityToken(a.Severity),
			Title:     a.Title,
			Message:   a.Message,
			TimeLabel: formatAlertTime(a.CreatedAt),
		})
	}
	return AlertListView{Alerts: views}
}

func formatAlertTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006 15:04")
}
