package view

import (
	"strings"
	"unicode"
)

// Tab identifies a dashboard panel.
type Tab string

const (
	TabOverview Tab = "overview"
	TabChat     Tab = "chat"
	TabUpload   Tab = "upload"
	TabAlerts   Tab = "alerts"
	TabSettings Tab = "settings"
)

// Tabs lists the dashboard panels in display order.
var Tabs = []Tab{TabOverview, TabChat, TabUpload, TabAlerts, TabSettings}

var tabTitles = map[Tab]string{
	TabOverview: "Overview",
	TabChat:     "AI Advisor",
	TabUpload:   "Upload Data",
	TabAlerts:   "Alerts",
	TabSettings: "Settings",
}

// TabTitle returns the display title for a tab key. Unknown keys fall back
// to a capitalized form of the key.
func TabTitle(key Tab) string {
	if title, ok := tabTitles[key]; ok {
		return title
	}
	return capitalize(string(key))
}

// IsKnownTab reports whether key names one of the fixed dashboard panels.
func IsKnownTab(key Tab) bool {
	_, ok := tabTitles[key]
	return ok
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// TierBadge returns the display label and style token for a subscription
// tier badge.
func TierBadge(tier string) (label string, token StyleToken) {
	switch strings.ToLower(tier) {
	case "pro":
		return "Pro", TokenAmber
	case "enterprise":
		return "Enterprise", TokenRed
	case "free", "":
		return "Free", TokenBlue
	default:
		return capitalize(strings.ToLower(tier)), TokenBlue
	}
}
