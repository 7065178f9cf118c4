package logging

import "github.com/charmbracelet/lipgloss"

// Colors follow the original DW_COLOR_ERROR (red)/DW_COLOR_DEBUG (dark
// green) palette from textcolor.c; Info uses near-white (255) rather
// than the original DW_COLOR_INFO black. Received
// and transmitted frame categories (Category.Received/Transmitted) are
// not given distinct log levels by charmbracelet/log, so callers attach
// Category.Fields() instead; see internal/output's per-frame write log,
// internal/opcserver's per-frame receive log, and internal/stats's
// ticker lines.
var (
	colorInfo  = lipgloss.Color("255")
	colorError = lipgloss.Color("196")
	colorDebug = lipgloss.Color("22")
)
