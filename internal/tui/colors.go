package tui

// Color constants for plank TUI theme
const (
	// Base Colors
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Primary text (titles, card rows)
	ColorSecondaryText = "#B1B8C7" // Secondary text - subtle purple-tinted grey
	ColorDisabledText  = "#6D7383" // Disabled/muted text
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors (Purple theme)
	ColorAccentMain   = "#7C3AED" // Active column border, accents
	ColorAccentBright = "#A78BFA" // Highlights, selected card

	// State Colors
	ColorError   = "#EF4444" // WIP overage, errors
	ColorSuccess = "#22C55E" // Done column, confirmations
	ColorWarning = "#F59E0B" // Warnings
)
