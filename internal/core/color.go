package core

// Color represents a foreground color for a screen cell.
// Uses ANSI 256-color codes for terminal compatibility.
type Color uint8

// Predefined colors for arena elements.
const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// playerColors assigns one colour per roster slot.
var playerColors = [MaxPlayers]Color{
	ColorBrightCyan,
	ColorBrightMagenta,
	ColorBrightGreen,
	ColorOrange,
	ColorBrightBlue,
	ColorBrightYellow,
}

// PlayerColor returns the display colour for a roster slot.
func PlayerColor(slot int) Color {
	if slot < 0 {
		return ColorDefault
	}
	return playerColors[slot%len(playerColors)]
}
