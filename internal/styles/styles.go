// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Tokyo Night color palette.
var (
	ColorGreen   = lipgloss.Color("#9ece6a")
	ColorYellow  = lipgloss.Color("#e0af68")
	ColorBlue    = lipgloss.Color("#7aa2f7")
	ColorMagenta = lipgloss.Color("#bb9af7")
	ColorCyan    = lipgloss.Color("#7dcfff")
	ColorOrange  = lipgloss.Color("#ff9e64")
	ColorGray    = lipgloss.Color("#565f89")
	ColorWhite   = lipgloss.Color("#c0caf5")
)

// Banner ASCII art printed when the server starts on a terminal.
const Banner = `
 ╔═╗╦ ╦╔═╗╔╦╗╔╗ ╔═╗═╗ ╦
 ║  ╠═╣╠═╣ ║ ╠╩╗║ ║╔╩╦╝
 ╚═╝╩ ╩╩ ╩ ╩ ╚═╝╚═╝╩ ╚═`

// BannerStyle styles the ASCII art banner.
var BannerStyle = lipgloss.NewStyle().
	Foreground(ColorBlue).
	Bold(true)

// MetaStyle styles message ids and timestamps.
var MetaStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// TextStyle styles message bodies.
var TextStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// ImageStyle styles image links.
var ImageStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Underline(true)

var userColors = []lipgloss.Color{
	ColorGreen,
	ColorBlue,
	ColorMagenta,
	ColorCyan,
	ColorOrange,
	ColorYellow,
}

// UserStyle returns a bold style whose color is stable for a given author.
func UserStyle(user string) lipgloss.Style {
	h := fnv.New32a()
	_, _ = h.Write([]byte(user))

	return lipgloss.NewStyle().
		Foreground(userColors[h.Sum32()%uint32(len(userColors))]).
		Bold(true)
}
