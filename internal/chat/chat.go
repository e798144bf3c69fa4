// Package chat formats the short colored status lines shown to players.
package chat

import (
	"fmt"
	"regexp"
)

// Color is a legacy section-sign color code understood by game clients
type Color string

const (
	DarkRed   Color = "§4"
	Red       Color = "§c"
	Gold      Color = "§6"
	Yellow    Color = "§e"
	DarkGreen Color = "§2"
	Green     Color = "§a"
	Gray      Color = "§7"
	White     Color = "§f"
	Bold      Color = "§l"
)

var codePattern = regexp.MustCompile(`§[0-9a-fk-or]`)

// Line joins a color and a formatted message
func Line(c Color, format string, args ...any) string {
	return string(c) + fmt.Sprintf(format, args...)
}

// Error is a red status line
func Error(format string, args ...any) string {
	return Line(Red, format, args...)
}

// Success is a green status line
func Success(format string, args ...any) string {
	return Line(Green, format, args...)
}

// Notice is a yellow status line
func Notice(format string, args ...any) string {
	return Line(Yellow, format, args...)
}

// Strip removes color codes, for sinks that render plain text
func Strip(s string) string {
	return codePattern.ReplaceAllString(s, "")
}
