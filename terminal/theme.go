package terminal

import (
	"fmt"

	"github.com/fatih/color"
)

// Theme represents a terminal color theme
type Theme struct {
	Name         string
	PromptColor  string
	TextColor    string
	ErrorColor   string
	SuccessColor string
	InfoColor    string
}

var themes = map[string]Theme{
	"dark": {
		Name:         "dark",
		PromptColor:  "green",
		TextColor:    "white",
		ErrorColor:   "red",
		SuccessColor: "green",
		InfoColor:    "cyan",
	},
	"light": {
		Name:         "light",
		PromptColor:  "black",
		TextColor:    "black",
		ErrorColor:   "red",
		SuccessColor: "green",
		InfoColor:    "blue",
	},
}

var currentTheme = themes["dark"]

// SetTheme switches the palette used by the print helpers
func SetTheme(name string) error {
	theme, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme: %s", name)
	}
	currentTheme = theme
	return nil
}

// CurrentTheme returns the active theme
func CurrentTheme() Theme {
	return currentTheme
}

// DisableColor turns colored output off, for pipes and tests
func DisableColor(disabled bool) {
	color.NoColor = disabled
}

func TextColor() *color.Color    { return getColorFromName(currentTheme.TextColor) }
func ErrorColor() *color.Color   { return getColorFromName(currentTheme.ErrorColor) }
func SuccessColor() *color.Color { return getColorFromName(currentTheme.SuccessColor) }
func InfoColor() *color.Color    { return getColorFromName(currentTheme.InfoColor) }

// getColorFromName returns a color.Color based on the color name
func getColorFromName(name string) *color.Color {
	switch name {
	case "black":
		return color.New(color.FgBlack)
	case "red":
		return color.New(color.FgRed)
	case "green":
		return color.New(color.FgGreen)
	case "yellow":
		return color.New(color.FgYellow)
	case "blue":
		return color.New(color.FgBlue)
	case "magenta":
		return color.New(color.FgMagenta)
	case "cyan":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgWhite)
	}
}
