package terminal

import (
	"os"
	"strings"
	"time"

	"github.com/c-bata/go-prompt"
	"golang.org/x/term"
)

// IsInteractive reports whether stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// FilenameCompleter suggests filenames from history and the local directory
type FilenameCompleter struct {
	history      []string
	dir          string
	localFiles   []string
	localAge     time.Time
	cacheTimeout time.Duration
}

// NewFilenameCompleter creates a completer over previously requested names and the files in dir
func NewFilenameCompleter(history []string, dir string) *FilenameCompleter {
	return &FilenameCompleter{
		history:      history,
		dir:          dir,
		cacheTimeout: 10 * time.Second,
	}
}

// Completer returns suggestions for the current input
func (c *FilenameCompleter) Completer(d prompt.Document) []prompt.Suggest {
	prefix := d.GetWordBeforeCursor()

	var suggestions []prompt.Suggest
	seen := make(map[string]bool)
	for _, name := range c.history {
		if seen[name] {
			continue
		}
		seen[name] = true
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: "Previously requested"})
	}
	for _, name := range c.local() {
		if seen[name] {
			continue
		}
		seen[name] = true
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: "Local file"})
	}

	var filtered []prompt.Suggest
	for _, s := range suggestions {
		// Skip hidden files unless explicitly requested
		if strings.HasPrefix(s.Text, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if strings.HasPrefix(strings.ToLower(s.Text), strings.ToLower(prefix)) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func (c *FilenameCompleter) local() []string {
	if c.dir == "" {
		return nil
	}
	if c.localFiles != nil && time.Since(c.localAge) < c.cacheTimeout {
		return c.localFiles
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil
	}
	files := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	c.localFiles = files
	c.localAge = time.Now()
	return files
}

// PromptFilename asks for the filename to request
func PromptFilename(completer *FilenameCompleter) string {
	name := prompt.Input(
		"filename> ",
		completer.Completer,
		prompt.OptionTitle("filexfer client"),
		prompt.OptionPrefixTextColor(promptColor(currentTheme.PromptColor)),
		prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
	)
	return strings.TrimSpace(name)
}

// promptColor maps a theme color name to the prompt's palette
func promptColor(name string) prompt.Color {
	switch name {
	case "black":
		return prompt.Black
	case "red":
		return prompt.Red
	case "green":
		return prompt.Green
	case "yellow":
		return prompt.Yellow
	case "blue":
		return prompt.Blue
	case "cyan":
		return prompt.Cyan
	default:
		return prompt.White
	}
}
