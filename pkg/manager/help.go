package manager

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# switch-manager

Browse the device inventory and run actions against the selected row.

## Keys

| key | action |
|-----|--------|
| type anything | filter rows (all words must match) |
| up / down, pgup / pgdn | move the selection |
| left / right | choose a command |
| enter | run the chosen command |
| s / S | sort by the next column / reverse the order |
| / | focus the search box |
| L | show the end of today's log |
| ? | toggle this help |
| esc | close the output window, or clear the search |
| ctrl+c | quit |

## Commands

- **ssh**: interactive shell. Type a line and press enter to send it; esc disconnects.
- **ping**, **traceroute**: live output; esc stops the command.
- **probe-all**: pings every row matching the search at once and reports the results.
- **detail**: every column of the selected row.
- **exit**: quit.
`

// renderHelp renders the help text for the given width. Rendering errors fall
// back to the raw markdown.
func renderHelp(width int, theme Theme) string {
	style := "dark"
	switch {
	case !theme.Enabled:
		style = "notty"
	case theme.Name == "light":
		style = "light"
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.TrimRight(out, "\n")
}
