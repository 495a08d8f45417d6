package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Display writes the conversation to the terminal
type Display struct {
	out      io.Writer
	color    bool
	width    int
	renderer *glamour.TermRenderer
}

// NewDisplay creates a display writing to out. Colors are used only when out
// is a terminal; renderMarkdown additionally pretty-prints final answers.
func NewDisplay(out io.Writer, renderMarkdown bool) *Display {
	d := &Display{out: out, width: 80}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		d.color = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			d.width = w
		}
	}

	if renderMarkdown && d.color {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(min(d.width, 120)-4),
		)
		if err == nil {
			d.renderer = renderer
		}
	}
	return d
}

// Width returns the terminal width, 80 when unknown
func (d *Display) Width() int {
	return d.width
}

func (d *Display) paint(color, s string) string {
	if !d.color {
		return s
	}
	return color + s + colorReset
}

// PrintWelcome displays the welcome message
func (d *Display) PrintWelcome(modelName, searchProvider string) {
	fmt.Fprintln(d.out, d.paint(colorBold+colorCyan, "gpt-4-search"))
	fmt.Fprintln(d.out, d.paint(colorGray, fmt.Sprintf("Model: %s · Search: %s", modelName, searchProvider)))
	fmt.Fprintln(d.out, d.paint(colorGray, "Type your questions or '/exit' to quit"))
	fmt.Fprintln(d.out)
}

// PrintPrompt displays the user input prompt
func (d *Display) PrintPrompt() {
	fmt.Fprint(d.out, d.paint(colorGreen, "> "))
}

// WriteToken writes a streamed fragment of the model's reply
func (d *Display) WriteToken(token string) {
	fmt.Fprint(d.out, token)
}

// EndResponse terminates a streamed reply
func (d *Display) EndResponse() {
	fmt.Fprintln(d.out)
}

// PrintAnswer pretty-prints the final answer when markdown rendering is on.
// The raw text has already been streamed, so nothing is written otherwise.
func (d *Display) PrintAnswer(answer string) {
	if d.renderer == nil || strings.TrimSpace(answer) == "" {
		return
	}
	rendered, err := d.renderer.Render(answer)
	if err != nil {
		return
	}
	fmt.Fprintln(d.out, d.paint(colorGray, strings.Repeat("─", min(d.width, 80))))
	fmt.Fprint(d.out, rendered)
}

// PrintReferences prints the citation list of an answer
func (d *Display) PrintReferences(refs string) {
	fmt.Fprintln(d.out, d.paint(colorGray, refs))
}

// PrintError displays an error message
func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.out, d.paint(colorRed, fmt.Sprintf("Error: %v", err)))
}

// PrintWarning displays a warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Fprintln(d.out, d.paint(colorYellow, "⚠ "+msg))
}

// PrintInfo displays an info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.out, d.paint(colorCyan, "ℹ "+msg))
}

// PrintGoodbye displays the goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Fprintln(d.out, d.paint(colorCyan, "\nGoodbye!"))
}
