// Package display handles terminal output: spinners, markdown
// rendering, and error reporting.
package display

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/glamour"
)

// Spinner wraps a terminal spinner shown while waiting for the first
// streamed token.
type Spinner struct {
	s *spinner.Spinner
}

func NewSpinner(message string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	return &Spinner{s: s}
}

func (sp *Spinner) Start() {
	sp.s.Start()
}

func (sp *Spinner) Stop() {
	sp.s.Stop()
}

func (sp *Spinner) UpdateMessage(message string) {
	sp.s.Suffix = " " + message
}

var renderer *glamour.TermRenderer

// InitRenderer prepares the markdown renderer. Safe to skip; output
// falls back to plain text.
func InitRenderer() error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	renderer = r
	return nil
}

// ShowContent prints text as-is.
func ShowContent(content string) {
	fmt.Println(content)
}

// ShowContentRendered prints text through the markdown renderer,
// falling back to plain output when rendering is unavailable.
func ShowContentRendered(content string) {
	if renderer == nil {
		ShowContent(content)
		return
	}
	out, err := renderer.Render(content)
	if err != nil {
		ShowContent(content)
		return
	}
	fmt.Print(out)
}

// ShowError prints an error message to stderr.
func ShowError(msg string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
}
