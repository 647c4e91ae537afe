package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress wraps a spinner that is a no-op in quiet mode.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress shows a spinner with message on w unless quiet is set.
func StartProgress(w io.Writer, quiet bool, message string) *Progress {
	if quiet {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Update replaces the spinner message.
func (p *Progress) Update(message string) {
	if p.s == nil {
		return
	}
	p.s.Lock()
	p.s.Suffix = " " + message
	p.s.Unlock()
}

// Fail stops the spinner leaving message in red.
func (p *Progress) Fail(message string) {
	if p.s == nil {
		return
	}
	p.s.FinalMSG = text.FgRed.Sprint(message) + "\n"
	p.s.Stop()
}

// Stop stops the spinner without a final message.
func (p *Progress) Stop() {
	if p.s == nil {
		return
	}
	p.s.Stop()
}
