package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

type Bar struct {
	*progressbar.ProgressBar
}

// NewBar draws on stderr so a document piped to stdout is not interleaved
// with the bar.
func NewBar(max int64, description string) *Bar {
	return NewBarWithOutput(os.Stderr, max, description)
}

func NewBarWithOutput(out io.Writer, max int64, description string) *Bar {
	bar := progressbar.NewOptions64(max,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
	)

	return &Bar{ProgressBar: bar}
}

func (b *Bar) Increment() {
	b.Add(1)
}

// Describe shows the item being processed next to the bar.
func (b *Bar) Describe(item string) {
	b.ProgressBar.Describe(item)
}

func (b *Bar) Finish() {
	if b.ProgressBar == nil {
		return
	}
	b.ProgressBar.Finish()
}

// Spinner marks a wait of unknown length, such as a schema query.
type Spinner struct {
	*spinner.Spinner
}

func NewSpinner(suffix string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + suffix
	return &Spinner{Spinner: s}
}

// Run shows the spinner while fn executes.
func (s *Spinner) Run(fn func() error) error {
	s.Start()
	defer s.Stop()
	return fn()
}
