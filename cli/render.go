package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/richinex/llao1/model"
	"github.com/richinex/llao1/reasoning"
)

// maxToolResultLen bounds the tool result shown under a step.
const maxToolResultLen = 200

// Printer renders reasoning progress as it arrives. Each step is printed
// once; a Done progress adds the total thinking time.
type Printer struct {
	out     io.Writer
	printed int
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Update prints the records p holds that were not printed yet.
func (p *Printer) Update(progress reasoning.Progress) {
	for _, step := range progress.Steps[min(p.printed, len(progress.Steps)):] {
		p.printStep(step)
	}
	p.printed = max(p.printed, len(progress.Steps))

	if progress.Done {
		fmt.Fprintf(p.out, "Total thinking time: %s\n", seconds(progress.Elapsed))
	}
}

func (p *Printer) printStep(step model.StepRecord) {
	if step.IsFinal() {
		fmt.Fprintf(p.out, "=== %s ===\n%s\n", step.Label, step.Content)
		fmt.Fprintf(p.out, "(thinking time: %s)\n\n", seconds(step.Elapsed))
		return
	}

	fmt.Fprintf(p.out, "## %s\n", step.Label)
	fmt.Fprintln(p.out, indent(step.Content))
	if step.Tool != nil {
		fmt.Fprintf(p.out, "  Tool Used: %s\n", *step.Tool)
		if step.ToolInput != nil {
			fmt.Fprintf(p.out, "  Tool Input: `%s`\n", *step.ToolInput)
		}
		if step.ToolResult != nil {
			fmt.Fprintf(p.out, "  Tool Result: %s\n", truncateString(*step.ToolResult, maxToolResultLen))
		}
	}
	fmt.Fprintf(p.out, "  (thinking time: %s)\n\n", seconds(step.Elapsed))
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2f seconds", d.Seconds())
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
