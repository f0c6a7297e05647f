package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/YUHAI0/shex/internal/domain"
)

// failureContext accumulates summaries of failed attempts for the next
// prompt. Growth is bounded two ways: each summary is capped to a byte
// budget and only the most recent entries are retained.
type failureContext struct {
	max     int
	entries []string
}

func newFailureContext(max int) *failureContext {
	if max <= 0 {
		max = domain.MaxFailureSummaries
	}
	return &failureContext{max: max}
}

func (f *failureContext) push(summary string) {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return
	}
	f.entries = append(f.entries, summary)
	if len(f.entries) > f.max {
		f.entries = f.entries[len(f.entries)-f.max:]
	}
}

func (f *failureContext) addExecutionFailure(result domain.ExecutionResult) {
	if result.TimedOut {
		f.push("command timed out before completing")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "exit code %d", result.ExitCode)
	if stderr := truncate(result.Stderr, domain.MaxStderrSummaryBytes); stderr != "" {
		fmt.Fprintf(&b, "\nstderr: %s", stderr)
	}
	if result.Stderr == "" {
		if stdout := truncate(result.Stdout, domain.MaxStdoutSummaryBytes); stdout != "" {
			fmt.Fprintf(&b, "\nstdout: %s", stdout)
		}
	}
	if result.Err != nil && result.ExitCode < 0 {
		fmt.Fprintf(&b, "\nerror: %s", truncate(result.Err.Error(), domain.MaxStderrSummaryBytes))
	}
	f.push(b.String())
}

func (f *failureContext) addProviderError(err error) {
	f.push("provider error: " + truncate(err.Error(), domain.MaxStderrSummaryBytes))
}

// compose builds the prompt for the next attempt: the original request plus
// the retained failure summaries, oldest first.
func (f *failureContext) compose(request string) string {
	request = strings.TrimSpace(request)
	if len(f.entries) == 0 {
		return request
	}
	var b strings.Builder
	b.WriteString(request)
	b.WriteString("\n\nPrevious attempts failed:")
	for i, entry := range f.entries {
		fmt.Fprintf(&b, "\n%d. %s", i+1, entry)
	}
	b.WriteString("\nPropose a corrected command.")
	return b.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	// Back up to a rune boundary so localized output never folds invalid
	// UTF-8 into the next prompt.
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
