package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/YUHAI0/shex/internal/domain"
)

// RenderResult prints the terminal loop result in a friendly, ASCII-only
// format.
func RenderResult(w io.Writer, result domain.LoopResult) {
	switch result.Kind {
	case domain.LoopCompleted:
		renderCompleted(w, result)
	case domain.LoopRetriesExhausted:
		fmt.Fprintf(w, "Giving up after %d attempt(s):\n", len(result.Attempts))
		for _, attempt := range result.Attempts {
			fmt.Fprintf(w, " %d. %s\n", attempt.Seq, attemptSummary(attempt))
		}
	case domain.LoopAborted:
		fmt.Fprintf(w, "Aborted: %s\n", result.Reason)
	}
}

func renderCompleted(w io.Writer, result domain.LoopResult) {
	if len(result.Attempts) == 0 {
		return
	}
	last := result.Attempts[len(result.Attempts)-1]
	switch result.Final.Kind {
	case domain.OutcomeSuccess:
		fmt.Fprintf(w, "$ %s\n", last.Candidate.Command)
		if out := strings.TrimRight(result.Final.Stdout, "\n"); out != "" {
			fmt.Fprintln(w, out)
		}
	case domain.OutcomeDeclined:
		fmt.Fprintf(w, "Declined: %s\n", last.Candidate.Command)
	}
}

func attemptSummary(attempt domain.Attempt) string {
	switch attempt.Outcome.Kind {
	case domain.OutcomeProviderError:
		return fmt.Sprintf("provider error: %s", attempt.Outcome.Reason)
	case domain.OutcomeFailure:
		if attempt.Outcome.TimedOut {
			return fmt.Sprintf("%s (timed out)", attempt.Candidate.Command)
		}
		detail := strings.TrimSpace(attempt.Outcome.Stderr)
		if idx := strings.IndexByte(detail, '\n'); idx >= 0 {
			detail = detail[:idx]
		}
		if detail != "" {
			return fmt.Sprintf("%s (exit %d: %s)", attempt.Candidate.Command, attempt.Outcome.ExitCode, detail)
		}
		return fmt.Sprintf("%s (exit %d)", attempt.Candidate.Command, attempt.Outcome.ExitCode)
	default:
		return attempt.Candidate.Command
	}
}
