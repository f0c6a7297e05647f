package ai

import (
	"testing"

	"github.com/YUHAI0/shex/internal/domain"
)

func TestParseCandidateLabeledLines(t *testing.T) {
	content := "command: ls -la\nrationale: lists all files with details"
	got := ParseCandidate(content)
	want := domain.Candidate{Command: "ls -la", Rationale: "lists all files with details"}
	if got != want {
		t.Errorf("ParseCandidate() = %+v, want %+v", got, want)
	}
}

func TestParseCandidateCodeBlock(t *testing.T) {
	content := "Here you go:\n```sh\nfind . -name \"*.py\"\n```"
	got := ParseCandidate(content)
	if got.Command != `find . -name "*.py"` {
		t.Errorf("Command = %q", got.Command)
	}
}

func TestParseCandidateBareCommand(t *testing.T) {
	got := ParseCandidate("\n  df -h  \n")
	if got.Command != "df -h" {
		t.Errorf("Command = %q", got.Command)
	}
}

func TestParseCandidateBacktickedCommand(t *testing.T) {
	got := ParseCandidate("command: `uptime`")
	if got.Command != "uptime" {
		t.Errorf("Command = %q", got.Command)
	}
}

func TestParseCandidateEmpty(t *testing.T) {
	if got := ParseCandidate("   \n  "); got.Valid() {
		t.Errorf("expected invalid candidate, got %+v", got)
	}
}

func TestParseCandidateCaseInsensitiveLabels(t *testing.T) {
	got := ParseCandidate("Command: whoami\nRationale: prints the current user")
	if got.Command != "whoami" || got.Rationale == "" {
		t.Errorf("ParseCandidate() = %+v", got)
	}
}
