package ai

import (
	"strings"

	"github.com/YUHAI0/shex/internal/domain"
)

// ParseCandidate extracts a command and optional rationale from raw model
// output. Models are instructed to answer with "command:"/"rationale:"
// lines, but replies wrapped in code fences or free text still parse.
func ParseCandidate(content string) domain.Candidate {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Candidate{}
	}

	candidate := parseLabeledLines(content)
	if candidate.Valid() {
		return candidate
	}

	if code := extractCodeBlock(content); code != "" {
		return domain.Candidate{Command: code, Rationale: candidate.Rationale}
	}

	// Last resort: first non-empty line is the command.
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return domain.Candidate{Command: line}
		}
	}
	return domain.Candidate{}
}

func parseLabeledLines(content string) domain.Candidate {
	var candidate domain.Candidate
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "command:") && candidate.Command == "":
			candidate.Command = strings.TrimSpace(line[len("command:"):])
		case strings.HasPrefix(lower, "rationale:") && candidate.Rationale == "":
			candidate.Rationale = strings.TrimSpace(line[len("rationale:"):])
		}
	}
	// A fenced command sometimes follows the "command:" label on its own line.
	if candidate.Command != "" {
		candidate.Command = strings.Trim(candidate.Command, "`")
	}
	return candidate
}

func extractCodeBlock(content string) string {
	if !strings.Contains(content, "```") {
		return ""
	}

	start := strings.Index(content, "```")
	suffix := content[start+3:]
	end := strings.Index(suffix, "```")
	if end == -1 {
		return ""
	}

	block := suffix[:end]
	lines := strings.Split(block, "\n")
	if len(lines) > 0 && isFenceLanguage(lines[0]) {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isFenceLanguage(line string) bool {
	line = strings.TrimSpace(strings.ToLower(line))
	switch line {
	case "sh", "shell", "bash", "zsh", "console":
		return true
	}
	return false
}
