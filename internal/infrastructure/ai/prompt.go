package ai

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

type promptMessage struct {
	Role    string
	Content string
}

const systemPromptFormat = `You are shex, a cautious shell assistant.
Turn the user's request into exactly ONE shell command.
Reply in this format and nothing else:
command: <the shell command>
rationale: <one short sentence explaining what it does>
If the request already includes output from a failed attempt, propose a
corrected command instead of repeating the same one.
Current environment:
%s`

// buildMessages produces the system and user messages for one proposal.
// The system message carries the host context so commands fit the machine
// they will run on; the user message is the request plus any failure context
// already folded in by the orchestrator.
func buildMessages(prompt string, language string) []promptMessage {
	system := fmt.Sprintf(systemPromptFormat, systemInfo())
	if language != "" && !strings.EqualFold(language, "en") {
		system += fmt.Sprintf("\nWrite the rationale in %s.", language)
	}
	return []promptMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: strings.TrimSpace(prompt)},
	}
}

func systemInfo() string {
	cwd, _ := os.Getwd()
	lines := []string{
		fmt.Sprintf("- os: %s", runtime.GOOS),
		fmt.Sprintf("- arch: %s", runtime.GOARCH),
		fmt.Sprintf("- cwd: %s", cwd),
	}
	if user := firstEnv("USER", "USERNAME"); user != "" {
		lines = append(lines, fmt.Sprintf("- user: %s", user))
	}
	if shell := firstEnv("SHELL", "COMSPEC"); shell != "" {
		lines = append(lines, fmt.Sprintf("- shell: %s", shell))
	}
	return strings.Join(lines, "\n")
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
