package ai

import (
	"strings"
	"testing"
)

func TestBuildMessagesShape(t *testing.T) {
	messages := buildMessages("list files", "")
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	if messages[0].Role != "system" || messages[1].Role != "user" {
		t.Errorf("roles = %s/%s", messages[0].Role, messages[1].Role)
	}
	if messages[1].Content != "list files" {
		t.Errorf("user content = %q", messages[1].Content)
	}
	if !strings.Contains(messages[0].Content, "exactly ONE shell command") {
		t.Errorf("system prompt missing instruction: %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, "- os: ") {
		t.Errorf("system prompt missing host context: %q", messages[0].Content)
	}
}

func TestBuildMessagesLanguageHint(t *testing.T) {
	messages := buildMessages("list files", "zh-TW")
	if !strings.Contains(messages[0].Content, "zh-TW") {
		t.Errorf("language hint missing: %q", messages[0].Content)
	}
	// English needs no hint.
	messages = buildMessages("list files", "en")
	if strings.Contains(messages[0].Content, "Write the rationale") {
		t.Errorf("unexpected language hint for en")
	}
}
