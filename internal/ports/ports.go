// Package ports defines the interfaces between the orchestration core and
// external adapters (infrastructure). Following the Ports and Adapters
// pattern, these interfaces keep the loop independent of specific
// implementations like HTTP clients, SQLite, or the CLI framework.
package ports

import (
	"context"

	"github.com/YUHAI0/shex/internal/domain"
)

// ConfigProvider loads the configuration from persistent storage.
// Implementations typically read from ~/.shex/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// ProviderFactory builds provider instances based on model definitions.
// It abstracts the creation of different provider kinds (Anthropic, OpenAI,
// Ollama) behind one contract.
type ProviderFactory interface {
	ForModel(domain.ModelDefinition) (Provider, error)
}

// Provider turns a prompt into a single proposed command. Implementations
// wrap a specific AI service API; malformed responses are rejected as
// *domain.ProviderError, never passed through.
type Provider interface {
	Name() string
	Model() domain.ModelDefinition
	Propose(context.Context, ProposeRequest) (domain.Candidate, error)
}

// ProposeRequest contains everything a provider needs to generate a command.
type ProposeRequest struct {
	Prompt string
	Debug  bool
}

// RiskClassifier assigns a risk tier to a proposed command. Deterministic
// and side-effect free: classifying the same command twice yields the same
// assessment.
type RiskClassifier interface {
	Classify(command string) (domain.RiskAssessment, error)
}

// CommandExecutor runs a command in a subprocess and reports the bounded
// captured output. It must reap the subprocess on every exit path.
type CommandExecutor interface {
	Execute(ctx context.Context, command string) (domain.ExecutionResult, error)
}

// ConfirmationPrompter is the confirmation gate for risky candidates. It
// blocks the calling flow until a decision exists; non-interactive contexts
// must inject an explicit always-approve or always-deny policy.
type ConfirmationPrompter interface {
	Confirm(candidate domain.Candidate, risk domain.RiskAssessment) (bool, error)
}

// AttemptSink receives one record per attempt for audit. Fire-and-forget:
// callers log sink errors and move on, the loop never blocks or fails on it.
type AttemptSink interface {
	Record(domain.AttemptRecord) error
}

// HistoryReader lists persisted attempt records for the history command.
type HistoryReader interface {
	Records(limit int, search string) ([]domain.AttemptRecord, error)
	Clear() error
}

// Logger provides structured logging abstraction for the application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
