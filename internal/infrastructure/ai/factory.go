// Package ai implements the provider client boundary: pluggable adapters
// that turn a prompt into a single proposed shell command.
package ai

import (
	"net/http"
	"strings"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// Factory builds providers for configured models. All HTTP-backed providers
// share one client.
type Factory struct {
	httpClient *http.Client
	language   string
}

// NewFactory constructs a provider factory. Language is folded into the
// system prompt so rationales come back in the user's preferred language.
func NewFactory(language string) *Factory {
	return &Factory{
		httpClient: &http.Client{Timeout: domain.DefaultHTTPClientTimeout},
		language:   language,
	}
}

// ForModel implements ports.ProviderFactory. An unsupported provider kind is
// a configuration problem and reported as a fatal provider error.
func (f *Factory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	kind := inferProviderKind(model.Endpoint, model.Name)

	switch kind {
	case domain.ProviderKindAnthropic:
		return newHTTPProvider("anthropic", model, f.httpClient, f.language, anthropicAdapter()), nil
	case domain.ProviderKindOpenAI:
		return newHTTPProvider("openai", model, f.httpClient, f.language, openaiAdapter()), nil
	case domain.ProviderKindOllama:
		return newHTTPProvider("ollama", model, f.httpClient, f.language, ollamaAdapter()), nil
	default:
		return nil, &domain.ProviderError{
			Provider: model.Name,
			Reason:   "unsupported provider endpoint " + model.Endpoint,
			Fatal:    true,
		}
	}
}

func inferProviderKind(endpoint string, name string) domain.ProviderKind {
	nameLower := strings.ToLower(name)

	switch {
	case strings.Contains(endpoint, "anthropic.com"), strings.Contains(nameLower, "claude"):
		return domain.ProviderKindAnthropic
	case strings.Contains(endpoint, "openai.com"), strings.Contains(nameLower, "gpt"):
		return domain.ProviderKindOpenAI
	case strings.Contains(nameLower, "ollama"), strings.Contains(endpoint, "11434"), strings.Contains(endpoint, "localhost"), strings.Contains(endpoint, "127.0.0.1"):
		return domain.ProviderKindOllama
	default:
		return domain.ProviderKindUnknown
	}
}

var _ ports.ProviderFactory = (*Factory)(nil)
