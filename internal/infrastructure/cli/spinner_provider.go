package cli

import (
	"context"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// SpinnerFactory decorates a provider factory so the spinner runs while the
// loop waits on network I/O. Wired only when stdout is a terminal.
type SpinnerFactory struct {
	Inner   ports.ProviderFactory
	Spinner *Spinner
}

// ForModel implements ports.ProviderFactory.
func (f *SpinnerFactory) ForModel(model domain.ModelDefinition) (ports.Provider, error) {
	provider, err := f.Inner.ForModel(model)
	if err != nil {
		return nil, err
	}
	return &spinnerProvider{inner: provider, spinner: f.Spinner}, nil
}

type spinnerProvider struct {
	inner   ports.Provider
	spinner *Spinner
}

func (p *spinnerProvider) Name() string                  { return p.inner.Name() }
func (p *spinnerProvider) Model() domain.ModelDefinition { return p.inner.Model() }

func (p *spinnerProvider) Propose(ctx context.Context, req ports.ProposeRequest) (domain.Candidate, error) {
	p.spinner.Start("Thinking...")
	defer p.spinner.Stop()
	return p.inner.Propose(ctx, req)
}

var _ ports.ProviderFactory = (*SpinnerFactory)(nil)
