package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/pkg/logger"
	"github.com/YUHAI0/shex/internal/ports"
)

func testConfig() domain.Config {
	return domain.Config{
		Preferences: domain.Preferences{DefaultModel: "stub", MaxRetries: 3},
		Models:      []domain.ModelDefinition{{Name: "stub", ModelID: "stub-1"}},
	}
}

func newTestOrchestrator(provider *scriptedProvider, classifier *stubClassifier, executor *stubExecutor, prompter *stubPrompter) (*Orchestrator, *captureSink) {
	sink := &captureSink{}
	return &Orchestrator{
		Config:          testConfig(),
		ProviderFactory: stubFactory{provider: provider},
		Classifier:      classifier,
		Executor:        executor,
		Prompter:        prompter,
		Sink:            sink,
		Logger:          logger.NewStd(false),
		NewRunID:        func() string { return "run-1" },
	}, sink
}

func TestRunSafeCommandSucceedsFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "ls -la", Rationale: "list files"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{
		{Stdout: "total 0\n", ExitCode: 0},
	}}
	prompter := &stubPrompter{approve: true}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, prompter)

	result, err := orch.Run(domain.LoopRequest{Text: "list files", MaxRetries: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopCompleted || result.Final.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected Completed(Success), got %s/%s", result.Kind, result.Final.Kind)
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	if prompter.calls != 0 {
		t.Errorf("safe candidate must never hit the confirmation gate, got %d calls", prompter.calls)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(result.Attempts))
	}
}

func TestRunDangerousDeclinedEndsLoop(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "rm -rf logs/*"}},
	}}
	executor := &stubExecutor{}
	prompter := &stubPrompter{approve: false}
	classifier := &stubClassifier{tiers: map[string]domain.RiskTier{"rm -rf logs/*": domain.RiskDangerous}}
	orch, _ := newTestOrchestrator(provider, classifier, executor, prompter)

	result, err := orch.Run(domain.LoopRequest{Text: "delete everything in logs", MaxRetries: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopCompleted || result.Final.Kind != domain.OutcomeDeclined {
		t.Fatalf("expected Completed(Declined), got %s/%s", result.Kind, result.Final.Kind)
	}
	if executor.calls != 0 {
		t.Error("declined candidate must never execute")
	}
	if provider.calls != 1 {
		t.Errorf("decline is terminal: provider calls = %d, want 1", provider.calls)
	}
}

func TestRunFeedsFailureContextForward(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "find . -name *.py"}},
		{candidate: domain.Candidate{Command: `find . -name "*.py"`}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{
		{ExitCode: 127, Stderr: "command not found"},
		{ExitCode: 0, Stdout: "./main.py\n"},
	}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "find python files", MaxRetries: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopCompleted || result.Final.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected Completed(Success), got %s/%s", result.Kind, result.Final.Kind)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
	second := provider.prompts[1]
	if !strings.Contains(second, "exit code 127") {
		t.Errorf("second prompt missing exit code summary: %q", second)
	}
	if !strings.Contains(second, "command not found") {
		t.Errorf("second prompt missing stderr summary: %q", second)
	}
	if strings.Contains(provider.prompts[0], "exit code") {
		t.Errorf("first prompt must carry no failure context: %q", provider.prompts[0])
	}
}

func TestRunZeroRetriesExhaustsAfterOneAttempt(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "false"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{{ExitCode: 1}}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "fail once", MaxRetries: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopRetriesExhausted {
		t.Fatalf("expected RetriesExhausted, got %s", result.Kind)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(result.Attempts))
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
}

func TestRunProviderCallBudget(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "false"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{{ExitCode: 1}}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "always fails", MaxRetries: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopRetriesExhausted {
		t.Fatalf("expected RetriesExhausted, got %s", result.Kind)
	}
	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want max_retries+1 = 4", provider.calls)
	}
	if len(result.Attempts) != 4 {
		t.Errorf("attempts = %d, want 4", len(result.Attempts))
	}
}

func TestRunRecoverableProviderErrorRetried(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{err: &domain.ProviderError{Provider: "stub", Reason: "empty response"}},
		{candidate: domain.Candidate{Command: "uptime"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{{ExitCode: 0}}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "how long has this machine been up", MaxRetries: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopCompleted || result.Final.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected Completed(Success), got %s/%s", result.Kind, result.Final.Kind)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}
	if !strings.Contains(provider.prompts[1], "provider error") {
		t.Errorf("second prompt missing provider error summary: %q", provider.prompts[1])
	}
}

func TestRunFatalProviderErrorAborts(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{err: &domain.ProviderError{Provider: "stub", Reason: "missing API key", Fatal: true}},
	}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, &stubExecutor{}, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "anything", MaxRetries: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopAborted {
		t.Fatalf("expected Aborted, got %s", result.Kind)
	}
	if provider.calls != 1 {
		t.Errorf("fatal errors are never retried: provider calls = %d, want 1", provider.calls)
	}
}

func TestRunCautionApprovedExecutes(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "mv a b"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{{ExitCode: 0}}}
	prompter := &stubPrompter{approve: true}
	classifier := &stubClassifier{tiers: map[string]domain.RiskTier{"mv a b": domain.RiskCaution}}
	orch, _ := newTestOrchestrator(provider, classifier, executor, prompter)

	result, err := orch.Run(domain.LoopRequest{Text: "rename a to b", MaxRetries: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if prompter.calls != 1 {
		t.Errorf("confirmation calls = %d, want 1", prompter.calls)
	}
	if executor.calls != 1 {
		t.Errorf("executor calls = %d, want 1", executor.calls)
	}
	if result.Final.Kind != domain.OutcomeSuccess {
		t.Errorf("expected success, got %s", result.Final.Kind)
	}
}

func TestRunConfirmErrorDeclinesFailSafe(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "mv a b"}},
	}}
	executor := &stubExecutor{}
	prompter := &stubPrompter{err: errors.New("no terminal attached")}
	classifier := &stubClassifier{tiers: map[string]domain.RiskTier{"mv a b": domain.RiskCaution}}
	orch, _ := newTestOrchestrator(provider, classifier, executor, prompter)

	result, err := orch.Run(domain.LoopRequest{Text: "rename a to b", MaxRetries: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Final.Kind != domain.OutcomeDeclined {
		t.Fatalf("gate failure must decline, got %s", result.Final.Kind)
	}
	if executor.calls != 0 {
		t.Error("command executed despite failed confirmation")
	}
}

func TestRunTimeoutRetriedWithContext(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "sleep 100"}},
		{candidate: domain.Candidate{Command: "true"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{
		{TimedOut: true, ExitCode: -1},
		{ExitCode: 0},
	}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "wait", MaxRetries: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Final.Kind != domain.OutcomeSuccess {
		t.Fatalf("expected success on retry, got %s", result.Final.Kind)
	}
	if result.Attempts[0].Outcome.Reason != "timed out" {
		t.Errorf("first attempt reason = %q, want %q", result.Attempts[0].Outcome.Reason, "timed out")
	}
	if !strings.Contains(provider.prompts[1], "timed out") {
		t.Errorf("second prompt missing timeout summary: %q", provider.prompts[1])
	}
}

func TestRunCanceledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "ls"}},
	}}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, &stubExecutor{}, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Context: ctx, Text: "list files", MaxRetries: 3})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopAborted {
		t.Fatalf("expected Aborted, got %s", result.Kind)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

func TestRunEmptyRequestRejected(t *testing.T) {
	orch, _ := newTestOrchestrator(&scriptedProvider{}, &stubClassifier{}, &stubExecutor{}, &stubPrompter{})
	if _, err := orch.Run(domain.LoopRequest{Text: "  "}); !errors.Is(err, domain.ErrEmptyRequest) {
		t.Fatalf("expected ErrEmptyRequest, got %v", err)
	}
}

func TestRunUnknownModelAborts(t *testing.T) {
	orch, _ := newTestOrchestrator(&scriptedProvider{}, &stubClassifier{}, &stubExecutor{}, &stubPrompter{})
	result, err := orch.Run(domain.LoopRequest{Text: "anything", ModelOverride: "missing", MaxRetries: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopAborted {
		t.Fatalf("expected Aborted for unknown model, got %s", result.Kind)
	}
}

func TestRunRecordsEveryAttempt(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "false"}},
		{candidate: domain.Candidate{Command: "true", Rationale: "succeeds"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{
		{ExitCode: 1, Stderr: "boom"},
		{ExitCode: 0},
	}}
	orch, sink := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	if _, err := orch.Run(domain.LoopRequest{Text: "run it", MaxRetries: 1}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sink.records) != 2 {
		t.Fatalf("recorded %d attempts, want 2", len(sink.records))
	}
	got := []struct {
		RunID   string
		Seq     int
		Command string
		Outcome domain.OutcomeKind
	}{}
	for _, rec := range sink.records {
		got = append(got, struct {
			RunID   string
			Seq     int
			Command string
			Outcome domain.OutcomeKind
		}{rec.RunID, rec.Seq, rec.Command, rec.Outcome})
	}
	want := []struct {
		RunID   string
		Seq     int
		Command string
		Outcome domain.OutcomeKind
	}{
		{"run-1", 1, "false", domain.OutcomeFailure},
		{"run-1", 2, "true", domain.OutcomeSuccess},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recorded attempts mismatch (-want +got):\n%s", diff)
	}
}

func TestRunExecutorErrorIsFailureNotSuccess(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "ls"}},
	}}
	executor := &stubExecutor{err: errors.New("executor broke")}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "list files", MaxRetries: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind == domain.LoopCompleted && result.Final.Kind == domain.OutcomeSuccess {
		t.Fatal("executor error must never read as success")
	}
	if result.Kind != domain.LoopRetriesExhausted {
		t.Fatalf("expected RetriesExhausted, got %s", result.Kind)
	}
	if got := result.Attempts[0].Outcome.Kind; got != domain.OutcomeFailure {
		t.Errorf("attempt outcome = %s, want failure", got)
	}
}

func TestRunExecutorErrorFedIntoNextPrompt(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "ls"}},
		{candidate: domain.Candidate{Command: "ls"}},
	}}
	executor := &stubExecutor{err: errors.New("executor broke")}
	orch, _ := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})

	result, err := orch.Run(domain.LoopRequest{Text: "list files", MaxRetries: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Kind != domain.LoopRetriesExhausted {
		t.Fatalf("expected RetriesExhausted, got %s", result.Kind)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
	if !strings.Contains(provider.prompts[1], "executor broke") {
		t.Errorf("second prompt missing executor error summary: %q", provider.prompts[1])
	}
}

func TestRunSinkFailureDoesNotBreakLoop(t *testing.T) {
	provider := &scriptedProvider{script: []proposeResult{
		{candidate: domain.Candidate{Command: "ls"}},
	}}
	executor := &stubExecutor{script: []domain.ExecutionResult{{ExitCode: 0}}}
	orch, sink := newTestOrchestrator(provider, &stubClassifier{}, executor, &stubPrompter{})
	sink.err = errors.New("disk full")

	result, err := orch.Run(domain.LoopRequest{Text: "list files", MaxRetries: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Final.Kind != domain.OutcomeSuccess {
		t.Fatalf("sink failure leaked into the loop: %s", result.Final.Kind)
	}
}

// --- stubs ---

type proposeResult struct {
	candidate domain.Candidate
	err       error
}

type scriptedProvider struct {
	calls   int
	prompts []string
	script  []proposeResult
}

func (p *scriptedProvider) Name() string                  { return "stub" }
func (p *scriptedProvider) Model() domain.ModelDefinition { return domain.ModelDefinition{} }

func (p *scriptedProvider) Propose(_ context.Context, req ports.ProposeRequest) (domain.Candidate, error) {
	p.prompts = append(p.prompts, req.Prompt)
	idx := p.calls
	p.calls++
	if len(p.script) == 0 {
		return domain.Candidate{Command: "true"}, nil
	}
	if idx >= len(p.script) {
		idx = len(p.script) - 1
	}
	return p.script[idx].candidate, p.script[idx].err
}

type stubFactory struct {
	provider ports.Provider
	err      error
}

func (f stubFactory) ForModel(domain.ModelDefinition) (ports.Provider, error) {
	return f.provider, f.err
}

type stubClassifier struct {
	tiers map[string]domain.RiskTier
}

func (c *stubClassifier) Classify(command string) (domain.RiskAssessment, error) {
	tier, ok := c.tiers[command]
	if !ok {
		tier = domain.RiskSafe
	}
	return domain.RiskAssessment{Tier: tier}, nil
}

type stubPrompter struct {
	approve bool
	err     error
	calls   int
}

func (p *stubPrompter) Confirm(domain.Candidate, domain.RiskAssessment) (bool, error) {
	p.calls++
	return p.approve, p.err
}

type stubExecutor struct {
	script   []domain.ExecutionResult
	err      error
	commands []string
	calls    int
}

func (e *stubExecutor) Execute(_ context.Context, command string) (domain.ExecutionResult, error) {
	e.commands = append(e.commands, command)
	idx := e.calls
	e.calls++
	if e.err != nil {
		return domain.ExecutionResult{}, e.err
	}
	if len(e.script) == 0 {
		return domain.ExecutionResult{ExitCode: 0}, nil
	}
	if idx >= len(e.script) {
		idx = len(e.script) - 1
	}
	return e.script[idx], nil
}

type captureSink struct {
	records []domain.AttemptRecord
	err     error
}

func (s *captureSink) Record(record domain.AttemptRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}
