package domain

// OutcomeKind enumerates how a single attempt resolved.
type OutcomeKind string

const (
	OutcomeSuccess       OutcomeKind = "success"
	OutcomeFailure       OutcomeKind = "failure"
	OutcomeDeclined      OutcomeKind = "declined"
	OutcomeProviderError OutcomeKind = "provider_error"
)

// Outcome is the observed result of one attempt. Stdout/Stderr/ExitCode are
// populated for executed commands; Reason carries decline reasons, provider
// error summaries and the timeout marker.
type Outcome struct {
	Kind       OutcomeKind
	Stdout     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	Reason     string
	DurationMS int64
}

// Attempt is one iteration of the loop: the prompt that was sent, the
// candidate it produced, its risk assessment and the observed outcome.
// Attempts form an append-only sequence owned by the orchestrator.
type Attempt struct {
	Seq       int
	Prompt    string
	Candidate Candidate
	Risk      RiskAssessment
	Outcome   Outcome
}

// LoopResultKind enumerates terminal states of a whole run.
type LoopResultKind string

const (
	LoopCompleted        LoopResultKind = "completed"
	LoopRetriesExhausted LoopResultKind = "retries_exhausted"
	LoopAborted          LoopResultKind = "aborted"
)

// LoopResult is the single terminal value produced per request.
type LoopResult struct {
	Kind     LoopResultKind
	Final    Outcome // meaningful when Kind == LoopCompleted
	Attempts []Attempt
	Reason   string // meaningful when Kind == LoopAborted
}

// Exit code contract for the CLI surface.
const (
	ExitSuccess          = 0
	ExitInternalError    = 1
	ExitDeclined         = 2
	ExitRetriesExhausted = 3
	ExitAborted          = 4
)

// ExitCode maps the result onto the process exit code contract.
func (r LoopResult) ExitCode() int {
	switch r.Kind {
	case LoopCompleted:
		if r.Final.Kind == OutcomeSuccess {
			return ExitSuccess
		}
		if r.Final.Kind == OutcomeDeclined {
			return ExitDeclined
		}
		return ExitInternalError
	case LoopRetriesExhausted:
		return ExitRetriesExhausted
	case LoopAborted:
		return ExitAborted
	default:
		return ExitInternalError
	}
}
