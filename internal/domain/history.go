package domain

import "time"

// AttemptRecord is the audit row emitted to the history sink after each
// attempt completes, regardless of outcome. Recording is fire-and-forget;
// sink failures never interrupt the loop.
type AttemptRecord struct {
	RunID      string      `json:"run_id"`
	Seq        int         `json:"seq"`
	Timestamp  time.Time   `json:"timestamp"`
	Request    string      `json:"request"`
	Prompt     string      `json:"prompt"`
	Command    string      `json:"command"`
	Rationale  string      `json:"rationale"`
	Tier       RiskTier    `json:"tier"`
	Outcome    OutcomeKind `json:"outcome"`
	ExitCode   int         `json:"exit_code"`
	Detail     string      `json:"detail"`
	DurationMS int64       `json:"duration_ms"`
}
