package domain

// ExecutionResult wraps details from the command executor. Stdout and Stderr
// are always captured (bounded), regardless of outcome.
type ExecutionResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	DurationMS int64
	Err        error
}

// Success reports whether the command exited cleanly.
func (r ExecutionResult) Success() bool {
	return r.Err == nil && !r.TimedOut && r.ExitCode == 0
}
