package domain

import "context"

// LoopRequest captures user intent originating from the CLI.
type LoopRequest struct {
	Context       context.Context
	Text          string
	MaxRetries    int
	ModelOverride string
	Debug         bool
}

// LoopService exposes the use-case boundary for running one request.
type LoopService interface {
	Run(LoopRequest) (LoopResult, error)
}
