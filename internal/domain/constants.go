package domain

import "time"

// File permission constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Retry and timeout defaults
const (
	// DefaultMaxRetries bounds how many times a failed attempt is retried.
	DefaultMaxRetries = 3
	// DefaultCommandTimeout bounds wall-clock time for one subprocess.
	DefaultCommandTimeout = 60 * time.Second
	// DefaultHTTPClientTimeout is the timeout for provider HTTP requests.
	DefaultHTTPClientTimeout = 60 * time.Second
)

// Output budgets. Captured subprocess output is bounded so failure context
// folded into the next prompt cannot grow without limit.
const (
	// MaxCapturedOutputBytes caps stdout and stderr captured per execution.
	MaxCapturedOutputBytes = 64 * 1024
	// MaxStdoutSummaryBytes caps stdout folded into a failure summary.
	MaxStdoutSummaryBytes = 2000
	// MaxStderrSummaryBytes caps stderr folded into a failure summary.
	MaxStderrSummaryBytes = 500
	// MaxFailureSummaries caps how many prior summaries a prompt retains.
	MaxFailureSummaries = 3
)

// Model defaults
const (
	// DefaultMaxTokens is the default maximum number of tokens.
	DefaultMaxTokens = 1024
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display.
	DefaultHistoryLimit = 20
)

// TimestampFormat is the standard timestamp format for persisted records.
const TimestampFormat = time.RFC3339
