package domain

// Config mirrors ~/.shex/config.yaml. Read once at startup and treated as an
// immutable input record for the rest of the run.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Models              []ModelDefinition `yaml:"models"`
	Security            SecuritySettings  `yaml:"security"`
	Execution           ExecutionSettings `yaml:"execution"`
}

// ConfirmPolicy selects how the confirmation gate behaves when a candidate
// needs approval.
type ConfirmPolicy string

const (
	// ConfirmInteractive prompts on the terminal and blocks for an answer.
	ConfirmInteractive ConfirmPolicy = "interactive"
	// ConfirmAlwaysApprove approves every candidate without prompting.
	ConfirmAlwaysApprove ConfirmPolicy = "always-approve"
	// ConfirmAlwaysDeny declines every candidate without prompting.
	ConfirmAlwaysDeny ConfirmPolicy = "always-deny"
)

// Preferences captures user-level toggles.
type Preferences struct {
	DefaultModel  string        `yaml:"default_model"`
	MaxRetries    int           `yaml:"max_retries"`
	Language      string        `yaml:"language"`
	ConfirmPolicy ConfirmPolicy `yaml:"confirm_policy"`
}

// SecuritySettings defines risk-classifier behavior.
type SecuritySettings struct {
	Enabled   bool   `yaml:"enabled"`
	RulesFile string `yaml:"rules_file"`
}

// ExecutionSettings controls how commands run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
}
