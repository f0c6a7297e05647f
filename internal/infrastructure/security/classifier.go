// Package security implements the risk classifier behind ports.RiskClassifier.
package security

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YUHAI0/shex/assets"
	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// Classifier assigns risk tiers by matching a command against a rule table.
// The table is data, not code: it is loaded from YAML so it can be swapped
// in tests and extended without touching control flow. Classification is
// deterministic and keeps the highest tier among matched rules.
type Classifier struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule RiskRule
}

// RiskRule describes one regex-based classification rule.
type RiskRule struct {
	Pattern string `yaml:"pattern"`
	Tier    string `yaml:"tier"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		Patterns []RiskRule `yaml:"patterns"`
	} `yaml:"rules"`
}

// NewClassifier loads rules from disk, falling back to the embedded default
// table when the file is missing or empty.
func NewClassifier(path string) (*Classifier, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return FromRules(rules.Rules.Patterns)
}

// FromRules compiles an explicit rule set. Used directly by tests.
func FromRules(rules []RiskRule) (*Classifier, error) {
	compiled := make([]compiledPattern, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}
	return &Classifier{patterns: compiled}, nil
}

// Classify implements ports.RiskClassifier.
func (c *Classifier) Classify(command string) (domain.RiskAssessment, error) {
	if c == nil {
		return domain.RiskAssessment{}, errors.New("classifier nil")
	}
	assessment := domain.RiskAssessment{Tier: domain.RiskSafe}
	for _, pattern := range c.patterns {
		if !pattern.re.MatchString(command) {
			continue
		}
		tier := parseTier(pattern.rule.Tier)
		if tier.MoreSevere(assessment.Tier) {
			assessment.Tier = tier
		}
		assessment.Reasons = append(assessment.Reasons, pattern.rule.Message)
		assessment.MatchedRules = append(assessment.MatchedRules, pattern.rule.Pattern)
	}
	return assessment, nil
}

// Rules returns the active rule table for display.
func (c *Classifier) Rules() []RiskRule {
	rules := make([]RiskRule, 0, len(c.patterns))
	for _, pattern := range c.patterns {
		rules = append(rules, pattern.rule)
	}
	return rules
}

func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		data = assets.DefaultRulesYAML
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	if len(rules.Rules.Patterns) == 0 {
		if err := yaml.Unmarshal(assets.DefaultRulesYAML, &rules); err != nil {
			return RulesFile{}, err
		}
	}
	return rules, nil
}

// parseTier resolves unknown tier names to dangerous: a misconfigured rule
// fails toward more confirmation, never less.
func parseTier(value string) domain.RiskTier {
	switch strings.ToLower(value) {
	case "safe":
		return domain.RiskSafe
	case "caution":
		return domain.RiskCaution
	case "dangerous":
		return domain.RiskDangerous
	default:
		return domain.RiskDangerous
	}
}

func expandPath(path string) string {
	if path == "" {
		return filepath.Join(userHomeDir(), ".shex", "rules.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Join(userHomeDir(), path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.RiskClassifier = (*Classifier)(nil)
