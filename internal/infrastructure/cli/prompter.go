package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/ports"
)

// Prompter implements the confirmation gate on stdin/stdout. It surfaces the
// candidate and its risk before blocking for an answer. When stdin is not a
// terminal it refuses rather than guessing: unattended runs must inject an
// explicit policy instead.
type Prompter struct {
	in            *bufio.Reader
	out           io.Writer
	interactiveIn bool
}

// NewPrompter constructs a prompter referencing stdio.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	interactive := false
	if in == nil {
		in = os.Stdin
		interactive = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	} else {
		interactive = true
	}
	if out == nil {
		out = os.Stdout
	}
	return &Prompter{
		in:            bufio.NewReader(in),
		out:           out,
		interactiveIn: interactive,
	}
}

// Confirm implements ports.ConfirmationPrompter.
func (p *Prompter) Confirm(candidate domain.Candidate, risk domain.RiskAssessment) (bool, error) {
	if !p.interactiveIn {
		return false, errors.New("no terminal attached: pass --assume-yes or --assume-no")
	}

	fmt.Fprintf(p.out, "\n%s risk detected\n", strings.ToUpper(string(risk.Tier)))
	for _, reason := range risk.Reasons {
		fmt.Fprintf(p.out, " - %s\n", reason)
	}
	fmt.Fprintf(p.out, "Command:\n  %s\n", candidate.Command)
	if candidate.Rationale != "" {
		fmt.Fprintf(p.out, "Rationale:\n  %s\n", candidate.Rationale)
	}

	if risk.Tier == domain.RiskDangerous {
		return p.askExplicit()
	}
	return p.ask("[y/N]: ")
}

func (p *Prompter) ask(prompt string) (bool, error) {
	fmt.Fprint(p.out, "Continue? ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes", nil
}

func (p *Prompter) askExplicit() (bool, error) {
	fmt.Fprint(p.out, "Type 'yes' to confirm (or anything else to cancel): ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

// PolicyPrompter answers every confirmation the same way without prompting.
// It backs --assume-yes / --assume-no and the configured confirm_policy.
type PolicyPrompter struct {
	Approve bool
	Out     io.Writer
}

// Confirm implements ports.ConfirmationPrompter.
func (p PolicyPrompter) Confirm(candidate domain.Candidate, risk domain.RiskAssessment) (bool, error) {
	if p.Out != nil {
		verdict := "declined"
		if p.Approve {
			verdict = "approved"
		}
		fmt.Fprintf(p.Out, "%s risk, %s by policy: %s\n", risk.Tier, verdict, candidate.Command)
	}
	return p.Approve, nil
}

var (
	_ ports.ConfirmationPrompter = (*Prompter)(nil)
	_ ports.ConfirmationPrompter = PolicyPrompter{}
)
