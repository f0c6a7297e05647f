package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/YUHAI0/shex/internal/app"
	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/infrastructure/executor"
	"github.com/YUHAI0/shex/internal/ports"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command. The free-text arguments are the
// request; the final loop result is stashed on the container so main can map
// it onto the exit-code contract.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, *app.Container, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, nil, err
	}

	var (
		maxRetries  int
		model       string
		timeoutSecs int
		assumeYes   bool
		assumeNo    bool
		debug       bool
	)

	root := &cobra.Command{
		Use:   "shex [request]",
		Short: "shex - natural language shell commands",
		Long:  "shex turns a natural-language request into a shell command, runs it, and retries with failure context when it fails. Risky commands require confirmation.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if assumeYes && assumeNo {
				return fmt.Errorf("--assume-yes and --assume-no are mutually exclusive")
			}

			container.Orchestrator.Prompter = buildPrompter(container.Config, assumeYes, assumeNo)
			if timeoutSecs > 0 {
				container.Orchestrator.Executor = executor.NewLocalExecutor(
					container.Config.Execution.Shell, time.Duration(timeoutSecs)*time.Second)
			}
			if isatty.IsTerminal(os.Stdout.Fd()) {
				container.Orchestrator.ProviderFactory = &SpinnerFactory{
					Inner:   container.Orchestrator.ProviderFactory,
					Spinner: NewSpinner(cmd.OutOrStdout()),
				}
			}

			result, err := container.Orchestrator.Run(domain.LoopRequest{
				Context:       cmd.Context(),
				Text:          strings.Join(args, " "),
				MaxRetries:    maxRetries,
				ModelOverride: model,
				Debug:         debug,
			})
			if err != nil {
				return err
			}
			container.LastResult = &result
			RenderResult(cmd.OutOrStdout(), result)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.Flags().IntVar(&maxRetries, "max-retries", -1, "Retry budget for failed attempts (default from config)")
	root.Flags().StringVarP(&model, "model", "m", "", "Override model name (default from config)")
	root.Flags().IntVar(&timeoutSecs, "timeout", 0, "Command timeout in seconds (default from config)")
	root.Flags().BoolVarP(&assumeYes, "assume-yes", "y", false, "Approve risky commands without prompting")
	root.Flags().BoolVarP(&assumeNo, "assume-no", "n", false, "Decline risky commands without prompting")
	root.Flags().BoolVar(&debug, "debug", false, "Enable verbose logging")

	root.AddCommand(newHistoryCommand(container))
	root.AddCommand(newRulesCommand(container))
	root.AddCommand(newVersionCommand())

	return root, container, nil
}

// buildPrompter picks the confirmation strategy: explicit flags win, then
// the configured policy, then interactive prompting (which itself refuses
// when no terminal is attached).
func buildPrompter(cfg domain.Config, assumeYes, assumeNo bool) ports.ConfirmationPrompter {
	switch {
	case assumeYes:
		return PolicyPrompter{Approve: true, Out: os.Stdout}
	case assumeNo:
		return PolicyPrompter{Approve: false, Out: os.Stdout}
	case cfg.Preferences.ConfirmPolicy == domain.ConfirmAlwaysApprove:
		return PolicyPrompter{Approve: true, Out: os.Stdout}
	case cfg.Preferences.ConfirmPolicy == domain.ConfirmAlwaysDeny:
		return PolicyPrompter{Approve: false, Out: os.Stdout}
	default:
		return NewPrompter(nil, nil)
	}
}
