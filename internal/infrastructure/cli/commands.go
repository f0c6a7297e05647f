package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/YUHAI0/shex/internal/app"
	"github.com/YUHAI0/shex/internal/domain"
	"github.com/YUHAI0/shex/internal/infrastructure/security"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newHistoryCommand(container *app.Container) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf("history store unavailable")
			}
			records, err := container.HistoryStore.Records(limit, search)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No attempts recorded yet.")
				return nil
			}
			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s/%s]  %q -> %s\n",
					humanize.Time(rec.Timestamp), rec.Tier, rec.Outcome, rec.Request, rec.Command)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", domain.DefaultHistoryLimit, "Max entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Filter by request or command substring")

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.HistoryStore == nil {
				return fmt.Errorf("history store unavailable")
			}
			return container.HistoryStore.Clear()
		},
	})

	return cmd
}

func newRulesCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show the effective risk rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			classifier, ok := container.Classifier.(*security.Classifier)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Security is disabled; every command classifies as safe.")
				return nil
			}
			for _, rule := range classifier.Rules() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-40s %s\n", rule.Tier, rule.Pattern, rule.Message)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the shex version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "shex", Version)
		},
	}
}
