package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/engine"
)

// NewTurnoverCommand creates the turnover command.
func NewTurnoverCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "turnover",
		Short: "Compute per-account turnovers for one date",
		Long: `Summarize all postings of one date into per-account debit/credit totals
in native and reporting currency, replacing any existing turnover rows for
that date.

Example:
  bankdm turnover --db ./bankdm.db --date 2018-01-09`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag("date", date)
			if err != nil {
				return err
			}

			st, cfg, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			eng := engine.New(st, engine.WithLocalCurrencyCodes(cfg.LocalCurrencyCodes))
			rows, err := eng.ComputeTurnover(cmd.Context(), d)
			if err != nil {
				return WrapExitError(ExitFailure, "turnover failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "turnover %s: %d row(s)\n", d, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "operation date (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
