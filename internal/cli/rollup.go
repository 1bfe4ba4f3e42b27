package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/engine"
)

// NewRollupCommand creates the rollup command.
func NewRollupCommand(rootOpts *RootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Compute the monthly F101 regulatory summary",
		Long: `Aggregate account-level balances and turnovers into F101 summary rows for
the calendar month preceding the report date, replacing any existing rows
for that period. All daily balances and turnovers of the month must be
materialized first.

Example:
  bankdm rollup --db ./bankdm.db --date 2018-02-01    (covers January 2018)`,
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
			rows, err := eng.ComputeRollup(cmd.Context(), d)
			if err != nil {
				return WrapExitError(ExitFailure, "rollup failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "f101 for report date %s: %d row(s)\n", d, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD, required); the covered period is the previous calendar month")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
