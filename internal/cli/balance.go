package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/engine"
)

// NewBalanceCommand creates the balance command.
func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		date string
		seed bool
	)

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Compute closing balances for one date",
		Long: `Derive each active account's closing balance for one date from the prior
date's balances and that date's turnover, replacing any existing balance
rows for the date. Fails if the prior date has no materialized balances.

With --seed, instead bootstrap the balance mart from the opening-balance
snapshot for the date.

Example:
  bankdm balance --db ./bankdm.db --date 2018-01-09
  bankdm balance --db ./bankdm.db --date 2017-12-31 --seed`,
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
			ctx := cmd.Context()

			if seed {
				rows, err := eng.SeedBalances(ctx, d)
				if err != nil {
					return WrapExitError(ExitFailure, "seed failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d balance(s) at %s\n", rows, d)
				return nil
			}

			rows, err := eng.ComputeBalance(ctx, d)
			if err != nil {
				return WrapExitError(ExitFailure, "balance failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "balance %s: %d row(s)\n", d, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "balance date (YYYY-MM-DD, required)")
	cmd.Flags().BoolVar(&seed, "seed", false, "seed from the opening-balance snapshot instead of carrying forward")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}
