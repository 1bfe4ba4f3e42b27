package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/engine"
)

// CalcOptions holds flags for the calc command.
type CalcOptions struct {
	*RootOptions
	From string
	To   string
	Seed string
}

// NewCalcCommand creates the calc command: the day-loop driver that runs
// turnover then balance for every date of an inclusive range, in order.
func NewCalcCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CalcOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute turnovers and balances for a date range",
		Long: `Compute daily turnovers and carried-forward balances for every date in
[--from, --to], ascending, turnover before balance for each date.

Balances for the date before --from must already be materialized; pass
--seed with the opening-snapshot date to bootstrap them first.

Example:
  bankdm calc --db ./bankdm.db --seed 2017-12-31 --from 2018-01-01 --to 2018-01-31`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag("from", opts.From)
			if err != nil {
				return err
			}
			to, err := parseDateFlag("to", opts.To)
			if err != nil {
				return err
			}
			if from.After(to) {
				return NewExitError(ExitCommandError, fmt.Sprintf("--from %s is after --to %s", from, to))
			}

			st, cfg, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			eng := engine.New(st, engine.WithLocalCurrencyCodes(cfg.LocalCurrencyCodes))
			ctx := cmd.Context()

			if opts.Seed != "" {
				seedDate, err := parseDateFlag("seed", opts.Seed)
				if err != nil {
					return err
				}
				rows, err := eng.SeedBalances(ctx, seedDate)
				if err != nil {
					return WrapExitError(ExitFailure, "seed failed", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d balance(s) at %s\n", rows, seedDate)
			}

			if err := eng.CalcRange(ctx, from, to); err != nil {
				return WrapExitError(ExitFailure, "calc failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "calc complete: %s..%s (batch %s)\n", from, to, eng.BatchToken())
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first date to compute (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "last date to compute (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "opening-snapshot date to seed balances from before calculating")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
