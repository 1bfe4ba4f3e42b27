package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/csvload"
)

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [csv-dir]",
		Short: "Load source CSV extracts into the warehouse",
		Long: `Load the six source extracts (postings, opening balances, accounts,
currencies, exchange rates, chart reference) from a directory of
semicolon-delimited CSV files. Missing files are skipped; re-loading the
same extract is idempotent.

Example:
  bankdm load --db ./bankdm.db ./data
  bankdm load                          (uses data_dir from config)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			dir := cfg.DataDir
			if len(args) == 1 {
				dir = args[0]
			}

			report, err := csvload.New(st).LoadDir(cmd.Context(), dir)
			for _, t := range report.Tables {
				switch {
				case t.Skipped:
					fmt.Fprintf(cmd.OutOrStdout(), "[SKIP] %s: %s not found\n", t.Table, t.File)
				case t.Err != "":
					fmt.Fprintf(cmd.OutOrStdout(), "[ERR]  %s: %s\n", t.Table, t.Err)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), "[OK]   %s: %d inserted, %d dropped\n",
						t.Table, t.Inserted, t.Dropped)
				}
			}
			if err != nil {
				return WrapExitError(ExitFailure, "load finished with errors", err)
			}
			return nil
		},
	}
	return cmd
}
