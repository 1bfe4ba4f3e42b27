package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzavyalov/bankdm/internal/export"
)

// NewExportCommand creates the export-f101 command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		toDate string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "export-f101",
		Short: "Export F101 summary rows to CSV",
		Long: `Write the F101 rows with the given to_date to a CSV file, ordered by
(ledger_account, characteristic).

Example:
  bankdm export-f101 --db ./bankdm.db --to-date 2018-01-31 --file /tmp/f101_201801.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDateFlag("to-date", toDate)
			if err != nil {
				return err
			}

			st, _, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := export.New(st).ExportFile(cmd.Context(), d, file)
			if err != nil {
				return WrapExitError(ExitFailure, "export failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d row(s) -> %s\n", rows, file)
			return nil
		},
	}

	cmd.Flags().StringVar(&toDate, "to-date", "", "period end date of the rows to export (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&file, "file", "", "output CSV path (required)")
	_ = cmd.MarkFlagRequired("to-date")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// NewImportCommand creates the import-f101 command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-f101",
		Short: "Import an F101 CSV into the dm_f101_v2 copy",
		Long: `Load a previously exported (possibly hand-corrected) F101 CSV into the
dm_f101_v2 copy table, replacing its contents.

Example:
  bankdm import-f101 --db ./bankdm.db --file /tmp/f101_201801.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, _, err := rootOpts.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rows, err := export.New(st).ImportFile(cmd.Context(), file)
			if err != nil {
				return WrapExitError(ExitFailure, "import failed", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d row(s) <- %s\n", rows, file)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "input CSV path (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
