package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bankdm", cmd.Use)
	assert.Contains(t, cmd.Long, "F101")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"load", "calc", "turnover", "balance", "rollup", "export-f101", "import-f101"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
}

func TestCalcCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	calcCmd, _, err := cmd.Find([]string{"calc"})
	require.NoError(t, err)

	for _, name := range []string{"from", "to", "seed"} {
		flag := calcCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "flag --%s", name)
	}
}

func TestTurnoverCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	turnoverCmd, _, err := cmd.Find([]string{"turnover"})
	require.NoError(t, err)

	dateFlag := turnoverCmd.Flags().Lookup("date")
	require.NotNil(t, dateFlag)
}

func TestBalanceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	balanceCmd, _, err := cmd.Find([]string{"balance"})
	require.NoError(t, err)

	dateFlag := balanceCmd.Flags().Lookup("date")
	require.NotNil(t, dateFlag)

	seedFlag := balanceCmd.Flags().Lookup("seed")
	require.NotNil(t, seedFlag)
	assert.Equal(t, "false", seedFlag.DefValue)
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export-f101"})
	require.NoError(t, err)

	toDateFlag := exportCmd.Flags().Lookup("to-date")
	require.NotNil(t, toDateFlag)

	fileFlag := exportCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
}

func TestImportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	importCmd, _, err := cmd.Find([]string{"import-f101"})
	require.NoError(t, err)

	fileFlag := importCmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
}

func TestParseDateFlag(t *testing.T) {
	d, err := parseDateFlag("date", "2018-01-09")
	require.NoError(t, err)
	assert.Equal(t, "2018-01-09", d.String())

	_, err = parseDateFlag("date", "09.01.2018")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
