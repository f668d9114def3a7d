package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"offset", "compliance", "review", "serve", "migrate"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "rdti-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestOffsetCommand_HasSubcommands(t *testing.T) {
	cmds := offsetCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"calc", "threshold", "deadline"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestComplianceOverviewCommand_Flags(t *testing.T) {
	require.NotNil(t, complianceOverviewCmd.Flags().Lookup("org"))
	require.NotNil(t, complianceOverviewCmd.Flags().Lookup("client"))
}

func TestOffsetCalcCommand_Output(t *testing.T) {
	var out bytes.Buffer
	offsetNotional = 500_000
	offsetTurnover = 5_000_000
	offsetExpenditure = 0
	offsetTaxRate = 0
	offsetBaseRate = false
	offsetCalcCmd.SetOut(&out)

	require.NoError(t, offsetCalcCmd.RunE(offsetCalcCmd, nil))

	var res struct {
		OffsetType  string  `json:"offset_type"`
		TotalOffset float64 `json:"total_offset"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, "REFUNDABLE", res.OffsetType)
	assert.Equal(t, 217500.0, res.TotalOffset)
}

func TestOffsetDeadlineCommand_Output(t *testing.T) {
	var out bytes.Buffer
	offsetDeadlineCmd.SetOut(&out)

	require.NoError(t, offsetDeadlineCmd.RunE(offsetDeadlineCmd, []string{"2024-06-30"}))
	assert.Contains(t, out.String(), `"deadline": "2025-04-30"`)

	require.Error(t, offsetDeadlineCmd.RunE(offsetDeadlineCmd, []string{"30/06/2024"}))
}

func TestOffsetCalcCommand_RejectsNegative(t *testing.T) {
	offsetNotional = -1
	offsetTurnover = 0
	t.Cleanup(func() { offsetNotional = 0 })

	require.Error(t, offsetCalcCmd.RunE(offsetCalcCmd, nil))
}
