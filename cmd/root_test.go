package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"score", "batch", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "vendor-kpi", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestScoreCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "format", "output", "charts", "watch"} {
		assert.NotNil(t, scoreCmd.Flags().Lookup(name), "score should have --%s flag", name)
	}
	assert.Equal(t, "table", scoreCmd.Flags().Lookup("format").DefValue)
}

func TestBatchCommand_Flags(t *testing.T) {
	flag := batchCmd.Flags().Lookup("concurrency")
	require.NotNil(t, flag, "batch command should have --concurrency flag")
	assert.Equal(t, "0", flag.DefValue)

	assert.NotNil(t, batchCmd.Flags().Lookup("inputs"))
	assert.NotNil(t, batchCmd.Flags().Lookup("out-dir"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "defaults"},
		{name: "tolerance above one", env: map[string]string{"VENDORKPI_SCORING_INVOICE_TOLERANCE": "5"}, wantErr: "invoice_tolerance"},
		{name: "negative tolerance", env: map[string]string{"VENDORKPI_SCORING_INVOICE_TOLERANCE": "-0.1"}, wantErr: "invoice_tolerance"},
		{name: "unknown policy", env: map[string]string{"VENDORKPI_SCORING_ZERO_RANGE": "drop"}, wantErr: "zero_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			c, err := loadConfig()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, 0.05, c.Scoring.InvoiceTolerance, 1e-9)
		})
	}
}
