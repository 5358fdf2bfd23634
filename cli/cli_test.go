package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groundupworks/yksp/config"
	"github.com/groundupworks/yksp/testcase"
)

func TestParseCoords(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		n       int
		want    []int
		wantErr bool
	}{
		{"point", "10,20", 2, []int{10, 20}, false},
		{"point with spaces", " 10 , 20 ", 2, []int{10, 20}, false},
		{"swipe", "0,0,100,200", 4, []int{0, 0, 100, 200}, false},
		{"too few", "10", 2, nil, true},
		{"not a number", "a,b", 2, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCoords(tt.input, tt.n, "x,y")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunConfig(t *testing.T) {
	t.Cleanup(func() {
		runScriptsDir, runResultsDir, runArchive, runNoBackup = "", "", "", false
	})

	base := config.Default()
	assert.Equal(t, base, runConfig(base))

	runScriptsDir = "ui-tests"
	runArchive = "results.zip"
	runNoBackup = true
	cfg := runConfig(base)

	assert.Equal(t, "ui-tests", cfg.Paths.Scripts)
	assert.Equal(t, config.DefaultResultsDir, cfg.Paths.Results)
	assert.Equal(t, "results.zip", cfg.Session.Archive)
	assert.True(t, cfg.Backup.Disabled)
	assert.False(t, base.Backup.Disabled, "flags must not leak into the shared config")
}

func TestGlobalArgs(t *testing.T) {
	t.Cleanup(func() {
		verbose, configPath, adbPath, aaptPath = false, "", "", ""
	})

	assert.Empty(t, globalArgs())

	verbose = true
	adbPath = "/opt/android/platform-tools/adb"
	assert.Equal(t, []string{"--verbose", "--adb", "/opt/android/platform-tools/adb"}, globalArgs())
}

func TestTestcaseUsageError(t *testing.T) {
	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"testcase", "--serial", "0123", "script.yaml"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetOut(nil)
		testcaseOpts = testcaseFlags{}
	})

	err := rootCmd.Execute()

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, testcase.UsageExitCode, exitErr.Code)
	assert.Contains(t, stderr.String(), "\nError:\n--package must be specified\n")
	assert.Contains(t, stderr.String(), "Usage: yksp testcase")
}

func TestTestcaseFlagErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		message string
	}{
		{
			name:    "unknown flag",
			args:    []string{"testcase", "--bogus", "x", "-p", "a", "-s", "b", "script.yaml"},
			message: "unknown flag: --bogus",
		},
		{
			name:    "flag without value",
			args:    []string{"testcase", "-p", "a", "--serial"},
			message: "flag needs an argument: --serial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			rootCmd.SetErr(&stderr)
			rootCmd.SetOut(&bytes.Buffer{})
			rootCmd.SetArgs(tt.args)
			t.Cleanup(func() {
				rootCmd.SetArgs(nil)
				rootCmd.SetErr(nil)
				rootCmd.SetOut(nil)
				testcaseOpts = testcaseFlags{}
			})

			err := rootCmd.Execute()

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "got %v", err)
			assert.Equal(t, testcase.UsageExitCode, exitErr.Code)
			assert.Contains(t, stderr.String(), tt.message)
			assert.Contains(t, stderr.String(), "Usage: yksp testcase")
		})
	}
}
