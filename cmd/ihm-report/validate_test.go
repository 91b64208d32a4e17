// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ihm-report/pkg/types"
)

func TestPhysicsUsed(t *testing.T) {
	for _, in := range []string{"yes", "Yes", " YES ", "y", "true"} {
		assert.True(t, physicsUsed(in), in)
	}
	for _, in := range []string{"No", "no", "", "maybe"} {
		assert.False(t, physicsUsed(in), in)
	}
}

func TestReportConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	require.NoError(t, validateCmd.ParseFlags([]string{
		"-f", "PDBDEV_00000009.cif",
		"-p", "yes",
		"--force",
		"--method", "Monte Carlo, replica exchange",
		"--method", "Bayesian scoring",
	}))
	require.NoError(t, viper.BindPFlags(validateCmd.Flags()))
	viper.Set("cache-root", "/tmp/cache")

	cfg, err := reportConfig(validateCmd)
	require.NoError(t, err)
	assert.Equal(t, "PDBDEV_00000009.cif", cfg.InputFile)
	assert.True(t, cfg.Output.Force)
	assert.Equal(t, types.HTMLLocal, cfg.Output.HTMLMode)
	assert.Equal(t, types.PDFNative, cfg.Output.PDFBackend)
	assert.Equal(t, "America/Los_Angeles", cfg.Output.Timezone)
	assert.Equal(t, "/tmp/cache", cfg.Cache.Root)
	assert.True(t, cfg.Supplementary.Physics)
	assert.Equal(t, []string{"Monte Carlo, replica exchange", "Bayesian scoring"}, cfg.Supplementary.MethodDetails)
	assert.Equal(t, "1", cfg.Supplementary.Models)

	viper.Set("html-mode", "remote")
	_, err = reportConfig(validateCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--html-mode")

	viper.Set("html-mode", "pdb-dev")
	viper.Set("pdf-backend", "latex")
	_, err = reportConfig(validateCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pdf-backend")
}

func TestRunValidateExistingOutputSkipsBeforeReadingMetrics(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	in := filepath.Join(t.TempDir(), "PDBDEV_00000077.cif")
	require.NoError(t, os.WriteFile(in, []byte("data_PDBDEV_00000077\n"), 0o644))
	out := t.TempDir()
	existing := filepath.Join(out, "PDBDEV_00000077")
	require.NoError(t, os.MkdirAll(existing, 0o755))
	cacheRoot := filepath.Join(t.TempDir(), "cache")

	viper.Set("file", in)
	viper.Set("output-root", out)
	viper.Set("cache-root", cacheRoot)
	viper.Set("html-mode", "local")
	viper.Set("pdf-backend", "native")

	// No metrics document exists next to the input.
	require.NoError(t, runValidate(validateCmd, nil))

	entries, err := os.ReadDir(existing)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoDirExists(t, cacheRoot, "cache not opened")

	viper.Set("force", true)
	err = runValidate(validateCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading metrics document")
}
