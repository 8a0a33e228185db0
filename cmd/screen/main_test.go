package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canslim:\n  criteria:\n    S: {volume_factor: 2}\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"criteria", "--config", path, "--n", "126"})
	require.NoError(t, rootCmd.Execute())

	var view struct {
		Criteria struct {
			N struct {
				LookbackPeriod int `json:"lookback_period"`
			} `json:"N"`
			S struct {
				VolumeFactor float64 `json:"volume_factor"`
			} `json:"S"`
		} `json:"criteria"`
		Manifest map[string]json.RawMessage `json:"manifest"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, 126, view.Criteria.N.LookbackPeriod)
	assert.Equal(t, 2.0, view.Criteria.S.VolumeFactor)
	assert.Len(t, view.Manifest, 7)
}

func TestCriteriaCommand_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))

	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"criteria", "--config", path, "--s=-1"})
	assert.Error(t, rootCmd.Execute())
}
