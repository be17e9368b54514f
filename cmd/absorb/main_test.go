package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()

	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, "absorb version "+version+"\n", out)

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"`+version+`"}`, out)
}

func TestRunCmd_Text(t *testing.T) {
	out, err := execute(t, "run", "--show", "2")
	require.NoError(t, err)
	require.Contains(t, out, "100 trajectories, seed 1, weighting uniform")
	require.Contains(t, out, "absorbing state")
	require.Contains(t, out, "fundamental matrix N")
	require.Contains(t, out, "trajectory 1 (")
	require.NotContains(t, out, "trajectory 2 (")
}

func TestRunCmd_JSONAndMetrics(t *testing.T) {
	t.Setenv("ABSORB_REALIZATIONS", "40")
	t.Setenv("ABSORB_SEED", "5")

	out, err := execute(t, "run", "--json", "--show", "3")
	require.NoError(t, err)

	var doc runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Equal(t, 40, doc.Realizations)
	require.Equal(t, uint64(5), doc.Seed)
	require.Len(t, doc.Trajectories, 3)
	require.Len(t, doc.Fundamental, 5)
	require.Len(t, doc.AbsorptionProbabilities, 5)
	require.InDelta(t, 9.837656903765687, doc.Summary.TheoreticalMeanTime, 1e-9)

	out, err = execute(t, "run", "--metrics")
	require.NoError(t, err)
	require.Contains(t, out, "absorb_trajectories_total 40")
	require.Contains(t, out, `absorb_absorbed_total{state="5"}`)
}

func TestRunCmd_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ruin.yaml")
	doc := `
transition:
  - [1, 0, 0, 0]
  - [0.5, 0, 0.5, 0]
  - [0, 0.5, 0, 0.5]
  - [0, 0, 0, 1]
initial: [0, 1, 0, 0]
absorbing: [0, 3]
realizations: 25
weighting: initial
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := execute(t, "run", "--config", path, "--json")
	require.NoError(t, err)
	var got runOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "initial", got.Weighting)
	require.Equal(t, []int{0, 3}, got.Summary.AbsorbingStates)
	require.InDeltaSlice(t, []float64{2.0 / 3, 1.0 / 3}, got.Summary.TheoreticalProbabilities, 1e-9)
	require.InDelta(t, 2.0, got.Summary.TheoreticalMeanTime, 1e-9)
}

func TestRunCmd_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transition: [[0.5, 0.4], [0, 1]]\ninitial: [1, 0]\nabsorbing: [1]\n"), 0o600))

	_, err := execute(t, "run", "--config", path)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "invalid chain"))
}

func TestConfigCmd(t *testing.T) {
	out, err := execute(t, "config")
	require.NoError(t, err)
	require.Contains(t, out, "transition:")
	require.Contains(t, out, "absorbing:")
	require.Contains(t, out, "realizations: 100")
}
