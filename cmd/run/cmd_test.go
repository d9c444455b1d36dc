package run_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtrimolet/markovjunior/cmd/run"
)

func writeProgram(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.xml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestRunRejectsMissingFile(t *testing.T) {
	cmd := run.NewRunCommand()
	cmd.SetArgs([]string{"/nonexistent/program.xml"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRunRejectsGuiFlag(t *testing.T) {
	path := writeProgram(t, `<one values="BW" in="B" out="W"/>`)

	cmd := run.NewRunCommand()
	cmd.SetArgs([]string{"--gui", path})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRunRejectsMalformedExtent(t *testing.T) {
	path := writeProgram(t, `<one values="BW" in="B" out="W"/>`)

	cmd := run.NewRunCommand()
	cmd.SetArgs([]string{"--extent", "59x59", path})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestRunPrintsFinalGridUnderTickBound(t *testing.T) {
	path := writeProgram(t, `<markov values="BW"><one in="B" out="W"/></markov>`)

	var out bytes.Buffer
	cmd := run.NewRunCommand()
	cmd.SetArgs([]string{"--extent", "1x1x1", "--ticks", "1", "--tickrate", "0", path})
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "W\n", out.String())
}
