package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ngsfmt/bigbedkit/internal/bbtest"
	"github.com/stretchr/testify/require"
)

func writeExampleFile(t *testing.T) string {
	t.Helper()
	data, err := bbtest.BuildExample(false, false)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "example.bb")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunFullDump(t *testing.T) {
	path := writeExampleFile(t)

	var buf bytes.Buffer
	require.NoError(t, run(path, &buf))

	out := buf.String()
	require.Contains(t, out, "chr1\t10\t20\ta\n")
	require.Contains(t, out, "chr1\t15\t25\tb\n")
	// chr1 has size 25 in the fixture; the full dump covers [0, size), so
	// the zero-length record at 30 is not part of it.
	require.NotContains(t, out, "chr1\t30\t30\tzero\n")
	require.Contains(t, out, "chr2\t0\t100\tc\n")
}

func TestRunChromRange(t *testing.T) {
	path := writeExampleFile(t)
	flagChrom, flagStart, flagEnd, flagMaxItems = "chr1", 12, 18, 0
	defer func() { flagChrom, flagStart, flagEnd, flagMaxItems = "", 0, 0, 0 }()

	var buf bytes.Buffer
	require.NoError(t, run(path, &buf))

	out := buf.String()
	require.Equal(t, "chr1\t10\t20\ta\nchr1\t15\t25\tb\n", out)
}

func TestRunChromWholeRangeDefault(t *testing.T) {
	path := writeExampleFile(t)
	flagChrom = "chr2"
	defer func() { flagChrom = "" }()

	var buf bytes.Buffer
	require.NoError(t, run(path, &buf))
	require.Equal(t, "chr2\t0\t100\tc\n", buf.String())
}

func TestRunOpenFailure(t *testing.T) {
	var buf bytes.Buffer
	err := run(filepath.Join(t.TempDir(), "missing.bb"), &buf)
	require.Error(t, err)
}
