package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and captures stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestFormatTable(t *testing.T) {
	headers := []string{"NAME", "COUNT"}
	rows := [][]string{
		{"financial_crimes", "10"},
		{"corruption_bribery", "8"},
	}

	table := FormatTable(headers, rows)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "COUNT")
	assert.Contains(t, lines[1], "----")
	assert.Contains(t, lines[2], "financial_crimes")
	assert.Contains(t, lines[3], "corruption_bribery")

	// Columns are padded to the widest value.
	assert.Equal(t, len(lines[2]), len(lines[3]))
}

func TestFormatTableEmptyHeaders(t *testing.T) {
	assert.Empty(t, FormatTable(nil, [][]string{{"a"}}))
}

func TestFormatTableShortRow(t *testing.T) {
	table := FormatTable([]string{"A", "B"}, [][]string{{"only"}})
	assert.Contains(t, table, "only")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", padRight("ab", 5))
	assert.Equal(t, "abcdef", padRight("abcdef", 3))
}

func TestGetCLIContextMissing(t *testing.T) {
	cmd := &cobra.Command{}
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

func TestRootVersionFlag(t *testing.T) {
	out, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestRootUnknownCommand(t *testing.T) {
	_, err := executeCommand(t, "does-not-exist")
	assert.Error(t, err)
}
