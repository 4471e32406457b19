package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"name", "clean", "serve", "mcp", "import", "sources"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}

	sub := make(map[string]bool)
	for _, c := range sourcesCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["list"] && sub["check"] && sub["set-url"])
}

func TestCommandFlags(t *testing.T) {
	for _, name := range []string{"country", "language", "merge", "case", "location", "strict", "rules"} {
		assert.NotNil(t, nameCmd.Flags().Lookup(name), "name --%s", name)
	}
	for _, name := range []string{"settings", "in", "out"} {
		assert.NotNil(t, cleanCmd.Flags().Lookup(name), "clean --%s", name)
	}
	flag := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.NotNil(t, importCmd.Flags().Lookup("output-dir"))
}

func TestNameCommand(t *testing.T) {
	chdirTemp(t)

	out, err := execute(t, "", "name", "Apple Inc.", "  Some Thing   Ltd ")
	require.NoError(t, err)
	assert.Equal(t, "apple incorporated\nsome thing limited\n", out)

	out, err = execute(t, "Vodafone Group Plc\n", "name", "--country", "gb", "--case", "upper")
	require.NoError(t, err)
	assert.Equal(t, "VODAFONE GROUP PUBLIC LIMITED COMPANY\n", out)

	_, err = execute(t, "", "name", "--country", "zz", "Acme")
	assert.Error(t, err)
}

func TestCleanCommand(t *testing.T) {
	dir := chdirTemp(t)
	settings := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte(`
file_processing: {csv_file_sep: ","}
text:
  normalize_legal_terms: true
  input_company_name: name
`), 0o644))
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("name\nApple Inc.\n"), 0o644))
	outPath := filepath.Join(dir, "out.csv")

	report, err := execute(t, "", "clean", "--settings", settings, "--in", in, "--out", outPath)
	require.NoError(t, err)
	assert.Contains(t, report, `"rows": 1`)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "apple incorporated")
}
