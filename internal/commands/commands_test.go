package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuntumseroja/techdocgen"
	"github.com/kuntumseroja/techdocgen/pkg/config"
	"github.com/kuntumseroja/techdocgen/pkg/output"
)

// run executes the CLI with args, capturing command and styled output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := output.SetOutput(&buf)
	resetFlags(RootCmd)
	t.Cleanup(func() {
		output.SetOutput(prev)
		RootCmd.SetArgs(nil)
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		resetFlags(RootCmd)
	})
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default. Slice flags
// append once set, so they are replaced rather than Set to DefValue.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "techdocgen v"+techdocgen.Version+"\n", out)
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "config", "init", dir)
	require.NoError(t, err)
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "./docs", cfg.Output.Directory)

	_, err = run(t, "config", "init", dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestAnalyze_WritesOutputs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.ts":       "import { b } from './b';\nexport const a = b;",
		"src/b.ts":       "import { a } from './a';\nexport const b = 1;",
		"worker/send.js": "const amqp = require('amqplib');\nch.sendToQueue('emails', Buffer.from('x'));",
		"api/Bus.cs":     "using MassTransit;\ncfg.ReceiveEndpoint(\"emails\", e => { e.Consumer<EmailConsumer>(context); });",
	})
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.SaveConfig(cfgPath, config.DefaultConfig()))
	out := filepath.Join(t.TempDir(), "docs")

	stdout, err := run(t, "analyze", root, "--config", cfgPath, "--out", out, "--format", "json,mermaid")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Detected")

	assert.FileExists(t, filepath.Join(out, "dependency_map.json"))
	assert.FileExists(t, filepath.Join(out, "dependency_map.mmd"))
	assert.NoFileExists(t, filepath.Join(out, "dependency_map.dot"))
	assert.FileExists(t, filepath.Join(out, IntegrationFileName))

	data, err := os.ReadFile(filepath.Join(out, "dependency_map.json"))
	require.NoError(t, err)
	var doc struct {
		Metrics struct {
			FileCount            int        `json:"file_count"`
			CircularDependencies [][]string `json:"circular_dependencies"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 4, doc.Metrics.FileCount)
	assert.Equal(t, [][]string{{"src/a.ts", "src/b.ts"}}, doc.Metrics.CircularDependencies)
}

func TestAnalyze_BadFormat(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.SaveConfig(cfgPath, config.DefaultConfig()))

	_, err := run(t, "analyze", t.TempDir(), "--config", cfgPath, "--out", t.TempDir(), "--format", "pdf")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestAnalyze_MissingPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.SaveConfig(cfgPath, config.DefaultConfig()))

	_, err := run(t, "analyze", filepath.Join(t.TempDir(), "missing"), "--config", cfgPath, "--out", t.TempDir(), "--format", "json")
	assert.ErrorContains(t, err, "analysis failed")
}

func TestAnalyze_FlagsDoNotLeakBetweenRuns(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, config.SaveConfig(cfgPath, config.DefaultConfig()))

	_, err := run(t, "analyze", t.TempDir(), "--config", cfgPath, "--out", t.TempDir(), "--format", "pdf", "--threshold", "5")
	require.ErrorContains(t, err, "unknown export format")

	_, err = run(t, "analyze", filepath.Join(t.TempDir(), "missing"), "--config", cfgPath, "--out", t.TempDir(), "--format", "json")
	require.ErrorContains(t, err, "analysis failed")
	assert.Equal(t, []string{"json"}, formats)
	assert.Equal(t, 0, threshold)
	assert.False(t, analyzeCmd.Flags().Changed("threshold"))
}
