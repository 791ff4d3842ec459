package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/mdzip/core"
)

const introCSV = "article_title,article_body\n" +
	"Intro,\"<h1>Hi</h1><p>Hello <a href=\"\"https://x.com\"\">world</a></p>\"\n"

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestConvertCommand(t *testing.T) {
	t.Run("Should write the archive to the output directory", func(t *testing.T) {
		in := writeInput(t, "articles.csv", introCSV)
		dir := t.TempDir()

		out, err := runCmd(t, "convert", in, "--output", dir, "--layout", "flat", "--workspace", "memory")
		require.NoError(t, err)

		target := filepath.Join(dir, "markdown_files.zip")
		assert.Contains(t, out, "Written: "+target)
		assert.FileExists(t, target)
	})

	t.Run("Should write a single document under the given name", func(t *testing.T) {
		in := writeInput(t, "articles.csv", introCSV)
		dir := t.TempDir()

		_, err := runCmd(t, "convert", in, "-o", dir, "--layout", "single", "--name", "out.md")
		require.NoError(t, err)

		data, err := os.ReadFile(filepath.Join(dir, "out.md"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# Intro\n\n"))
		assert.Contains(t, string(data), "Hello [world](https://x.com)")
	})

	t.Run("Should read settings from a config file", func(t *testing.T) {
		in := writeInput(t, "articles.csv", introCSV)
		cfgFile := writeInput(t, "mdzip.yaml", "layout: single\nformat: html\nworkspace: memory\n")
		dir := t.TempDir()

		_, err := runCmd(t, "convert", in, "-o", dir, "--config", cfgFile)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "converted.html"))
	})

	t.Run("Should let flags override the config file", func(t *testing.T) {
		in := writeInput(t, "articles.csv", introCSV)
		cfgFile := writeInput(t, "mdzip.yaml", "layout: single\n")
		dir := t.TempDir()

		_, err := runCmd(t, "convert", in, "-o", dir, "--config", cfgFile, "--layout", "sections")
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "markdown_files.zip"))
	})

	t.Run("Should fetch remote inputs", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(introCSV))
		}))
		defer srv.Close()
		dir := t.TempDir()

		_, err := runCmd(t, "convert", srv.URL+"/export.csv", "-o", dir)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "markdown_files.zip"))
	})

	t.Run("Should report input errors", func(t *testing.T) {
		in := writeInput(t, "rows.csv", "name,text\na,b\n")
		_, err := runCmd(t, "convert", in, "-o", t.TempDir())
		require.ErrorIs(t, err, core.ErrMissingColumns)
	})

	t.Run("Should reject invalid settings", func(t *testing.T) {
		in := writeInput(t, "articles.csv", introCSV)
		_, err := runCmd(t, "convert", in, "--format", "docx")
		assert.ErrorContains(t, err, "invalid configuration")
	})

	t.Run("Should fail on a missing input file", func(t *testing.T) {
		_, err := runCmd(t, "convert", filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorContains(t, err, "reading input")
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "mdzip dev\n", out)
}
