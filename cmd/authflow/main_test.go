package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-authflow/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "validate"} {
		assert.Contains(t, out, sub, "Help missing %q command", sub)
	}
}

func TestValidate_OK(t *testing.T) {
	catalog := writeFile(t, "fr.yaml", "formError:\n  required: Champ requis\n")
	cfg := writeFile(t, "authflow.yaml", "auth:\n  base_url: http://auth.local\ncatalog:\n  path: "+catalog+"\n")

	out, err := execute(t, "validate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "configuration OK")
}

func TestValidate_MissingBaseURL(t *testing.T) {
	cfg := writeFile(t, "authflow.yaml", "http:\n  port: 9000\n")

	_, err := execute(t, "validate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.base_url is required")
}

func TestValidate_EmptyCatalogMessage(t *testing.T) {
	catalog := writeFile(t, "broken.yaml", "formError:\n  invalidAge: \"\"\n")
	cfg := writeFile(t, "authflow.yaml", "auth:\n  base_url: http://auth.local\ncatalog:\n  path: "+catalog+"\n")

	_, err := execute(t, "validate", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "formError.invalidAge")
}

func TestBuildServer(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.BaseURL = "http://auth.local"

	srv, err := buildServer(cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(srv.Sessions().Close)

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestBuildServer_BadBaseURL(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.BaseURL = "auth.local"

	_, err = buildServer(cfg, io.Discard)
	require.Error(t, err)
}
