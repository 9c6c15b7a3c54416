package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return errors.New("port is required")
	}
	return nil
}

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_ExpandsEnvAndOverlays(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SAMPLE_TOKEN", "s3cret")
	base := write(t, dir, "config.yaml", "name: base\nport: 8080\ntoken: ${SAMPLE_TOKEN}\n")
	local := write(t, dir, "config.local.yaml", "port: 9090\n")

	var got sample
	require.NoError(t, Load(base, &got, local, filepath.Join(dir, "missing.yaml")))
	assert.Equal(t, sample{Name: "base", Port: 9090, Token: "s3cret"}, got)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	var s sample

	err := Load(filepath.Join(dir, "nope.yaml"), &s)
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := write(t, dir, "bad.yaml", "port: [unclosed\n")
	assert.ErrorContains(t, Load(bad, &s), "failed to parse")

	noPort := write(t, dir, "noport.yaml", "name: x\n")
	assert.ErrorContains(t, Load(noPort, &sample{}), "port is required")
}
