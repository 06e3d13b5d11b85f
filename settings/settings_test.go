package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labelworks/agents"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvSSHKey, "")
	t.Setenv(EnvSSHKeyFile, "")
	t.Setenv(EnvDomain, "")
}

func writeKeyFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, []byte("-----BEGIN KEY-----\n"), 0o600))
	return path
}

func TestLoad_InlineKey(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSSHKey, "inline-key-material")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "inline-key-material", s.SSHKey)
	assert.Equal(t, DefaultDomain, s.Domain)
}

func TestLoad_KeyFile(t *testing.T) {
	clearEnv(t)
	path := writeKeyFile(t)
	t.Setenv(EnvSSHKeyFile, path)

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, s.SSHKeyFile)
}

func TestLoad_DomainOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSSHKey, "k")
	t.Setenv(EnvDomain, "https://api.eu.labelworks.com")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.eu.labelworks.com", s.Domain)
}

// Missing key material is a hard startup failure, never a silent default.
func TestLoad_MissingKeysFails(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, agents.ErrInvalidConfig)
	assert.Contains(t, err.Error(), EnvSSHKey)
	assert.Contains(t, err.Error(), EnvSSHKeyFile)
}

func TestLoad_UnreadableKeyFileFails(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSSHKeyFile, filepath.Join(t.TempDir(), "missing.pem"))

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, agents.ErrInvalidConfig)
}

func TestKeyContent_InlineWins(t *testing.T) {
	path := writeKeyFile(t)
	s := &Settings{SSHKey: "inline", SSHKeyFile: path}

	content, err := s.KeyContent()
	require.NoError(t, err)
	assert.Equal(t, "inline", content)
}

func TestKeyContent_ReadsFile(t *testing.T) {
	path := writeKeyFile(t)
	s := &Settings{SSHKeyFile: path}

	content, err := s.KeyContent()
	require.NoError(t, err)
	assert.Equal(t, "-----BEGIN KEY-----\n", content)
}

func TestKeyContent_FileError(t *testing.T) {
	s := &Settings{SSHKeyFile: filepath.Join(t.TempDir(), "gone.pem")}

	_, err := s.KeyContent()
	require.Error(t, err)

	var e *agents.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, agents.KindConfiguration, e.Kind)
}
