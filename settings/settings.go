// Package settings loads the SDK's process-level configuration: credential
// material from the environment and optional runner settings from a YAML
// file.
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/labelworks/agents"
)

// Environment variable names.
const (
	// EnvSSHKey holds the private key content inline.
	EnvSSHKey = "LABELWORKS_SSH_KEY"

	// EnvSSHKeyFile holds the path to a private key file.
	EnvSSHKeyFile = "LABELWORKS_SSH_KEY_FILE"

	// EnvDomain optionally overrides the platform API domain.
	EnvDomain = "LABELWORKS_DOMAIN"
)

// DefaultDomain is the platform API endpoint used when EnvDomain is unset.
const DefaultDomain = "https://api.labelworks.com"

// Settings is the credential material required before any platform client
// can be constructed. Exactly the environment decides it; absence of any key
// material is a hard startup failure, not something invocation wrappers
// handle.
type Settings struct {
	// SSHKey is the private key content, when provided inline.
	SSHKey string

	// SSHKeyFile is the path to a private key file, when provided as a path.
	SSHKeyFile string

	// Domain is the platform API endpoint.
	Domain string
}

// Load reads settings from the environment. A .env file in the working
// directory is loaded first when present (existing environment variables
// win). Load fails when neither key variable is set.
func Load() (*Settings, error) {
	// Ignore a missing .env file; it is a development convenience only.
	_ = godotenv.Load()

	s := &Settings{
		SSHKey:     strings.TrimSpace(os.Getenv(EnvSSHKey)),
		SSHKeyFile: strings.TrimSpace(os.Getenv(EnvSSHKeyFile)),
		Domain:     strings.TrimSpace(os.Getenv(EnvDomain)),
	}
	if s.Domain == "" {
		s.Domain = DefaultDomain
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks that key material is present and, when given as a file,
// that the file exists.
func (s *Settings) Validate() error {
	const op = "settings.Load"

	if s.SSHKey == "" && s.SSHKeyFile == "" {
		return agents.NewConfigurationError(op,
			fmt.Errorf("%w: set %s to the private key content or %s to a key file path",
				agents.ErrInvalidConfig, EnvSSHKey, EnvSSHKeyFile))
	}

	if s.SSHKeyFile != "" {
		if _, err := os.Stat(s.SSHKeyFile); err != nil {
			return agents.NewConfigurationError(op,
				fmt.Errorf("%w: %s points to an unreadable file: %v",
					agents.ErrInvalidConfig, EnvSSHKeyFile, err))
		}
	}
	return nil
}

// KeyContent returns the private key content, reading the key file when the
// key was not provided inline. Inline content wins when both are set.
func (s *Settings) KeyContent() (string, error) {
	if s.SSHKey != "" {
		return s.SSHKey, nil
	}
	data, err := os.ReadFile(s.SSHKeyFile)
	if err != nil {
		return "", agents.NewConfigurationError("settings.KeyContent",
			fmt.Errorf("reading %s: %w", s.SSHKeyFile, err))
	}
	return string(data), nil
}
