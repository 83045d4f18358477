package publish

import (
	"fmt"
	"strings"
)

// Environment variables read by LoadConfig.
const (
	EnvHost       = "DATABASE_HOST"
	EnvSSHUser    = "DATABASE_SSH_USER"
	EnvSSHPass    = "DATABASE_SSH_PASS"
	EnvSQLUser    = "DATABASE_SQL_USER"
	EnvSQLPass    = "DATABASE_SQL_PASS"
	EnvDatabase   = "DATABASE_SQL_DATABASE"
	EnvKnownHosts = "DATABASE_SSH_KNOWN_HOSTS"
)

// Config is the connection configuration, populated once from the
// environment.
type Config struct {
	Host     string
	SSHUser  string
	SSHPass  string
	SQLUser  string
	SQLPass  string
	Database string
	// KnownHosts is an optional known_hosts file used to verify the SSH
	// server. Without it any host key is accepted.
	KnownHosts string
}

// MissingEnvError lists required environment variables that are unset or
// empty.
type MissingEnvError struct {
	Names []string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing required environment variable(s): %s", strings.Join(e.Names, ", "))
}

// LoadConfig reads the configuration through getenv, usually os.Getenv.
// Every required variable is checked before returning, so one error names
// all that are missing.
func LoadConfig(getenv func(string) string) (*Config, error) {
	var missing []string
	require := func(name string) string {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &Config{
		Host:     require(EnvHost),
		SSHUser:  require(EnvSSHUser),
		SSHPass:  getenv(EnvSSHPass),
		SQLUser:  require(EnvSQLUser),
		SQLPass:  getenv(EnvSQLPass),
		Database: require(EnvDatabase),
	}
	// Passwords keep surrounding whitespace but must not be empty.
	if cfg.SSHPass == "" {
		missing = append(missing, EnvSSHPass)
	}
	if cfg.SQLPass == "" {
		missing = append(missing, EnvSQLPass)
	}
	cfg.KnownHosts = strings.TrimSpace(getenv(EnvKnownHosts))

	if len(missing) > 0 {
		return nil, &MissingEnvError{Names: missing}
	}
	return cfg, nil
}
