package publish

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func fullEnv() map[string]string {
	return map[string]string{
		EnvHost:     "db.example.org",
		EnvSSHUser:  "tunnel",
		EnvSSHPass:  "ssh-secret",
		EnvSQLUser:  "bench",
		EnvSQLPass:  "sql-secret",
		EnvDatabase: "benchmarks",
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(envFrom(fullEnv()))
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Host:     "db.example.org",
		SSHUser:  "tunnel",
		SSHPass:  "ssh-secret",
		SQLUser:  "bench",
		SQLPass:  "sql-secret",
		Database: "benchmarks",
	}, cfg)
}

func TestLoadConfigMissing(t *testing.T) {
	for _, name := range []string{EnvHost, EnvSSHUser, EnvSSHPass, EnvSQLUser, EnvSQLPass, EnvDatabase} {
		t.Run(name, func(t *testing.T) {
			env := fullEnv()
			delete(env, name)

			_, err := LoadConfig(envFrom(env))
			var missing *MissingEnvError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, []string{name}, missing.Names)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadConfigReportsAllMissing(t *testing.T) {
	_, err := LoadConfig(envFrom(map[string]string{EnvHost: "  "}))
	var missing *MissingEnvError
	require.True(t, errors.As(err, &missing))
	assert.ElementsMatch(t, []string{EnvHost, EnvSSHUser, EnvSSHPass, EnvSQLUser, EnvSQLPass, EnvDatabase}, missing.Names)
}

func TestLoadConfigKnownHosts(t *testing.T) {
	env := fullEnv()
	env[EnvKnownHosts] = "/home/bench/.ssh/known_hosts"

	cfg, err := LoadConfig(envFrom(env))
	require.NoError(t, err)
	assert.Equal(t, "/home/bench/.ssh/known_hosts", cfg.KnownHosts)
}
