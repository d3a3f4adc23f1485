package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr())
	assert.Equal(t, "http://localhost:8081/users", c.UsersAPIURL)
	assert.Zero(t, c.RequestTimeout)
	assert.Equal(t, 30*time.Minute, c.FormTTL)
	assert.Empty(t, c.SchemaPath)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("USERS_API_URL", "https://api.example.com/v1/users")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("FORM_TTL", "2m")
	t.Setenv("APP_SECRET", "s3cret")
	t.Setenv("SCHEMA_PATH", "/etc/userdesk/schema.yml")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Addr())
	assert.Equal(t, "https://api.example.com/v1/users", c.UsersAPIURL)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, 2*time.Minute, c.FormTTL)
	assert.Equal(t, "s3cret", c.Secret)
	assert.Equal(t, "/etc/userdesk/schema.yml", c.SchemaPath)
}

func TestLoad_Rejects(t *testing.T) {
	for name, env := range map[string][2]string{
		"duration": {"FORM_TTL", "soon"},
		"ttl":      {"FORM_TTL", "0s"},
		"timeout":  {"REQUEST_TIMEOUT", "-1s"},
		"url":      {"USERS_API_URL", "not a url"},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMockAPI(t *testing.T) {
	t.Setenv("MOCKAPI_PORT", "7001")
	t.Setenv("MOCKAPI_SEED", "false")

	c, err := LoadMockAPI()
	require.NoError(t, err)
	assert.Equal(t, ":7001", c.Addr())
	assert.False(t, c.Seed)
}
