package config

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "admin-pass")
	t.Setenv("DELETE_PASSWORD", "delete-pass")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("STATS_STALE_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30, cfg.Stats.StaleDays)
	assert.Equal(t, 20, cfg.Stats.RecentLimit)
	assert.NotEmpty(t, cfg.Auth.SessionSecret, "секрет сессии выводится из пароля администратора")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "a")
	t.Setenv("DELETE_PASSWORD", "d")
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("STATS_STALE_DAYS", "14")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.CookieSecure)
	assert.Equal(t, 14, cfg.Stats.StaleDays)
	assert.Equal(t, "s", cfg.Auth.SessionSecret)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestValidate_MissingSecrets(t *testing.T) {
	tests := []struct {
		name    string
		auth    AuthConfig
		missing string
	}{
		{
			name:    "нет пароля администратора",
			auth:    AuthConfig{DeletePassword: "d", SessionSecret: "s"},
			missing: "ADMIN_PASSWORD",
		},
		{
			name:    "нет пароля удаления",
			auth:    AuthConfig{AdminPassword: "a", SessionSecret: "s"},
			missing: "DELETE_PASSWORD",
		},
		{
			name:    "нет секрета сессии",
			auth:    AuthConfig{AdminPassword: "a", DeletePassword: "d"},
			missing: "SESSION_SECRET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Auth: tt.auth}
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingSecret))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", Database: "triplog", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5432/triplog?sslmode=disable", c.URL())
}

func TestDatabaseConfig_URL_EscapesCredentials(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
	}{
		{name: "собака и слэш", user: "triplog", password: "p@ss/word"},
		{name: "двоеточие и вопрос", user: "trip:log", password: "a:b?c#d"},
		{name: "пробел и процент", user: "triplog", password: "50% off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DatabaseConfig{
				Host: "db", Port: "5432", User: tt.user, Password: tt.password, Database: "triplog", SSLMode: "require",
			}

			u, err := url.Parse(c.URL())
			require.NoError(t, err)

			password, ok := u.User.Password()
			require.True(t, ok)
			assert.Equal(t, tt.user, u.User.Username())
			assert.Equal(t, tt.password, password)
			assert.Equal(t, "db:5432", u.Host)
			assert.Equal(t, "/triplog", u.Path)
			assert.Equal(t, "require", u.Query().Get("sslmode"))
		})
	}
}
