package oauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/userapi/internal/platform/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultStateTTL bounds how long a started login may wait for its callback.
	DefaultStateTTL = 10 * time.Minute
	// DefaultUserInfoURL is Google's OpenID Connect userinfo endpoint.
	DefaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Config describes the Google client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
	StateTTL     time.Duration

	// Endpoint overrides; empty values use Google's endpoints.
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// googleEnv holds raw env values for Google sign-in.
type googleEnv struct {
	ClientID     string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	CallbackURL  string        `env:"GOOGLE_CALLBACK_URL"`
	Scopes       []string      `env:"GOOGLE_SCOPES"    envSeparator:","`
	StateTTL     time.Duration `env:"GOOGLE_STATE_TTL" envDefault:"10m"`
}

// LoadConfigFromEnv loads Google sign-in configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	var raw googleEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, fmt.Errorf("oauth config: %w", err)
	}
	return Config{
		ClientID:     strings.TrimSpace(raw.ClientID),
		ClientSecret: strings.TrimSpace(raw.ClientSecret),
		CallbackURL:  strings.TrimSpace(raw.CallbackURL),
		Scopes:       trimCSV(raw.Scopes),
		StateTTL:     raw.StateTTL,
	}, nil
}

// Enabled reports whether all three client settings are present.
// The literal value "none" counts as absent.
func (c Config) Enabled() bool {
	for _, value := range []string{c.ClientID, c.ClientSecret, c.CallbackURL} {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "none") {
			return false
		}
	}
	return true
}

func (c Config) oauth2Config() *oauth2.Config {
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	endpoint := google.Endpoint
	if c.AuthURL != "" {
		endpoint.AuthURL = c.AuthURL
	}
	if c.TokenURL != "" {
		endpoint.TokenURL = c.TokenURL
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.CallbackURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

func (c Config) userInfoURL() string {
	if c.UserInfoURL != "" {
		return c.UserInfoURL
	}
	return DefaultUserInfoURL
}

func (c Config) stateTTL() time.Duration {
	if c.StateTTL <= 0 {
		return DefaultStateTTL
	}
	return c.StateTTL
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
