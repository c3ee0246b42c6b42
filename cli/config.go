/*
 * Copyright (C) 2026 Simone Pezzano
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"strings"

	"github.com/samber/lo"
	"github.com/theirish81/tutor"
)

// supported output formats
const (
	formatTemplate = "template"
	formatYAML     = "yaml"
	formatJSON     = "json"
)

type Config struct {
	BaseURL           string `mapstructure:"TUTOR_BASE_URL" yaml:"TUTOR_BASE_URL"`
	SessionID         string `mapstructure:"TUTOR_SESSION_ID" yaml:"TUTOR_SESSION_ID"`
	Timeout           string `mapstructure:"TUTOR_TIMEOUT" yaml:"TUTOR_TIMEOUT"`
	Attempts          int    `mapstructure:"TUTOR_ATTEMPTS" yaml:"TUTOR_ATTEMPTS"`
	RetryDelay        string `mapstructure:"TUTOR_RETRY_DELAY" yaml:"TUTOR_RETRY_DELAY"`
	AudioDir          string `mapstructure:"TUTOR_AUDIO_DIR" yaml:"TUTOR_AUDIO_DIR"`
	AudioPlayer       string `mapstructure:"TUTOR_AUDIO_PLAYER" yaml:"TUTOR_AUDIO_PLAYER"`
	Token             string `mapstructure:"TUTOR_TOKEN" yaml:"TUTOR_TOKEN"`
	OAuthTokenURL     string `mapstructure:"TUTOR_OAUTH_TOKEN_URL" yaml:"TUTOR_OAUTH_TOKEN_URL"`
	OAuthClientID     string `mapstructure:"TUTOR_OAUTH_CLIENT_ID" yaml:"TUTOR_OAUTH_CLIENT_ID"`
	OAuthClientSecret string `mapstructure:"TUTOR_OAUTH_CLIENT_SECRET" yaml:"TUTOR_OAUTH_CLIENT_SECRET"`
	OAuthScopes       string `mapstructure:"TUTOR_OAUTH_SCOPES" yaml:"TUTOR_OAUTH_SCOPES"`
	WebAPIKey         string `mapstructure:"TUTOR_WEB_API_KEY" yaml:"TUTOR_WEB_API_KEY"`
}

// defaultConfig is what an empty .env amounts to
func defaultConfig() Config {
	d := tutor.NewConfig()
	return Config{
		BaseURL:     d.BaseURL,
		SessionID:   d.SessionID,
		Timeout:     d.Timeout.String(),
		Attempts:    d.Attempts,
		RetryDelay:  d.RetryDelay.String(),
		AudioDir:    d.AudioDir,
		AudioPlayer: defaultAudioPlayer,
	}
}

// tutorConfig converts the CLI settings into the library configuration
func (c Config) tutorConfig() tutor.Config {
	d := tutor.NewConfig()
	out := tutor.Config{
		BaseURL:    c.BaseURL,
		SessionID:  c.SessionID,
		Timeout:    tutor.ParseDurationOrDefault(&c.Timeout, d.Timeout),
		Attempts:   c.Attempts,
		RetryDelay: tutor.ParseDurationOrDefault(&c.RetryDelay, d.RetryDelay),
		AudioDir:   c.AudioDir,
		Token:      c.Token,
	}
	if c.OAuthTokenURL != "" || c.OAuthClientID != "" {
		out.OAuth = &tutor.OAuthConfig{
			TokenURL:     c.OAuthTokenURL,
			ClientID:     c.OAuthClientID,
			ClientSecret: c.OAuthClientSecret,
			Scopes:       strings.Fields(c.OAuthScopes),
		}
	}
	return out.WithDefaults()
}

// masked returns a copy of the configuration that is safe to print
func (c Config) masked() Config {
	mask := func(s string) string {
		return lo.Ternary(s == "", "", "********")
	}
	c.Token = mask(c.Token)
	c.OAuthClientSecret = mask(c.OAuthClientSecret)
	c.WebAPIKey = mask(c.WebAPIKey)
	return c
}

var cfg = Config{}
