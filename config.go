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

package tutor

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// defaults, matching what the reference teaching service expects out of the box
const (
	DefaultBaseURL    = "http://127.0.0.1:8000"
	DefaultSessionID  = "default"
	DefaultTimeout    = 5 * time.Minute
	DefaultAttempts   = 1
	DefaultRetryDelay = 2 * time.Second
)

// Config defines how to reach the teaching service and where to keep the synthesized audio.
// BaseURL is the root of the teaching service.
// SessionID identifies the conversation on the server side. It's sent with every teach and clarify call.
// Timeout bounds each HTTP call, retries included.
// Attempts is how many times a call is tried before giving up. 1 means no retry.
// AudioDir is where audio handles live while they're current.
// Token, when set, is sent as a bearer token. OAuth, when set, takes precedence and obtains tokens via the
// client credentials flow.
type Config struct {
	BaseURL    string        `json:"baseUrl" yaml:"baseUrl" validate:"required,url"`
	SessionID  string        `json:"sessionId" yaml:"sessionId" validate:"required"`
	Timeout    time.Duration `json:"timeout" yaml:"timeout" validate:"gte=0"`
	Attempts   int           `json:"attempts" yaml:"attempts" validate:"gte=1,lte=10"`
	RetryDelay time.Duration `json:"retryDelay" yaml:"retryDelay" validate:"gte=0"`
	AudioDir   string        `json:"audioDir" yaml:"audioDir" validate:"required"`
	Token      string        `json:"-" yaml:"-"`
	OAuth      *OAuthConfig  `json:"oauth,omitempty" yaml:"oauth,omitempty" validate:"omitempty"`
}

// OAuthConfig configures the OAuth2 client credentials flow
type OAuthConfig struct {
	TokenURL     string   `json:"tokenUrl" yaml:"tokenUrl" validate:"required,url"`
	ClientID     string   `json:"clientId" yaml:"clientId" validate:"required"`
	ClientSecret string   `json:"-" yaml:"-" validate:"required"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// NewConfig returns a Config populated with the defaults
func NewConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		SessionID:  DefaultSessionID,
		Timeout:    DefaultTimeout,
		Attempts:   DefaultAttempts,
		RetryDelay: DefaultRetryDelay,
		AudioDir:   filepath.Join(os.TempDir(), "tutor-audio"),
	}
}

// WithDefaults fills the zero values with the defaults
func (c Config) WithDefaults() Config {
	d := NewConfig()
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.SessionID == "" {
		c.SessionID = d.SessionID
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.Attempts == 0 {
		c.Attempts = d.Attempts
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.AudioDir == "" {
		c.AudioDir = d.AudioDir
	}
	return c
}

// Validate checks the configuration against its constraints
func (c Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}
