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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.Nil(t, NewConfig().Validate())
	})
	t.Run("base url must be an url", func(t *testing.T) {
		cfg := NewConfig()
		cfg.BaseURL = "not a url"
		assert.NotNil(t, cfg.Validate())
	})
	t.Run("session id is required", func(t *testing.T) {
		cfg := NewConfig()
		cfg.SessionID = ""
		assert.NotNil(t, cfg.Validate())
	})
	t.Run("attempts must be positive", func(t *testing.T) {
		cfg := NewConfig()
		cfg.Attempts = 0
		assert.NotNil(t, cfg.Validate())
	})
	t.Run("oauth needs all its fields", func(t *testing.T) {
		cfg := NewConfig()
		cfg.OAuth = &OAuthConfig{TokenURL: "https://auth.example.com/token", ClientID: "tutor"}
		assert.NotNil(t, cfg.Validate())
		cfg.OAuth.ClientSecret = "secret"
		assert.Nil(t, cfg.Validate())
	})
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{SessionID: "lesson-42", Timeout: time.Second}.WithDefaults()
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "lesson-42", cfg.SessionID)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Equal(t, DefaultAttempts, cfg.Attempts)
	assert.NotEmpty(t, cfg.AudioDir)
	assert.Nil(t, cfg.Validate())
}
