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

package scriptengines

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJavascriptScriptingEngine_RunCode(t *testing.T) {
	engine := NewJavascriptScriptingEngine()
	t.Run("reads the payload", func(t *testing.T) {
		res, err := engine.RunCode(context.Background(), `Object.keys(payload.lessons).join(",")`, map[string]any{
			"lessons": map[string]any{"fractions": "A fraction is..."},
		})
		assert.Nil(t, err)
		assert.Equal(t, "fractions", res)
	})
	t.Run("bytes are passed as a string", func(t *testing.T) {
		res, err := engine.RunCode(context.Background(), `payload.toUpperCase()`, []byte("abc"))
		assert.Nil(t, err)
		assert.Equal(t, "ABC", res)
	})
	t.Run("syntax error", func(t *testing.T) {
		_, err := engine.RunCode(context.Background(), `payload.(`, nil)
		assert.NotNil(t, err)
	})
	t.Run("endless script is interrupted", func(t *testing.T) {
		_, err := NewJavascriptScriptingEngine().WithTimeout(50*time.Millisecond).
			RunCode(context.Background(), `while(true){}`, nil)
		assert.NotNil(t, err)
	})
}
