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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayload(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		p, err := NewPayload([]byte(` {"session_id": "default", "lessons": {}} `))
		require.Nil(t, err)
		assert.Equal(t, `{"session_id": "default", "lessons": {}}`, string(p.Raw))
		assert.Equal(t, map[string]any{"session_id": "default", "lessons": map[string]any{}}, p.Data)
	})
	t.Run("invalid document", func(t *testing.T) {
		_, err := NewPayload([]byte(`<html>Internal Server Error</html>`))
		assert.NotNil(t, err)
	})
	t.Run("marshals verbatim", func(t *testing.T) {
		p, err := NewPayload([]byte(`{"z":1,"a":2}`))
		require.Nil(t, err)
		data, err := json.Marshal(struct {
			Payload *Payload `json:"payload"`
		}{p})
		require.Nil(t, err)
		assert.Equal(t, `{"payload":{"z":1,"a":2}}`, string(data))
	})
	t.Run("pretty keeps the key order", func(t *testing.T) {
		p, err := NewPayload([]byte(`{"z":1,"a":2}`))
		require.Nil(t, err)
		assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 2\n}", p.Pretty())
	})
}

func TestPayload_Lessons(t *testing.T) {
	lessonsOf := func(body string) Lessons {
		p, err := NewPayload([]byte(body))
		require.Nil(t, err)
		return p.Lessons()
	}
	t.Run("engaged lessons win", func(t *testing.T) {
		l := lessonsOf(`{"lessons": {"a": "plain"}, "engaged_lessons": {"a": "engaging"}}`)
		assert.Equal(t, Lessons{{Topic: "a", Text: "engaging"}}, l)
	})
	t.Run("fallback to lessons", func(t *testing.T) {
		l := lessonsOf(`{"lessons": {"fractions": "A fraction is..."}}`)
		assert.Equal(t, "A fraction is...", l.Text())
		topic, ok := l.FirstTopic()
		assert.True(t, ok)
		assert.Equal(t, "fractions", topic)
	})
	t.Run("null engaged lessons fall back", func(t *testing.T) {
		l := lessonsOf(`{"engaged_lessons": null, "lessons": {"a": "b"}}`)
		assert.Equal(t, "b", l.Text())
	})
	t.Run("empty engaged lessons do not fall back", func(t *testing.T) {
		l := lessonsOf(`{"engaged_lessons": {}, "lessons": {"a": "b"}}`)
		assert.Empty(t, l)
		_, ok := l.FirstTopic()
		assert.False(t, ok)
	})
	t.Run("nothing to select", func(t *testing.T) {
		assert.Equal(t, "", lessonsOf(`{}`).Text())
		assert.Equal(t, "", lessonsOf(`[1,2]`).Text())
		assert.Equal(t, "", lessonsOf(`{"lessons": "not an object"}`).Text())
	})
	t.Run("nil payload", func(t *testing.T) {
		var p *Payload
		assert.Empty(t, p.Lessons())
	})
}

func TestLessons_UnmarshalJSON(t *testing.T) {
	t.Run("keeps the document order", func(t *testing.T) {
		l := Lessons{}
		require.Nil(t, json.Unmarshal([]byte(`{"zeta": "z", "alpha": "a", "mid": "m"}`), &l))
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, l.Topics())
		assert.Equal(t, "z\na\nm", l.Text())
	})
	t.Run("non string values", func(t *testing.T) {
		l := Lessons{}
		require.Nil(t, json.Unmarshal([]byte(`{"n": 3, "o": {"k": [1, 2]}, "x": null, "b": true}`), &l))
		assert.Equal(t, Lessons{
			{Topic: "n", Text: "3"},
			{Topic: "o", Text: `{"k":[1,2]}`},
			{Topic: "x", Text: ""},
			{Topic: "b", Text: "true"},
		}, l)
	})
	t.Run("repeated key keeps its first position", func(t *testing.T) {
		l := Lessons{}
		require.Nil(t, json.Unmarshal([]byte(`{"a": "1", "b": "2", "a": "3"}`), &l))
		assert.Equal(t, Lessons{{Topic: "a", Text: "3"}, {Topic: "b", Text: "2"}}, l)
	})
	t.Run("not an object", func(t *testing.T) {
		l := Lessons{}
		assert.NotNil(t, json.Unmarshal([]byte(`["a"]`), &l))
	})
}
