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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// the payload keys carrying lessons, by priority
const (
	EngagedLessonsKey = "engaged_lessons"
	LessonsKey        = "lessons"
)

var lessonKeys = []string{EngagedLessonsKey, LessonsKey}

// Payload is the body returned by the teach endpoint. Raw holds the document exactly as the server sent it, so
// that key order survives; Data is its decoded form, for transformers and templates.
type Payload struct {
	Raw  json.RawMessage
	Data any
}

// NewPayload builds a Payload from a JSON document
func NewPayload(body []byte) (*Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, errors.New("teach response is not valid JSON")
	}
	var data any
	if err := json.Unmarshal(trimmed, &data); err != nil {
		return nil, err
	}
	raw := make(json.RawMessage, len(trimmed))
	copy(raw, trimmed)
	return &Payload{Raw: raw, Data: data}, nil
}

// MarshalJSON returns the payload verbatim
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p.Raw) == 0 {
		return []byte("null"), nil
	}
	return p.Raw, nil
}

// MarshalYAML renders the decoded payload
func (p Payload) MarshalYAML() (any, error) {
	return p.Data, nil
}

// Pretty returns the payload indented, in the server's key order
func (p *Payload) Pretty() string {
	if p == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Raw, "", "  "); err != nil {
		return string(p.Raw)
	}
	return buf.String()
}

// Lessons returns the first lesson mapping present in the payload: engaged_lessons, then lessons. A key counts as
// present when it holds a JSON object. When neither does, the result is empty.
func (p *Payload) Lessons() Lessons {
	if p == nil {
		return Lessons{}
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(p.Raw, &fields); err != nil {
		// not an object, nothing to select from
		return Lessons{}
	}
	for _, key := range lessonKeys {
		raw, ok := fields[key]
		if !ok || !isJSONObject(raw) {
			continue
		}
		lessons := Lessons{}
		if err := json.Unmarshal(raw, &lessons); err != nil {
			continue
		}
		return lessons
	}
	return Lessons{}
}

// Lesson is a single topic/lesson pair
type Lesson struct {
	Topic string `json:"topic" yaml:"topic"`
	Text  string `json:"text" yaml:"text"`
}

// Lessons is a lesson mapping that remembers the order the topics were sent in
type Lessons []Lesson

// UnmarshalJSON decodes a JSON object into Lessons, preserving key order. String values are taken as they are,
// null becomes the empty string and anything else is kept as compact JSON text. A repeated key keeps its first
// position and its last value.
func (l *Lessons) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("lessons must be a JSON object, got %v", tok)
	}
	out := make(Lessons, 0)
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected lesson key %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		text := lessonText(raw)
		if i, seen := index[key]; seen {
			out[i].Text = text
			continue
		}
		index[key] = len(out)
		out = append(out, Lesson{Topic: key, Text: text})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*l = out
	return nil
}

// Text joins all lesson texts with a newline, in order
func (l Lessons) Text() string {
	return strings.Join(lo.Map(l, func(item Lesson, _ int) string {
		return item.Text
	}), "\n")
}

// Topics returns the lesson topics, in order
func (l Lessons) Topics() []string {
	return lo.Map(l, func(item Lesson, _ int) string {
		return item.Topic
	})
}

// FirstTopic returns the first topic, if any
func (l Lessons) FirstTopic() (string, bool) {
	if len(l) == 0 {
		return "", false
	}
	return l[0].Topic, true
}

func lessonText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
