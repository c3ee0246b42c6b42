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
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theirish81/tutor"
)

// fakeBackend mimics the teaching agent. A prompt of "fail" makes the teach endpoint fail.
type fakeBackend struct {
	server       *httptest.Server
	teachCalls   atomic.Int32
	speakCalls   atomic.Int32
	clarifyCalls atomic.Int32
	lastTopic    atomic.Value
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /teach", func(w http.ResponseWriter, r *http.Request) {
		b.teachCalls.Add(1)
		assert.Nil(t, r.ParseMultipartForm(1<<20))
		if r.FormValue("user_prompt") == "fail" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail": "bad prompt"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"engaged_lessons": {"fractions": "A fraction is a part of a whole", "decimals": "Decimals are fractions too"}}`))
	})
	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		b.speakCalls.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3fake"))
	})
	mux.HandleFunc("POST /clarify", func(w http.ResponseWriter, r *http.Request) {
		b.clarifyCalls.Add(1)
		assert.Nil(t, r.ParseMultipartForm(1<<20))
		b.lastTopic.Store(r.FormValue("topic"))
		_ = json.NewEncoder(w).Encode(map[string]string{"answer": "about " + r.FormValue("topic")})
	})
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

// config returns a library configuration pointing at the fake backend
func (b *fakeBackend) config(t *testing.T) tutor.Config {
	conf := tutor.NewConfig()
	conf.BaseURL = b.server.URL
	conf.AudioDir = t.TempDir()
	conf.RetryDelay = time.Millisecond
	return conf
}

func (b *fakeBackend) client(t *testing.T) (*tutor.HttpClient, tutor.Config) {
	conf := b.config(t)
	client, err := tutor.NewHttpClient(conf)
	require.Nil(t, err)
	return client, conf
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
