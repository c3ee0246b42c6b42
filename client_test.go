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
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, attempts int) *HttpClient {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := NewConfig()
	cfg.BaseURL = server.URL
	cfg.Attempts = attempts
	cfg.RetryDelay = time.Millisecond
	cfg.AudioDir = t.TempDir()
	client, err := NewHttpClient(cfg)
	require.Nil(t, err)
	return client
}

func TestHttpClient_Teach(t *testing.T) {
	t.Run("sends the prompt as a multipart form", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/teach", r.URL.Path)
			assert.Nil(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "what is a fraction", r.FormValue("user_prompt"))
			assert.Equal(t, "default", r.FormValue("session_id"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"engaged_lessons": {"fractions": "A fraction is..."}}`))
		}), 1)
		payload, err := client.Teach(context.Background(), TeachRequest{UserPrompt: "what is a fraction", SessionID: "default"})
		require.Nil(t, err)
		assert.Equal(t, "A fraction is...", payload.Lessons().Text())
	})
	t.Run("empty prompt is still sent", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, r.ParseMultipartForm(1<<20))
			_, ok := r.MultipartForm.Value["user_prompt"]
			assert.True(t, ok)
			_, _ = w.Write([]byte(`{}`))
		}), 1)
		_, err := client.Teach(context.Background(), TeachRequest{SessionID: "default"})
		assert.Nil(t, err)
	})
	t.Run("sends audio as a file", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, r.ParseMultipartForm(1<<20))
			_, ok := r.MultipartForm.Value["user_prompt"]
			assert.False(t, ok)
			file, header, err := r.FormFile("audio")
			assert.Nil(t, err)
			data, _ := io.ReadAll(file)
			assert.Equal(t, "question.wav", header.Filename)
			assert.Equal(t, "RIFF", string(data))
			_, _ = w.Write([]byte(`{}`))
		}), 1)
		_, err := client.Teach(context.Background(), TeachRequest{SessionID: "default",
			Audio: &AudioUpload{Filename: "question.wav", Data: []byte("RIFF")}})
		assert.Nil(t, err)
	})
	t.Run("non JSON body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html></html>`))
		}), 1)
		_, err := client.Teach(context.Background(), TeachRequest{SessionID: "default"})
		assert.NotNil(t, err)
	})
	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": "Provide user_prompt or audio"}`))
		}), 3)
		_, err := client.Teach(context.Background(), TeachRequest{SessionID: "default"})
		var apiErr *ApiError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "/teach", apiErr.Endpoint)
		assert.Equal(t, int32(1), calls.Load())
	})
	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(`{"lessons": {"a": "b"}}`))
		}), 3)
		payload, err := client.Teach(context.Background(), TeachRequest{SessionID: "default"})
		require.Nil(t, err)
		assert.Equal(t, "b", payload.Lessons().Text())
		assert.Equal(t, int32(3), calls.Load())
	})
}

func TestHttpClient_Speak(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts", r.URL.Path)
		assert.Nil(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "a\nb", r.FormValue("text"))
		w.Header().Set("Content-Type", "audio/wav; rate=16000")
		_, _ = w.Write([]byte("RIFF...."))
	}), 1)
	speech, err := client.Speak(context.Background(), "a\nb")
	require.Nil(t, err)
	assert.Equal(t, MediaWAV, speech.MediaType)
	assert.Equal(t, "RIFF....", string(speech.Data))
}

func TestHttpClient_Clarify(t *testing.T) {
	t.Run("with topic", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/clarify", r.URL.Path)
			assert.Nil(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "why?", r.FormValue("user_question"))
			assert.Equal(t, "fractions", r.FormValue("topic"))
			assert.Equal(t, "s1", r.FormValue("session_id"))
			_, _ = w.Write([]byte(`{"answer": "Because."}`))
		}), 1)
		res, err := client.Clarify(context.Background(), ClarifyRequest{UserQuestion: "why?", Topic: StrPtr("fractions"), SessionID: "s1"})
		require.Nil(t, err)
		assert.Equal(t, "Because.", res.Answer)
	})
	t.Run("without topic the field is still sent", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Nil(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, []string{UndefinedTopic}, r.MultipartForm.Value["topic"])
			assert.Equal(t, "why?", r.FormValue("user_question"))
			assert.Equal(t, "s1", r.FormValue("session_id"))
			_, _ = w.Write([]byte(`{}`))
		}), 1)
		res, err := client.Clarify(context.Background(), ClarifyRequest{UserQuestion: "why?", SessionID: "s1"})
		require.Nil(t, err)
		assert.Equal(t, "", res.Answer)
	})
}

func TestHttpClient_Status(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.Header.Get("User-Agent"), "tutor/")
		_, _ = w.Write([]byte(`{"status": "AI Teacher Agent API running!"}`))
	}), 1)
	status, err := client.Status(context.Background())
	require.Nil(t, err)
	assert.Equal(t, "AI Teacher Agent API running!", status.Status)
}

func TestHttpClient_BearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cr3t", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()
	cfg := NewConfig()
	cfg.BaseURL = server.URL
	cfg.Token = "s3cr3t"
	client, err := NewHttpClient(cfg)
	require.Nil(t, err)
	_, err = client.Status(context.Background())
	assert.Nil(t, err)
}

func TestNewHttpClient_InvalidConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.BaseURL = "::not-an-url"
	_, err := NewHttpClient(cfg)
	assert.NotNil(t, err)
}

func TestHttpClient_ClarifyAfterEmptyLesson(t *testing.T) {
	topics := make(chan []string, 1)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, r.ParseMultipartForm(1<<20))
		switch r.URL.Path {
		case "/teach":
			_, _ = w.Write([]byte(`{}`))
		case "/clarify":
			topics <- r.MultipartForm.Value["topic"]
			_, _ = w.Write([]byte(`{"answer": "Ask me about a lesson first."}`))
		}
	}), 1)
	console := newTestConsole(t, client)
	require.Nil(t, console.SubmitTeach(context.Background()))
	console.SetClarifyQuestion("what now?")
	require.Nil(t, console.SubmitClarify(context.Background()))
	assert.Equal(t, []string{UndefinedTopic}, <-topics)
	assert.Equal(t, "Ask me about a lesson first.", console.Snapshot().ClarifyAnswer)
}
