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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	teachEndpoint   = "/teach"
	ttsEndpoint     = "/tts"
	clarifyEndpoint = "/clarify"
	statusEndpoint  = "/"
)

const defaultSpeechMediaType = "audio/mpeg"

// HttpClient talks to the teaching service
type HttpClient struct {
	http.Client
	baseURL    string
	attempts   int
	retryDelay time.Duration
}

type Transport struct {
	defaultRoundtripper http.RoundTripper
	userAgent           string
}

func (t Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", t.userAgent)
	return t.defaultRoundtripper.RoundTrip(req)
}

func NewTransport(userAgent string) *Transport {
	return &Transport{
		userAgent:           userAgent,
		defaultRoundtripper: http.DefaultTransport,
	}
}

// NewHttpClient creates a client for the teaching service described by cfg. Authentication is layered on top of
// the transport when cfg carries either a token or OAuth settings.
func NewHttpClient(cfg Config) (*HttpClient, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	var transport http.RoundTripper = NewTransport("tutor/" + Version)
	switch {
	case cfg.OAuth != nil:
		cc := clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Transport: transport})
		transport = &oauth2.Transport{Source: cc.TokenSource(ctx), Base: transport}
	case cfg.Token != "":
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}
	return &HttpClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		attempts:   cfg.Attempts,
		retryDelay: cfg.RetryDelay,
		Client: http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}, nil
}

// Teach sends a prompt, typed or spoken, to the teach endpoint
func (c *HttpClient) Teach(ctx context.Context, req TeachRequest) (*Payload, error) {
	data, _, err := c.postForm(ctx, teachEndpoint, func(writer *multipart.Writer) error {
		if req.Audio != nil {
			part, err := writer.CreateFormFile("audio", req.Audio.Filename)
			if err != nil {
				return err
			}
			if _, err := part.Write(req.Audio.Data); err != nil {
				return err
			}
		} else if err := writer.WriteField("user_prompt", req.UserPrompt); err != nil {
			return err
		}
		return writer.WriteField("session_id", req.SessionID)
	})
	if err != nil {
		return nil, err
	}
	return NewPayload(data)
}

// Speak asks the tts endpoint to synthesize text
func (c *HttpClient) Speak(ctx context.Context, text string) (Speech, error) {
	data, contentType, err := c.postForm(ctx, ttsEndpoint, func(writer *multipart.Writer) error {
		return writer.WriteField("text", text)
	})
	if err != nil {
		return Speech{}, err
	}
	mediaType := defaultSpeechMediaType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil && parsed != "" {
		mediaType = parsed
	}
	return Speech{Data: data, MediaType: mediaType}, nil
}

// Clarify sends a follow-up question to the clarify endpoint
func (c *HttpClient) Clarify(ctx context.Context, req ClarifyRequest) (ClarifyResponse, error) {
	response := ClarifyResponse{}
	data, _, err := c.postForm(ctx, clarifyEndpoint, func(writer *multipart.Writer) error {
		if err := writer.WriteField("user_question", req.UserQuestion); err != nil {
			return err
		}
		topic := UndefinedTopic
		if req.Topic != nil {
			topic = *req.Topic
		}
		if err := writer.WriteField("topic", topic); err != nil {
			return err
		}
		return writer.WriteField("session_id", req.SessionID)
	})
	if err != nil {
		return response, err
	}
	err = json.Unmarshal(data, &response)
	return response, err
}

// Status queries the health endpoint of the teaching service
func (c *HttpClient) Status(ctx context.Context) (Status, error) {
	status := Status{}
	var data []byte
	err := c.retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusEndpoint, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		data, _, err = c.do(req, statusEndpoint)
		return err
	})
	if err != nil {
		return status, err
	}
	err = json.Unmarshal(data, &status)
	return status, err
}

// postForm sends a multipart form to the endpoint, rebuilding the body on every attempt
func (c *HttpClient) postForm(ctx context.Context, endpoint string, fill func(writer *multipart.Writer) error) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := c.retry(ctx, func() error {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		if err := fill(writer); err != nil {
			return retry.Unrecoverable(err)
		}
		if err := writer.Close(); err != nil {
			return retry.Unrecoverable(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		data, contentType, err = c.do(req, endpoint)
		return err
	})
	return data, contentType, err
}

// do runs the request and reads the whole body. Client errors are marked as unrecoverable, server errors and
// transport failures are left to the retry policy.
func (c *HttpClient) do(req *http.Request, endpoint string) ([]byte, string, error) {
	res, err := c.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", err
	}
	if res.StatusCode >= 400 {
		apiErr := &ApiError{Endpoint: endpoint, StatusCode: res.StatusCode, Body: string(data)}
		if res.StatusCode < 500 {
			return nil, "", retry.Unrecoverable(apiErr)
		}
		return nil, "", apiErr
	}
	return data, res.Header.Get("Content-Type"), nil
}

func (c *HttpClient) retry(ctx context.Context, callback func() error) error {
	return Retry(ctx, c.attempts, c.retryDelay, callback)
}
