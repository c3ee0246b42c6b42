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
	"fmt"
)

// ErrSpeech marks a failure of the speech synthesis step that follows a successful teach call
var ErrSpeech = errors.New("speech synthesis failed")

// UndefinedTopic is what the clarify endpoint receives as topic when the lesson has none
const UndefinedTopic = "undefined"

// ErrNoPayload is returned by callers that need a lesson before they can proceed
var ErrNoPayload = errors.New("no lesson has been taught yet")

// TeachRequest is what the teach endpoint receives. When Audio is set, the prompt is spoken rather than typed and
// UserPrompt is not sent.
type TeachRequest struct {
	UserPrompt string       `json:"user_prompt"`
	SessionID  string       `json:"session_id"`
	Audio      *AudioUpload `json:"-"`
}

// AudioUpload is a recorded prompt
type AudioUpload struct {
	Filename string
	Data     []byte
}

// ClarifyRequest is a follow-up question on a topic. A nil Topic is not sent at all.
type ClarifyRequest struct {
	UserQuestion string  `json:"user_question"`
	Topic        *string `json:"topic"`
	SessionID    string  `json:"session_id"`
}

// ClarifyResponse is the answer to a ClarifyRequest
type ClarifyResponse struct {
	Answer string `json:"answer"`
}

// Speech is a synthesized audio blob
type Speech struct {
	Data      []byte
	MediaType string
}

// Status is the teaching service health response
type Status struct {
	Status string `json:"status"`
}

// ApiError is returned when the teaching service answers with a non-2xx status
type ApiError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Agent is the remote teaching service, as seen by the Console
type Agent interface {
	Teach(ctx context.Context, req TeachRequest) (*Payload, error)
	Speak(ctx context.Context, text string) (Speech, error)
	Clarify(ctx context.Context, req ClarifyRequest) (ClarifyResponse, error)
	Status(ctx context.Context) (Status, error)
}
