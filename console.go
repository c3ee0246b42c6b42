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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jinzhu/copier"
	"github.com/theirish81/tutor/log"
)

// ConsoleState is what a Console shows. Payload and Audio are never mutated once assigned, so a snapshot can share
// them with the console.
// Prompt is the text of the main input.
// Payload is the last successful teach response, nil until the first one arrives.
// ClarifyQuestion and ClarifyAnswer are the follow-up input and the last answer received.
// Audio is the current synthesized lesson, nil until a teach call produces lesson text.
// TeachError and ClarifyError carry the failure of the last call of each sequence, empty after a success.
// TeachPending and ClarifyPending count the calls in flight.
type ConsoleState struct {
	Prompt          string       `json:"prompt" yaml:"prompt"`
	Payload         *Payload     `json:"payload" yaml:"payload"`
	ClarifyQuestion string       `json:"clarifyQuestion" yaml:"clarifyQuestion"`
	ClarifyAnswer   string       `json:"clarifyAnswer" yaml:"clarifyAnswer"`
	Audio           *AudioHandle `json:"audio" yaml:"audio"`
	TeachError      string       `json:"teachError,omitempty" yaml:"teachError,omitempty"`
	ClarifyError    string       `json:"clarifyError,omitempty" yaml:"clarifyError,omitempty"`
	TeachPending    int          `json:"teachPending" yaml:"teachPending"`
	ClarifyPending  int          `json:"clarifyPending" yaml:"clarifyPending"`
}

// Busy tells whether any call is in flight
func (s ConsoleState) Busy() bool {
	return s.TeachPending > 0 || s.ClarifyPending > 0
}

// Console is the Prompt Console: it holds the state of a teaching conversation and drives the teach and clarify
// sequences against an Agent. Calls may overlap; the last response to arrive wins for each piece of state.
type Console struct {
	agent     Agent
	audio     *AudioStore
	sessionID string
	logger    *log.StreamerLogger
	mx        sync.Mutex
	state     ConsoleState
}

// ConsoleOptions are options for the console.
type ConsoleOptions struct {
	logger     *log.StreamerLogger
	audioStore *AudioStore
}

// ConsoleOption is an option for the console.
type ConsoleOption func(*ConsoleOptions)

// WithLogger sets the logger for the console.
func WithLogger(logger *log.StreamerLogger) ConsoleOption {
	return func(o *ConsoleOptions) {
		o.logger = logger
	}
}

// WithAudioStore sets where the console keeps its audio.
func WithAudioStore(store *AudioStore) ConsoleOption {
	return func(o *ConsoleOptions) {
		o.audioStore = store
	}
}

// NewConsole creates a console for the given session.
func NewConsole(agent Agent, sessionID string, options ...ConsoleOption) *Console {
	opts := ConsoleOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = log.NewStreamerLogger(slog.Default(), nil, log.InfoChannelLevel)
	}
	if opts.audioStore == nil {
		opts.audioStore = NewAudioStore(filepath.Join(os.TempDir(), "tutor-audio", sessionID))
	}
	return &Console{
		agent:     agent,
		audio:     opts.audioStore,
		sessionID: sessionID,
		logger:    opts.logger,
	}
}

// SessionID returns the session this console talks in
func (c *Console) SessionID() string {
	return c.sessionID
}

// SetPrompt sets the text of the main input
func (c *Console) SetPrompt(prompt string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.state.Prompt = prompt
}

// SetClarifyQuestion sets the text of the follow-up input
func (c *Console) SetClarifyQuestion(question string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.state.ClarifyQuestion = question
}

// Snapshot returns a copy of the current state
func (c *Console) Snapshot() ConsoleState {
	c.mx.Lock()
	defer c.mx.Unlock()
	out := ConsoleState{}
	if err := copier.Copy(&out, &c.state); err != nil {
		// every field is a value or an immutable pointer, so a plain copy is still a snapshot
		c.logger.Warn(log.NewEvent(log.ErrorEventType, log.ConsoleComponent).WithSession(c.sessionID).WithErr(err))
		out = c.state
	}
	out.Audio = c.audio.Current()
	return out
}

// Audio returns the current audio handle, or nil
func (c *Console) Audio() *AudioHandle {
	return c.audio.Current()
}

// SubmitTeach sends the current prompt to the teach endpoint. The prompt is not validated: an empty prompt is sent
// as such.
func (c *Console) SubmitTeach(ctx context.Context) error {
	c.mx.Lock()
	prompt := c.state.Prompt
	c.mx.Unlock()
	return c.teach(ctx, TeachRequest{UserPrompt: prompt, SessionID: c.sessionID})
}

// SubmitTeachAudio sends a spoken prompt to the teach endpoint
func (c *Console) SubmitTeachAudio(ctx context.Context, upload AudioUpload) error {
	return c.teach(ctx, TeachRequest{SessionID: c.sessionID, Audio: &upload})
}

// teach runs the teach sequence: on success the payload is replaced unconditionally, then if the payload carries
// lesson text, that text is synthesized and becomes the new audio handle. On failure the previous state stays
// and the error is recorded.
func (c *Console) teach(ctx context.Context, req TeachRequest) error {
	logger := log.FromContext(ctx, c.logger)
	c.track(&c.state.TeachPending, 1)
	defer c.track(&c.state.TeachPending, -1)

	logger.Info(log.NewEvent(log.StartEventType, log.TeachComponent).WithSession(c.sessionID).WithEndpoint(teachEndpoint))
	payload, err := c.agent.Teach(ctx, req)
	if err != nil {
		err = fmt.Errorf("teach request failed: %w", err)
		c.setTeachError(err)
		logger.Err(log.NewEvent(log.ErrorEventType, log.TeachComponent).WithSession(c.sessionID).WithErr(err))
		return err
	}
	c.mx.Lock()
	c.state.Payload = payload
	c.state.TeachError = ""
	c.mx.Unlock()

	lessons := payload.Lessons()
	logger.Info(log.NewEvent(log.EndEventType, log.TeachComponent).WithSession(c.sessionID).
		WithBytes(len(payload.Raw)).WithArg("topics", lessons.Topics()))

	text := lessons.Text()
	if text == "" {
		logger.Debug(log.NewEvent(log.SkipEventType, log.SpeechComponent).WithMessage("no lesson text to synthesize"))
		return nil
	}

	logger.Info(log.NewEvent(log.StartEventType, log.SpeechComponent).WithEndpoint(ttsEndpoint).WithBytes(len(text)))
	speech, err := c.agent.Speak(ctx, text)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSpeech, err)
		c.setTeachError(err)
		logger.Err(log.NewEvent(log.ErrorEventType, log.SpeechComponent).WithErr(err))
		return err
	}
	handle, err := c.audio.Replace(speech.Data, speech.MediaType)
	if handle == nil {
		err = fmt.Errorf("%w: %w", ErrSpeech, err)
		c.setTeachError(err)
		logger.Err(log.NewEvent(log.ErrorEventType, log.AudioComponent).WithErr(err))
		return err
	}
	if err != nil {
		// the new handle is in place, only the old blob leaked
		logger.Warn(log.NewEvent(log.ErrorEventType, log.AudioComponent).WithErr(err))
	}
	logger.Info(log.NewEvent(log.EndEventType, log.AudioComponent).WithBytes(handle.Size).
		WithArg("audio", handle.ID).WithArg("mediaType", handle.MediaType))
	return nil
}

// SubmitClarify sends the follow-up question, about the first topic of the current payload. Nothing is sent when
// there's no question or when no teach call has succeeded yet.
func (c *Console) SubmitClarify(ctx context.Context) error {
	logger := log.FromContext(ctx, c.logger)
	c.mx.Lock()
	question := c.state.ClarifyQuestion
	payload := c.state.Payload
	c.mx.Unlock()
	if question == "" || payload == nil {
		logger.Debug(log.NewEvent(log.SkipEventType, log.ClarifyComponent).WithMessage("nothing to clarify"))
		return nil
	}

	c.track(&c.state.ClarifyPending, 1)
	defer c.track(&c.state.ClarifyPending, -1)

	req := ClarifyRequest{UserQuestion: question, SessionID: c.sessionID}
	event := log.NewEvent(log.StartEventType, log.ClarifyComponent).WithSession(c.sessionID).WithEndpoint(clarifyEndpoint)
	if topic, ok := payload.Lessons().FirstTopic(); ok {
		req.Topic = &topic
		event = event.WithTopic(topic)
	}
	logger.Info(event)
	res, err := c.agent.Clarify(ctx, req)
	if err != nil {
		err = fmt.Errorf("clarify request failed: %w", err)
		c.mx.Lock()
		c.state.ClarifyError = err.Error()
		c.mx.Unlock()
		logger.Err(log.NewEvent(log.ErrorEventType, log.ClarifyComponent).WithSession(c.sessionID).WithErr(err))
		return err
	}
	c.mx.Lock()
	c.state.ClarifyAnswer = res.Answer
	c.state.ClarifyError = ""
	c.mx.Unlock()
	logger.Info(log.NewEvent(log.EndEventType, log.ClarifyComponent).WithSession(c.sessionID).WithBytes(len(res.Answer)))
	return nil
}

// Close releases the audio handle
func (c *Console) Close() error {
	return c.audio.Close()
}

func (c *Console) setTeachError(err error) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.state.TeachError = err.Error()
}

func (c *Console) track(counter *int, delta int) {
	c.mx.Lock()
	defer c.mx.Unlock()
	*counter += delta
}
