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

package log

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const GenericEventType EventType = "generic"
const StartEventType EventType = "start"
const EndEventType EventType = "end"
const SkipEventType EventType = "skip"
const ErrorEventType EventType = "error"
const ResultEventType EventType = "result"

type EventComponent string

const ConsoleComponent EventComponent = "console"
const TeachComponent EventComponent = "teach"
const SpeechComponent EventComponent = "speech"
const ClarifyComponent EventComponent = "clarify"
const AudioComponent EventComponent = "audio"
const WebComponent EventComponent = "web"
const McpComponent EventComponent = "mcp"

type ChannelLevel string

const DebugChannelLevel ChannelLevel = "debug"
const InfoChannelLevel ChannelLevel = "info"

type Event struct {
	Level     string         `json:"level"`
	Component EventComponent `json:"component"`
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Time      time.Time      `json:"time"`
	Message   string         `json:"message,omitempty"`
	Session   *string        `json:"session,omitempty"`
	Endpoint  *string        `json:"endpoint,omitempty"`
	Topic     *string        `json:"topic,omitempty"`
	Bytes     *int           `json:"bytes,omitempty"`
	Content   *any           `json:"content,omitempty"`
	Err       *EventError    `json:"error,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
}

type EventError struct {
	Message string
}

func (e EventError) Error() string {
	return e.Message
}

func (e EventError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Message)
}

func NewEvent(eType EventType, component EventComponent) Event {
	return Event{
		Component: component,
		Type:      eType,
		Time:      time.Now(),
		ID:        uuid.NewString(),
	}
}

func (e Event) WithMessage(message string) Event {
	e.Message = message
	return e
}

func (e Event) WithSession(session string) Event {
	e.Session = &session
	return e
}

func (e Event) WithEndpoint(endpoint string) Event {
	e.Endpoint = &endpoint
	return e
}

func (e Event) WithTopic(topic string) Event {
	e.Topic = &topic
	return e
}

func (e Event) WithBytes(bytes int) Event {
	e.Bytes = &bytes
	return e
}

func (e Event) WithErr(err error) Event {
	e.Err = &EventError{Message: err.Error()}
	return e
}

func (e Event) WithContent(content any) Event {
	e.Content = &content
	return e
}

func (e Event) WithArg(key string, value any) Event {
	args := make(map[string]any, len(e.Args)+1)
	for k, v := range e.Args {
		args[k] = v
	}
	args[key] = value
	e.Args = args
	return e
}

// ToArray flattens the event into slog key/value pairs. Unset optional fields are skipped.
func (e Event) ToArray() []any {
	result := make([]any, 0)
	v := reflect.ValueOf(e)
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldName := strings.ToLower(field.Name)

		// Skip fields which make no sense in the logging context
		if slices.Contains([]string{"args", "level", "message", "id", "time", "content"}, fieldName) {
			continue
		}
		fieldValue := v.Field(i)
		if fieldValue.Kind() == reflect.Pointer {
			if fieldValue.IsNil() {
				continue
			}
			result = append(result, fieldName, fieldValue.Elem().Interface())
			continue
		}
		result = append(result, fieldName, fieldValue.Interface())
	}
	for k, val := range e.Args {
		result = append(result, k, val)
	}

	return result
}

// StreamerLogger logs events through slog and, optionally, forwards them to a channel so that a caller can stream
// them (the web console does).
type StreamerLogger struct {
	progressChannel chan Event
	logger          *slog.Logger
	channelLevel    ChannelLevel
}

func NewStreamerLogger(logger *slog.Logger, channel chan Event, channelLevel ChannelLevel) *StreamerLogger {
	return &StreamerLogger{
		logger:          logger,
		progressChannel: channel,
		channelLevel:    channelLevel,
	}
}

func (l *StreamerLogger) Close() {
	if l.progressChannel != nil {
		close(l.progressChannel)
		l.progressChannel = nil
	}
}

func (l *StreamerLogger) Channel() chan Event {
	return l.progressChannel
}

// Slog returns the underlying slog logger
func (l *StreamerLogger) Slog() *slog.Logger {
	return l.logger
}

func (l *StreamerLogger) Debug(event Event) {
	event.Level = "debug"
	l.logger.Debug(event.Message, event.ToArray()...)
	if l.channelLevel == DebugChannelLevel {
		l.Send(event)
	}
}

func (l *StreamerLogger) Info(event Event) {
	event.Level = "info"
	l.logger.Info(event.Message, event.ToArray()...)
	l.Send(event)
}

func (l *StreamerLogger) Warn(event Event) {
	event.Level = "warn"
	l.logger.Warn(event.Message, event.ToArray()...)
	l.Send(event)
}

func (l *StreamerLogger) Err(event Event) {
	event.Level = "err"
	l.logger.Error(event.Message, event.ToArray()...)
	l.Send(event)
}

// Send forwards the event to the channel without ever blocking. Events are dropped when the channel is full.
func (l *StreamerLogger) Send(event Event) {
	if l.progressChannel != nil {
		select {
		case l.progressChannel <- event:
		default:
			l.logger.Warn("streamer logger channel full, dropping event")
		}
	}
}

type loggerKey struct{}

// ContextWithLogger attaches a logger to ctx, overriding the caller's default for the duration of a request
func ContextWithLogger(ctx context.Context, logger *StreamerLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to ctx, or fallback
func FromContext(ctx context.Context, fallback *StreamerLogger) *StreamerLogger {
	if logger, ok := ctx.Value(loggerKey{}).(*StreamerLogger); ok && logger != nil {
		return logger
	}
	return fallback
}
