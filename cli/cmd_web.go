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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"github.com/theirish81/tutor"
	"github.com/theirish81/tutor/log"
)

const sessionHeader = "X-Session-ID"

const shutdownTimeout = 10 * time.Second

var port int

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Runs the web console.",
	Long: `
Runs the web console: a single page hosting the console, the JSON API behind it and, under /mcp, the teach and clarify
MCP tools. Each session ID gets its own console, selected with the X-Session-ID header or the session_id query
parameter. When TUTOR_WEB_API_KEY is set, MCP clients must send it in the x-api-key header.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(debug)
		client, conf, err := newClient()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		server := newWebServer(client, conf, logger)
		defer server.Close()
		e := server.echo()
		initMCP(e, server, cfg.WebAPIKey)
		ctx, stop := interruptible(cmd.Context())
		defer stop()
		if err := runServer(ctx, e, fmt.Sprintf(":%d", port)); err != nil {
			cmd.PrintErrln(err)
		}
	},
}

// runServer serves until ctx is done, then shuts the server down gracefully
func runServer(ctx context.Context, e *echo.Echo, address string) error {
	errs := make(chan error, 1)
	go func() {
		errs <- e.Start(address)
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func init() {
	webCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
}

// webServer hosts one console per session
type webServer struct {
	agent    tutor.Agent
	conf     tutor.Config
	logger   *slog.Logger
	consoles *tutor.SafeMap[string, *tutor.Console]
}

func newWebServer(agent tutor.Agent, conf tutor.Config, logger *slog.Logger) *webServer {
	return &webServer{
		agent:    agent,
		conf:     conf,
		logger:   logger,
		consoles: tutor.NewSafeMap[string, *tutor.Console](),
	}
}

// console returns the console of the given session, creating it on first use
func (s *webServer) console(sessionID string) (*tutor.Console, error) {
	if sessionID == "" {
		sessionID = s.conf.SessionID
	}
	if err := checkTraversalPath(sessionID); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return s.consoles.LoadOrCreate(sessionID, func() *tutor.Console {
		return tutor.NewConsole(s.agent, sessionID,
			tutor.WithLogger(log.NewStreamerLogger(s.logger, nil, log.InfoChannelLevel)),
			tutor.WithAudioStore(tutor.NewAudioStore(filepath.Join(s.conf.AudioDir, sessionID))))
	}), nil
}

// Close releases the audio of every console
func (s *webServer) Close() {
	for id, console := range s.consoles.Iter() {
		if err := console.Close(); err != nil {
			s.logger.Warn("could not close console", "session", id, "err", err)
		}
	}
}

func (s *webServer) echo() *echo.Echo {
	e := echo.New()
	addRequestLoggerMiddleware(e, s.logger)
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler
	e.GET("/", func(c echo.Context) error {
		return c.HTMLBlob(http.StatusOK, indexHTML)
	})
	api := e.Group("/api")
	api.GET("/state", s.getState)
	api.POST("/teach", s.postTeach)
	api.POST("/teach/audio", s.postTeachAudio)
	api.POST("/clarify", s.postClarify)
	api.GET("/audio", s.getAudio)
	api.DELETE("/session", s.deleteSession)
	return e
}

type teachRequest struct {
	Prompt string `json:"prompt" form:"prompt"`
}

type clarifyRequest struct {
	Question string `json:"question" form:"question"`
}

// stateResponse is the console state, plus the lesson as reshaped by the query parameter, if any
type stateResponse struct {
	tutor.ConsoleState
	View any `json:"view,omitempty"`
}

func (s *webServer) getState(c echo.Context) error {
	console, err := s.console(sessionFrom(c))
	if err != nil {
		return err
	}
	res, err := newStateResponse(c, console.Snapshot())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, res)
}

func (s *webServer) postTeach(c echo.Context) error {
	req := teachRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}
	console, err := s.console(sessionFrom(c))
	if err != nil {
		return err
	}
	console.SetPrompt(req.Prompt)
	return s.run(c, console, console.SubmitTeach)
}

func (s *webServer) postTeachAudio(c echo.Context) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "an audio file is required")
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		_ = src.Close()
	}()
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}
	console, err := s.console(sessionFrom(c))
	if err != nil {
		return err
	}
	upload := tutor.AudioUpload{Filename: file.Filename, Data: data}
	return s.run(c, console, func(ctx context.Context) error {
		return console.SubmitTeachAudio(ctx, upload)
	})
}

func (s *webServer) postClarify(c echo.Context) error {
	req := clarifyRequest{}
	if err := c.Bind(&req); err != nil {
		return err
	}
	console, err := s.console(sessionFrom(c))
	if err != nil {
		return err
	}
	if console.Snapshot().Payload == nil {
		return tutor.ErrNoPayload
	}
	console.SetClarifyQuestion(req.Question)
	return s.run(c, console, console.SubmitClarify)
}

func (s *webServer) getAudio(c echo.Context) error {
	console, err := s.console(sessionFrom(c))
	if err != nil {
		return err
	}
	handle := console.Audio()
	if handle == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no audio")
	}
	c.Response().Header().Set(echo.HeaderContentType, handle.MediaType)
	return c.File(handle.Path)
}

func (s *webServer) deleteSession(c echo.Context) error {
	sessionID := sessionFrom(c)
	if sessionID == "" {
		sessionID = s.conf.SessionID
	}
	if console, ok := s.consoles.Delete(sessionID); ok {
		if err := console.Close(); err != nil {
			return err
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// run executes a console sequence. With stream=true the console events are streamed, followed by a result event
// carrying the state; otherwise the state is returned when the sequence completes.
func (s *webServer) run(c echo.Context, console *tutor.Console, sequence func(ctx context.Context) error) error {
	if c.QueryParam("stream") != "true" {
		err := sequence(c.Request().Context())
		res, rerr := newStateResponse(c, console.Snapshot())
		if rerr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, rerr.Error())
		}
		return c.JSON(statusFor(err), res)
	}
	streamLogger := log.NewStreamerLogger(s.logger, make(chan log.Event, 100), log.InfoChannelLevel)
	streamer := NewStreamer(c, streamLogger)
	streamer.Start()
	err := sequence(log.ContextWithLogger(c.Request().Context(), streamLogger))
	final := log.NewEvent(log.ResultEventType, log.WebComponent).WithSession(console.SessionID())
	if res, rerr := newStateResponse(c, console.Snapshot()); rerr != nil {
		final = final.WithErr(rerr)
	} else {
		final = final.WithContent(res)
	}
	if err != nil {
		final = final.WithErr(err)
	}
	return streamer.Finish(final)
}

func newStateResponse(c echo.Context, state tutor.ConsoleState) (stateResponse, error) {
	res := stateResponse{ConsoleState: state}
	query := c.QueryParam("query")
	if query == "" || state.Payload == nil {
		return res, nil
	}
	view, err := tutor.Transformers{{Name: "query", JmesPath: &query}}.Transform(c.Request().Context(), state.Payload.Data, nil)
	if err != nil {
		return res, err
	}
	res.View = view
	return res, nil
}

// sessionFrom returns the session selected by the request, if any
func sessionFrom(c echo.Context) string {
	if id := c.Request().Header.Get(sessionHeader); id != "" {
		return id
	}
	return c.QueryParam("session_id")
}

// statusFor maps a sequence error to the status code returned along with the state
func statusFor(err error) int {
	apiErr := &tutor.ApiError{}
	httpErr := &echo.HTTPError{}
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, tutor.ErrNoPayload):
		return http.StatusConflict
	case errors.Is(err, tutor.ErrSpeech), errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errorHandler = func(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	message := err.Error()
	if httpErr, ok := err.(*echo.HTTPError); ok {
		message = fmt.Sprint(httpErr.Message)
	}
	_ = c.JSON(statusFor(err), echo.Map{"error": message})
}

// addRequestLoggerMiddleware adds a middleware that logs each request.
func addRequestLoggerMiddleware(e *echo.Echo, log *slog.Logger) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.LogAttrs(context.Background(), slog.LevelInfo, "REQUEST",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
				)
			} else {
				log.LogAttrs(context.Background(), slog.LevelError, "REQUEST_ERROR",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
				)
			}
			return nil
		},
	}))
}

// checkTraversalPath checks a session ID is safe to use as a directory name
func checkTraversalPath(name string) error {
	if strings.Contains(name, "..") ||
		strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid session ID: %s", name)
	}
	return nil
}
