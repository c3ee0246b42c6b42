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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/template"

	"github.com/theirish81/tutor"
	"github.com/theirish81/tutor/scriptengines"
	"gopkg.in/yaml.v3"
)

// newLogger returns the process logger, at debug level when requested
func newLogger(debug bool) *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.Default()
}

// newClient builds the backend client from the global configuration. The --session flag wins over the configured
// session ID.
func newClient() (*tutor.HttpClient, tutor.Config, error) {
	conf := cfg.tutorConfig()
	if sessionID != "" {
		conf.SessionID = sessionID
	}
	client, err := tutor.NewHttpClient(conf)
	return client, conf, err
}

// validateOutputFlags checks the output flags are consistent
func validateOutputFlags() error {
	if format == formatTemplate && templatePath == "" {
		return errors.New("template path must be specified when using format=template")
	}
	if format != formatYAML && format != formatJSON && format != formatTemplate {
		return fmt.Errorf("unsupported format %q", format)
	}
	return nil
}

// buildTransformers turns the transformer flags into a chain. An empty chain means the payload is shown as received.
func buildTransformers() (tutor.Transformers, error) {
	t := tutor.Transformer{Name: "cli"}
	if query != "" {
		t.JmesPath = &query
	}
	if jsonataExpr != "" {
		t.Jsonata = &jsonataExpr
	}
	if exprExpr != "" {
		t.Expr = &exprExpr
	}
	if scriptPath != "" {
		code, err := os.ReadFile(scriptPath)
		if err != nil {
			return nil, fmt.Errorf("could not read script: %w", err)
		}
		t.Code = tutor.StrPtr(string(code))
	}
	if t.JmesPath == nil && t.Jsonata == nil && t.Expr == nil && t.Code == nil {
		return tutor.Transformers{}, nil
	}
	return tutor.Transformers{t}, nil
}

// transformPayload applies the transformers to the decoded payload. With no transformers the payload itself is
// returned, so that its key order survives rendering.
func transformPayload(ctx context.Context, payload *tutor.Payload, transformers tutor.Transformers) (any, error) {
	if payload == nil {
		return nil, tutor.ErrNoPayload
	}
	if len(transformers) == 0 {
		return payload, nil
	}
	return transformers.Transform(ctx, payload.Data, scriptengines.NewJavascriptScriptingEngine())
}

// renderResult renders out according to the selected format
func renderResult(out any) ([]byte, error) {
	switch format {
	case formatJSON:
		if payload, ok := out.(*tutor.Payload); ok {
			return []byte(payload.Pretty() + "\n"), nil
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case formatTemplate:
		tplText, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, err
		}
		tpl, err := template.New("template").Parse(string(tplText))
		if err != nil {
			return nil, err
		}
		if payload, ok := out.(*tutor.Payload); ok {
			out = payload.Data
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, out); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return yaml.Marshal(out)
	}
}

// writeOutput writes to the output file, if any, or to stdout
func writeOutput(data []byte) error {
	if output != "" {
		return os.WriteFile(output, data, 0o644)
	}
	_, err := os.Stdout.Write(data)
	return err
}
