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

package scriptengines

import (
	"context"
	"time"

	"github.com/dop251/goja"
)

const defaultScriptTimeout = 10 * time.Second

// JavascriptScriptingEngine runs display transformers written in JavaScript. The script sees the data as
// "payload" and its last expression is the result.
type JavascriptScriptingEngine struct {
	timeout time.Duration
}

func NewJavascriptScriptingEngine() *JavascriptScriptingEngine {
	return &JavascriptScriptingEngine{timeout: defaultScriptTimeout}
}

// WithTimeout sets how long a script may run before being interrupted
func (e *JavascriptScriptingEngine) WithTimeout(timeout time.Duration) *JavascriptScriptingEngine {
	e.timeout = timeout
	return e
}

func (e *JavascriptScriptingEngine) RunCode(ctx context.Context, code string, payload any) (any, error) {
	innerCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	vm := goja.New()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-innerCtx.Done():
			vm.Interrupt("timeout")
		case <-done:
		}
	}()
	var args any
	switch t := payload.(type) {
	case []byte:
		args = string(t)
	default:
		args = payload
	}
	if err := vm.Set("payload", args); err != nil {
		return nil, err
	}
	res, err := vm.RunString(code)
	if err != nil {
		return nil, err
	}
	return res.Export(), nil
}
