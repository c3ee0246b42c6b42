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

	"github.com/blues/jsonata-go"
	"github.com/expr-lang/expr"
	"github.com/jmespath/go-jmespath"
)

// Transformer reshapes a decoded payload before it gets displayed, using a JMESPath query, a Jsonata expression, an
// expr expression and/or a script, applied in that order. The expr and script steps see the data as "payload".
type Transformer struct {
	Name     string  `yaml:"name" json:"name"`
	JmesPath *string `yaml:"jmesPath,omitempty" json:"jmesPath,omitempty"`
	Jsonata  *string `yaml:"jsonata,omitempty" json:"jsonata,omitempty"`
	Expr     *string `yaml:"expr,omitempty" json:"expr,omitempty"`
	Code     *string `yaml:"code,omitempty" json:"code,omitempty"`
}

type Transformers []Transformer

// Transform applies the transformation to the given data
func (t Transformer) Transform(ctx context.Context, data any, engine ScriptEngine) (any, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if t.JmesPath != nil {
		var err error
		data, err = jmespath.Search(*t.JmesPath, data)
		if err != nil {
			return nil, err
		}
	}
	if t.Jsonata != nil {
		script, err := jsonata.Compile(*t.Jsonata)
		if err != nil {
			return nil, err
		}
		data, err = script.Eval(data)
		if err != nil {
			return nil, err
		}
	}
	if t.Expr != nil {
		env := map[string]any{"payload": data}
		program, err := expr.Compile(*t.Expr, expr.Env(env))
		if err != nil {
			return nil, err
		}
		data, err = expr.Run(program, env)
		if err != nil {
			return nil, err
		}
	}
	if t.Code != nil {
		if engine == nil {
			return nil, errors.New("transformer " + t.Name + " has code but no script engine is available")
		}
		var err error
		if data, err = engine.RunCode(ctx, *t.Code, data); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// Transform applies all the transformations to the given data
func (t Transformers) Transform(ctx context.Context, data any, engine ScriptEngine) (any, error) {
	tmp := data
	var err error
	for _, tx := range t {
		tmp, err = tx.Transform(ctx, tmp, engine)
		if err != nil {
			return tmp, err
		}
	}
	return tmp, nil
}
