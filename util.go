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
	"time"

	"github.com/avast/retry-go/v5"
)

// Version is the client version, reported in the User-Agent header and by the MCP server
const Version = "0.3.0"

// ParseDurationOrDefault parses a duration string into a time.Duration, or returns the default duration if parsing
// fails
func ParseDurationOrDefault(durationStr *string, defaultDuration time.Duration) time.Duration {
	if durationStr == nil || *durationStr == "" {
		return defaultDuration
	}
	parsedDuration, err := time.ParseDuration(*durationStr)
	if err != nil {
		return defaultDuration
	}
	return parsedDuration
}

// StrPtr returns a pointer to a string
func StrPtr(s string) *string { return &s }

func Ptr[T any](t T) *T { return &t }

// Retry runs callback up to attempts times, waiting delay between attempts. Errors wrapped with
// retry.Unrecoverable stop the loop immediately. Only the last error is returned.
func Retry(ctx context.Context, attempts int, delay time.Duration, callback func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	return retry.New(
		retry.Attempts(uint(attempts)),
		retry.Delay(delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	).Do(callback)
}
