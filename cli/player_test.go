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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioPlayer_Args(t *testing.T) {
	t.Run("appends the file", func(t *testing.T) {
		player, err := newAudioPlayer("ffplay -nodisp -autoexit")
		require.Nil(t, err)
		name, args := player.args("/tmp/lesson.mp3")
		assert.Equal(t, "ffplay", name)
		assert.Equal(t, []string{"-nodisp", "-autoexit", "/tmp/lesson.mp3"}, args)
	})
	t.Run("replaces the placeholder", func(t *testing.T) {
		player, err := newAudioPlayer("mpv {} --really-quiet")
		require.Nil(t, err)
		name, args := player.args("/tmp/lesson.mp3")
		assert.Equal(t, "mpv", name)
		assert.Equal(t, []string{"/tmp/lesson.mp3", "--really-quiet"}, args)
	})
	t.Run("does not alter the command", func(t *testing.T) {
		player, err := newAudioPlayer("afplay")
		require.Nil(t, err)
		_, first := player.args("a.mp3")
		_, second := player.args("b.mp3")
		assert.Equal(t, []string{"a.mp3"}, first)
		assert.Equal(t, []string{"b.mp3"}, second)
	})
	t.Run("needs a command", func(t *testing.T) {
		_, err := newAudioPlayer("  ")
		assert.NotNil(t, err)
	})
}
