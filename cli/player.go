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
	"os"
	"os/exec"
	"strings"

	"github.com/samber/lo"
)

const defaultAudioPlayer = "ffplay -nodisp -autoexit -loglevel quiet"

// audioPath is the placeholder the player command can use to position the file argument
const audioPath = "{}"

// audioPlayer plays audio files through an external command
type audioPlayer struct {
	command []string
}

func newAudioPlayer(command string) (*audioPlayer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("no audio player configured")
	}
	return &audioPlayer{command: fields}, nil
}

// args returns the command line for the given file. The file replaces any {} placeholder, or gets appended.
func (p *audioPlayer) args(path string) (string, []string) {
	args := p.command[1:]
	if lo.Contains(args, audioPath) {
		args = lo.Map(args, func(arg string, _ int) string {
			return lo.Ternary(arg == audioPath, path, arg)
		})
	} else {
		args = append(append([]string{}, args...), path)
	}
	return p.command[0], args
}

// Play blocks until the player exits or ctx is done
func (p *audioPlayer) Play(ctx context.Context, path string) error {
	name, args := p.args(path)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
