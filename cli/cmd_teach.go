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
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/theirish81/tutor"
	"github.com/theirish81/tutor/log"
)

var (
	audioFile       string
	clarifyQuestion string
	play            bool
	keepAudio       string
)

// teachResult is rendered when a follow-up question was asked along with the lesson
type teachResult struct {
	Lesson any    `json:"lesson" yaml:"lesson"`
	Answer string `json:"answer" yaml:"answer"`
}

var teachCmd = &cobra.Command{
	Use:   "teach [prompt]",
	Short: "Asks the agent for a lesson.",
	Long: `
Asks the agent for a lesson on the prompt, or on a spoken prompt with --audio. The lesson text is synthesized into
speech, which can be played (--play) or saved (--keep-audio). A follow-up question can be asked in the same run with
--clarify.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateOutputFlags(); err != nil {
			cmd.PrintErrln(err)
			return
		}
		transformers, err := buildTransformers()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		logger := newLogger(debug)
		client, conf, err := newClient()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		console := tutor.NewConsole(client, conf.SessionID,
			tutor.WithLogger(log.NewStreamerLogger(logger, nil, log.InfoChannelLevel)),
			tutor.WithAudioStore(tutor.NewAudioStore(conf.AudioDir)))
		defer func() {
			_ = console.Close()
		}()

		ctx, stop := interruptible(cmd.Context())
		defer stop()
		if audioFile != "" {
			data, rerr := os.ReadFile(audioFile)
			if rerr != nil {
				cmd.PrintErrln(rerr)
				return
			}
			err = console.SubmitTeachAudio(ctx, tutor.AudioUpload{Filename: filepath.Base(audioFile), Data: data})
		} else {
			if len(args) > 0 {
				console.SetPrompt(args[0])
			}
			err = console.SubmitTeach(ctx)
		}
		if err != nil {
			cmd.PrintErrln(err)
			// without speech the lesson is still worth showing
			if !errors.Is(err, tutor.ErrSpeech) {
				return
			}
		}

		state := console.Snapshot()
		var out any
		if out, err = transformPayload(ctx, state.Payload, transformers); err != nil {
			cmd.PrintErrln(err)
			return
		}
		if clarifyQuestion != "" {
			console.SetClarifyQuestion(clarifyQuestion)
			if err := console.SubmitClarify(ctx); err != nil {
				cmd.PrintErrln(err)
				return
			}
			out = teachResult{Lesson: out, Answer: console.Snapshot().ClarifyAnswer}
		}

		text, err := renderResult(out)
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		if err := writeOutput(text); err != nil {
			cmd.PrintErrln(err)
			return
		}

		if state.Audio == nil {
			return
		}
		if keepAudio != "" {
			if err := copyAudio(state.Audio, keepAudio); err != nil {
				cmd.PrintErrln(err)
			}
		}
		if play {
			player, err := newAudioPlayer(cfg.AudioPlayer)
			if err != nil {
				cmd.PrintErrln(err)
				return
			}
			if err := player.Play(ctx, state.Audio.Path); err != nil {
				cmd.PrintErrln(fmt.Errorf("could not play audio: %w", err))
			}
		}
	},
}

func init() {
	teachCmd.Flags().StringVarP(&audioFile, "audio", "a", "", "audio file with a spoken prompt")
	teachCmd.Flags().StringVarP(&clarifyQuestion, "clarify", "c", "", "follow-up question to ask after the lesson")
	teachCmd.Flags().StringVarP(&format, "format", "f", formatJSON, "Output format (json, yaml or template)")
	teachCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Go template file (used with -f template)")
	teachCmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	teachCmd.Flags().StringVarP(&query, "query", "q", "", "JMESPath query applied to the lesson")
	teachCmd.Flags().StringVarP(&jsonataExpr, "jsonata", "", "", "Jsonata expression applied to the lesson")
	teachCmd.Flags().StringVarP(&exprExpr, "expr", "", "", "expr expression applied to the lesson")
	teachCmd.Flags().StringVarP(&scriptPath, "script", "", "", "JavaScript file applied to the lesson")
	teachCmd.Flags().BoolVarP(&play, "play", "p", false, "play the lesson audio")
	teachCmd.Flags().StringVarP(&keepAudio, "keep-audio", "k", "", "save the lesson audio to this path")
}

// copyAudio copies the blob out of the store, which deletes it on close
func copyAudio(handle *tutor.AudioHandle, path string) error {
	data, err := os.ReadFile(handle.Path)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += tutor.GetExtension(handle.MediaType)
	}
	return os.WriteFile(path, data, 0o644)
}
