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
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/theirish81/tutor"
	"github.com/theirish81/tutor/log"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Runs the interactive console.",
	Long: `
Runs the interactive console in the terminal. Type a prompt and press enter to get a lesson, press ctrl+p to listen
to it, then use tab to move to the follow-up question.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, conf, err := newClient()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		// the terminal belongs to the console, logs are only kept when debugging
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		if debug {
			logger = newLogger(true)
		}
		console := tutor.NewConsole(client, conf.SessionID,
			tutor.WithLogger(log.NewStreamerLogger(logger, nil, log.InfoChannelLevel)),
			tutor.WithAudioStore(tutor.NewAudioStore(conf.AudioDir)))
		defer func() {
			_ = console.Close()
		}()
		player, err := newAudioPlayer(cfg.AudioPlayer)
		if err != nil {
			cmd.PrintErrln(err)
		}
		model := newConsoleModel(cmd.Context(), console, player)
		if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
			cmd.PrintErrln(err)
		}
	},
}

type focusArea int

const (
	focusPrompt focusArea = iota
	focusClarify
)

type teachDoneMsg struct{ err error }

type clarifyDoneMsg struct{ err error }

type playDoneMsg struct{ err error }

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// chrome is the number of lines the console uses around the response view
const chrome = 14

type consoleModel struct {
	ctx      context.Context
	console  *tutor.Console
	player   *audioPlayer
	prompt   textinput.Model
	question textinput.Model
	view     viewport.Model
	spinner  spinner.Model
	focus    focusArea
	state    tutor.ConsoleState
	notice   string
	width    int
	// calls started by this model and not completed yet
	teaching   int
	clarifying int
}

func newConsoleModel(ctx context.Context, console *tutor.Console, player *audioPlayer) *consoleModel {
	prompt := textinput.New()
	prompt.Placeholder = "What do you want to learn?"
	prompt.Prompt = "> "
	prompt.Focus()

	question := textinput.New()
	question.Placeholder = "Anything unclear?"
	question.Prompt = "? "

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &consoleModel{
		ctx:      ctx,
		console:  console,
		player:   player,
		prompt:   prompt,
		question: question,
		view:     viewport.New(80, 20),
		spinner:  sp,
		focus:    focusPrompt,
		state:    console.Snapshot(),
		width:    80,
	}
}

func (m *consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.prompt.Width = msg.Width - 4
		m.question.Width = msg.Width - 4
		m.view.Width = msg.Width - 4
		m.view.Height = max(3, msg.Height-chrome)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.toggleFocus()
			return m, nil
		case "enter":
			m.notice = ""
			if m.focus == focusClarify {
				return m, tea.Batch(m.clarifyCmd(), m.spinner.Tick)
			}
			return m, tea.Batch(m.teachCmd(), m.spinner.Tick)
		case "ctrl+p":
			return m, m.playCmd()
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}
		return m, m.updateInput(msg)
	case teachDoneMsg:
		m.teaching--
		m.refresh()
		return m, nil
	case clarifyDoneMsg:
		m.clarifying--
		m.refresh()
		return m, nil
	case playDoneMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("could not play audio: %s", msg.err)
		}
		return m, nil
	case spinner.TickMsg:
		if m.teaching+m.clarifying == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// updateInput feeds a keystroke to the focused input and mirrors its value into the console
func (m *consoleModel) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.focus == focusClarify {
		m.question, cmd = m.question.Update(msg)
		m.console.SetClarifyQuestion(m.question.Value())
		return cmd
	}
	m.prompt, cmd = m.prompt.Update(msg)
	m.console.SetPrompt(m.prompt.Value())
	return cmd
}

// toggleFocus moves between the inputs. The follow-up input only exists once there's a lesson.
func (m *consoleModel) toggleFocus() {
	if m.focus == focusClarify || m.state.Payload == nil {
		m.focus = focusPrompt
		m.question.Blur()
		m.prompt.Focus()
		return
	}
	m.focus = focusClarify
	m.prompt.Blur()
	m.question.Focus()
}

func (m *consoleModel) teachCmd() tea.Cmd {
	m.teaching++
	return func() tea.Msg {
		return teachDoneMsg{err: m.console.SubmitTeach(m.ctx)}
	}
}

func (m *consoleModel) clarifyCmd() tea.Cmd {
	m.clarifying++
	return func() tea.Msg {
		return clarifyDoneMsg{err: m.console.SubmitClarify(m.ctx)}
	}
}

func (m *consoleModel) playCmd() tea.Cmd {
	handle := m.console.Audio()
	if handle == nil {
		m.notice = "no audio yet"
		return nil
	}
	if m.player == nil {
		m.notice = "no audio player configured"
		return nil
	}
	return func() tea.Msg {
		return playDoneMsg{err: m.player.Play(m.ctx, handle.Path)}
	}
}

// refresh reloads the state and the response view
func (m *consoleModel) refresh() {
	m.state = m.console.Snapshot()
	m.view.SetContent(renderState(m.state, m.view.Width))
	if m.state.Payload == nil && m.focus == focusClarify {
		m.toggleFocus()
	}
}

func (m *consoleModel) View() string {
	b := strings.Builder{}
	b.WriteString(titleStyle.Render("tutor") + labelStyle.Render(" session "+m.console.SessionID()) + "\n\n")
	b.WriteString(m.prompt.View() + "\n")
	if m.teaching > 0 {
		b.WriteString(m.spinner.View() + " teaching...\n")
	} else if m.state.TeachError != "" {
		b.WriteString(errorStyle.Render(m.state.TeachError) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(boxStyle.Width(max(20, m.width-2)).Render(m.view.View()) + "\n")
	if m.state.Payload != nil {
		b.WriteString(m.question.View() + "\n")
		if m.clarifying > 0 {
			b.WriteString(m.spinner.View() + " thinking...\n")
		} else if m.state.ClarifyError != "" {
			b.WriteString(errorStyle.Render(m.state.ClarifyError) + "\n")
		}
	}
	if m.notice != "" {
		b.WriteString(labelStyle.Render(m.notice) + "\n")
	}
	audio := "no audio"
	if m.state.Audio != nil {
		audio = fmt.Sprintf("audio ready (%s)", m.state.Audio.MediaType)
	}
	b.WriteString(labelStyle.Render("Enter = send • Tab = focus • Ctrl+P = play • PgUp/PgDn = scroll • Esc = quit • " + audio))
	return b.String()
}

// renderState renders the response area: the lessons, or the raw payload when it carries none, then the answer to
// the follow-up question
func renderState(state tutor.ConsoleState, width int) string {
	if state.Payload == nil {
		return labelStyle.Render("No lesson yet.")
	}
	wrap := lipgloss.NewStyle().Width(max(20, width))
	b := strings.Builder{}
	lessons := state.Payload.Lessons()
	if len(lessons) == 0 {
		b.WriteString(state.Payload.Pretty())
	}
	for i, lesson := range lessons {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(titleStyle.Render(lesson.Topic) + "\n")
		b.WriteString(wrap.Render(lesson.Text))
	}
	if state.ClarifyAnswer != "" {
		b.WriteString("\n\n" + titleStyle.Render("Answer") + "\n")
		b.WriteString(wrap.Render(state.ClarifyAnswer))
	}
	return b.String()
}
