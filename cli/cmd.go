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
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	format       string
	output       string
	templatePath string
	debug        bool
	sessionID    string
	query        string
	jsonataExpr  string
	exprExpr     string
	scriptPath   string
)

var rootCmd = cobra.Command{
	Use:   filepath.Base(os.Args[0]),
	Short: "a console for the AI teaching agent",
	Long: `
Tutor sends your questions to an AI teaching agent, shows the lessons it prepares, reads them out loud and lets you ask
follow-up questions on the topic.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session ID (overrides TUTOR_SESSION_ID)")

	rootCmd.AddCommand(teachCmd)
	rootCmd.AddCommand(clarifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(webCmd)
}

// interruptible returns a context cancelled on SIGINT or SIGTERM, so that deferred cleanups get to run
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
