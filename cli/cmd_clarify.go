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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theirish81/tutor"
)

var topic string

var clarifyCmd = &cobra.Command{
	Use:   "clarify <question>",
	Short: "Asks the agent a follow-up question.",
	Long: `
Asks the agent a follow-up question, optionally about a topic. Unlike the console, no lesson is needed: the agent
answers within the session.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, conf, err := newClient()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		req := tutor.ClarifyRequest{UserQuestion: args[0], SessionID: conf.SessionID}
		if topic != "" {
			req.Topic = &topic
		}
		res, err := client.Clarify(cmd.Context(), req)
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		fmt.Println(res.Answer)
	},
}

func init() {
	clarifyCmd.Flags().StringVarP(&topic, "topic", "t", "", "topic the question is about")
}
