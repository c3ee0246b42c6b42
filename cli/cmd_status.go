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
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Checks the agent is up.",
	Run: func(cmd *cobra.Command, args []string) {
		client, conf, err := newClient()
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		status, err := client.Status(cmd.Context())
		if err != nil {
			cmd.PrintErrln(err)
			return
		}
		fmt.Printf("%s: %s\n", conf.BaseURL, status.Status)
	},
}
