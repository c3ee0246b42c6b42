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
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

func main() {
	if err := loadConfig(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration from the given env file, with environment variables taking precedence. When
// the file doesn't exist, one holding the defaults is created.
func loadConfig(path string) error {
	defaults := make(map[string]any)
	if err := mapstructure.Decode(defaultConfig(), &defaults); err != nil {
		return err
	}
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.AutomaticEnv()
	viper.SetConfigFile(path)
	viper.SetConfigType("env")
	if err := viper.ReadInConfig(); err != nil {
		if err := viper.WriteConfigAs(path); err == nil {
			fmt.Fprintf(os.Stderr, "%s was missing, one with the default settings was created\n", path)
		}
	}
	return viper.Unmarshal(&cfg)
}
