/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kendryte-community/kimg/kimg/cli"
	"github.com/kendryte-community/kimg/util"
)

var kimgVersion = "1.1.0"

var kimgLogLevel string
var kimgVerbose bool
var kimgQuiet bool

func KimgUsage(cmd *cobra.Command, err error) {
	if err != nil {
		if sErr, ok := err.(*util.KimgError); ok {
			log.Debugf("%s", sErr.StackTrace)
			fmt.Fprintf(os.Stderr, "Error: %s\n", sErr.Text)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		}
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}
	os.Exit(1)
}

func kimgVerbosity() int {
	if kimgVerbose {
		return util.VERBOSITY_VERBOSE
	}
	if kimgQuiet {
		return util.VERBOSITY_QUIET
	}
	return util.VERBOSITY_DEFAULT
}

func kimgCmd() *cobra.Command {
	kimgHelpText := "kimg wraps compiled firmware in the flashable image " +
		"format the Kendryte K230 boot ROM expects.  It converts ELF " +
		"executables to raw binaries and produces plain, SM4-encrypted, " +
		"or AES-encrypted images."
	kimgHelpEx := "  kimg elf-to-image -i app.elf -e aes\n" +
		"  kimg gen-image -i app.bin"

	kimgCmd := &cobra.Command{
		Use:     "kimg",
		Short:   "kimg is a tool to generate flashable K230 firmware images",
		Long:    kimgHelpText,
		Example: kimgHelpEx,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := util.Init(kimgLogLevel, kimgVerbosity()); err != nil {
				KimgUsage(nil, err)
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	kimgCmd.PersistentFlags().StringVarP(&kimgLogLevel, "loglevel", "l",
		"WARN", "Log level")
	kimgCmd.PersistentFlags().BoolVarP(&kimgVerbose, "verbose", "v", false,
		"Enable verbose output when executing commands")
	kimgCmd.PersistentFlags().BoolVarP(&kimgQuiet, "quiet", "q", false,
		"Be quiet; only display error output")

	versHelpText := `Display the kimg version number`
	versHelpEx := "  kimg version"
	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the kimg version number",
		Long:    versHelpText,
		Example: versHelpEx,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s\n", kimgVersion)
		},
	}
	kimgCmd.AddCommand(versCmd)

	cli.AddImageCommands(kimgCmd)

	return kimgCmd
}

func main() {
	cmd := kimgCmd()

	cmd.Execute()
}
