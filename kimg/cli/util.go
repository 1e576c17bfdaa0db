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

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kendryte-community/kimg/util"
)

var OptInFilename string
var OptOutFilename string
var OptEncryption string
var OptImageVersion string

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

// CalcOutFilename derives the output path: the output flag when given,
// otherwise the input path with its extension replaced.
func CalcOutFilename(inFilename string, ext string) (string, error) {
	if OptOutFilename != "" {
		return OptOutFilename, nil
	}

	base := strings.TrimSuffix(inFilename, filepath.Ext(inFilename))
	return base + ext, nil
}
