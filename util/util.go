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

package util

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"

	log "github.com/sirupsen/logrus"
)

var Verbosity int

const (
	VERBOSITY_SILENT = iota
	VERBOSITY_QUIET
	VERBOSITY_DEFAULT
	VERBOSITY_VERBOSE
)

type KimgError struct {
	Parent     error
	Text       string
	StackTrace []byte
}

func (se *KimgError) Error() string {
	return se.Text
}

func NewKimgError(msg string) *KimgError {
	err := &KimgError{
		Text:       msg,
		StackTrace: make([]byte, 65536),
	}

	stackLen := runtime.Stack(err.StackTrace, true)
	err.StackTrace = err.StackTrace[:stackLen]

	return err
}

func FmtKimgError(format string, args ...interface{}) *KimgError {
	return NewKimgError(fmt.Sprintf(format, args...))
}

// ChildKimgError creates a KimgError from a standard error, keeping the
// original error as the parent.
func ChildKimgError(parent error) *KimgError {
	err := NewKimgError(parent.Error())
	err.Parent = parent
	return err
}

func (se *KimgError) Unwrap() error {
	return se.Parent
}

// Print Quiet and Verbose aware status messages to stdout.
func StatusMessage(vl int, message string, args ...interface{}) {
	if Verbosity >= vl {
		fmt.Printf(message, args...)
	}
}

// Init configures logging and verbosity for the running command.
func Init(logLevel string, verbosity int) error {
	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return FmtKimgError("Invalid log level: %s", logLevel)
	}

	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)

	Verbosity = verbosity

	return nil
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it into place.  A failed run never leaves a
// partially written file at the destination path.
func WriteFileAtomic(filename string, data []byte) error {
	dir := filepath.Dir(filename)

	tmp, err := ioutil.TempFile(dir, filepath.Base(filename)+".tmp")
	if err != nil {
		return ChildKimgError(err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ChildKimgError(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ChildKimgError(err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return ChildKimgError(err)
	}

	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return ChildKimgError(err)
	}

	return nil
}
