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

package objcopy

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io/ioutil"
	"math"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/kendryte-community/kimg/util"
)

// ParseError indicates that the input could not be parsed as an ELF file.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid ELF input: %s", e.Err.Error())
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SizeOverflowError indicates that the flattened section span does not fit
// in host memory.
type SizeOverflowError struct {
	Size uint64
}

func (e *SizeOverflowError) Error() string {
	return fmt.Sprintf("flattened section span too large: %d bytes", e.Size)
}

type entry struct {
	name     string
	fileOff  uint64
	fileSize uint64
	data     []byte
}

// Extract converts an ELF executable to a raw binary.  Allocatable sections
// with file contents are packed by ascending file offset; alignment gaps
// between virtual addresses do not survive into the output.  NOBITS sections
// (.bss) are excluded; startup code zeroes them at runtime.
func Extract(elfData []byte) ([]byte, error) {
	f, err := elf.NewFile(bytes.NewReader(elfData))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	entries := loadableEntries(f)

	log.Debugf("Found %d loadable sections", len(entries))
	for _, e := range entries {
		log.Debugf("Section: %s at offset 0x%x with size 0x%x",
			e.name, e.fileOff, e.fileSize)
	}

	return packEntries(entries)
}

func loadableEntries(f *elf.File) []entry {
	var entries []entry

	for _, s := range f.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 || s.Type == elf.SHT_NOBITS {
			continue
		}

		data, err := s.Data()
		if err != nil {
			// A section whose contents cannot be read is dropped rather
			// than failing the whole conversion.
			log.Debugf("Skipping section %s: %s", s.Name, err.Error())
			continue
		}

		entries = append(entries, entry{
			name:     s.Name,
			fileOff:  s.Offset,
			fileSize: s.FileSize,
			data:     data,
		})
	}

	// Stable sort keeps section table order for equal offsets, so the
	// later section wins when file ranges overlap.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].fileOff < entries[j].fileOff
	})

	return entries
}

func packEntries(entries []entry) ([]byte, error) {
	if len(entries) == 0 {
		return []byte{}, nil
	}

	minOff := entries[0].fileOff
	var maxEnd uint64
	for _, e := range entries {
		if e.fileSize > math.MaxUint64-e.fileOff {
			return nil, &SizeOverflowError{Size: math.MaxUint64}
		}
		if end := e.fileOff + e.fileSize; end > maxEnd {
			maxEnd = end
		}
	}

	span := maxEnd - minOff
	if span > math.MaxInt {
		return nil, &SizeOverflowError{Size: span}
	}

	output := make([]byte, int(span))

	for _, e := range entries {
		start := int(e.fileOff - minOff)

		// Copy only the actual file bytes; tolerate sections whose
		// recorded size and true data length differ.
		copyLen := len(e.data)
		if fs := int(e.fileSize); fs < copyLen {
			copyLen = fs
		}

		log.Debugf("Writing section %s: fileoff=0x%x len=0x%x -> out[0x%x..0x%x]",
			e.name, e.fileOff, copyLen, start, start+copyLen)

		copy(output[start:start+copyLen], e.data[:copyLen])
	}

	return output, nil
}

// ExtractFile reads the ELF file at in and writes the flattened binary to
// out.
func ExtractFile(in string, out string) error {
	elfData, err := ioutil.ReadFile(in)
	if err != nil {
		return util.ChildKimgError(err)
	}

	bin, err := Extract(elfData)
	if err != nil {
		return err
	}

	if err := util.WriteFileAtomic(out, bin); err != nil {
		return err
	}

	log.Debugf("Wrote binary %s", out)
	return nil
}
