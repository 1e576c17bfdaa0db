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

package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kendryte-community/kimg/artifact/objcopy"
	"github.com/kendryte-community/kimg/artifact/sec"
	"github.com/kendryte-community/kimg/util"
)

const (
	IMAGE_MAGIC      = "KENDRYTE" /* Image magic, 8 ASCII bytes */
	IMAGE_MAGIC_SIZE = 8
)

const (
	/* The boot ROM reads the image starting at this flash offset. */
	IMAGE_FW_OFFSET = 0x100000

	/* Images are padded to a whole number of sectors. */
	IMAGE_SECTOR_SIZE = 512

	IMAGE_VERSION_SIZE = 4
)

const IMAGE_VERSION_DEFAULT = "1.0.0"

type ImageVersion struct {
	Major uint8
	Minor uint8
	Rev   uint16
}

type Image struct {
	SourceBin  string
	TargetImg  string
	Elf        bool /* Flatten the source as an ELF before wrapping. */
	Encryption sec.Encryption
	Version    ImageVersion
	Keys       sec.KeyMaterial
}

type ImageCreator struct {
	Body       []byte
	Version    ImageVersion
	Encryption sec.Encryption
	Keys       sec.KeyMaterial
}

func ParseVersion(versStr string) (ImageVersion, error) {
	var err error
	var major uint64
	var minor uint64
	var rev uint64
	var ver ImageVersion

	components := strings.Split(versStr, ".")
	if len(components) > 3 {
		return ver, util.FmtKimgError("Invalid version string %s", versStr)
	}
	major, err = strconv.ParseUint(components[0], 10, 8)
	if err != nil {
		return ver, util.FmtKimgError("Invalid version string %s", versStr)
	}
	if len(components) > 1 {
		minor, err = strconv.ParseUint(components[1], 10, 8)
		if err != nil {
			return ver, util.FmtKimgError("Invalid version string %s", versStr)
		}
	}
	if len(components) > 2 {
		rev, err = strconv.ParseUint(components[2], 10, 16)
		if err != nil {
			return ver, util.FmtKimgError("Invalid version string %s", versStr)
		}
	}

	ver.Major = uint8(major)
	ver.Minor = uint8(minor)
	ver.Rev = uint16(rev)
	return ver, nil
}

func (ver ImageVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", ver.Major, ver.Minor, ver.Rev)
}

func NewImage(srcPath string, dstImgPath string) (*Image, error) {
	image := &Image{}

	image.SourceBin = srcPath
	image.TargetImg = dstImgPath
	image.Keys = sec.DefaultKeyMaterial()
	return image, nil
}

func (image *Image) SetVersion(versStr string) error {
	ver, err := ParseVersion(versStr)
	if err != nil {
		return err
	}

	log.Debugf("Assigning version number %d.%d.%d\n",
		ver.Major, ver.Minor, ver.Rev)

	image.Version = ver

	return nil
}

// Generate reads the source file, wraps it in a flashable image, and writes
// the result to the target path.
func (image *Image) Generate() error {
	srcBin, err := ioutil.ReadFile(image.SourceBin)
	if err != nil {
		return util.FmtKimgError("Can't read source file %s: %s",
			image.SourceBin, err.Error())
	}

	var img []byte
	if image.Elf {
		img, err = GenerateImageFromElf(
			srcBin, image.Encryption, image.Version, image.Keys)
	} else {
		img, err = GenerateImage(
			srcBin, image.Encryption, image.Version, image.Keys)
	}
	if err != nil {
		return err
	}

	if err := util.WriteFileAtomic(image.TargetImg, img); err != nil {
		return err
	}

	log.Debugf("Wrote image %s", image.TargetImg)
	return nil
}

func NewImageCreator() ImageCreator {
	return ImageCreator{
		Encryption: sec.ENCRYPTION_NONE,
		Keys:       sec.DefaultKeyMaterial(),
	}
}

// Create assembles the flashable image: a zero region up to the firmware
// flash offset, the magic, the protected block, and zero padding to a
// sector boundary.
func (ic *ImageCreator) Create() ([]byte, error) {
	payload := &bytes.Buffer{}
	if err := binary.Write(payload, binary.LittleEndian,
		ic.Version); err != nil {

		return nil, util.ChildKimgError(err)
	}
	payload.Write(ic.Body)

	block, err := sec.Protect(payload.Bytes(), ic.Encryption, ic.Keys)
	if err != nil {
		return nil, err
	}

	blockSize, err := block.TotalSize()
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	buf.Grow(IMAGE_FW_OFFSET + IMAGE_MAGIC_SIZE + blockSize + IMAGE_SECTOR_SIZE)

	buf.Write(make([]byte, IMAGE_FW_OFFSET))

	log.Debugf("magic: %s", IMAGE_MAGIC)
	buf.WriteString(IMAGE_MAGIC)

	if _, err := block.Write(buf); err != nil {
		return nil, err
	}

	if rem := buf.Len() % IMAGE_SECTOR_SIZE; rem != 0 {
		buf.Write(make([]byte, IMAGE_SECTOR_SIZE-rem))
	}

	return buf.Bytes(), nil
}

// GenerateImage wraps a raw binary in a flashable image.
func GenerateImage(bin []byte, enc sec.Encryption, ver ImageVersion,
	km sec.KeyMaterial) ([]byte, error) {

	ic := NewImageCreator()
	ic.Body = bin
	ic.Encryption = enc
	ic.Version = ver
	ic.Keys = km

	return ic.Create()
}

// GenerateImageFromElf flattens an ELF executable to a raw binary and wraps
// the result in a flashable image.
func GenerateImageFromElf(elfData []byte, enc sec.Encryption,
	ver ImageVersion, km sec.KeyMaterial) ([]byte, error) {

	bin, err := objcopy.Extract(elfData)
	if err != nil {
		return nil, err
	}

	return GenerateImage(bin, enc, ver, km)
}
