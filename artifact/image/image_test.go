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
	"crypto/sha256"
	"debug/elf"
	"encoding/binary"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kendryte-community/kimg/artifact/objcopy"
	"github.com/kendryte-community/kimg/artifact/sec"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		s    string
		ver  ImageVersion
		fail bool
	}{
		{s: "1", ver: ImageVersion{Major: 1}},
		{s: "1.2", ver: ImageVersion{Major: 1, Minor: 2}},
		{s: "1.2.3", ver: ImageVersion{Major: 1, Minor: 2, Rev: 3}},
		{s: "0.0.0", ver: ImageVersion{}},
		{s: "255.255.65535",
			ver: ImageVersion{Major: 255, Minor: 255, Rev: 65535}},
		{s: "1.2.3.4", fail: true},
		{s: "256.0.0", fail: true},
		{s: "1.0.65536", fail: true},
		{s: "a.b.c", fail: true},
		{s: "", fail: true},
	}

	for _, c := range cases {
		ver, err := ParseVersion(c.s)
		if c.fail {
			require.Error(t, err, "version %q", c.s)
		} else {
			require.NoError(t, err, "version %q", c.s)
			require.Equal(t, c.ver, ver, "version %q", c.s)
		}
	}
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "1.0.0", ImageVersion{Major: 1}.String())
	require.Equal(t, "2.3.4",
		ImageVersion{Major: 2, Minor: 3, Rev: 4}.String())
}

func TestGenerateImageLayout(t *testing.T) {
	body := bytes.Repeat([]byte{0xa5}, 16)
	ver := ImageVersion{Major: 1}

	img, err := GenerateImage(body, sec.ENCRYPTION_NONE, ver,
		sec.DefaultKeyMaterial())
	require.NoError(t, err)

	// Nothing before the firmware flash offset.
	require.Equal(t, make([]byte, IMAGE_FW_OFFSET), img[:IMAGE_FW_OFFSET])

	require.Equal(t, []byte(IMAGE_MAGIC),
		img[IMAGE_FW_OFFSET:IMAGE_FW_OFFSET+IMAGE_MAGIC_SIZE])

	hdrOff := IMAGE_FW_OFFSET + IMAGE_MAGIC_SIZE
	payloadLen := IMAGE_VERSION_SIZE + len(body)
	require.Equal(t, uint32(payloadLen),
		binary.LittleEndian.Uint32(img[hdrOff:hdrOff+4]))
	require.Equal(t, uint32(sec.ENCRYPTION_NONE),
		binary.LittleEndian.Uint32(img[hdrOff+4:hdrOff+8]))

	authOff := hdrOff + sec.BLOCK_HDR_SIZE
	payloadOff := authOff + sec.BLOCK_AUTH_SIZE

	payload := img[payloadOff : payloadOff+payloadLen]
	require.Equal(t, []byte{1, 0, 0, 0}, payload[:IMAGE_VERSION_SIZE])
	require.Equal(t, body, payload[IMAGE_VERSION_SIZE:])

	hash := sha256.Sum256(payload)
	require.Equal(t, hash[:], img[authOff:authOff+sha256.Size])
	require.Equal(t, make([]byte, sec.BLOCK_AUTH_SIZE-sha256.Size),
		img[authOff+sha256.Size:payloadOff])

	// Zero padding out to the sector boundary.
	require.Equal(t, make([]byte, len(img)-payloadOff-payloadLen),
		img[payloadOff+payloadLen:])
}

func TestGenerateImageTotalSize(t *testing.T) {
	body := make([]byte, 4096)
	ver := ImageVersion{Major: 1}

	img, err := GenerateImage(body, sec.ENCRYPTION_NONE, ver,
		sec.DefaultKeyMaterial())
	require.NoError(t, err)

	// 8 magic + 8 header + 516 auth + 4 version + 4096 body = 4632
	// bytes past the flash offset, padded up to 10 sectors.
	require.Equal(t, IMAGE_FW_OFFSET+10*IMAGE_SECTOR_SIZE, len(img))
}

func TestGenerateImageSectorAligned(t *testing.T) {
	km := sec.DefaultKeyMaterial()
	ver := ImageVersion{Major: 1}

	for _, enc := range []sec.Encryption{
		sec.ENCRYPTION_NONE, sec.ENCRYPTION_SM4, sec.ENCRYPTION_AES,
	} {
		for _, bodyLen := range []int{0, 1, 500, 508, 512, 4096} {
			img, err := GenerateImage(make([]byte, bodyLen), enc, ver, km)
			require.NoError(t, err, "scheme %s body %d", enc, bodyLen)
			require.Zero(t, len(img)%IMAGE_SECTOR_SIZE,
				"scheme %s body %d", enc, bodyLen)
		}
	}
}

func TestGenerateImageVersionEncoding(t *testing.T) {
	body := []byte{0xff}
	ver := ImageVersion{Major: 2, Minor: 5, Rev: 0x1234}

	img, err := GenerateImage(body, sec.ENCRYPTION_NONE, ver,
		sec.DefaultKeyMaterial())
	require.NoError(t, err)

	payloadOff := IMAGE_FW_OFFSET + IMAGE_MAGIC_SIZE +
		sec.BLOCK_HDR_SIZE + sec.BLOCK_AUTH_SIZE
	require.Equal(t, []byte{2, 5, 0x34, 0x12},
		img[payloadOff:payloadOff+IMAGE_VERSION_SIZE])
}

func TestGenerateImageDeterministic(t *testing.T) {
	km := sec.DefaultKeyMaterial()
	body := []byte("reproducible build")
	ver := ImageVersion{Major: 1}

	for _, enc := range []sec.Encryption{
		sec.ENCRYPTION_NONE, sec.ENCRYPTION_SM4, sec.ENCRYPTION_AES,
	} {
		a, err := GenerateImage(body, enc, ver, km)
		require.NoError(t, err, "scheme %s", enc)

		b, err := GenerateImage(body, enc, ver, km)
		require.NoError(t, err, "scheme %s", enc)

		require.Equal(t, a, b, "scheme %s", enc)
	}
}

func TestGenerateImageAesLength(t *testing.T) {
	body := make([]byte, 100)
	ver := ImageVersion{Major: 1}

	img, err := GenerateImage(body, sec.ENCRYPTION_AES, ver,
		sec.DefaultKeyMaterial())
	require.NoError(t, err)

	// The header length counts the GCM tag.
	hdrOff := IMAGE_FW_OFFSET + IMAGE_MAGIC_SIZE
	require.Equal(t, uint32(IMAGE_VERSION_SIZE+len(body)+16),
		binary.LittleEndian.Uint32(img[hdrOff:hdrOff+4]))
	require.Equal(t, uint32(sec.ENCRYPTION_AES),
		binary.LittleEndian.Uint32(img[hdrOff+4:hdrOff+8]))
}

// buildTestElf assembles a one-section ELF64 executable whose .text holds
// the given body at file offset 64.
func buildTestElf(t *testing.T, body []byte) []byte {
	t.Helper()

	textOff := uint64(64)
	shstrtab := []byte("\x00.text\x00.shstrtab\x00")
	shstrtabOff := textOff + uint64(len(body))
	shoff := (shstrtabOff + uint64(len(shstrtab)) + 7) &^ 7

	out := make([]byte, int(shoff)+3*64)

	hdr := elf.Header64{
		Ident: [elf.EI_NIDENT]byte{
			0x7f, 'E', 'L', 'F',
			byte(elf.ELFCLASS64),
			byte(elf.ELFDATA2LSB),
			byte(elf.EV_CURRENT),
		},
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_RISCV),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     shoff,
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     3,
		Shstrndx:  2,
	}

	b := &bytes.Buffer{}
	require.NoError(t, binary.Write(b, binary.LittleEndian, hdr))
	require.NoError(t, binary.Write(b, binary.LittleEndian, body))

	sh := &bytes.Buffer{}
	require.NoError(t, binary.Write(sh, binary.LittleEndian, elf.Section64{}))
	require.NoError(t, binary.Write(sh, binary.LittleEndian, elf.Section64{
		Name:      1,
		Type:      uint32(elf.SHT_PROGBITS),
		Flags:     uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
		Addr:      0x80000000,
		Off:       textOff,
		Size:      uint64(len(body)),
		Addralign: 1,
	}))
	require.NoError(t, binary.Write(sh, binary.LittleEndian, elf.Section64{
		Name:      7,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       shstrtabOff,
		Size:      uint64(len(shstrtab)),
		Addralign: 1,
	}))

	copy(out, b.Bytes())
	copy(out[shstrtabOff:], shstrtab)
	copy(out[shoff:], sh.Bytes())

	return out
}

func TestGenerateImageFromElf(t *testing.T) {
	body := bytes.Repeat([]byte{0x13, 0x05, 0x85, 0x25}, 8)
	elfData := buildTestElf(t, body)
	km := sec.DefaultKeyMaterial()
	ver := ImageVersion{Major: 1}

	// Flattening first and wrapping second must match the combined path.
	bin, err := objcopy.Extract(elfData)
	require.NoError(t, err)
	require.Equal(t, body, bin)

	fromElf, err := GenerateImageFromElf(elfData, sec.ENCRYPTION_NONE, ver, km)
	require.NoError(t, err)

	fromBin, err := GenerateImage(bin, sec.ENCRYPTION_NONE, ver, km)
	require.NoError(t, err)

	require.Equal(t, fromBin, fromElf)
}

func TestGenerateImageFromElfMalformed(t *testing.T) {
	_, err := GenerateImageFromElf([]byte("bogus"), sec.ENCRYPTION_NONE,
		ImageVersion{Major: 1}, sec.DefaultKeyMaterial())

	var parseErr *objcopy.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestImageGenerate(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "fw.bin")
	dstPath := filepath.Join(dir, "fw.img")

	body := []byte("raw firmware")
	require.NoError(t, ioutil.WriteFile(srcPath, body, 0644))

	img, err := NewImage(srcPath, dstPath)
	require.NoError(t, err)
	img.Encryption = sec.ENCRYPTION_SM4
	require.NoError(t, img.SetVersion("1.2.3"))

	require.NoError(t, img.Generate())

	written, err := ioutil.ReadFile(dstPath)
	require.NoError(t, err)

	want, err := GenerateImage(body, sec.ENCRYPTION_SM4,
		ImageVersion{Major: 1, Minor: 2, Rev: 3}, img.Keys)
	require.NoError(t, err)
	require.Equal(t, want, written)
}

func TestImageGenerateFromElfFile(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "fw.elf")
	dstPath := filepath.Join(dir, "fw.img")

	body := []byte{0x01, 0x02, 0x03, 0x04}
	require.NoError(t, ioutil.WriteFile(srcPath, buildTestElf(t, body), 0644))

	img, err := NewImage(srcPath, dstPath)
	require.NoError(t, err)
	img.Elf = true
	require.NoError(t, img.SetVersion(IMAGE_VERSION_DEFAULT))

	require.NoError(t, img.Generate())

	written, err := ioutil.ReadFile(dstPath)
	require.NoError(t, err)

	want, err := GenerateImage(body, sec.ENCRYPTION_NONE,
		ImageVersion{Major: 1}, img.Keys)
	require.NoError(t, err)
	require.Equal(t, want, written)
}

func TestImageGenerateMissingSource(t *testing.T) {
	dir := t.TempDir()

	img, err := NewImage(filepath.Join(dir, "nope.bin"),
		filepath.Join(dir, "out.img"))
	require.NoError(t, err)

	require.Error(t, img.Generate())
}
