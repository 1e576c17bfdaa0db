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

package sec

import (
	"bytes"
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"io/ioutil"
	"math"
	"math/big"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kendryte-community/kimg/util"
)

type Encryption int

/*
 * Protection scheme identifiers, as stored in the block header.
 */
const (
	ENCRYPTION_NONE Encryption = 0 /* No encryption + SHA-256 */
	ENCRYPTION_SM4  Encryption = 1 /* SM4-CBC + SM2 */
	ENCRYPTION_AES  Encryption = 2 /* AES-GCM + RSA-2048 */
)

const (
	BLOCK_HDR_SIZE  = 8
	BLOCK_AUTH_SIZE = 516
)

const RSA_SIG_SIZE = 256

// CryptoError indicates unusable key material or a failed cryptographic
// primitive.
type CryptoError struct {
	Text string
}

func (e *CryptoError) Error() string {
	return e.Text
}

func cryptoErrorf(format string, args ...interface{}) *CryptoError {
	return &CryptoError{Text: fmt.Sprintf(format, args...)}
}

func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(s) {
	case "none":
		return ENCRYPTION_NONE, nil
	case "sm4":
		return ENCRYPTION_SM4, nil
	case "aes":
		return ENCRYPTION_AES, nil
	default:
		return 0, util.FmtKimgError(
			"Invalid encryption type: %s (must be \"none\", \"sm4\", or \"aes\")", s)
	}
}

func (e Encryption) String() string {
	switch e {
	case ENCRYPTION_NONE:
		return "none"
	case ENCRYPTION_SM4:
		return "sm4"
	case ENCRYPTION_AES:
		return "aes"
	default:
		return "???"
	}
}

type BlockHdr struct {
	Length     int32
	Encryption int32
}

// Block is the protected portion of a flashable image: an 8-byte header,
// a fixed-size authentication area, and the (possibly encrypted) payload.
type Block struct {
	Hdr     BlockHdr
	Auth    []byte
	Payload []byte
}

type BlockOffsets struct {
	Auth      int
	Payload   int
	TotalSize int
}

func newBlock(enc Encryption, auth []byte, payload []byte) (Block, error) {
	if len(auth) != BLOCK_AUTH_SIZE {
		return Block{}, cryptoErrorf(
			"authentication block is %d bytes; expected %d",
			len(auth), BLOCK_AUTH_SIZE)
	}

	// The header stores the payload length as a signed 32-bit value.
	if len(payload) > math.MaxInt32 {
		return Block{}, cryptoErrorf(
			"payload too large for block header: %d bytes", len(payload))
	}

	return Block{
		Hdr: BlockHdr{
			Length:     int32(len(payload)),
			Encryption: int32(enc),
		},
		Auth:    auth,
		Payload: payload,
	}, nil
}

func (b *Block) WritePlusOffsets(w io.Writer) (BlockOffsets, error) {
	offs := BlockOffsets{}
	offset := 0

	if err := binary.Write(w, binary.LittleEndian, &b.Hdr); err != nil {
		return offs, util.ChildKimgError(err)
	}
	offset += BLOCK_HDR_SIZE

	offs.Auth = offset
	size, err := w.Write(b.Auth)
	if err != nil {
		return offs, util.ChildKimgError(err)
	}
	offset += size

	offs.Payload = offset
	size, err = w.Write(b.Payload)
	if err != nil {
		return offs, util.ChildKimgError(err)
	}
	offset += size

	offs.TotalSize = offset

	return offs, nil
}

func (b *Block) Offsets() (BlockOffsets, error) {
	return b.WritePlusOffsets(ioutil.Discard)
}

func (b *Block) Write(w io.Writer) (int, error) {
	offs, err := b.WritePlusOffsets(w)
	if err != nil {
		return 0, err
	}

	return offs.TotalSize, nil
}

func (b *Block) TotalSize() (int, error) {
	offs, err := b.Offsets()
	if err != nil {
		return 0, err
	}
	return offs.TotalSize, nil
}

// Protect wraps a versioned payload in the selected protection scheme.  The
// result is fully deterministic: the same payload and key material always
// produce the same block.
func Protect(payload []byte, enc Encryption, km KeyMaterial) (Block, error) {
	switch enc {
	case ENCRYPTION_NONE:
		return protectNone(payload)
	case ENCRYPTION_SM4:
		return protectSm4(payload, km)
	case ENCRYPTION_AES:
		return protectAes(payload, km)
	default:
		return Block{}, cryptoErrorf("unknown encryption type: %d", enc)
	}
}

func protectNone(payload []byte) (Block, error) {
	hash := sha256.Sum256(payload)
	log.Debugf("hash: %x", hash)

	auth := make([]byte, BLOCK_AUTH_SIZE)
	copy(auth, hash[:])

	return newBlock(ENCRYPTION_NONE, auth, payload)
}

func protectAes(payload []byte, km KeyMaterial) (Block, error) {
	block, err := aes.NewCipher(km.AesKey)
	if err != nil {
		return Block{}, cryptoErrorf(
			"failed to create AES cipher: %s", err.Error())
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return Block{}, cryptoErrorf("failed to create GCM: %s", err.Error())
	}
	if len(km.AesIv) != gcm.NonceSize() {
		return Block{}, cryptoErrorf(
			"AES nonce is %d bytes; expected %d",
			len(km.AesIv), gcm.NonceSize())
	}

	// Seal appends the 16-byte authentication tag to the ciphertext; the
	// trailing tag is part of the payload the boot ROM receives.
	ciphertext := gcm.Seal(nil, km.AesIv, payload, km.AddAuthData)
	tag := ciphertext[len(ciphertext)-gcm.Overhead():]
	log.Debugf("tag: %x", tag)

	key, err := rsaPrivateKey(km)
	if err != nil {
		return Block{}, err
	}

	sig, err := generateSigRsa(key, tag)
	if err != nil {
		return Block{}, err
	}
	log.Debugf("signature: %x", sig)

	nBytes := make([]byte, RSA_SIG_SIZE)
	key.N.FillBytes(nBytes)

	eBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(eBytes, uint32(key.E))

	auth := &bytes.Buffer{}
	auth.Write(nBytes)
	auth.Write(eBytes)
	auth.Write(sig)

	return newBlock(ENCRYPTION_AES, auth.Bytes(), ciphertext)
}

// rsaPrivateKey assembles the signing key from its burned-in components.
// The prime factors are not retained, so signing falls back to plain
// modular exponentiation.
func rsaPrivateKey(km KeyMaterial) (*rsa.PrivateKey, error) {
	n, ok := new(big.Int).SetString(km.RsaN, 16)
	if !ok {
		return nil, cryptoErrorf("failed to parse RSA modulus")
	}
	if n.BitLen() != 2048 {
		return nil, cryptoErrorf(
			"RSA modulus is %d bits; expected 2048", n.BitLen())
	}

	e, err := strconv.ParseUint(strings.TrimPrefix(km.RsaE, "0x"), 16, 32)
	if err != nil {
		return nil, cryptoErrorf("failed to parse RSA public exponent")
	}

	d, ok := new(big.Int).SetString(km.RsaD, 16)
	if !ok {
		return nil, cryptoErrorf("failed to parse RSA private exponent")
	}

	return &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{
			N: n,
			E: int(e),
		},
		D: d,
	}, nil
}

func generateSigRsa(key *rsa.PrivateKey, tag []byte) ([]byte, error) {
	hash := sha256.Sum256(tag)

	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		return nil, cryptoErrorf("failed to compute signature: %s", err.Error())
	}

	return signature, nil
}
