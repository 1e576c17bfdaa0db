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
	"crypto/cipher"
	"encoding/binary"
	"math/big"

	"github.com/emmansun/gmsm/padding"
	"github.com/emmansun/gmsm/sm2"
	"github.com/emmansun/gmsm/sm3"
	"github.com/emmansun/gmsm/sm4"
	log "github.com/sirupsen/logrus"
)

const SM2_FIELD_SIZE = 32

func protectSm4(payload []byte, km KeyMaterial) (Block, error) {
	ciphertext, err := encryptSm4(payload, km)
	if err != nil {
		return Block{}, err
	}

	r, s, err := generateSigSm2(ciphertext, km)
	if err != nil {
		return Block{}, err
	}
	log.Debugf("r: %x", r)
	log.Debugf("s: %x", s)

	idInfo, err := sm2IdInfo(km)
	if err != nil {
		return Block{}, err
	}

	auth := &bytes.Buffer{}
	auth.Write(idInfo)
	auth.Write(km.Sm2PubX)
	auth.Write(km.Sm2PubY)
	auth.Write(r)
	auth.Write(s)

	return newBlock(ENCRYPTION_SM4, auth.Bytes(), ciphertext)
}

func encryptSm4(payload []byte, km KeyMaterial) ([]byte, error) {
	block, err := sm4.NewCipher(km.Sm4Key)
	if err != nil {
		return nil, cryptoErrorf("failed to create SM4 cipher: %s", err.Error())
	}
	if len(km.Sm4Iv) != sm4.BlockSize {
		return nil, cryptoErrorf(
			"SM4 IV is %d bytes; expected %d", len(km.Sm4Iv), sm4.BlockSize)
	}

	pkcs7 := padding.NewPKCS7Padding(sm4.BlockSize)
	plaintext := pkcs7.Pad(payload)

	ciphertext := make([]byte, len(plaintext))
	enc := cipher.NewCBCEncrypter(block, km.Sm4Iv)
	enc.CryptBlocks(ciphertext, plaintext)

	return ciphertext, nil
}

// sm2IdInfo serializes the signer identity: a 32-bit little-endian length,
// the identity bytes, and zero padding.  Identity and padding fill the
// space left of 512 bytes by the four 32-byte key and signature words; the
// length prefix brings the authentication block to its full 516 bytes.
func sm2IdInfo(km KeyMaterial) ([]byte, error) {
	padLen := 512 - 4*SM2_FIELD_SIZE - len(km.Sm2Id)
	if padLen < 0 {
		return nil, cryptoErrorf(
			"SM2 identity too long: %d bytes", len(km.Sm2Id))
	}

	idLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(idLen, uint32(len(km.Sm2Id)))

	b := &bytes.Buffer{}
	b.Write(idLen)
	b.Write(km.Sm2Id)
	b.Write(make([]byte, padLen))

	return b.Bytes(), nil
}

// generateSigSm2 signs the ciphertext with the burned-in SM2 key.  The
// digest is SM3(Z || ciphertext) where Z binds the signer identity and
// curve parameters to the public key.
func generateSigSm2(ciphertext []byte, km KeyMaterial) ([]byte, []byte, error) {
	params := sm2.P256().Params()

	// a = p - 3 for the SM2 curve.
	a := new(big.Int).Sub(params.P, big.NewInt(3))

	zh := sm3.New()
	zh.Write(km.Sm2IdLen)
	zh.Write(km.Sm2Id)
	zh.Write(fieldBytes(a))
	zh.Write(fieldBytes(params.B))
	zh.Write(fieldBytes(params.Gx))
	zh.Write(fieldBytes(params.Gy))
	zh.Write(km.Sm2PubX)
	zh.Write(km.Sm2PubY)
	z := zh.Sum(nil)

	mh := sm3.New()
	mh.Write(z)
	mh.Write(ciphertext)
	digest := mh.Sum(nil)

	return signSm2Digest(digest, km)
}

// signSm2Digest computes the SM2 signature over a prehashed digest using
// the fixed nonce from the key table:
//
//	(x1, _) = k*G
//	r = (e + x1) mod n
//	s = (1 + d)^-1 * (k - r*d) mod n
func signSm2Digest(digest []byte, km KeyMaterial) ([]byte, []byte, error) {
	curve := sm2.P256()
	n := curve.Params().N

	d := new(big.Int).SetBytes(km.Sm2PrivKey)
	if d.Sign() == 0 || d.Cmp(n) >= 0 {
		return nil, nil, cryptoErrorf("SM2 private key out of range")
	}

	k := new(big.Int).SetBytes(km.Sm2K)
	if k.Sign() == 0 || k.Cmp(n) >= 0 {
		return nil, nil, cryptoErrorf("SM2 nonce out of range")
	}

	e := new(big.Int).SetBytes(digest)

	x1, _ := curve.ScalarBaseMult(k.Bytes())

	r := new(big.Int).Add(e, x1)
	r.Mod(r, n)
	if r.Sign() == 0 || new(big.Int).Add(r, k).Cmp(n) == 0 {
		return nil, nil, cryptoErrorf("degenerate SM2 signature: invalid r")
	}

	dInv := new(big.Int).Add(big.NewInt(1), d)
	if dInv.ModInverse(dInv, n) == nil {
		return nil, nil, cryptoErrorf("SM2 private key not invertible")
	}

	s := new(big.Int).Mul(r, d)
	s.Sub(k, s)
	s.Mul(s, dInv)
	s.Mod(s, n)
	if s.Sign() == 0 {
		return nil, nil, cryptoErrorf("degenerate SM2 signature: s == 0")
	}

	return fieldBytes(r), fieldBytes(s), nil
}

func fieldBytes(x *big.Int) []byte {
	b := make([]byte, SM2_FIELD_SIZE)
	x.FillBytes(b)
	return b
}
