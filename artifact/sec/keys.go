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

/*
 * Burned-in key table.  Every run uses the same keys so that image
 * generation stays reproducible; provisioning real per-device keys would
 * replace this file.
 *
 * The SM2 key pair, user ID and signing nonce are the published GB/T
 * 32918 example values.
 */

var SM4_KEY = []byte{
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
	0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10,
}

var SM4_IV = []byte{
	0xfe, 0xdc, 0xba, 0x98, 0x76, 0x54, 0x32, 0x10,
	0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
}

var SM2_PRIVATE_KEY = []byte{
	0x39, 0x45, 0x20, 0x8f, 0x7b, 0x21, 0x44, 0xb1,
	0x3f, 0x36, 0xe3, 0x8a, 0xc6, 0xd3, 0x9f, 0x95,
	0x88, 0x93, 0x93, 0x69, 0x28, 0x60, 0xb5, 0x1a,
	0x42, 0xfb, 0x81, 0xef, 0x4d, 0xf7, 0xc5, 0xb8,
}

var SM2_PUBLIC_KEY_X = []byte{
	0x09, 0xf9, 0xdf, 0x31, 0x1e, 0x54, 0x21, 0xa1,
	0x50, 0xdd, 0x7d, 0x16, 0x1e, 0x4b, 0xc5, 0xc6,
	0x72, 0x17, 0x9f, 0xad, 0x18, 0x33, 0xfc, 0x07,
	0x6b, 0xb0, 0x8f, 0xf3, 0x56, 0xf3, 0x50, 0x20,
}

var SM2_PUBLIC_KEY_Y = []byte{
	0xcc, 0xea, 0x49, 0x0c, 0xe2, 0x67, 0x75, 0xa5,
	0x2d, 0xc6, 0xea, 0x71, 0x8c, 0xc1, 0xaa, 0x60,
	0x0a, 0xed, 0x05, 0xfb, 0xf3, 0x5e, 0x08, 0x4a,
	0x66, 0x32, 0xf6, 0x07, 0x2d, 0xa9, 0xad, 0x13,
}

// SM2 signer identity and its bit length, as hashed into the Z value.
var SM2_ID = []byte("1234567812345678")

var SM2_ID_LEN = []byte{0x00, 0x80}

// Fixed SM2 signing nonce.  A fresh nonce per signature would make the
// output non-reproducible.
var SM2_K = []byte{
	0x59, 0x27, 0x6e, 0x27, 0xd5, 0x06, 0x86, 0x1a,
	0x16, 0x68, 0x0f, 0x3a, 0xd9, 0xc0, 0x2d, 0xcc,
	0xef, 0x3c, 0xc1, 0xfa, 0x3c, 0xdb, 0xe4, 0xce,
	0x6d, 0x54, 0xb8, 0x0d, 0xea, 0xc1, 0xbc, 0x21,
}

var INITIAL_AES_KEY = []byte{
	0x41, 0x3f, 0xa9, 0xaf, 0x0f, 0x56, 0x83, 0x7d,
	0x4b, 0x86, 0xb7, 0xf1, 0xbb, 0xfb, 0xfb, 0x18,
	0x01, 0xc4, 0x67, 0x52, 0x67, 0xc6, 0x13, 0x14,
	0x9d, 0x51, 0xc6, 0xe3, 0xa3, 0xef, 0x59, 0x4d,
}

var INITIAL_AES_IV = []byte{
	0x10, 0xc5, 0x0d, 0xa7, 0x7d, 0x04, 0x9c, 0x0a,
	0x92, 0x3f, 0x3a, 0xca,
}

var ADD_AUTH_DATA = []byte{
	0x5b, 0xde, 0x31, 0xeb, 0x8f, 0x12, 0x59, 0xd3,
	0x90, 0x97, 0x0d, 0xab, 0xdb, 0xeb, 0xe4, 0x54,
}

const RSA_N = "8C2DC1D4E1C1342B0246CC84B7D6C611B72F9D815F6A7D3BC1ECE134AE75DC" +
	"B6A1C584B6D36EED8B41831F6924E7F852BB35515751D3983F830DCD7F67C91638" +
	"21696A50F9780563CC05AA0A0505FCD63831CF892FAB2FEEFF79CA27AA02A05B11" +
	"95A2956D48CF852E86865AD0433C6815EAE113E8E503D194F3E88DF0D8C752632E" +
	"51A9B16952A8FBAA98E62F89D5D06FF9F04C73F0948897C515B539679D65853D11" +
	"1D3F9737D2463B0C6DC3833988A048E8FF7F6198A4513178DA1ECE3E6C2087D464" +
	"150976E9EBBCCD391D99C4E40C7F7D79A6AC2978955A84D049667B898BA61B4983" +
	"CC32807EFE850017607B46B14BD08D0D9CF6B11C1848A51C7BA42F"

const RSA_E = "0x10001"

const RSA_D = "2B1B1304DC9B25E8A7DD8F9CAC4F9E3EEA5EF9074489219393B1BD1B0F1EED" +
	"4D37F7DE34BE55D9343E640CEFAF4AAA00FED2897DD98AC0C19F124A84082D3CE8" +
	"EBD557BD28C9B0969CB18D35619012CCE920E019E68FB4C0C0CCF9CE32A876192B" +
	"122199E3AE452A464155E56D2F8FCECE16993A1F1EF58AA84C4CD20123183F97E6" +
	"E0A706D3277CF175AEB2489D3B256EBBB23677A60EA890AC7A407772F6DF3C1F55" +
	"98BBDC308DF3375FB4F2DB9E16EF27E58F291E4DFE9E0EBBA2E5A02E61C5B076C0" +
	"B31FC6831F1ED4DBCCF9AEEB43B99DD87449B86324472B6DF70E881C7FB768B54B" +
	"C03A1C25B1FE1F2475DCD4E500AF495F687BFD55A964C3E8A57149"

// KeyMaterial collects every key the protection schemes consume.
type KeyMaterial struct {
	Sm4Key []byte
	Sm4Iv  []byte

	Sm2PrivKey []byte
	Sm2PubX    []byte
	Sm2PubY    []byte
	Sm2Id      []byte
	Sm2IdLen   []byte
	Sm2K       []byte

	AesKey      []byte
	AesIv       []byte
	AddAuthData []byte

	RsaN string
	RsaE string
	RsaD string
}

func DefaultKeyMaterial() KeyMaterial {
	return KeyMaterial{
		Sm4Key: SM4_KEY,
		Sm4Iv:  SM4_IV,

		Sm2PrivKey: SM2_PRIVATE_KEY,
		Sm2PubX:    SM2_PUBLIC_KEY_X,
		Sm2PubY:    SM2_PUBLIC_KEY_Y,
		Sm2Id:      SM2_ID,
		Sm2IdLen:   SM2_ID_LEN,
		Sm2K:       SM2_K,

		AesKey:      INITIAL_AES_KEY,
		AesIv:       INITIAL_AES_IV,
		AddAuthData: ADD_AUTH_DATA,

		RsaN: RSA_N,
		RsaE: RSA_E,
		RsaD: RSA_D,
	}
}
