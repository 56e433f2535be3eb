// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package secure

import (
	"crypto/aes"
	"crypto/cipher"

	"github.com/aead/camellia"
	"github.com/luci/luci-go/common/errors"
)

// Cipher selects a block cipher. Both are used only at their 256-bit key
// size, per the format.
type Cipher byte

// Supported ciphers.
const (
	Aes256 Cipher = iota + 1
	Camellia256
)

// Mode selects a block cipher mode of operation.
type Mode byte

// Supported modes.
const (
	CBC Mode = iota + 1
	CTR
)

// KeySize is the key size in bytes required by every Cipher this package
// supports.
const KeySize = 32

func newBlock(c Cipher, key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, errors.Reason("secure: key must be %(want)d bytes, got %(got)d").
			D("want", KeySize).D("got", len(key)).Err()
	}
	switch c {
	case Aes256:
		return aes.NewCipher(key)
	case Camellia256:
		return camellia.New(key)
	}
	return nil, errors.Annotate(ErrUnsupportedCipher).Reason("cipher %(c)d").D("c", c).Err()
}

// BlockSize returns c's block size, which also determines its IV size.
func (c Cipher) BlockSize() int {
	switch c {
	case Aes256:
		return aes.BlockSize
	case Camellia256:
		return camellia.BlockSize
	}
	return 0
}

// Encrypt encrypts plaintext under key and iv using c/mode, returning
// iv‖ciphertext as required by §4.3: the IV is a fixed-size prefix of the
// output.
func Encrypt(c Cipher, mode Mode, key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlock(c, key)
	if err != nil {
		return nil, err
	}
	if len(iv) != block.BlockSize() {
		return nil, errors.Reason("secure: iv must be %(want)d bytes, got %(got)d").
			D("want", block.BlockSize()).D("got", len(iv)).Err()
	}

	out := make([]byte, 0, len(iv)+len(plaintext)+block.BlockSize())
	out = append(out, iv...)

	switch mode {
	case CBC:
		padded := pkcs7Pad(plaintext, block.BlockSize())
		ct := make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(ct, padded)
		return append(out, ct...), nil

	case CTR:
		ct := make([]byte, len(plaintext))
		cipher.NewCTR(block, iv).XORKeyStream(ct, plaintext)
		return append(out, ct...), nil
	}
	return nil, errors.Annotate(ErrUnsupportedCipher).Reason("mode %(m)d").D("m", mode).Err()
}

// Decrypt reverses Encrypt: data is iv‖ciphertext.
func Decrypt(c Cipher, mode Mode, key, data []byte) ([]byte, error) {
	block, err := newBlock(c, key)
	if err != nil {
		return nil, err
	}
	bs := block.BlockSize()
	if len(data) < bs {
		return nil, errors.Reason("secure: ciphertext shorter than iv (%(n)d < %(bs)d)").
			D("n", len(data)).D("bs", bs).Err()
	}
	iv, ct := data[:bs], data[bs:]

	switch mode {
	case CBC:
		if len(ct) == 0 || len(ct)%bs != 0 {
			return nil, errors.Annotate(ErrWrongPassword).Reason("ciphertext not a multiple of the block size").Err()
		}
		pt := make([]byte, len(ct))
		cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
		return pkcs7Unpad(pt, bs)

	case CTR:
		pt := make([]byte, len(ct))
		cipher.NewCTR(block, iv).XORKeyStream(pt, ct)
		return pt, nil
	}
	return nil, errors.Annotate(ErrUnsupportedCipher).Reason("mode %(m)d").D("m", mode).Err()
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.Annotate(ErrWrongPassword).Reason("padded data not a multiple of block size").Err()
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, errors.Annotate(ErrWrongPassword).Reason("bad pkcs7 padding length %(pad)d").D("pad", pad).Err()
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errors.Annotate(ErrWrongPassword).Reason("bad pkcs7 padding bytes").Err()
		}
	}
	return data[:len(data)-pad], nil
}
