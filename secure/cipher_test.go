// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package secure

import (
	"bytes"
	"testing"

	. "github.com/luci/luci-go/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCipherRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("Encrypt/Decrypt", t, func() {
		key := bytes.Repeat([]byte{0x11}, KeySize)
		plaintext := []byte("the quick brown fox jumps over the lazy dog")

		for _, c := range []Cipher{Aes256, Camellia256} {
			for _, m := range []Mode{CBC, CTR} {
				c, m := c, m
				Convey("round-trips", func() {
					iv := bytes.Repeat([]byte{0x22}, c.BlockSize())
					ct, err := Encrypt(c, m, key, iv, plaintext)
					So(err, ShouldBeNil)
					So(ct[:c.BlockSize()], ShouldResemble, iv)

					pt, err := Decrypt(c, m, key, ct)
					So(err, ShouldBeNil)
					So(pt, ShouldResemble, plaintext)
				})
			}
		}

		Convey("fresh IVs produce different ciphertext", func() {
			iv1 := bytes.Repeat([]byte{0x01}, Aes256.BlockSize())
			iv2 := bytes.Repeat([]byte{0x02}, Aes256.BlockSize())
			ct1, err := Encrypt(Aes256, CTR, key, iv1, plaintext)
			So(err, ShouldBeNil)
			ct2, err := Encrypt(Aes256, CTR, key, iv2, plaintext)
			So(err, ShouldBeNil)
			So(ct1, ShouldNotResemble, ct2)
		})

		Convey("wrong key fails CBC padding", func() {
			iv := bytes.Repeat([]byte{0x22}, Aes256.BlockSize())
			ct, err := Encrypt(Aes256, CBC, key, iv, plaintext)
			So(err, ShouldBeNil)

			wrongKey := bytes.Repeat([]byte{0x99}, KeySize)
			_, err = Decrypt(Aes256, CBC, wrongKey, ct)
			So(err, ShouldErrLike, ErrWrongPassword)
		})

		Convey("rejects a short key", func() {
			_, err := Encrypt(Aes256, CBC, key[:10], make([]byte, Aes256.BlockSize()), plaintext)
			So(err, ShouldErrLike, "32 bytes")
		})
	})
}

func TestKeyLifecycle(t *testing.T) {
	t.Parallel()

	Convey("Key", t, func() {
		material := []byte("supersecretkeymaterial32bytes!!")
		orig := append([]byte{}, material...)

		k, err := NewKey(material)
		So(err, ShouldBeNil)
		So(k.Bytes(), ShouldResemble, orig)

		Convey("zeroes the caller's slice", func() {
			So(material, ShouldResemble, make([]byte, len(material)))
		})

		Convey("Close zeroes and is idempotent", func() {
			So(k.Close(), ShouldBeNil)
			So(k.Close(), ShouldBeNil)
			So(func() { k.Bytes() }, ShouldPanic)
		})
	})
}
