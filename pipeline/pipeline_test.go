// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"bytes"
	"testing"

	. "github.com/luci/luci-go/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

func TestPipeline(t *testing.T) {
	t.Parallel()

	Convey("Pipeline", t, func() {
		payload := bytes.Repeat([]byte("plaintext round trip data "), 500)

		Convey("compress only", func() {
			cfg := Config{Compression: compress.Zstd, Level: compress.LevelDefault}
			buf := &bytes.Buffer{}
			w, err := NewWriter(buf, cfg)
			So(err, ShouldBeNil)
			_, err = w.Write(payload)
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)
			So(buf.Len(), ShouldBeLessThan, len(payload))

			out, err := Decode(bytes.NewReader(buf.Bytes()), cfg)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, payload)
		})

		Convey("compress then encrypt", func() {
			key, err := secure.NewKey(bytes.Repeat([]byte{0x42}, secure.KeySize))
			So(err, ShouldBeNil)
			cfg := Config{
				Compression: compress.Deflate,
				Level:       compress.LevelDefault,
				Cipher:      secure.Aes256,
				Mode:        secure.CTR,
				Key:         key,
			}
			buf := &bytes.Buffer{}
			w, err := NewWriter(buf, cfg)
			So(err, ShouldBeNil)
			_, err = w.Write(payload)
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)

			out, err := Decode(bytes.NewReader(buf.Bytes()), cfg)
			So(err, ShouldBeNil)
			So(out, ShouldResemble, payload)
		})

		Convey("wrong key surfaces as a decode failure", func() {
			key, err := secure.NewKey(bytes.Repeat([]byte{0x42}, secure.KeySize))
			So(err, ShouldBeNil)
			cfg := Config{Compression: compress.Store, Cipher: secure.Aes256, Mode: secure.CBC, Key: key}
			buf := &bytes.Buffer{}
			w, err := NewWriter(buf, cfg)
			So(err, ShouldBeNil)
			_, err = w.Write(payload)
			So(err, ShouldBeNil)
			So(w.Close(), ShouldBeNil)

			wrongKey, err := secure.NewKey(bytes.Repeat([]byte{0x99}, secure.KeySize))
			So(err, ShouldBeNil)
			cfg.Key = wrongKey
			_, err = Decode(bytes.NewReader(buf.Bytes()), cfg)
			So(err, ShouldErrLike, secure.ErrWrongPassword)
		})
	})
}
