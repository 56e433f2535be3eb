// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

func TestWriteEntryChunks(t *testing.T) {
	t.Parallel()

	Convey("writeEntryChunks", t, func() {
		Convey("regular file, no encryption", func() {
			b := NewRegularEntry("hello.txt")
			_, err := b.Write([]byte("hello, world"))
			So(err, ShouldBeNil)

			opts := defaultWriteOptionData()
			opts.compression = CompressionConfig{Scheme: compress.Deflate}

			buf := &bytes.Buffer{}
			emit := func(t chunk.Type, data []byte) error { return chunk.Encode(buf, t, data) }
			So(writeEntryChunks(emit, opts, b), ShouldBeNil)

			var types []chunk.Type
			for {
				c, err := chunk.Decode(buf, 0)
				if err == chunk.ErrEndOfStream {
					break
				}
				So(err, ShouldBeNil)
				types = append(types, c.Type)
			}
			So(types[0], ShouldResemble, chunk.TypeEntryHeader)
			So(types[len(types)-1], ShouldResemble, chunk.TypeEntryEnd)
		})

		Convey("empty regular file emits no FDAT", func() {
			b := NewRegularEntry("empty.txt")
			opts := defaultWriteOptionData()

			buf := &bytes.Buffer{}
			emit := func(t chunk.Type, data []byte) error { return chunk.Encode(buf, t, data) }
			So(writeEntryChunks(emit, opts, b), ShouldBeNil)

			for {
				c, err := chunk.Decode(buf, 0)
				if err == chunk.ErrEndOfStream {
					break
				}
				So(err, ShouldBeNil)
				So(c.Type, ShouldNotResemble, chunk.TypeEntryData)
			}
		})

		Convey("encrypted entry requires a password", func() {
			b := NewRegularEntry("secret.txt")
			_, err := b.Write([]byte("shh"))
			So(err, ShouldBeNil)

			opts := defaultWriteOptionData()
			opts.encryption = EncryptionConfig{Cipher: secure.Aes256, Mode: secure.CTR}

			emit := func(t chunk.Type, data []byte) error { return nil }
			err = writeEntryChunks(emit, opts, b)
			So(err, ShouldNotBeNil)
			pnaErr, ok := err.(*Error)
			So(ok, ShouldBeTrue)
			So(pnaErr.Kind, ShouldEqual, Password)
		})

		Convey("encrypted entry emits PHSF", func() {
			b := NewRegularEntry("secret.txt")
			_, err := b.Write([]byte("shh, this is secret content"))
			So(err, ShouldBeNil)

			opts := defaultWriteOptionData()
			opts.encryption = EncryptionConfig{Cipher: secure.Aes256, Mode: secure.CTR}
			opts.password = []byte("hunter2")

			buf := &bytes.Buffer{}
			emit := func(t chunk.Type, data []byte) error { return chunk.Encode(buf, t, data) }
			So(writeEntryChunks(emit, opts, b), ShouldBeNil)

			foundPHSF := false
			for {
				c, err := chunk.Decode(buf, 0)
				if err == chunk.ErrEndOfStream {
					break
				}
				So(err, ShouldBeNil)
				if c.Type == chunk.TypePasswordHash {
					foundPHSF = true
				}
			}
			So(foundPHSF, ShouldBeTrue)
		})
	})
}
