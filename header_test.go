// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

func TestEntryHeader(t *testing.T) {
	t.Parallel()

	Convey("EntryHeader", t, func() {
		h := EntryHeader{
			Major:       chunk.CurrentMajor,
			Minor:       chunk.CurrentMinor,
			Kind:        KindRegular,
			Compression: compress.Zstd,
			Cipher:      secure.Aes256,
			Mode:        secure.CTR,
			Path:        "dir/file.txt",
		}
		back, err := DecodeEntryHeader(h.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, h)

		Convey("empty path", func() {
			h.Path = ""
			back, err := DecodeEntryHeader(h.Encode())
			So(err, ShouldBeNil)
			So(back, ShouldResemble, h)
		})

		Convey("short payload rejected", func() {
			_, err := DecodeEntryHeader([]byte{1, 2, 3})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSolidHeader(t *testing.T) {
	t.Parallel()

	Convey("SolidHeader", t, func() {
		h := SolidHeader{
			Major:       chunk.CurrentMajor,
			Minor:       chunk.CurrentMinor,
			Compression: compress.Deflate,
			Cipher:      secure.Camellia256,
			Mode:        secure.CBC,
		}
		back, err := DecodeSolidHeader(h.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, h)

		Convey("wrong length rejected", func() {
			_, err := DecodeSolidHeader([]byte{1, 2, 3})
			So(err, ShouldNotBeNil)

			_, err = DecodeSolidHeader([]byte{1, 2, 3, 4, 5, 6})
			So(err, ShouldNotBeNil)
		})
	})
}
