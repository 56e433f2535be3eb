// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

import (
	"bytes"
	"testing"

	. "github.com/luci/luci-go/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

func TestChunkRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("Encode/Decode", t, func() {
		Convey("round-trips a chunk", func() {
			buf := &bytes.Buffer{}
			So(Encode(buf, TypeEntryData, []byte("hello")), ShouldBeNil)

			got, err := Decode(buf, 0)
			So(err, ShouldBeNil)
			So(got.Type, ShouldResemble, TypeEntryData)
			So(got.Data, ShouldResemble, []byte("hello"))
		})

		Convey("round-trips a zero-length chunk", func() {
			buf := &bytes.Buffer{}
			So(Encode(buf, TypeEntryEnd, nil), ShouldBeNil)

			got, err := Decode(buf, 0)
			So(err, ShouldBeNil)
			So(got.Type, ShouldResemble, TypeEntryEnd)
			So(len(got.Data), ShouldEqual, 0)
		})

		Convey("detects a flipped data byte", func() {
			buf := &bytes.Buffer{}
			So(Encode(buf, TypeEntryData, []byte("hello")), ShouldBeNil)
			raw := buf.Bytes()
			raw[9] ^= 0xFF // flip a byte inside "hello"

			_, err := Decode(bytes.NewReader(raw), 0)
			So(err, ShouldErrLike, "crc mismatch")
		})

		Convey("rejects an over-long declared length", func() {
			buf := &bytes.Buffer{}
			So(Encode(buf, TypeEntryData, []byte("hello")), ShouldBeNil)

			_, err := Decode(buf, 4)
			So(err, ShouldErrLike, "exceeds max")
		})

		Convey("reports end of stream at EOF", func() {
			_, err := Decode(bytes.NewReader(nil), 0)
			So(err, ShouldEqual, ErrEndOfStream)
		})

		Convey("reports a short read mid-header", func() {
			_, err := Decode(bytes.NewReader([]byte{0, 0, 0, 1}), 0)
			So(err, ShouldErrLike, "short read")
		})
	})
}

func TestSplitData(t *testing.T) {
	t.Parallel()

	Convey("SplitData", t, func() {
		Convey("passes small data through as one slice", func() {
			parts := SplitData([]byte("abc"), 16)
			So(parts, ShouldResemble, [][]byte{[]byte("abc")})
		})

		Convey("splits data larger than cap", func() {
			parts := SplitData([]byte("abcdefgh"), 3)
			So(len(parts), ShouldEqual, 3)
			So(parts[0], ShouldResemble, []byte("abc"))
			So(parts[1], ShouldResemble, []byte("def"))
			So(parts[2], ShouldResemble, []byte("gh"))
		})
	})
}

func TestClassify(t *testing.T) {
	t.Parallel()

	Convey("Classify", t, func() {
		Convey("FHED is critical, public, unsafe to copy", func() {
			c := Classify(TypeEntryHeader)
			So(c.Critical, ShouldBeTrue)
			So(c.Public, ShouldBeTrue)
			So(c.SafeToCopy, ShouldBeFalse)
		})

		Convey("aDAT is ancillary", func() {
			c := Classify(TypeSolidData)
			So(c.Critical, ShouldBeFalse)
		})
	})
}
