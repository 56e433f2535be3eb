// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/riannucci/pna/chunk"
)

func TestMetadataChunks(t *testing.T) {
	t.Parallel()

	Convey("Timestamp round trip", t, func() {
		ts := Timestamp{Seconds: 1717171717, Nanos: 123456}
		back, err := DecodeTimestamp(ts.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, ts)
	})

	Convey("Permission round trip", t, func() {
		p := Permission{UID: 1000, GID: 1000, Mode: 0644, UName: "alice", GName: "staff"}
		back, err := DecodePermission(p.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, p)
	})

	Convey("ExtendedAttribute round trip", t, func() {
		a := ExtendedAttribute{Name: "user.comment", Value: []byte("hello world")}
		back, err := DecodeExtendedAttribute(a.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, a)
	})

	Convey("ACLEntry round trip", t, func() {
		a := ACLEntry{Platform: ACLPosix, Type: ACEAllowed, Permission: 0x1FF, Principal: "alice"}
		back, err := DecodeACLEntry(a.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldResemble, a)
	})

	Convey("FileFlags round trip", t, func() {
		f := FileFlags(0xDEADBEEF)
		back, err := DecodeFileFlags(f.Encode())
		So(err, ShouldBeNil)
		So(back, ShouldEqual, f)
	})

	Convey("emitMetadata emits chunks in a fixed order", t, func() {
		created := Timestamp{Seconds: 1}
		modified := Timestamp{Seconds: 2}
		size := uint64(42)
		m := Metadata{
			Created:       &created,
			Modified:      &modified,
			ExtendedAttrs: []ExtendedAttribute{{Name: "a", Value: []byte("1")}},
			Size:          &size,
		}
		var types []chunk.Type
		emit := func(t chunk.Type, data []byte) error {
			types = append(types, t)
			return nil
		}
		So(emitMetadata(emit, m), ShouldBeNil)
		So(types, ShouldResemble, []chunk.Type{
			chunk.TypeCreatedTime, chunk.TypeModifiedTime, chunk.TypeExtendedAttr, chunk.TypeFileSize,
		})
	})

	Convey("applyMetadataChunk round trips through emitMetadata", t, func() {
		created := Timestamp{Seconds: 5, Nanos: 6}
		m := Metadata{Created: &created}
		buf := &bytes.Buffer{}
		emit := func(t chunk.Type, data []byte) error { return chunk.Encode(buf, t, data) }
		So(emitMetadata(emit, m), ShouldBeNil)

		var out Metadata
		for {
			c, err := chunk.Decode(buf, 0)
			if err == chunk.ErrEndOfStream {
				break
			}
			So(err, ShouldBeNil)
			ok, err := applyMetadataChunk(&out, c.Type, c.Data)
			So(ok, ShouldBeTrue)
			So(err, ShouldBeNil)
		}
		So(out, ShouldResemble, m)
	})
}
