// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"
	"io"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/riannucci/pna/compress"
)

func TestSolidBlock(t *testing.T) {
	t.Parallel()

	Convey("skip-solid yields one opaque entry", t, func() {
		buf := &bytes.Buffer{}
		w, err := NewWriter(singleVolumeOpener(buf))
		So(err, ShouldBeNil)

		sb := NewSolidBuilder(WithCompression(compress.Deflate, compress.LevelDefault))
		f1 := NewRegularEntry("a.txt")
		_, _ = f1.Write([]byte("aaaaaaaaaaaaaaaaaaaa"))
		f2 := NewRegularEntry("b.txt")
		_, _ = f2.Write([]byte("bbbbbbbbbbbbbbbbbbbb"))
		So(sb.AddEntry(f1), ShouldBeNil)
		So(sb.AddEntry(f2), ShouldBeNil)

		So(w.AddSolidBlock(sb), ShouldBeNil)
		So(w.Finalize(), ShouldBeNil)

		r, err := NewReader("", bytes.NewReader(buf.Bytes()))
		So(err, ShouldBeNil)
		e, err := r.Next()
		So(err, ShouldBeNil)
		So(e.Kind, ShouldEqual, KindSolidBlock)

		_, err = r.Next()
		So(err, ShouldEqual, io.EOF)
	})

	Convey("open-solid yields individual entries", t, func() {
		buf := &bytes.Buffer{}
		w, err := NewWriter(singleVolumeOpener(buf))
		So(err, ShouldBeNil)

		sb := NewSolidBuilder(WithCompression(compress.Zstd, compress.LevelDefault))
		f1 := NewRegularEntry("a.txt")
		_, _ = f1.Write([]byte("aaaaaaaaaaaaaaaaaaaa"))
		f2 := NewRegularEntry("b.txt")
		_, _ = f2.Write([]byte("bbbbbbbbbbbbbbbbbbbb"))
		So(sb.AddEntry(f1), ShouldBeNil)
		So(sb.AddEntry(f2), ShouldBeNil)

		So(w.AddSolidBlock(sb), ShouldBeNil)
		So(w.Finalize(), ShouldBeNil)

		r, err := NewReader("", bytes.NewReader(buf.Bytes()), WithOpenSolid(true))
		So(err, ShouldBeNil)

		e1, err := r.Next()
		So(err, ShouldBeNil)
		So(e1.InSolid, ShouldBeTrue)
		So(e1.Path, ShouldEqual, "a.txt")
		So(string(e1.Data()), ShouldEqual, "aaaaaaaaaaaaaaaaaaaa")

		e2, err := r.Next()
		So(err, ShouldBeNil)
		So(e2.InSolid, ShouldBeTrue)
		So(e2.Path, ShouldEqual, "b.txt")
		So(string(e2.Data()), ShouldEqual, "bbbbbbbbbbbbbbbbbbbb")

		_, err = r.Next()
		So(err, ShouldEqual, io.EOF)
	})
}
