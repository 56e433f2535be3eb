// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	Convey("Registry", t, func() {
		Convey("knows the canonical types", func() {
			So(Known(TypeArchiveHeader), ShouldBeTrue)
			So(Known(TypeSolidEnd), ShouldBeTrue)
		})

		Convey("does not know a made-up type", func() {
			So(Known(NewType("zzzz")), ShouldBeFalse)
		})

		Convey("MustSkip follows the critical bit for unknown types", func() {
			So(MustSkip(NewType("zzzz")), ShouldBeTrue)
			So(MustSkip(NewType("Zzzz")), ShouldBeFalse)
		})
	})
}
