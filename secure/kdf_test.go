// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package secure

import (
	"testing"

	. "github.com/luci/luci-go/common/testing/assertions"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPHCRoundTrip(t *testing.T) {
	t.Parallel()

	Convey("PHC", t, func() {
		Convey("pbkdf2-sha256", func() {
			p := Params{Algorithm: Pbkdf2Sha256, Rounds: 600000, Salt: []byte("saltsaltsalt"), KeyLen: 32}
			hash, err := p.Derive([]byte("hunter2"))
			So(err, ShouldBeNil)

			s, err := EncodePHC(p, hash)
			So(err, ShouldBeNil)
			So(s, ShouldStartWith, "$pbkdf2-sha256$i=600000$")

			gotParams, gotHash, err := DecodePHC(s)
			So(err, ShouldBeNil)
			So(gotParams.Algorithm, ShouldEqual, Pbkdf2Sha256)
			So(gotParams.Rounds, ShouldEqual, uint32(600000))
			So(gotParams.Salt, ShouldResemble, p.Salt)
			So(gotHash, ShouldResemble, hash)
		})

		Convey("argon2id", func() {
			p := Params{Algorithm: Argon2id, Time: 2, Memory: 65536, Threads: 1, Salt: []byte("saltsaltsalt"), KeyLen: 32}
			hash, err := p.Derive([]byte("hunter2"))
			So(err, ShouldBeNil)

			s, err := EncodePHC(p, hash)
			So(err, ShouldBeNil)
			So(s, ShouldStartWith, "$argon2id$v=19$m=65536,t=2,p=1$")

			gotParams, gotHash, err := DecodePHC(s)
			So(err, ShouldBeNil)
			So(gotParams.Algorithm, ShouldEqual, Argon2id)
			So(gotParams.Memory, ShouldEqual, uint32(65536))
			So(gotParams.Time, ShouldEqual, uint32(2))
			So(gotParams.Threads, ShouldEqual, uint8(1))
			So(gotHash, ShouldResemble, hash)
		})

		Convey("rejects a malformed string", func() {
			_, _, err := DecodePHC("not a phc string")
			So(err, ShouldErrLike, ErrMalformedPHC)
		})

		Convey("rejects an unknown identifier", func() {
			_, _, err := DecodePHC("$scrypt$n=16384$c2FsdA$aGFzaA")
			So(err, ShouldErrLike, "unknown phc ident")
		})
	})
}
