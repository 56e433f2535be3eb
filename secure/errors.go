// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package secure

import "github.com/luci/luci-go/common/errors"

var (
	// ErrUnsupportedCipher is returned for an unrecognized Cipher or Mode.
	ErrUnsupportedCipher = errors.New("secure: unsupported cipher")

	// ErrMalformedPHC is returned when a PHC string cannot be parsed.
	ErrMalformedPHC = errors.New("secure: malformed phc string")

	// ErrWrongPassword is returned when a decrypted payload fails its
	// padding or downstream decompression check, the signal a wrong key
	// gives at the cipher level.
	ErrWrongPassword = errors.New("secure: wrong password")
)
