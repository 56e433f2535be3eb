// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

import "github.com/luci/luci-go/common/errors"

// Sentinel errors returned by Decode. Callers use errors.Is against these to
// classify a decode failure; the higher-level pna package wraps them into its
// own Error sum with offset/type context attached.
var (
	// ErrShortRead is returned when the stream ends before a complete
	// length/type/data/crc record could be read.
	ErrShortRead = errors.New("chunk: short read")

	// ErrBadCRC is returned when a chunk's trailing CRC does not match the
	// CRC computed over its type and data.
	ErrBadCRC = errors.New("chunk: crc mismatch")

	// ErrOverLongLength is returned when a chunk declares a length beyond
	// the caller-configured maximum.
	ErrOverLongLength = errors.New("chunk: length exceeds maximum")

	// ErrEndOfStream is returned by Decode when the stream ends cleanly,
	// before the first byte of a chunk header.
	ErrEndOfStream = errors.New("chunk: end of stream")
)
