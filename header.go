// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"github.com/luci/luci-go/common/errors"

	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

// EntryKind is the file-type byte of an FHED payload.
type EntryKind byte

// The entry kinds this format distinguishes (§3.3).
const (
	KindRegular EntryKind = iota + 1
	KindDirectory
	KindSymlink
	KindHardlink
	KindReference

	// KindSolidBlock is not a wire value; it tags an Entry synthesized by
	// the Reader in skip-solid mode to represent an unopened solid block.
	KindSolidBlock
)

func (k EntryKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	case KindHardlink:
		return "hardlink"
	case KindReference:
		return "reference"
	case KindSolidBlock:
		return "solid-block"
	}
	return "unknown"
}

// EntryHeader is the decoded payload of an FHED chunk: six fixed bytes
// followed by the entry's own path, filling the rest of the chunk (there
// is no length prefix on the path; the chunk's own length bounds it).
type EntryHeader struct {
	Major, Minor byte
	Kind         EntryKind
	Compression  compress.Scheme
	Cipher       secure.Cipher
	Mode         secure.Mode
	Path         string
}

// Encode renders h as its FHED payload.
func (h EntryHeader) Encode() []byte {
	buf := make([]byte, 6+len(h.Path))
	buf[0] = h.Major
	buf[1] = h.Minor
	buf[2] = byte(h.Kind)
	buf[3] = byte(h.Compression)
	buf[4] = byte(h.Cipher)
	buf[5] = byte(h.Mode)
	copy(buf[6:], h.Path)
	return buf
}

// DecodeEntryHeader parses an FHED payload.
func DecodeEntryHeader(data []byte) (EntryHeader, error) {
	if len(data) < 6 {
		return EntryHeader{}, errors.Reason("FHED payload must be at least 6 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return EntryHeader{
		Major:       data[0],
		Minor:       data[1],
		Kind:        EntryKind(data[2]),
		Compression: compress.Scheme(data[3]),
		Cipher:      secure.Cipher(data[4]),
		Mode:        secure.Mode(data[5]),
		Path:        string(data[6:]),
	}, nil
}

// SolidHeader is the decoded payload of an aSLD chunk: the compression and
// encryption used for the block's inner stream. Unlike EntryHeader it
// carries no path; a solid block is not itself named.
type SolidHeader struct {
	Major, Minor byte
	Compression  compress.Scheme
	Cipher       secure.Cipher
	Mode         secure.Mode
}

// Encode renders h as its exactly-5-byte aSLD payload.
func (h SolidHeader) Encode() []byte {
	return []byte{h.Major, h.Minor, byte(h.Compression), byte(h.Cipher), byte(h.Mode)}
}

// DecodeSolidHeader parses an aSLD payload.
func DecodeSolidHeader(data []byte) (SolidHeader, error) {
	if len(data) != 5 {
		return SolidHeader{}, errors.Reason("aSLD payload must be 5 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return SolidHeader{
		Major:       data[0],
		Minor:       data[1],
		Compression: compress.Scheme(data[2]),
		Cipher:      secure.Cipher(data[3]),
		Mode:        secure.Mode(data[4]),
	}, nil
}
