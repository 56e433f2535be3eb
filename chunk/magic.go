// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

import (
	"encoding/binary"
	"io"

	"github.com/luci/luci-go/common/errors"
)

// Magic is the 8-byte prefix every volume begins with: \x89 P N A CR LF SUB
// LF, the same CRLF/SUB corruption test PNG uses, adapted to this format.
var Magic = [8]byte{0x89, 'P', 'N', 'A', 0x0D, 0x0A, 0x1A, 0x0A}

// CurrentMajor and CurrentMinor are the version this package writes into
// AHED. Readers accept any minor version at CurrentMajor and reject a
// greater major version.
const (
	CurrentMajor byte = 0
	CurrentMinor byte = 1
)

// FlagSolid is bit 0 of ArchiveHeader.Flags: the archive uses solid mode.
const FlagSolid uint16 = 1 << 0

// WriteMagic writes the 8-byte file magic to w.
func WriteMagic(w io.Writer) error {
	_, err := w.Write(Magic[:])
	return errors.Annotate(err).Reason("writing magic").Err()
}

// ReadMagic reads 8 bytes from r and verifies they equal Magic.
func ReadMagic(r io.Reader) error {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return errors.Annotate(err).Reason("reading magic").Err()
	}
	if buf != Magic {
		return errors.Reason("bad magic: % x").D("buf", buf[:]).Err()
	}
	return nil
}

// ArchiveHeader is the decoded payload of an AHED chunk.
type ArchiveHeader struct {
	Major, Minor  byte
	Flags         uint16
	ArchiveNumber uint32
}

// Solid reports whether FlagSolid is set.
func (h ArchiveHeader) Solid() bool { return h.Flags&FlagSolid != 0 }

// Encode renders h as its 8-byte AHED payload.
func (h ArchiveHeader) Encode() []byte {
	buf := make([]byte, 8)
	buf[0] = h.Major
	buf[1] = h.Minor
	binary.BigEndian.PutUint16(buf[2:4], h.Flags)
	binary.BigEndian.PutUint32(buf[4:8], h.ArchiveNumber)
	return buf
}

// DecodeArchiveHeader parses an 8-byte AHED payload.
func DecodeArchiveHeader(data []byte) (ArchiveHeader, error) {
	if len(data) != 8 {
		return ArchiveHeader{}, errors.Reason("AHED payload must be 8 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return ArchiveHeader{
		Major:         data[0],
		Minor:         data[1],
		Flags:         binary.BigEndian.Uint16(data[2:4]),
		ArchiveNumber: binary.BigEndian.Uint32(data[4:8]),
	}, nil
}
