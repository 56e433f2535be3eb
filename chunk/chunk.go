// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/luci/luci-go/common/errors"
)

// DefaultMaxBytes is the length ceiling Decode enforces when the caller does
// not supply one, matching the ReadOptions default of 2^31-1.
const DefaultMaxBytes = 1<<31 - 1

// MinFrameSize is the size of the smallest possible chunk: a zero-length
// body still costs 4 (length) + 4 (type) + 4 (crc) bytes.
const MinFrameSize = 12

// Chunk is a single decoded length‖type‖data‖crc record.
type Chunk struct {
	Type Type
	Data []byte
}

// CRC computes the IEEE CRC32 of this chunk's type and data, per §3.1: the
// checksum covers type‖data, not the length prefix.
func (c Chunk) CRC() uint32 {
	h := crc32.NewIEEE()
	h.Write(c.Type[:])
	h.Write(c.Data)
	return h.Sum32()
}

// Encode writes a single framed chunk of the given type and data to w.
func Encode(w io.Writer, t Type, data []byte) error {
	if len(data) > 0xFFFFFFFF {
		return errors.Reason("chunk: data too long: %(n)d bytes").D("n", len(data)).Err()
	}
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(len(data)))
	copy(hdr[4:8], t[:])
	if _, err := w.Write(hdr[:]); err != nil {
		return errors.Annotate(err).Reason("writing chunk header").Err()
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return errors.Annotate(err).Reason("writing chunk data").Err()
		}
	}
	crc := Chunk{Type: t, Data: data}.CRC()
	var crcBuf [4]byte
	binary.BigEndian.PutUint32(crcBuf[:], crc)
	if _, err := w.Write(crcBuf[:]); err != nil {
		return errors.Annotate(err).Reason("writing chunk crc").Err()
	}
	return nil
}

// Decode reads one framed chunk from r, verifying its CRC. maxBytes bounds
// the declared length; a length above it fails with ErrOverLongLength before
// any allocation happens. A maxBytes of zero selects DefaultMaxBytes.
func Decode(r io.Reader, maxBytes uint32) (Chunk, error) {
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return Chunk{}, ErrEndOfStream
		}
		return Chunk{}, errors.Annotate(ErrShortRead).Reason("reading chunk header: %(err)v").D("err", err).Err()
	}

	length := binary.BigEndian.Uint32(hdr[0:4])
	if length > maxBytes {
		return Chunk{}, errors.Annotate(ErrOverLongLength).
			Reason("chunk %(len)d exceeds max %(max)d").D("len", length).D("max", maxBytes).Err()
	}

	var t Type
	copy(t[:], hdr[4:8])

	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return Chunk{}, errors.Annotate(ErrShortRead).Reason("reading chunk data: %(err)v").D("err", err).Err()
		}
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return Chunk{}, errors.Annotate(ErrShortRead).Reason("reading chunk crc: %(err)v").D("err", err).Err()
	}

	c := Chunk{Type: t, Data: data}
	if want := binary.BigEndian.Uint32(crcBuf[:]); want != c.CRC() {
		return Chunk{}, errors.Annotate(ErrBadCRC).
			Reason("chunk %(type)q: want %(want)x got %(got)x").
			D("type", t.String()).D("want", want).D("got", c.CRC()).Err()
	}

	return c, nil
}

// Skip reads and discards the body and CRC of a chunk whose header has
// already been consumed, without materializing the data, so a caller can
// pass over an unknown ancillary chunk without buffering it.
func Skip(r io.Reader, length uint32) error {
	if _, err := io.CopyN(io.Discard, r, int64(length)+4); err != nil {
		return errors.Annotate(err).Reason("skipping chunk body").Err()
	}
	return nil
}

// SplitData divides data into a sequence of byte slices no longer than cap
// bytes each, for callers that must emit a single logical payload as
// multiple same-type chunks (e.g. FDAT/aDAT bodies larger than a configured
// chunk_body_cap). A nil or zero cap returns data as a single slice.
func SplitData(data []byte, cap int) [][]byte {
	if cap <= 0 || len(data) <= cap {
		return [][]byte{data}
	}
	var out [][]byte
	for len(data) > 0 {
		n := cap
		if n > len(data) {
			n = len(data)
		}
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
