// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/compress"
)

// SolidBuilder accumulates a run of entries that will be compressed and
// (optionally) encrypted together as one solid block, rather than each
// entry paying its own compression/encryption overhead.
//
// Entries added to a SolidBuilder are always framed with no compression or
// encryption of their own (the enclosing block supplies both); the
// CompressionConfig/EncryptionConfig passed to NewSolidBuilder govern the
// block as a whole.
type SolidBuilder struct {
	opts writeOptionData
	buf  bytes.Buffer
}

// NewSolidBuilder starts a solid block configured by options. Compression
// and encryption options apply to the block; per-entry compression options
// passed via a WriteOption here are ignored for the individual entries
// (they are always framed store/none) and instead describe the block.
func NewSolidBuilder(options ...WriteOption) *SolidBuilder {
	o := defaultWriteOptionData()
	for _, opt := range options {
		opt(&o)
	}
	return &SolidBuilder{opts: o}
}

// AddEntry frames b's chunks into the block's inner stream.
func (sb *SolidBuilder) AddEntry(b *EntryBuilder) error {
	innerOpts := sb.opts
	innerOpts.compression = CompressionConfig{Scheme: compress.Store}
	innerOpts.encryption = EncryptionConfig{}
	innerOpts.password = nil

	emit := func(t chunk.Type, data []byte) error {
		return chunk.Encode(&sb.buf, t, data)
	}
	return writeEntryChunks(emit, innerOpts, b)
}

// header returns the aSLD payload describing this block's own compression
// and encryption, as configured on NewSolidBuilder.
func (sb *SolidBuilder) header() SolidHeader {
	return SolidHeader{
		Major:       chunk.CurrentMajor,
		Minor:       chunk.CurrentMinor,
		Compression: sb.opts.compression.Scheme,
		Cipher:      sb.opts.encryption.Cipher,
		Mode:        sb.opts.encryption.Mode,
	}
}
