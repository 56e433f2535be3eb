// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/luci/luci-go/common/iotools"
	"github.com/luci/luci-go/common/logging"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/pipeline"
	"github.com/riannucci/pna/secure"
)

// VolumeOpener opens the next volume of a split archive for writing, given
// its archive number (0 for the first volume).
type VolumeOpener func(archiveNumber uint32) (io.WriteCloser, error)

// Writer emits entries and solid blocks as a single archive, splitting
// across volumes via opener when WithMaxVolumeBytes bounds a volume's size.
type Writer struct {
	opts   writeOptionData
	opener VolumeOpener

	cur           io.WriteCloser
	counter       *iotools.CountingWriter
	archiveNumber uint32
	finished      bool
}

// NewWriter opens the first volume via opener and writes its magic and AHED.
func NewWriter(opener VolumeOpener, options ...WriteOption) (*Writer, error) {
	o := defaultWriteOptionData()
	for _, opt := range options {
		opt(&o)
	}
	const minVolumeBytes = 64
	if o.maxVolumeBytes != 0 && o.maxVolumeBytes < minVolumeBytes {
		return nil, newError(BudgetTooSmall, nil, "max volume bytes %d below the %d-byte minimum frame size", o.maxVolumeBytes, minVolumeBytes)
	}

	w := &Writer{opts: o, opener: opener}
	if err := w.openVolume(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openVolume() error {
	wc, err := w.opener(w.archiveNumber)
	if err != nil {
		return newError(Io, err, "opening volume %d", w.archiveNumber)
	}
	counter := &iotools.CountingWriter{Writer: wc}
	w.cur = wc
	w.counter = counter

	if err := chunk.WriteMagic(counter); err != nil {
		return newError(Io, err, "writing volume %d magic", w.archiveNumber)
	}
	flags := uint16(0)
	if w.opts.solid {
		flags |= chunk.FlagSolid
	}
	ahed := chunk.ArchiveHeader{Major: chunk.CurrentMajor, Minor: chunk.CurrentMinor, Flags: flags, ArchiveNumber: w.archiveNumber}
	if err := chunk.Encode(counter, chunk.TypeArchiveHeader, ahed.Encode()); err != nil {
		return newError(Io, err, "writing volume %d AHED", w.archiveNumber)
	}
	return nil
}

// frameSize is the on-wire byte cost of one chunk of the given payload
// length: 4 (length) + 4 (type) + payload + 4 (crc).
func frameSize(dataLen int) uint64 {
	return uint64(dataLen) + 12
}

func (w *Writer) writeChunk(t chunk.Type, data []byte) error {
	if w.opts.maxVolumeBytes != 0 {
		// Reserve room for the ANXT+AEND this volume will need if it rolls,
		// and for the AEND it needs if this is the last chunk written.
		reserve := frameSize(0) * 2
		if uint64(w.counter.Count)+frameSize(len(data))+reserve > w.opts.maxVolumeBytes {
			if err := w.rollVolume(); err != nil {
				return err
			}
		}
	}
	if err := chunk.Encode(w.counter, t, data); err != nil {
		return newError(Io, err, "writing %s chunk", t)
	}
	return nil
}

func (w *Writer) rollVolume() error {
	if err := chunk.Encode(w.counter, chunk.TypeArchiveNext, nil); err != nil {
		return newError(Io, err, "writing ANXT")
	}
	if err := chunk.Encode(w.counter, chunk.TypeArchiveEnd, nil); err != nil {
		return newError(Io, err, "writing AEND before roll")
	}
	if err := w.cur.Close(); err != nil {
		return newError(Io, err, "closing volume %d", w.archiveNumber)
	}
	logging.Infof(w.opts.ctx, "pna: rolling from volume %d to volume %d", w.archiveNumber, w.archiveNumber+1)
	w.archiveNumber++
	return w.openVolume()
}

// AddEntry writes a full entry (header, key derivation, metadata, data,
// terminator) to the archive.
func (w *Writer) AddEntry(b *EntryBuilder) error {
	if w.finished {
		return newError(Ordering, nil, "writer already finalized")
	}
	return writeEntryChunks(w.writeChunk, w.opts, b)
}

// AddSolidBlock compresses and (if configured) encrypts sb's accumulated
// entry stream as a whole and writes it as one aSLD/aDAT*/aEND run.
func (w *Writer) AddSolidBlock(sb *SolidBuilder) error {
	if w.finished {
		return newError(Ordering, nil, "writer already finalized")
	}

	header := sb.header()
	if err := w.writeChunk(chunk.TypeSolidHeader, header.Encode()); err != nil {
		return err
	}

	var key *secure.Key
	if sb.opts.encryption.Cipher != 0 {
		if len(sb.opts.password) == 0 {
			return newError(Password, nil, "solid block encryption requested but no password configured")
		}
		salt := make([]byte, 16)
		src := sb.opts.randSource
		if src == nil {
			src = rand.Reader
		}
		if _, err := io.ReadFull(src, salt); err != nil {
			return newError(Io, err, "generating solid block KDF salt")
		}
		params := sb.opts.kdf.toParams(salt, secure.KeySize)
		keyBytes, err := params.Derive(sb.opts.password)
		if err != nil {
			return newError(Password, err, "deriving solid block key")
		}
		phc, err := secure.EncodePHC(params, keyBytes)
		if err != nil {
			return newError(MalformedMetadata, err, "encoding solid block PHSF")
		}
		if err := w.writeChunk(chunk.TypePasswordHash, []byte(phc)); err != nil {
			return err
		}
		key, err = secure.NewKey(keyBytes)
		if err != nil {
			return newError(Io, err, "locking solid block key material")
		}
		defer key.Close()
	}

	buf := &bytes.Buffer{}
	pcfg := pipeline.Config{
		Compression: sb.opts.compression.Scheme,
		Level:       sb.opts.compression.Level,
		Cipher:      sb.opts.encryption.Cipher,
		Mode:        sb.opts.encryption.Mode,
		Key:         key,
		RandSource:  sb.opts.randSource,
	}
	pw, err := pipeline.NewWriter(buf, pcfg)
	if err != nil {
		return newError(UnsupportedCompression, err, "building solid block pipeline writer")
	}
	if _, err := pw.Write(sb.buf.Bytes()); err != nil {
		return newError(Io, err, "compressing solid block content")
	}
	if err := pw.Close(); err != nil {
		return newError(Io, err, "finishing solid block content")
	}

	cap := sb.opts.chunkBodyCap
	if cap <= 0 {
		cap = DefaultChunkBodyCap
	}
	for _, part := range chunk.SplitData(buf.Bytes(), cap) {
		if err := w.writeChunk(chunk.TypeSolidData, part); err != nil {
			return err
		}
	}

	return w.writeChunk(chunk.TypeSolidEnd, nil)
}

// Finalize writes the terminating AEND chunk and closes the current volume.
// The Writer must not be used afterward.
func (w *Writer) Finalize() error {
	if w.finished {
		return nil
	}
	if err := chunk.Encode(w.counter, chunk.TypeArchiveEnd, nil); err != nil {
		return newError(Io, err, "writing AEND")
	}
	if err := w.cur.Close(); err != nil {
		return newError(Io, err, "closing final volume")
	}
	w.finished = true
	return nil
}
