// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"

	"github.com/luci/luci-go/common/data/stringset"
	"github.com/luci/luci-go/common/logging"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/pipeline"
	"github.com/riannucci/pna/secure"
)

// classifyReadErr distinguishes a stream that ended before its terminator
// chunk arrived from a generic I/O failure, so callers can switch on Kind
// to tell "archive truncated" from "transport failed".
func classifyReadErr(err error, format string, args ...interface{}) *Error {
	if err == chunk.ErrEndOfStream || errors.Is(err, chunk.ErrShortRead) {
		return newError(Truncated, err, format, args...)
	}
	return newError(Io, err, format, args...)
}

// chunkSource wraps a byte stream and decodes it one chunk at a time,
// optionally tolerating zero-byte padding between chunks.
type chunkSource struct {
	ctx         context.Context
	br          *bufio.Reader
	maxBytes    uint32
	ignoreZeros bool
}

func newChunkSource(ctx context.Context, r io.Reader, maxBytes uint32, ignoreZeros bool) *chunkSource {
	if maxBytes == 0 {
		maxBytes = chunk.DefaultMaxBytes
	}
	return &chunkSource{ctx: ctx, br: bufio.NewReader(r), maxBytes: maxBytes, ignoreZeros: ignoreZeros}
}

func (s *chunkSource) next() (chunk.Chunk, error) {
	if s.ignoreZeros {
		skipped := 0
		for {
			// A zero byte is padding only where the four bytes a chunk type
			// would occupy are not ASCII letters; otherwise it is taken as the
			// first byte of a chunk's big-endian length.
			b, err := s.br.Peek(8)
			if err != nil {
				break
			}
			var t chunk.Type
			copy(t[:], b[4:8])
			if b[0] != 0 || t.Valid() {
				break
			}
			if _, err := s.br.Discard(1); err != nil {
				break
			}
			skipped++
		}
		if skipped > 0 {
			logging.Infof(s.ctx, "pna: skipped %d byte(s) of zero padding before next chunk", skipped)
		}
	}
	return chunk.Decode(s.br, s.maxBytes)
}

// Reader iterates the entries and solid blocks of an archive, transparently
// following ANXT into further volumes when a locator is configured.
type Reader struct {
	opts readOptionData
	src  *chunkSource

	volumeReader io.ReadCloser
	header       chunk.ArchiveHeader

	archiveNumber uint32
	currentPath   string

	pathTable map[string]*Entry
	pending   []*Entry
	done      bool
}

// NewReader opens an archive whose first volume is r. path identifies that
// volume for the benefit of a configured WithVolumeLocator, which is asked
// for path/archiveNumber pairs as later volumes are needed; it may be
// empty if the archive never splits.
func NewReader(path string, r io.Reader, options ...ReadOption) (*Reader, error) {
	o := defaultReadOptionData()
	for _, opt := range options {
		opt(&o)
	}

	if err := chunk.ReadMagic(r); err != nil {
		return nil, newError(Magic, err, "reading archive magic")
	}

	src := newChunkSource(o.ctx, r, o.maxChunkBytes, o.ignoreZeros)
	c, err := src.next()
	if err != nil {
		return nil, newError(Io, err, "reading AHED")
	}
	if c.Type != chunk.TypeArchiveHeader {
		return nil, newError(Ordering, nil, "expected AHED, got %s", c.Type)
	}
	ahed, err := chunk.DecodeArchiveHeader(c.Data)
	if err != nil {
		return nil, newError(Version, err, "decoding AHED")
	}
	if ahed.Major > chunk.CurrentMajor {
		return nil, newError(Version, nil, "archive major version %d is newer than the %d this package supports", ahed.Major, chunk.CurrentMajor)
	}

	return &Reader{
		opts:        o,
		src:         src,
		header:      ahed,
		currentPath: path,
		pathTable:   map[string]*Entry{},
	}, nil
}

// Header returns the archive header decoded from the current volume.
func (r *Reader) Header() chunk.ArchiveHeader { return r.header }

// Next returns the next entry in the archive, or io.EOF once AEND is
// reached. In open-solid mode, entries nested inside a solid block are
// yielded individually (Entry.InSolid set); otherwise the block appears as
// a single KindSolidBlock entry.
func (r *Reader) Next() (*Entry, error) {
	if len(r.pending) > 0 {
		e := r.pending[0]
		r.pending = r.pending[1:]
		return e, nil
	}
	if r.done {
		return nil, io.EOF
	}

	for {
		c, err := r.src.next()
		if err != nil {
			return nil, classifyReadErr(err, "reading chunk")
		}

		switch c.Type {
		case chunk.TypeArchiveEnd:
			r.done = true
			return nil, io.EOF

		case chunk.TypeArchiveNext:
			if err := r.rollVolume(); err != nil {
				return nil, err
			}
			continue

		case chunk.TypeEntryHeader:
			return r.readEntry(c.Data)

		case chunk.TypeSolidHeader:
			e, err := r.readSolid(c.Data)
			if err != nil {
				return nil, err
			}
			if e != nil {
				return e, nil
			}
			// open-solid: entries were pushed to r.pending.
			if len(r.pending) == 0 {
				continue
			}
			e = r.pending[0]
			r.pending = r.pending[1:]
			return e, nil

		default:
			if chunk.MustSkip(c.Type) {
				continue
			}
			return nil, newError(UnknownCritical, nil, "unknown critical chunk %s", c.Type)
		}
	}
}

func (r *Reader) rollVolume() error {
	if r.opts.locate == nil {
		return ErrNeedsNextVolume
	}
	next := r.archiveNumber + 1
	rc, err := r.opts.locate(r.currentPath, next)
	if err != nil {
		return newError(VolumeMissing, err, "opening volume %d", next)
	}
	if r.volumeReader != nil {
		r.volumeReader.Close()
	}
	r.volumeReader = rc

	if err := chunk.ReadMagic(rc); err != nil {
		return newError(Magic, err, "reading volume %d magic", next)
	}
	src := newChunkSource(r.opts.ctx, rc, r.opts.maxChunkBytes, r.opts.ignoreZeros)
	c, err := src.next()
	if err != nil {
		return classifyReadErr(err, "reading volume %d AHED", next)
	}
	if c.Type != chunk.TypeArchiveHeader {
		return newError(Ordering, nil, "expected AHED in volume %d, got %s", next, c.Type)
	}
	ahed, err := chunk.DecodeArchiveHeader(c.Data)
	if err != nil {
		return newError(Version, err, "decoding volume %d AHED", next)
	}
	if ahed.Major > chunk.CurrentMajor {
		return newError(Version, nil, "volume %d major version %d is newer than the %d this package supports", next, ahed.Major, chunk.CurrentMajor)
	}
	if ahed.ArchiveNumber != next {
		return newError(Ordering, nil, "volume declares archive_number %d, expected %d", ahed.ArchiveNumber, next)
	}

	r.header = ahed
	r.archiveNumber = next
	r.src = src
	return nil
}

// deriveKey reads and decodes a PHSF chunk against the configured password.
func (r *Reader) deriveKey(phsf []byte) (*secure.Key, error) {
	if len(r.opts.password) == 0 {
		return nil, newError(Password, nil, "archive is encrypted but no password configured")
	}
	params, expected, err := secure.DecodePHC(string(phsf))
	if err != nil {
		return nil, newError(MalformedMetadata, err, "decoding PHSF")
	}
	params.KeyLen = uint32(len(expected))
	got, err := params.Derive(r.opts.password)
	if err != nil {
		return nil, newError(Password, err, "deriving key")
	}
	if !bytes.Equal(got, expected) {
		return nil, newError(Password, nil, "incorrect password")
	}
	return secure.NewKey(got)
}

func (r *Reader) readEntry(headerData []byte) (*Entry, error) {
	h, err := DecodeEntryHeader(headerData)
	if err != nil {
		return nil, newError(MalformedMetadata, err, "decoding FHED")
	}

	e := &Entry{Kind: h.Kind, Path: h.Path}

	var key *secure.Key
	var dataParts [][]byte
	counts := map[chunk.Type]int{chunk.TypeEntryHeader: 1}
	sawMeta := false
	sawData := false
	xattrNames := stringset.New(0)
	aclPrincipals := stringset.New(0)

	for {
		c, err := r.src.next()
		if err != nil {
			return nil, classifyReadErr(err, "reading entry %s", h.Path)
		}
		if c.Type == chunk.TypeEntryEnd {
			break
		}
		if c.Type == chunk.TypeArchiveNext {
			if err := r.rollVolume(); err != nil {
				return nil, err
			}
			continue
		}

		if info, known := chunk.Registry[c.Type]; known {
			if info.Scope != "entry" {
				return nil, newError(Ordering, nil, "%s is not valid inside entry %s (belongs to %s)", c.Type, h.Path, info.Scope)
			}
			if info.MaxOccurrences > 0 {
				counts[c.Type]++
				if counts[c.Type] > info.MaxOccurrences {
					return nil, newError(Ordering, nil, "%s appears more than once in entry %s", c.Type, h.Path)
				}
			}
		}

		if c.Type == chunk.TypePasswordHash {
			if h.Cipher == 0 {
				return nil, newError(MalformedMetadata, nil, "PHSF present with no encryption configured")
			}
			if sawMeta || sawData {
				return nil, newError(Ordering, nil, "PHSF must immediately follow FHED in entry %s", h.Path)
			}
			key, err = r.deriveKey(c.Data)
			if err != nil {
				return nil, err
			}
			continue
		}
		if c.Type == chunk.TypeEntryData {
			sawData = true
			dataParts = append(dataParts, c.Data)
			continue
		}
		if ok, err := applyMetadataChunk(&e.Metadata, c.Type, c.Data); ok {
			if err != nil {
				return nil, newError(MalformedMetadata, err, "decoding metadata for %s", h.Path)
			}
			if sawData {
				return nil, newError(Ordering, nil, "metadata chunk %s appears after FDAT in entry %s", c.Type, h.Path)
			}
			if c.Type == chunk.TypeExtendedAttr {
				name := e.Metadata.ExtendedAttrs[len(e.Metadata.ExtendedAttrs)-1].Name
				if !xattrNames.Add(name) {
					return nil, newError(MalformedMetadata, nil, "duplicate xattr name %q in entry %s", name, h.Path)
				}
			}
			if c.Type == chunk.TypeACL {
				a := e.Metadata.ACLs[len(e.Metadata.ACLs)-1]
				principalKey := strconv.Itoa(int(a.Platform)) + ":" + a.Principal
				if !aclPrincipals.Add(principalKey) {
					return nil, newError(MalformedMetadata, nil, "duplicate ACL principal %q in entry %s", a.Principal, h.Path)
				}
			}
			sawMeta = true
			continue
		}
		if chunk.MustSkip(c.Type) {
			continue
		}
		return nil, newError(UnknownCritical, nil, "unknown critical chunk %s inside entry %s", c.Type, h.Path)
	}
	if key != nil {
		defer key.Close()
	}

	switch h.Kind {
	case KindRegular, KindSymlink, KindHardlink:
		if len(dataParts) > 0 {
			raw := bytes.Join(dataParts, nil)
			pcfg := pipeline.Config{Compression: h.Compression, Cipher: h.Cipher, Mode: h.Mode, Key: key}
			out, err := pipeline.Decode(bytes.NewReader(raw), pcfg)
			if err != nil {
				return nil, newError(Io, err, "decoding content of %s", h.Path)
			}
			if h.Kind == KindRegular {
				e.data = out
			} else {
				e.LinkTarget = string(out)
			}
		}

	case KindReference:
		if len(dataParts) > 0 {
			raw := bytes.Join(dataParts, nil)
			pcfg := pipeline.Config{Compression: h.Compression, Cipher: h.Cipher, Mode: h.Mode, Key: key}
			out, err := pipeline.Decode(bytes.NewReader(raw), pcfg)
			if err != nil {
				return nil, newError(Io, err, "decoding reference target of %s", h.Path)
			}
			e.LinkTarget = string(out)
		}
		target, ok := r.pathTable[e.LinkTarget]
		if !ok {
			return nil, newError(Ordering, nil, "reference %s targets unresolved path %s", h.Path, e.LinkTarget)
		}
		e.data = target.data
		e.Kind = KindReference

	case KindDirectory:
		// no content

	default:
		return nil, newError(MalformedMetadata, nil, "unknown entry kind %d for %s", h.Kind, h.Path)
	}

	if e.Path != "" {
		r.pathTable[e.Path] = e
	}
	return e, nil
}

func (r *Reader) readSolid(headerData []byte) (*Entry, error) {
	h, err := DecodeSolidHeader(headerData)
	if err != nil {
		return nil, newError(MalformedMetadata, err, "decoding aSLD")
	}

	var key *secure.Key
	var parts [][]byte
	counts := map[chunk.Type]int{chunk.TypeSolidHeader: 1}
	sawData := false
loop:
	for {
		c, err := r.src.next()
		if err != nil {
			return nil, classifyReadErr(err, "reading solid block")
		}
		if c.Type == chunk.TypeSolidEnd {
			break loop
		}
		if c.Type == chunk.TypeArchiveNext {
			if err := r.rollVolume(); err != nil {
				return nil, err
			}
			continue
		}

		if info, known := chunk.Registry[c.Type]; known {
			// PHSF is registered at entry scope but also keys an encrypted
			// solid block.
			if info.Scope != "solid" && c.Type != chunk.TypePasswordHash {
				return nil, newError(Ordering, nil, "%s is not valid inside a solid block (belongs to %s)", c.Type, info.Scope)
			}
			if info.MaxOccurrences > 0 {
				counts[c.Type]++
				if counts[c.Type] > info.MaxOccurrences {
					return nil, newError(Ordering, nil, "%s appears more than once in a solid block", c.Type)
				}
			}
		}

		switch c.Type {
		case chunk.TypePasswordHash:
			if h.Cipher == 0 {
				return nil, newError(MalformedMetadata, nil, "PHSF present with no encryption configured")
			}
			if sawData {
				return nil, newError(Ordering, nil, "PHSF must precede aDAT in a solid block")
			}
			key, err = r.deriveKey(c.Data)
			if err != nil {
				return nil, err
			}
		case chunk.TypeSolidData:
			sawData = true
			parts = append(parts, c.Data)
		default:
			if chunk.MustSkip(c.Type) {
				continue
			}
			return nil, newError(UnknownCritical, nil, "unknown critical chunk %s inside solid block", c.Type)
		}
	}
	if key != nil {
		defer key.Close()
	}

	if !r.opts.openSolid {
		return &Entry{Kind: KindSolidBlock, InSolid: false}, nil
	}

	raw := bytes.Join(parts, nil)
	pcfg := pipeline.Config{Compression: h.Compression, Cipher: h.Cipher, Mode: h.Mode, Key: key}
	inner, err := pipeline.Decode(bytes.NewReader(raw), pcfg)
	if err != nil {
		return nil, newError(Io, err, "decoding solid block content")
	}

	innerSrc := newChunkSource(r.opts.ctx, bytes.NewReader(inner), r.opts.maxChunkBytes, false)
	innerReader := &Reader{opts: r.opts, src: innerSrc, pathTable: r.pathTable}
	for {
		c, err := innerSrc.next()
		if err == chunk.ErrEndOfStream {
			break
		}
		if err != nil {
			return nil, newError(Io, err, "reading solid block's inner stream")
		}
		if c.Type != chunk.TypeEntryHeader {
			return nil, newError(Ordering, nil, "solid block's inner stream must begin entries with FHED, got %s", c.Type)
		}
		e, err := innerReader.readEntry(c.Data)
		if err != nil {
			return nil, err
		}
		e.InSolid = true
		r.pending = append(r.pending, e)
	}

	return nil, nil
}

// Close releases the current volume's underlying reader, if any.
func (r *Reader) Close() error {
	if r.volumeReader != nil {
		return r.volumeReader.Close()
	}
	return nil
}
