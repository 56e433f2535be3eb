// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/luci/luci-go/common/errors"

	"github.com/riannucci/pna/chunk"
	"github.com/riannucci/pna/pipeline"
	"github.com/riannucci/pna/secure"
)

// Entry is one decoded archive member, produced by Reader.Next.
type Entry struct {
	Kind       EntryKind
	Path       string
	LinkTarget string
	Metadata   Metadata

	// InSolid is true when this entry was read out of an opened solid
	// block rather than directly off the top-level chunk stream.
	InSolid bool

	data []byte
}

// Data returns the entry's decoded, decompressed, decrypted content. A
// reference entry carries the content of the entry it resolves to. It is
// empty for directories, symlinks, hardlinks, and zero-length regular files.
func (e *Entry) Data() []byte { return e.data }

// EntryBuilder accumulates one entry's content and metadata for AddEntry.
type EntryBuilder struct {
	kind       EntryKind
	path       string
	linkTarget string
	metadata   Metadata
	content    bytes.Buffer
}

// NewRegularEntry starts a regular file entry at path. Write its content
// via the returned builder's Write method before passing it to AddEntry.
func NewRegularEntry(path string) *EntryBuilder {
	return &EntryBuilder{kind: KindRegular, path: path}
}

// NewDirectoryEntry starts a directory entry at path.
func NewDirectoryEntry(path string) *EntryBuilder {
	return &EntryBuilder{kind: KindDirectory, path: path}
}

// NewSymlinkEntry starts a symlink entry at path pointing at target.
func NewSymlinkEntry(path, target string) *EntryBuilder {
	return &EntryBuilder{kind: KindSymlink, path: path, linkTarget: target}
}

// NewHardlinkEntry starts a hardlink entry at path pointing at target.
func NewHardlinkEntry(path, target string) *EntryBuilder {
	return &EntryBuilder{kind: KindHardlink, path: path, linkTarget: target}
}

// NewReferenceEntry starts a reference entry: path is re-materialized, on
// read, as whatever entry was previously written at target. target must
// name an entry already added earlier in the same archive.
func NewReferenceEntry(path, target string) *EntryBuilder {
	return &EntryBuilder{kind: KindReference, path: path, linkTarget: target}
}

// Write appends p to the entry's content. Only meaningful for regular
// entries; it is a caller error to call it on any other kind.
func (b *EntryBuilder) Write(p []byte) (int, error) {
	if b.kind != KindRegular {
		return 0, errors.Reason("cannot write content to a %(kind)s entry").D("kind", b.kind).Err()
	}
	return b.content.Write(p)
}

// SetMetadata attaches m to the entry and returns b for chaining.
func (b *EntryBuilder) SetMetadata(m Metadata) *EntryBuilder {
	b.metadata = m
	return b
}

// rawPayload returns the bytes that get compressed/encrypted into FDAT for
// this entry's kind.
func (b *EntryBuilder) rawPayload() []byte {
	switch b.kind {
	case KindRegular:
		return b.content.Bytes()
	case KindSymlink, KindHardlink, KindReference:
		return []byte(b.linkTarget)
	default:
		return nil
	}
}

// writeEntryChunks emits one full FHED..FEND run for b via emit. It is
// shared by Writer.AddEntry and SolidBuilder.AddEntry, which differ only in
// where the framed chunks land and in what compression/encryption applies.
func writeEntryChunks(emit func(chunk.Type, []byte) error, opts writeOptionData, b *EntryBuilder) error {
	header := EntryHeader{
		Major:       chunk.CurrentMajor,
		Minor:       chunk.CurrentMinor,
		Kind:        b.kind,
		Compression: opts.compression.Scheme,
		Cipher:      opts.encryption.Cipher,
		Mode:        opts.encryption.Mode,
		Path:        b.path,
	}
	if err := emit(chunk.TypeEntryHeader, header.Encode()); err != nil {
		return err
	}

	var key *secure.Key
	if opts.encryption.Cipher != 0 {
		if len(opts.password) == 0 {
			return newError(Password, nil, "encryption requested but no password configured")
		}
		salt := make([]byte, 16)
		src := opts.randSource
		if src == nil {
			src = rand.Reader
		}
		if _, err := io.ReadFull(src, salt); err != nil {
			return newError(Io, err, "generating KDF salt")
		}
		params := opts.kdf.toParams(salt, secure.KeySize)
		keyBytes, err := params.Derive(opts.password)
		if err != nil {
			return newError(Password, err, "deriving key")
		}
		phc, err := secure.EncodePHC(params, keyBytes)
		if err != nil {
			return newError(MalformedMetadata, err, "encoding PHSF")
		}
		if err := emit(chunk.TypePasswordHash, []byte(phc)); err != nil {
			return err
		}
		key, err = secure.NewKey(keyBytes)
		if err != nil {
			return newError(Io, err, "locking key material")
		}
		defer key.Close()
	}

	meta := b.metadata
	if b.kind == KindRegular {
		size := uint64(b.content.Len())
		meta.Size = &size
	}
	if err := emitMetadata(emit, meta); err != nil {
		return err
	}

	raw := b.rawPayload()
	if len(raw) > 0 {
		buf := &bytes.Buffer{}
		pcfg := pipeline.Config{
			Compression: opts.compression.Scheme,
			Level:       opts.compression.Level,
			Cipher:      opts.encryption.Cipher,
			Mode:        opts.encryption.Mode,
			Key:         key,
			RandSource:  opts.randSource,
		}
		w, err := pipeline.NewWriter(buf, pcfg)
		if err != nil {
			return newError(UnsupportedCompression, err, "building pipeline writer")
		}
		if _, err := w.Write(raw); err != nil {
			return newError(Io, err, "compressing entry content")
		}
		if err := w.Close(); err != nil {
			return newError(Io, err, "finishing entry content")
		}
		cap := opts.chunkBodyCap
		if cap <= 0 {
			cap = DefaultChunkBodyCap
		}
		for _, part := range chunk.SplitData(buf.Bytes(), cap) {
			if err := emit(chunk.TypeEntryData, part); err != nil {
				return err
			}
		}
	}

	return emit(chunk.TypeEntryEnd, nil)
}
