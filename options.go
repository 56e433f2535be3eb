// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"context"
	"io"

	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

// DefaultChunkBodyCap is the implementation-level ceiling on a single FDAT/
// aDAT payload this package chooses in the absence of a caller-specified
// one (§9's "an implementation-level cap must be chosen and stated").
const DefaultChunkBodyCap = 16 * 1024 * 1024

type readOptionData struct {
	ctx           context.Context
	password      []byte
	ignoreZeros   bool
	maxChunkBytes uint32
	openSolid     bool
	locate        func(currentPath string, archiveNumber uint32) (io.ReadCloser, error)
}

func defaultReadOptionData() readOptionData {
	return readOptionData{ctx: context.Background()}
}

// ReadOption configures a Reader.
type ReadOption func(*readOptionData)

// WithReadPassword supplies the password used to derive per-entry and
// per-solid-block keys when reading an encrypted archive.
func WithReadPassword(password []byte) ReadOption {
	return func(o *readOptionData) { o.password = password }
}

// WithIgnoreZeros tolerates runs of zero bytes between chunks, for archives
// written to tape-like media that pad past the logical end of data.
func WithIgnoreZeros(v bool) ReadOption {
	return func(o *readOptionData) { o.ignoreZeros = v }
}

// WithMaxChunkBytes bounds the declared length a chunk may have before
// Decode refuses to read it. Zero selects chunk.DefaultMaxBytes.
func WithMaxChunkBytes(n uint32) ReadOption {
	return func(o *readOptionData) { o.maxChunkBytes = n }
}

// WithOpenSolid selects open-solid iteration: inner entries of a solid
// block are exposed as a flat stream (each tagged Entry.InSolid) instead
// of the block being yielded as one opaque entry.
func WithOpenSolid(v bool) ReadOption {
	return func(o *readOptionData) { o.openSolid = v }
}

// WithReadContext supplies the context diagnostic logging (e.g. a
// WithIgnoreZeros skip notice) is attributed to. Defaults to
// context.Background().
func WithReadContext(ctx context.Context) ReadOption {
	return func(o *readOptionData) { o.ctx = ctx }
}

// WithVolumeLocator supplies the callback a split archive's Reader uses to
// open the next volume when it encounters ANXT. currentPath is the path
// string the Reader was opened with, for every volume; archiveNumber is
// the AHED archive_number the next volume is expected to declare.
func WithVolumeLocator(locate func(currentPath string, archiveNumber uint32) (io.ReadCloser, error)) ReadOption {
	return func(o *readOptionData) { o.locate = locate }
}

// CompressionConfig selects a compression scheme and level for an entry or
// solid block.
type CompressionConfig struct {
	Scheme compress.Scheme
	Level  int
}

// EncryptionConfig selects a cipher and mode. A zero Cipher means no
// encryption.
type EncryptionConfig struct {
	Cipher secure.Cipher
	Mode   secure.Mode
}

// KDFConfig selects the key-derivation function and its parameters used to
// turn a password into key material.
type KDFConfig struct {
	Algorithm secure.Algorithm
	Rounds    uint32
	Time      uint32
	Memory    uint32
	Threads   uint8
}

func (k KDFConfig) toParams(salt []byte, keyLen int) secure.Params {
	return secure.Params{
		Algorithm: k.Algorithm,
		Rounds:    k.Rounds,
		Time:      k.Time,
		Memory:    k.Memory,
		Threads:   k.Threads,
		Salt:      salt,
		KeyLen:    uint32(keyLen),
	}
}

// DefaultKDF is a safe-by-default Argon2id configuration.
func DefaultKDF() KDFConfig {
	return KDFConfig{
		Algorithm: secure.Argon2id,
		Time:      secure.DefaultArgon2Time,
		Memory:    secure.DefaultArgon2Memory,
		Threads:   secure.DefaultArgon2Threads,
	}
}

type writeOptionData struct {
	ctx            context.Context
	compression    CompressionConfig
	encryption     EncryptionConfig
	kdf            KDFConfig
	password       []byte
	maxVolumeBytes uint64
	solid          bool
	chunkBodyCap   int
	randSource     io.Reader
}

func defaultWriteOptionData() writeOptionData {
	return writeOptionData{
		ctx:          context.Background(),
		compression:  CompressionConfig{Scheme: compress.Store},
		kdf:          DefaultKDF(),
		chunkBodyCap: DefaultChunkBodyCap,
	}
}

// WriteOption configures a Writer or a SolidBuilder.
type WriteOption func(*writeOptionData)

// WithCompression selects the compression scheme and level applied to
// entries (or a solid block's inner stream).
func WithCompression(scheme compress.Scheme, level int) WriteOption {
	return func(o *writeOptionData) { o.compression = CompressionConfig{Scheme: scheme, Level: level} }
}

// WithEncryption selects the cipher and mode. Combine with WithPassword;
// without a password, AddEntry/AddSolidBlock fail.
func WithEncryption(cipher secure.Cipher, mode secure.Mode) WriteOption {
	return func(o *writeOptionData) { o.encryption = EncryptionConfig{Cipher: cipher, Mode: mode} }
}

// WithKDF overrides the default key-derivation configuration.
func WithKDF(kdf KDFConfig) WriteOption {
	return func(o *writeOptionData) { o.kdf = kdf }
}

// WithPassword supplies the password used to derive keys for encrypted
// entries or solid blocks.
func WithPassword(password []byte) WriteOption {
	return func(o *writeOptionData) { o.password = password }
}

// WithWriteContext supplies the context diagnostic logging (e.g. a volume
// roll notice) is attributed to. Defaults to context.Background().
func WithWriteContext(ctx context.Context) WriteOption {
	return func(o *writeOptionData) { o.ctx = ctx }
}

// WithMaxVolumeBytes bounds the size of each volume the Writer produces.
// Zero (the default) means unbounded.
func WithMaxVolumeBytes(n uint64) WriteOption {
	return func(o *writeOptionData) { o.maxVolumeBytes = n }
}

// WithSolid records, in AHED's flags, that this archive uses solid mode.
// It does not itself group entries; use AddSolidBlock for that.
func WithSolid(v bool) WriteOption {
	return func(o *writeOptionData) { o.solid = v }
}

// WithChunkBodyCap overrides DefaultChunkBodyCap.
func WithChunkBodyCap(n int) WriteOption {
	return func(o *writeOptionData) { o.chunkBodyCap = n }
}

// WithRandSource overrides the CSPRNG used for IV and salt generation.
// Tests use this for deterministic ciphertexts; production callers should
// leave it unset.
func WithRandSource(r io.Reader) WriteOption {
	return func(o *writeOptionData) { o.randSource = r }
}
