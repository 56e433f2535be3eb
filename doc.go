// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pna implements a streamable, splittable archive format built
// from a PNG-like chunk scheme (FourCC-identified, CRC-protected records).
//
// Unlike a monolithic table-of-contents format, every entry (regular file,
// directory, symlink, hardlink, or back-reference) is its own self-
// describing run of chunks: a header, optional key-derivation and metadata
// chunks, zero or more data chunks, and a terminator. Related entries may
// be aggregated into one compressed/encrypted "solid block" for better
// ratios on many small, similar files, without losing the ability to
// stream a single entry out of an otherwise uncompressed archive.
//
// It has a streamed, self-terminating format:
//   - an 8-byte file magic, the CRLF/SUB corruption test borrowed from PNG.
//   - an AHED chunk: format version, flags, and this volume's number.
//   - any number of entry runs (FHED [PHSF?] Meta* FDAT* FEND) and/or
//     solid blocks (aSLD [PHSF?] aDAT* aEND), in insertion order.
//   - an optional ANXT chunk if the archive continues in another volume.
//   - a terminating AEND chunk.
//
// Compression (store, deflate, zstd, xz) and encryption (AES-256 or
// Camellia-256, CBC or CTR, keyed by a PBKDF2 or Argon2id password hash)
// are configured per entry or per solid block; see the compress, secure,
// and pipeline subpackages. The chunk framing and type catalog live in the
// chunk subpackage.
//
// Archives may be split across multiple volumes bounded by a byte budget;
// see writer.go for the writer-side roll, reader.go for the reader-side
// locate half, and volume.go for the file-backed opener and locator.
package pna
