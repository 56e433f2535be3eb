// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pipeline

import (
	"bytes"
	"crypto/rand"
	"io"

	"github.com/luci/luci-go/common/errors"

	"github.com/riannucci/pna/compress"
	"github.com/riannucci/pna/secure"
)

// Config describes one pipeline instance. A zero Cipher means "no
// encryption"; Key must be set otherwise.
type Config struct {
	Compression compress.Scheme
	Level       int

	Cipher secure.Cipher
	Mode   secure.Mode
	Key    *secure.Key

	// RandSource generates IVs; it defaults to crypto/rand.Reader. Tests
	// may override it for deterministic ciphertexts.
	RandSource io.Reader
}

func (c Config) encrypted() bool { return c.Cipher != 0 }

// NewWriter returns a WriteCloser that compresses everything written to it
// and, once closed, encrypts the whole compressed payload and writes it to
// w. Like the block writer this format's writer is grounded on, the
// compressed data is buffered in memory so CBC padding can be finalized and
// a single ciphertext with a leading IV can be emitted.
func NewWriter(w io.Writer, cfg Config) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	cw, err := cfg.Compression.Writer(buf, cfg.Level)
	if err != nil {
		return nil, errors.Annotate(err).Reason("opening pipeline compressor").Err()
	}
	return &writer{buf: buf, compress: cw, out: w, cfg: cfg}, nil
}

type writer struct {
	buf      *bytes.Buffer
	compress io.WriteCloser
	out      io.Writer
	cfg      Config
}

func (p *writer) Write(b []byte) (int, error) { return p.compress.Write(b) }

func (p *writer) Close() error {
	if err := p.compress.Close(); err != nil {
		return errors.Annotate(err).Reason("closing pipeline compressor").Err()
	}
	data := p.buf.Bytes()

	if !p.cfg.encrypted() {
		_, err := p.out.Write(data)
		return errors.Annotate(err).Reason("writing pipeline output").Err()
	}

	rnd := p.cfg.RandSource
	if rnd == nil {
		rnd = rand.Reader
	}
	iv := make([]byte, p.cfg.Cipher.BlockSize())
	if _, err := io.ReadFull(rnd, iv); err != nil {
		return errors.Annotate(err).Reason("generating iv").Err()
	}

	ct, err := secure.Encrypt(p.cfg.Cipher, p.cfg.Mode, p.cfg.Key.Bytes(), iv, data)
	if err != nil {
		return errors.Annotate(err).Reason("encrypting pipeline output").Err()
	}
	_, err = p.out.Write(ct)
	return errors.Annotate(err).Reason("writing pipeline output").Err()
}

// Decode reverses NewWriter/Close: it decrypts (if configured) and
// decompresses the full opaque payload r, returning the plaintext.
//
// The pipeline operates on the whole payload rather than a live stream on
// the read side because CBC decryption cannot begin until the trailing
// padding block is known to be present, and because the archive layer
// already concatenates every FDAT/aDAT body for an entry before handing it
// to the pipeline (§4.5).
func Decode(r io.Reader, cfg Config) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Annotate(err).Reason("reading pipeline input").Err()
	}

	if cfg.encrypted() {
		data, err = secure.Decrypt(cfg.Cipher, cfg.Mode, cfg.Key.Bytes(), data)
		if err != nil {
			return nil, errors.Annotate(err).Reason("decrypting pipeline input").Err()
		}
	}

	dr, err := cfg.Compression.Reader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Annotate(err).Reason("opening pipeline decompressor").Err()
	}
	defer dr.Close()

	out, err := io.ReadAll(dr)
	if err != nil {
		if cfg.encrypted() {
			// A wrong password often surfaces here, as garbage bytes that
			// don't decompress, rather than as a padding failure.
			return nil, errors.Annotate(secure.ErrWrongPassword).Reason("decompressing pipeline input: %(err)v").D("err", err).Err()
		}
		return nil, errors.Annotate(err).Reason("decompressing pipeline input").Err()
	}
	return out, nil
}
