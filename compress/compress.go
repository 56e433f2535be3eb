// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package compress

import (
	"io"

	kflate "github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/luci/luci-go/common/errors"
	"github.com/ulikunitz/xz"
)

// Scheme selects one of the four compression algorithms this format
// supports.
type Scheme byte

// The supported compression schemes.
const (
	Store Scheme = iota + 1
	Deflate
	Zstd
	Xz
)

// Level tokens accepted in addition to an algorithm-specific numeric level.
// LevelDefault selects each algorithm's own default; LevelMin and LevelMax
// select its floor and ceiling.
const (
	LevelDefault = 0
	LevelMin     = -1
	LevelMax     = -2
)

// Valid returns a nil error iff s is a known scheme.
func (s Scheme) Valid() error {
	switch s {
	case Store, Deflate, Zstd, Xz:
		return nil
	}
	return errors.Reason("compress: unknown scheme %(s)#x").D("s", byte(s)).Err()
}

func (s Scheme) String() string {
	switch s {
	case Store:
		return "store"
	case Deflate:
		return "deflate"
	case Zstd:
		return "zstd"
	case Xz:
		return "xz"
	}
	return "unknown"
}

func normalizeLevel(min, max, def, level int) int {
	switch level {
	case LevelDefault:
		return def
	case LevelMin:
		return min
	case LevelMax:
		return max
	}
	if level < min {
		return min
	}
	if level > max {
		return max
	}
	return level
}

// Writer returns a compressing writer for s. Closing it flushes any
// buffered data but does not close w.
func (s Scheme) Writer(w io.Writer, level int) (io.WriteCloser, error) {
	switch s {
	case Store:
		return nopWriteCloser{w}, nil

	case Deflate:
		lvl := normalizeLevel(1, 9, 6, level)
		zw, err := kflate.NewWriter(w, lvl)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening deflate writer").Err()
		}
		return zw, nil

	case Zstd:
		lvl := normalizeLevel(1, 21, 3, level)
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(lvl)))
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening zstd writer").Err()
		}
		return enc, nil

	case Xz:
		lvl := normalizeLevel(0, 9, 6, level)
		cfg := xz.WriterConfig{DictCap: dictCapForLevel(lvl)}
		if err := cfg.Verify(); err != nil {
			return nil, errors.Annotate(err).Reason("xz writer config").Err()
		}
		zw, err := cfg.NewWriter(w)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening xz writer").Err()
		}
		return zw, nil
	}
	return nil, s.Valid()
}

// Reader returns a decompressing reader for s.
func (s Scheme) Reader(r io.Reader) (io.ReadCloser, error) {
	switch s {
	case Store:
		return nopReadCloser{r}, nil

	case Deflate:
		return kflate.NewReader(r), nil

	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening zstd reader").Err()
		}
		return zstdReadCloser{dec}, nil

	case Xz:
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, errors.Annotate(err).Reason("opening xz reader").Err()
		}
		return nopReadCloser{zr}, nil
	}
	return nil, s.Valid()
}

// dictCapForLevel maps a 0-9 level to an xz dictionary size. There is no
// canonical level table in the xz format itself; this is this package's own
// speed/ratio ladder, doubling from 64KiB at level 0 to 32MiB at level 9.
func dictCapForLevel(level int) int {
	const base = 1 << 16
	cap := base << uint(level)
	if cap > 1<<26 {
		cap = 1 << 26
	}
	return cap
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type nopReadCloser struct{ io.Reader }

func (nopReadCloser) Close() error { return nil }

type zstdReadCloser struct{ *zstd.Decoder }

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}
