// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build windows

package secure

import "github.com/luci/luci-go/common/errors"

// Key holds derived key material on the ordinary Go heap, zeroed on Close.
// Windows lacks the mmap/mlock/madvise triple key_unix.go relies on, so
// this fallback loses swap-avoidance and core-dump exclusion but keeps the
// zero-on-close guarantee.
type Key struct {
	data   []byte
	closed bool
}

// NewKey copies material into a fresh buffer and zeroes the caller's copy
// in place.
func NewKey(material []byte) (*Key, error) {
	if len(material) == 0 {
		return nil, errors.New("secure: key material must be non-empty")
	}
	data := make([]byte, len(material))
	copy(data, material)
	for i := range material {
		material[i] = 0
	}
	return &Key{data: data}, nil
}

// Bytes returns the key material. It panics if the Key has been closed.
func (k *Key) Bytes() []byte {
	if k.closed {
		panic("secure: use of closed Key")
	}
	return k.data
}

// Close zeros the key's backing memory. Idempotent.
func (k *Key) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true
	for i := range k.data {
		k.data[i] = 0
	}
	k.data = nil
	return nil
}
