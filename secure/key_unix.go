// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

//go:build !windows

package secure

import (
	"github.com/luci/luci-go/common/errors"
	"golang.org/x/sys/unix"
)

// Key holds derived key material outside the Go heap: mmap'd anonymous
// memory that is mlock'd against swap, excluded from core dumps, and
// zeroed on Close. It is scoped to a single entry or solid block decode/
// encode, per §3.6 and §5's key lifecycle requirement.
type Key struct {
	data   []byte
	closed bool
}

// NewKey copies material into a freshly mlock'd buffer and zeroes the
// caller's copy in place.
func NewKey(material []byte) (*Key, error) {
	if len(material) == 0 {
		return nil, errors.New("secure: key material must be non-empty")
	}

	data, err := unix.Mmap(-1, 0, len(material), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Annotate(err).Reason("mmap").Err()
	}
	if err := unix.Mlock(data); err != nil {
		unix.Munmap(data)
		return nil, errors.Annotate(err).Reason("mlock").Err()
	}
	if err := unix.Madvise(data, unix.MADV_DONTDUMP); err != nil {
		// Non-fatal: the key is still protected against swap even if the
		// kernel doesn't support excluding it from core dumps.
		_ = err
	}

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

// Close zeros, unlocks, and unmaps the key's backing memory. Idempotent.
func (k *Key) Close() error {
	if k.closed {
		return nil
	}
	k.closed = true

	for i := range k.data {
		k.data[i] = 0
	}

	var firstErr error
	if err := unix.Munlock(k.data); err != nil && firstErr == nil {
		firstErr = errors.Annotate(err).Reason("munlock").Err()
	}
	if err := unix.Munmap(k.data); err != nil && firstErr == nil {
		firstErr = errors.Annotate(err).Reason("munmap").Err()
	}
	k.data = nil
	return firstErr
}
