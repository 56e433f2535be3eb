// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package compress implements the streaming compression kit: store,
// deflate, zstd, and xz, each behind one Scheme interface with a common
// level-normalization scheme.
package compress
