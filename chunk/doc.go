// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package chunk implements the PNA chunk framing layer: the length-prefixed,
// CRC-protected typed record that every other layer of an archive is built
// from, plus the file magic and the catalog of known chunk types.
package chunk
