// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package pipeline composes the compression kit and the crypto kit into a
// single write/read stream, in the mandatory compress-then-encrypt order.
// It knows nothing about chunk framing: it produces and consumes opaque
// byte streams that the caller splits into or reassembles from FDAT/aDAT
// chunks.
package pipeline
