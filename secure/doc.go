// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package secure implements the crypto kit: password-based key derivation
// (PBKDF2, Argon2id) with PHC-string serialization, AES-256/Camellia-256
// block ciphers in CBC or CTR mode, and a scoped key type that is zeroed on
// Close.
package secure
