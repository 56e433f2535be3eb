// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package secure

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/luci/luci-go/common/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Algorithm selects the key-derivation function used to turn a password
// into key material.
type Algorithm byte

// Supported key-derivation algorithms.
const (
	Pbkdf2Sha256 Algorithm = iota + 1
	Argon2id
)

// DefaultPbkdf2Rounds is a conservative minimum round count for
// PBKDF2-HMAC-SHA256, per OWASP's 2023 recommendation.
const DefaultPbkdf2Rounds = 600000

// DefaultArgon2Time, DefaultArgon2Memory (KiB), and DefaultArgon2Threads are
// this package's Argon2id defaults: 2 passes over 19 MiB with one lane,
// the OWASP minimum Argon2id configuration (lighter than either of
// RFC 9106's recommended options).
const (
	DefaultArgon2Time    = 2
	DefaultArgon2Memory  = 19 * 1024
	DefaultArgon2Threads = 1
)

// Params holds the parameters of one key derivation, enough to both perform
// it and to serialize/deserialize it as a PHC string.
type Params struct {
	Algorithm Algorithm

	// Rounds is used by Pbkdf2Sha256.
	Rounds uint32

	// Time, Memory (KiB), and Threads are used by Argon2id.
	Time    uint32
	Memory  uint32
	Threads uint8

	Salt   []byte
	KeyLen uint32
}

// Derive computes key material for password under p.
func (p Params) Derive(password []byte) ([]byte, error) {
	switch p.Algorithm {
	case Pbkdf2Sha256:
		return pbkdf2.Key(password, p.Salt, int(p.Rounds), int(p.KeyLen), sha256.New), nil
	case Argon2id:
		return argon2.IDKey(password, p.Salt, p.Time, p.Memory, p.Threads, p.KeyLen), nil
	}
	return nil, errors.Annotate(ErrUnsupportedCipher).Reason("kdf algorithm %(a)d").D("a", p.Algorithm).Err()
}

// EncodePHC renders p and the derived hash as a PHC string, the textual
// format carried by the PHSF chunk.
func EncodePHC(p Params, hash []byte) (string, error) {
	salt := base64.RawStdEncoding.EncodeToString(p.Salt)
	h := base64.RawStdEncoding.EncodeToString(hash)
	switch p.Algorithm {
	case Pbkdf2Sha256:
		return fmt.Sprintf("$pbkdf2-sha256$i=%d$%s$%s", p.Rounds, salt, h), nil
	case Argon2id:
		return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", p.Memory, p.Time, p.Threads, salt, h), nil
	}
	return "", errors.Annotate(ErrUnsupportedCipher).Reason("kdf algorithm %(a)d").D("a", p.Algorithm).Err()
}

// DecodePHC parses a PHC string into its Params and hash. KeyLen is left at
// zero; the caller fills it in from the cipher it intends to use the
// derived key with.
func DecodePHC(s string) (Params, []byte, error) {
	fields := strings.Split(s, "$")
	// fields[0] is empty (string starts with '$').
	if len(fields) < 2 || fields[0] != "" {
		return Params{}, nil, errors.Annotate(ErrMalformedPHC).Reason("phc string %(s)q").D("s", s).Err()
	}
	fields = fields[1:]

	switch fields[0] {
	case "pbkdf2-sha256":
		if len(fields) != 4 {
			return Params{}, nil, errors.Annotate(ErrMalformedPHC).Reason("pbkdf2 field count").Err()
		}
		rounds, err := parseKV(fields[1], "i")
		if err != nil {
			return Params{}, nil, err
		}
		salt, hash, err := decodeSaltHash(fields[2], fields[3])
		if err != nil {
			return Params{}, nil, err
		}
		return Params{Algorithm: Pbkdf2Sha256, Rounds: uint32(rounds), Salt: salt}, hash, nil

	case "argon2id":
		if len(fields) != 5 {
			return Params{}, nil, errors.Annotate(ErrMalformedPHC).Reason("argon2id field count").Err()
		}
		// fields[1] is "v=19", ignored: this package only implements v19.
		m, t, p, err := parseArgon2Params(fields[2])
		if err != nil {
			return Params{}, nil, err
		}
		salt, hash, err := decodeSaltHash(fields[3], fields[4])
		if err != nil {
			return Params{}, nil, err
		}
		return Params{Algorithm: Argon2id, Memory: m, Time: t, Threads: uint8(p), Salt: salt}, hash, nil
	}

	return Params{}, nil, errors.Annotate(ErrMalformedPHC).Reason("unknown phc ident %(id)q").D("id", fields[0]).Err()
}

func parseKV(field, key string) (uint64, error) {
	prefix := key + "="
	if !strings.HasPrefix(field, prefix) {
		return 0, errors.Annotate(ErrMalformedPHC).Reason("expected %(k)q param").D("k", key).Err()
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(field, prefix), 10, 64)
	if err != nil {
		return 0, errors.Annotate(ErrMalformedPHC).Reason("parsing %(k)q param: %(err)v").D("k", key).D("err", err).Err()
	}
	return v, nil
}

func parseArgon2Params(field string) (m, t, p uint32, err error) {
	parts := strings.Split(field, ",")
	if len(parts) != 3 {
		return 0, 0, 0, errors.Annotate(ErrMalformedPHC).Reason("argon2id params").Err()
	}
	vals := make([]uint64, 3)
	for i, want := range []string{"m", "t", "p"} {
		v, err := parseKV(parts[i], want)
		if err != nil {
			return 0, 0, 0, err
		}
		vals[i] = v
	}
	return uint32(vals[0]), uint32(vals[1]), uint32(vals[2]), nil
}

func decodeSaltHash(saltField, hashField string) (salt, hash []byte, err error) {
	salt, err = base64.RawStdEncoding.DecodeString(saltField)
	if err != nil {
		return nil, nil, errors.Annotate(ErrMalformedPHC).Reason("decoding salt: %(err)v").D("err", err).Err()
	}
	hash, err = base64.RawStdEncoding.DecodeString(hashField)
	if err != nil {
		return nil, nil, errors.Annotate(ErrMalformedPHC).Reason("decoding hash: %(err)v").D("err", err).Err()
	}
	return salt, hash, nil
}
