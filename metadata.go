// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package pna

import (
	"encoding/binary"

	"github.com/luci/luci-go/common/errors"

	"github.com/riannucci/pna/chunk"
)

// Timestamp is a POSIX time with nanosecond precision, the payload of the
// cTIM/mTIM/aTIM metadata chunks.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// Encode renders t as its 12-byte chunk payload.
func (t Timestamp) Encode() []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], uint64(t.Seconds))
	binary.BigEndian.PutUint32(buf[8:12], uint32(t.Nanos))
	return buf
}

// DecodeTimestamp parses a cTIM/mTIM/aTIM payload.
func DecodeTimestamp(data []byte) (Timestamp, error) {
	if len(data) != 12 {
		return Timestamp{}, errors.Reason("timestamp payload must be 12 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return Timestamp{
		Seconds: int64(binary.BigEndian.Uint64(data[0:8])),
		Nanos:   int32(binary.BigEndian.Uint32(data[8:12])),
	}, nil
}

// Permission is the payload of an fPRM chunk: POSIX-flavored ownership and
// mode, plus the symbolic owner/group names some platforms carry alongside
// the numeric ids.
type Permission struct {
	UID, GID uint64
	Mode     uint16
	UName    string
	GName    string
}

// Encode renders p as its fPRM chunk payload.
func (p Permission) Encode() []byte {
	buf := make([]byte, 8+8+2+2+len(p.UName)+2+len(p.GName))
	i := 0
	binary.BigEndian.PutUint64(buf[i:], p.UID)
	i += 8
	binary.BigEndian.PutUint64(buf[i:], p.GID)
	i += 8
	binary.BigEndian.PutUint16(buf[i:], p.Mode)
	i += 2
	binary.BigEndian.PutUint16(buf[i:], uint16(len(p.UName)))
	i += 2
	i += copy(buf[i:], p.UName)
	binary.BigEndian.PutUint16(buf[i:], uint16(len(p.GName)))
	i += 2
	copy(buf[i:], p.GName)
	return buf
}

// DecodePermission parses an fPRM payload.
func DecodePermission(data []byte) (Permission, error) {
	if len(data) < 8+8+2+2 {
		return Permission{}, errors.Reason("fPRM payload too short: %(n)d bytes").D("n", len(data)).Err()
	}
	p := Permission{}
	i := 0
	p.UID = binary.BigEndian.Uint64(data[i:])
	i += 8
	p.GID = binary.BigEndian.Uint64(data[i:])
	i += 8
	p.Mode = binary.BigEndian.Uint16(data[i:])
	i += 2
	unLen := int(binary.BigEndian.Uint16(data[i:]))
	i += 2
	if len(data) < i+unLen+2 {
		return Permission{}, errors.Reason("fPRM payload truncated in uname").Err()
	}
	p.UName = string(data[i : i+unLen])
	i += unLen
	gnLen := int(binary.BigEndian.Uint16(data[i:]))
	i += 2
	if len(data) < i+gnLen {
		return Permission{}, errors.Reason("fPRM payload truncated in gname").Err()
	}
	p.GName = string(data[i : i+gnLen])
	return p, nil
}

// ExtendedAttribute is the payload of one xATR chunk: a name/value pair,
// each length-prefixed since either may contain arbitrary bytes.
type ExtendedAttribute struct {
	Name  string
	Value []byte
}

// Encode renders a as its xATR chunk payload.
func (a ExtendedAttribute) Encode() []byte {
	buf := make([]byte, 4+len(a.Name)+4+len(a.Value))
	i := 0
	binary.BigEndian.PutUint32(buf[i:], uint32(len(a.Name)))
	i += 4
	i += copy(buf[i:], a.Name)
	binary.BigEndian.PutUint32(buf[i:], uint32(len(a.Value)))
	i += 4
	copy(buf[i:], a.Value)
	return buf
}

// DecodeExtendedAttribute parses an xATR payload.
func DecodeExtendedAttribute(data []byte) (ExtendedAttribute, error) {
	if len(data) < 4 {
		return ExtendedAttribute{}, errors.Reason("xATR payload too short").Err()
	}
	nameLen := int(binary.BigEndian.Uint32(data[0:4]))
	if len(data) < 4+nameLen+4 {
		return ExtendedAttribute{}, errors.Reason("xATR payload truncated in name").Err()
	}
	name := string(data[4 : 4+nameLen])
	rest := data[4+nameLen:]
	valLen := int(binary.BigEndian.Uint32(rest[0:4]))
	if len(rest) < 4+valLen {
		return ExtendedAttribute{}, errors.Reason("xATR payload truncated in value").Err()
	}
	value := append([]byte(nil), rest[4:4+valLen]...)
	return ExtendedAttribute{Name: name, Value: value}, nil
}

// ACLPlatform identifies which platform's access-control semantics an
// ACLEntry's Permission bits should be interpreted under.
type ACLPlatform byte

// The ACL platforms this format distinguishes.
const (
	ACLPosix ACLPlatform = iota
	ACLMac
	ACLWindows
	ACLNFSv4
)

// ACEType is whether an ACLEntry allows or denies its Principal the access
// described by Permission.
type ACEType byte

// The two access-control-entry types.
const (
	ACEAllowed ACEType = iota
	ACEDenied
)

// ACLEntry is one access-control entry, the payload of one fACL chunk.
//
// This is a deliberately simplified model next to a platform ACL's actual
// bitflag vocabulary: Permission is carried as an opaque platform-defined
// 32-bit mask rather than being decomposed into named rights, since this
// package never applies ACLs to a filesystem itself.
type ACLEntry struct {
	Platform   ACLPlatform
	Type       ACEType
	Permission uint32
	Principal  string
}

// Encode renders e as its fACL chunk payload. Principal has no length
// prefix; it is the remainder of the chunk.
func (e ACLEntry) Encode() []byte {
	buf := make([]byte, 1+1+4+len(e.Principal))
	buf[0] = byte(e.Platform)
	buf[1] = byte(e.Type)
	binary.BigEndian.PutUint32(buf[2:6], e.Permission)
	copy(buf[6:], e.Principal)
	return buf
}

// DecodeACLEntry parses an fACL payload.
func DecodeACLEntry(data []byte) (ACLEntry, error) {
	if len(data) < 6 {
		return ACLEntry{}, errors.Reason("fACL payload must be at least 6 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return ACLEntry{
		Platform:   ACLPlatform(data[0]),
		Type:       ACEType(data[1]),
		Permission: binary.BigEndian.Uint32(data[2:6]),
		Principal:  string(data[6:]),
	}, nil
}

// FileFlags is a platform-defined bitset, the payload of an fFLG chunk.
type FileFlags uint32

// Encode renders f as its fFLG chunk payload.
func (f FileFlags) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(f))
	return buf
}

// DecodeFileFlags parses an fFLG payload.
func DecodeFileFlags(data []byte) (FileFlags, error) {
	if len(data) != 4 {
		return 0, errors.Reason("fFLG payload must be 4 bytes, got %(n)d").D("n", len(data)).Err()
	}
	return FileFlags(binary.BigEndian.Uint32(data)), nil
}

// Metadata collects the ancillary chunks that may accompany an entry. Every
// field is optional; nil/empty means the chunk was not
// present.
type Metadata struct {
	Created  *Timestamp
	Modified *Timestamp
	Accessed *Timestamp

	Permission *Permission

	ExtendedAttrs []ExtendedAttribute
	ACLs          []ACLEntry

	Flags *FileFlags

	// Size, carried in an fSIZ chunk, records the entry's uncompressed
	// byte length. It lets a reader size a destination buffer, or report
	// progress, before decompressing FDAT.
	Size *uint64
}

// emitMetadata writes the chunks m implies, via emit, in the fixed order
// created/modified/accessed/permission/xattrs/acls/flags/size. Reader.readEntry
// enforces this against the registry: metadata must precede FDAT and
// singleton types (cTIM, mTIM, aTIM, fPRM, fFLG, fSIZ) may appear at most
// once.
func emitMetadata(emit func(chunk.Type, []byte) error, m Metadata) error {
	if m.Created != nil {
		if err := emit(chunk.TypeCreatedTime, m.Created.Encode()); err != nil {
			return err
		}
	}
	if m.Modified != nil {
		if err := emit(chunk.TypeModifiedTime, m.Modified.Encode()); err != nil {
			return err
		}
	}
	if m.Accessed != nil {
		if err := emit(chunk.TypeAccessedTime, m.Accessed.Encode()); err != nil {
			return err
		}
	}
	if m.Permission != nil {
		if err := emit(chunk.TypePermission, m.Permission.Encode()); err != nil {
			return err
		}
	}
	for _, a := range m.ExtendedAttrs {
		if err := emit(chunk.TypeExtendedAttr, a.Encode()); err != nil {
			return err
		}
	}
	for _, a := range m.ACLs {
		if err := emit(chunk.TypeACL, a.Encode()); err != nil {
			return err
		}
	}
	if m.Flags != nil {
		if err := emit(chunk.TypeFileFlags, m.Flags.Encode()); err != nil {
			return err
		}
	}
	if m.Size != nil {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, *m.Size)
		if err := emit(chunk.TypeFileSize, buf); err != nil {
			return err
		}
	}
	return nil
}

// applyMetadataChunk folds one ancillary chunk into m, returning whether t
// was a recognized metadata type (false means the caller should handle t
// itself, e.g. FDAT/FEND).
func applyMetadataChunk(m *Metadata, t chunk.Type, data []byte) (bool, error) {
	switch t {
	case chunk.TypeCreatedTime:
		ts, err := DecodeTimestamp(data)
		if err != nil {
			return true, err
		}
		m.Created = &ts
	case chunk.TypeModifiedTime:
		ts, err := DecodeTimestamp(data)
		if err != nil {
			return true, err
		}
		m.Modified = &ts
	case chunk.TypeAccessedTime:
		ts, err := DecodeTimestamp(data)
		if err != nil {
			return true, err
		}
		m.Accessed = &ts
	case chunk.TypePermission:
		p, err := DecodePermission(data)
		if err != nil {
			return true, err
		}
		m.Permission = &p
	case chunk.TypeExtendedAttr:
		a, err := DecodeExtendedAttribute(data)
		if err != nil {
			return true, err
		}
		m.ExtendedAttrs = append(m.ExtendedAttrs, a)
	case chunk.TypeACL:
		a, err := DecodeACLEntry(data)
		if err != nil {
			return true, err
		}
		m.ACLs = append(m.ACLs, a)
	case chunk.TypeFileFlags:
		f, err := DecodeFileFlags(data)
		if err != nil {
			return true, err
		}
		m.Flags = &f
	case chunk.TypeFileSize:
		if len(data) != 8 {
			return true, errors.Reason("fSIZ payload must be 8 bytes, got %(n)d").D("n", len(data)).Err()
		}
		v := binary.BigEndian.Uint64(data)
		m.Size = &v
	default:
		return false, nil
	}
	return true, nil
}
