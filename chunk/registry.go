// Copyright 2017 Robert Iannucci Jr. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package chunk

// Info describes a registered chunk type's placement rules. MaxOccurrences
// is per logical scope (an entry, a solid block, or the archive as a whole,
// per Scope); zero means "no declared bound" (e.g. FDAT/aDAT/xATR/fACL).
type Info struct {
	Classification
	// MaxOccurrences is the maximum number of times this type may appear
	// within its Scope. Zero means unbounded.
	MaxOccurrences int
	// Scope names the level at which MaxOccurrences applies: "archive",
	// "entry", or "solid".
	Scope string
}

// Registry is the catalog of known chunk types, keyed by Type. It is the
// single source of truth the entry state machine and archive reader consult
// when validating ordering and repetition.
var Registry = map[Type]Info{
	TypeArchiveHeader: {Classification: Classify(TypeArchiveHeader), MaxOccurrences: 1, Scope: "archive"},
	TypeArchiveEnd:    {Classification: Classify(TypeArchiveEnd), MaxOccurrences: 1, Scope: "archive"},
	TypeArchiveNext:   {Classification: Classify(TypeArchiveNext), MaxOccurrences: 1, Scope: "archive"},

	TypeEntryHeader: {Classification: Classify(TypeEntryHeader), MaxOccurrences: 1, Scope: "entry"},
	TypeEntryData:   {Classification: Classify(TypeEntryData), MaxOccurrences: 0, Scope: "entry"},
	TypeEntryEnd:    {Classification: Classify(TypeEntryEnd), MaxOccurrences: 1, Scope: "entry"},

	TypePasswordHash: {Classification: Classify(TypePasswordHash), MaxOccurrences: 1, Scope: "entry"},

	TypeCreatedTime:  {Classification: Classify(TypeCreatedTime), MaxOccurrences: 1, Scope: "entry"},
	TypeModifiedTime: {Classification: Classify(TypeModifiedTime), MaxOccurrences: 1, Scope: "entry"},
	TypeAccessedTime: {Classification: Classify(TypeAccessedTime), MaxOccurrences: 1, Scope: "entry"},
	TypePermission:   {Classification: Classify(TypePermission), MaxOccurrences: 1, Scope: "entry"},
	TypeExtendedAttr: {Classification: Classify(TypeExtendedAttr), MaxOccurrences: 0, Scope: "entry"},
	TypeACL:          {Classification: Classify(TypeACL), MaxOccurrences: 0, Scope: "entry"},
	TypeFileFlags:    {Classification: Classify(TypeFileFlags), MaxOccurrences: 1, Scope: "entry"},
	TypeFileSize:     {Classification: Classify(TypeFileSize), MaxOccurrences: 1, Scope: "entry"},

	TypeSolidHeader: {Classification: Classify(TypeSolidHeader), MaxOccurrences: 1, Scope: "solid"},
	TypeSolidData:   {Classification: Classify(TypeSolidData), MaxOccurrences: 0, Scope: "solid"},
	TypeSolidEnd:    {Classification: Classify(TypeSolidEnd), MaxOccurrences: 1, Scope: "solid"},
}

// Known reports whether t is present in the registry.
func Known(t Type) bool {
	_, ok := Registry[t]
	return ok
}

// MustSkip reports whether a reader encountering an unrecognized t is free
// to skip it (ancillary) or must treat it as fatal (critical), per §3.1's
// "reject unknown critical chunks" rule. Known types are never rejected on
// this basis; this only governs the unknown-type fallback.
func MustSkip(t Type) bool {
	return !Classify(t).Critical
}
