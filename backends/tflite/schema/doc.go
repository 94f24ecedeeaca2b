// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package schema implements the subset of the TFLite flatbuffer schema (version 3, file identifier "TFL3")
// used by the compiler: writers for each table, with the field numbering of the official schema, and
// read-only accessors to decode a serialized model.
//
// It follows the layout of flatc generated code, but only covers the fields the compiler emits.
package schema

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

const (
	// FileIdentifier is stored in bytes [4:8] of every model.
	FileIdentifier = "TFL3"

	// Version of the schema.
	Version = 3

	// BufferAlignment is the required alignment of Buffer.data.
	BufferAlignment = 16
)

// fieldOffset returns the vtable offset of the field with the given index.
func fieldOffset(field int) flatbuffers.VOffsetT {
	return flatbuffers.VOffsetT(4 + 2*field)
}

// CreateInt32Vector writes a vector of int32 and returns its offset.
func CreateInt32Vector(b *flatbuffers.Builder, values []int32) flatbuffers.UOffsetT {
	b.StartVector(4, len(values), 4)
	for ii := len(values) - 1; ii >= 0; ii-- {
		b.PrependInt32(values[ii])
	}
	return b.EndVector(len(values))
}

// CreateOffsetVector writes a vector of tables (or strings) offsets.
func CreateOffsetVector(b *flatbuffers.Builder, offsets []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	b.StartVector(4, len(offsets), 4)
	for ii := len(offsets) - 1; ii >= 0; ii-- {
		b.PrependUOffsetT(offsets[ii])
	}
	return b.EndVector(len(offsets))
}

// CreateAlignedBytes writes a byte vector whose contents are aligned to BufferAlignment.
func CreateAlignedBytes(b *flatbuffers.Builder, data []byte) flatbuffers.UOffsetT {
	b.StartVector(1, len(data), BufferAlignment)
	for ii := len(data) - 1; ii >= 0; ii-- {
		b.PlaceByte(data[ii])
	}
	return b.EndVector(len(data))
}

// HasIdentifier returns whether buf carries the model file identifier.
func HasIdentifier(buf []byte) bool {
	return len(buf) >= 8 && string(buf[4:8]) == FileIdentifier
}

// int32Vector reads the int32 vector at the field, or nil if not present.
func int32Vector(tab *flatbuffers.Table, field int) []int32 {
	o := flatbuffers.UOffsetT(tab.Offset(fieldOffset(field)))
	if o == 0 {
		return nil
	}
	start := tab.Vector(o)
	values := make([]int32, tab.VectorLen(o))
	for ii := range values {
		values[ii] = tab.GetInt32(start + flatbuffers.UOffsetT(ii*4))
	}
	return values
}

// tableAt initializes obj as the table j of the vector of tables stored in field.
func tableAt(tab *flatbuffers.Table, field, j int) (flatbuffers.Table, bool) {
	o := flatbuffers.UOffsetT(tab.Offset(fieldOffset(field)))
	if o == 0 || j < 0 || j >= tab.VectorLen(o) {
		return flatbuffers.Table{}, false
	}
	x := tab.Vector(o) + flatbuffers.UOffsetT(j*4)
	return flatbuffers.Table{Bytes: tab.Bytes, Pos: tab.Indirect(x)}, true
}

func vectorLen(tab *flatbuffers.Table, field int) int {
	o := flatbuffers.UOffsetT(tab.Offset(fieldOffset(field)))
	if o == 0 {
		return 0
	}
	return tab.VectorLen(o)
}

func stringField(tab *flatbuffers.Table, field int) string {
	o := flatbuffers.UOffsetT(tab.Offset(fieldOffset(field)))
	if o == 0 {
		return ""
	}
	return tab.String(o + tab.Pos)
}
