// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package schema

import (
	flatbuffers "github.com/google/flatbuffers/go"
)

// Field indices, in schema order.
const (
	modelVersion       = 0
	modelOperatorCodes = 1
	modelSubgraphs     = 2
	modelDescription   = 3
	modelBuffers       = 4
	modelNumFields     = 5

	subGraphTensors   = 0
	subGraphInputs    = 1
	subGraphOutputs   = 2
	subGraphOperators = 3
	subGraphName      = 4
	subGraphNumFields = 5

	tensorShape     = 0
	tensorType      = 1
	tensorBuffer    = 2
	tensorName      = 3
	tensorNumFields = 4

	bufferData      = 0
	bufferNumFields = 1

	operatorOpcodeIndex        = 0
	operatorInputs             = 1
	operatorOutputs            = 2
	operatorBuiltinOptionsType = 3
	operatorBuiltinOptions     = 4
	operatorNumFields          = 5

	operatorCodeDeprecatedBuiltinCode = 0
	operatorCodeVersion               = 2
	operatorCodeBuiltinCode           = 3
	operatorCodeNumFields             = 4
)

// ModelFields are the already serialized parts of a Model.
type ModelFields struct {
	OperatorCodes, Subgraphs, Buffers []flatbuffers.UOffsetT
	Description                       string
}

// CreateModel writes the Model root table.
func CreateModel(b *flatbuffers.Builder, fields ModelFields) flatbuffers.UOffsetT {
	opCodes := CreateOffsetVector(b, fields.OperatorCodes)
	subgraphs := CreateOffsetVector(b, fields.Subgraphs)
	description := b.CreateString(fields.Description)
	buffers := CreateOffsetVector(b, fields.Buffers)
	b.StartObject(modelNumFields)
	b.PrependUint32Slot(modelVersion, Version, 0)
	b.PrependUOffsetTSlot(modelOperatorCodes, opCodes, 0)
	b.PrependUOffsetTSlot(modelSubgraphs, subgraphs, 0)
	b.PrependUOffsetTSlot(modelDescription, description, 0)
	b.PrependUOffsetTSlot(modelBuffers, buffers, 0)
	return b.EndObject()
}

// FinishModel finishes the buffer with the model as root, and the model file identifier.
func FinishModel(b *flatbuffers.Builder, model flatbuffers.UOffsetT) []byte {
	b.FinishWithFileIdentifier(model, []byte(FileIdentifier))
	return b.FinishedBytes()
}

// CreateOperatorCode writes an OperatorCode table for a builtin operator and its version.
func CreateOperatorCode(b *flatbuffers.Builder, op BuiltinOperator, version int32) flatbuffers.UOffsetT {
	b.StartObject(operatorCodeNumFields)
	b.PrependInt32Slot(operatorCodeBuiltinCode, int32(op), 0)
	b.PrependInt32Slot(operatorCodeVersion, version, 1)
	b.PrependInt8Slot(operatorCodeDeprecatedBuiltinCode, op.DeprecatedCode(), 0)
	return b.EndObject()
}

// SubGraphFields are the already serialized parts of a SubGraph.
type SubGraphFields struct {
	Tensors, Operators []flatbuffers.UOffsetT
	Inputs, Outputs    []int32
	Name               string
}

// CreateSubGraph writes a SubGraph table.
func CreateSubGraph(b *flatbuffers.Builder, fields SubGraphFields) flatbuffers.UOffsetT {
	tensors := CreateOffsetVector(b, fields.Tensors)
	inputs := CreateInt32Vector(b, fields.Inputs)
	outputs := CreateInt32Vector(b, fields.Outputs)
	operators := CreateOffsetVector(b, fields.Operators)
	var name flatbuffers.UOffsetT
	if fields.Name != "" {
		name = b.CreateString(fields.Name)
	}
	b.StartObject(subGraphNumFields)
	b.PrependUOffsetTSlot(subGraphTensors, tensors, 0)
	b.PrependUOffsetTSlot(subGraphInputs, inputs, 0)
	b.PrependUOffsetTSlot(subGraphOutputs, outputs, 0)
	b.PrependUOffsetTSlot(subGraphOperators, operators, 0)
	b.PrependUOffsetTSlot(subGraphName, name, 0)
	return b.EndObject()
}

// CreateTensor writes a Tensor table. An empty name is omitted.
func CreateTensor(b *flatbuffers.Builder, shape []int32, dtype TensorType, buffer uint32, name string) flatbuffers.UOffsetT {
	shapeVec := CreateInt32Vector(b, shape)
	var nameStr flatbuffers.UOffsetT
	if name != "" {
		nameStr = b.CreateString(name)
	}
	b.StartObject(tensorNumFields)
	b.PrependUOffsetTSlot(tensorShape, shapeVec, 0)
	b.PrependInt8Slot(tensorType, int8(dtype), 0)
	b.PrependUint32Slot(tensorBuffer, buffer, 0)
	b.PrependUOffsetTSlot(tensorName, nameStr, 0)
	return b.EndObject()
}

// CreateBuffer writes a Buffer table. A nil data creates the empty buffer.
func CreateBuffer(b *flatbuffers.Builder, data []byte) flatbuffers.UOffsetT {
	var dataVec flatbuffers.UOffsetT
	if data != nil {
		dataVec = CreateAlignedBytes(b, data)
	}
	b.StartObject(bufferNumFields)
	b.PrependUOffsetTSlot(bufferData, dataVec, 0)
	return b.EndObject()
}

// CreateOperator writes an Operator table. options can be nil.
func CreateOperator(b *flatbuffers.Builder, opcodeIndex uint32, inputs, outputs []int32, options Options) flatbuffers.UOffsetT {
	inputsVec := CreateInt32Vector(b, inputs)
	outputsVec := CreateInt32Vector(b, outputs)
	var optionsTable flatbuffers.UOffsetT
	optionsType := BuiltinOptionsNone
	if options != nil {
		optionsType = options.Type()
		optionsTable = options.Pack(b)
	}
	b.StartObject(operatorNumFields)
	b.PrependUint32Slot(operatorOpcodeIndex, opcodeIndex, 0)
	b.PrependUOffsetTSlot(operatorInputs, inputsVec, 0)
	b.PrependUOffsetTSlot(operatorOutputs, outputsVec, 0)
	b.PrependByteSlot(operatorBuiltinOptionsType, byte(optionsType), 0)
	b.PrependUOffsetTSlot(operatorBuiltinOptions, optionsTable, 0)
	return b.EndObject()
}

// Model is a read-only accessor of a serialized Model.
type Model struct {
	tab flatbuffers.Table
}

// GetRootAsModel returns the Model at the root of buf. It doesn't validate buf.
func GetRootAsModel(buf []byte) *Model {
	n := flatbuffers.GetUOffsetT(buf)
	return &Model{tab: flatbuffers.Table{Bytes: buf, Pos: n}}
}

func (m *Model) Version() uint32 {
	o := flatbuffers.UOffsetT(m.tab.Offset(fieldOffset(modelVersion)))
	if o == 0 {
		return 0
	}
	return m.tab.GetUint32(o + m.tab.Pos)
}

func (m *Model) Description() string { return stringField(&m.tab, modelDescription) }

func (m *Model) OperatorCodesLength() int { return vectorLen(&m.tab, modelOperatorCodes) }

func (m *Model) OperatorCodes(j int) (*OperatorCode, bool) {
	tab, ok := tableAt(&m.tab, modelOperatorCodes, j)
	return &OperatorCode{tab: tab}, ok
}

func (m *Model) SubgraphsLength() int { return vectorLen(&m.tab, modelSubgraphs) }

func (m *Model) Subgraphs(j int) (*SubGraph, bool) {
	tab, ok := tableAt(&m.tab, modelSubgraphs, j)
	return &SubGraph{tab: tab}, ok
}

func (m *Model) BuffersLength() int { return vectorLen(&m.tab, modelBuffers) }

func (m *Model) Buffers(j int) (*Buffer, bool) {
	tab, ok := tableAt(&m.tab, modelBuffers, j)
	return &Buffer{tab: tab}, ok
}

// OperatorCode is a read-only accessor of a serialized OperatorCode.
type OperatorCode struct {
	tab flatbuffers.Table
}

func (c *OperatorCode) DeprecatedBuiltinCode() int8 {
	o := flatbuffers.UOffsetT(c.tab.Offset(fieldOffset(operatorCodeDeprecatedBuiltinCode)))
	if o == 0 {
		return 0
	}
	return c.tab.GetInt8(o + c.tab.Pos)
}

func (c *OperatorCode) BuiltinCode() BuiltinOperator {
	o := flatbuffers.UOffsetT(c.tab.Offset(fieldOffset(operatorCodeBuiltinCode)))
	if o == 0 {
		return 0
	}
	return BuiltinOperator(c.tab.GetInt32(o + c.tab.Pos))
}

func (c *OperatorCode) Version() int32 {
	o := flatbuffers.UOffsetT(c.tab.Offset(fieldOffset(operatorCodeVersion)))
	if o == 0 {
		return 1
	}
	return c.tab.GetInt32(o + c.tab.Pos)
}

// SubGraph is a read-only accessor of a serialized SubGraph.
type SubGraph struct {
	tab flatbuffers.Table
}

func (s *SubGraph) Name() string { return stringField(&s.tab, subGraphName) }

func (s *SubGraph) Inputs() []int32 { return int32Vector(&s.tab, subGraphInputs) }

func (s *SubGraph) Outputs() []int32 { return int32Vector(&s.tab, subGraphOutputs) }

func (s *SubGraph) TensorsLength() int { return vectorLen(&s.tab, subGraphTensors) }

func (s *SubGraph) Tensors(j int) (*Tensor, bool) {
	tab, ok := tableAt(&s.tab, subGraphTensors, j)
	return &Tensor{tab: tab}, ok
}

func (s *SubGraph) OperatorsLength() int { return vectorLen(&s.tab, subGraphOperators) }

func (s *SubGraph) Operators(j int) (*Operator, bool) {
	tab, ok := tableAt(&s.tab, subGraphOperators, j)
	return &Operator{tab: tab}, ok
}

// Tensor is a read-only accessor of a serialized Tensor.
type Tensor struct {
	tab flatbuffers.Table
}

func (t *Tensor) Shape() []int32 { return int32Vector(&t.tab, tensorShape) }

func (t *Tensor) Type() TensorType {
	o := flatbuffers.UOffsetT(t.tab.Offset(fieldOffset(tensorType)))
	if o == 0 {
		return TensorTypeFloat32
	}
	return TensorType(t.tab.GetInt8(o + t.tab.Pos))
}

func (t *Tensor) Buffer() uint32 {
	o := flatbuffers.UOffsetT(t.tab.Offset(fieldOffset(tensorBuffer)))
	if o == 0 {
		return 0
	}
	return t.tab.GetUint32(o + t.tab.Pos)
}

func (t *Tensor) Name() string { return stringField(&t.tab, tensorName) }

// Buffer is a read-only accessor of a serialized Buffer.
type Buffer struct {
	tab flatbuffers.Table
}

// Data returns the contents of the buffer (not a copy), or nil if empty.
func (b *Buffer) Data() []byte {
	o := flatbuffers.UOffsetT(b.tab.Offset(fieldOffset(bufferData)))
	if o == 0 {
		return nil
	}
	return b.tab.ByteVector(o + b.tab.Pos)
}

// DataPos returns the absolute position of the data within the model bytes, used to check alignment.
func (b *Buffer) DataPos() int {
	o := flatbuffers.UOffsetT(b.tab.Offset(fieldOffset(bufferData)))
	if o == 0 {
		return 0
	}
	return int(b.tab.Vector(o))
}

// Operator is a read-only accessor of a serialized Operator.
type Operator struct {
	tab flatbuffers.Table
}

func (op *Operator) OpcodeIndex() uint32 {
	o := flatbuffers.UOffsetT(op.tab.Offset(fieldOffset(operatorOpcodeIndex)))
	if o == 0 {
		return 0
	}
	return op.tab.GetUint32(o + op.tab.Pos)
}

func (op *Operator) Inputs() []int32 { return int32Vector(&op.tab, operatorInputs) }

func (op *Operator) Outputs() []int32 { return int32Vector(&op.tab, operatorOutputs) }

func (op *Operator) BuiltinOptionsType() BuiltinOptions {
	o := flatbuffers.UOffsetT(op.tab.Offset(fieldOffset(operatorBuiltinOptionsType)))
	if o == 0 {
		return BuiltinOptionsNone
	}
	return BuiltinOptions(op.tab.GetByte(o + op.tab.Pos))
}

// BuiltinOptions decodes the options union, or returns nil if there are none or if their type is not known.
func (op *Operator) BuiltinOptions() Options {
	o := flatbuffers.UOffsetT(op.tab.Offset(fieldOffset(operatorBuiltinOptions)))
	if o == 0 {
		return nil
	}
	var table flatbuffers.Table
	op.tab.Union(&table, o)
	return UnpackOptions(op.BuiltinOptionsType(), table)
}
