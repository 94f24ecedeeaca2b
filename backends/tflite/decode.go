// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/pkg/errors"
)

// Model is a decoded view of a TFLite model with a single subgraph, as produced by Compile.
type Model struct {
	Version     uint32
	Description string

	// OperatorCodes indexed by the operators' opcode index.
	OperatorCodes []OperatorCode

	Tensors   []Tensor
	Operators []Operator

	// Inputs and Outputs are tensor indices.
	Inputs, Outputs []int32

	// Buffers holds the data of each buffer, nil for empty buffers. They point to the decoded bytes, not copies.
	Buffers [][]byte
}

// OperatorCode of a decoded model.
type OperatorCode struct {
	Code    schema.BuiltinOperator
	Version int32
}

// Tensor of a decoded model.
type Tensor struct {
	Shape  []int32
	Type   schema.TensorType
	Buffer uint32
	Name   string
}

// Operator of a decoded model.
type Operator struct {
	Opcode          schema.BuiltinOperator
	Inputs, Outputs []int32

	// Options are nil if the operator has no options.
	Options schema.Options
}

// Decode parses a model serialized by Compile.
//
// It only checks the file identifier and the references between tables: it is meant for inspection
// and tests, not for loading untrusted models.
func Decode(buf []byte) (*Model, error) {
	if !schema.HasIdentifier(buf) {
		return nil, errors.Errorf("not a TFLite model: missing %q file identifier", schema.FileIdentifier)
	}
	root := schema.GetRootAsModel(buf)
	m := &Model{
		Version:     root.Version(),
		Description: root.Description(),
	}
	for ii := range root.OperatorCodesLength() {
		code, _ := root.OperatorCodes(ii)
		m.OperatorCodes = append(m.OperatorCodes, OperatorCode{Code: code.BuiltinCode(), Version: code.Version()})
	}
	for ii := range root.BuffersLength() {
		buffer, _ := root.Buffers(ii)
		m.Buffers = append(m.Buffers, buffer.Data())
	}
	if root.SubgraphsLength() != 1 {
		return nil, errors.Errorf("expected exactly 1 subgraph, model has %d", root.SubgraphsLength())
	}
	subgraph, _ := root.Subgraphs(0)
	m.Inputs, m.Outputs = subgraph.Inputs(), subgraph.Outputs()
	for ii := range subgraph.TensorsLength() {
		t, _ := subgraph.Tensors(ii)
		tensor := Tensor{Shape: t.Shape(), Type: t.Type(), Buffer: t.Buffer(), Name: t.Name()}
		if int(tensor.Buffer) >= len(m.Buffers) {
			return nil, errors.Errorf("tensor #%d refers to buffer %d, model has %d buffers", ii, tensor.Buffer, len(m.Buffers))
		}
		m.Tensors = append(m.Tensors, tensor)
	}
	for ii := range subgraph.OperatorsLength() {
		op, _ := subgraph.Operators(ii)
		opcodeIndex := op.OpcodeIndex()
		if int(opcodeIndex) >= len(m.OperatorCodes) {
			return nil, errors.Errorf("operator #%d refers to operator code %d, model has %d codes",
				ii, opcodeIndex, len(m.OperatorCodes))
		}
		operator := Operator{
			Opcode:  m.OperatorCodes[opcodeIndex].Code,
			Inputs:  op.Inputs(),
			Outputs: op.Outputs(),
			Options: op.BuiltinOptions(),
		}
		for _, t := range append(operator.Inputs[:len(operator.Inputs):len(operator.Inputs)], operator.Outputs...) {
			if t < 0 || int(t) >= len(m.Tensors) {
				return nil, errors.Errorf("operator #%d (%s) refers to tensor %d, model has %d tensors",
					ii, operator.Opcode, t, len(m.Tensors))
			}
		}
		m.Operators = append(m.Operators, operator)
	}
	for _, t := range append(m.Inputs[:len(m.Inputs):len(m.Inputs)], m.Outputs...) {
		if t < 0 || int(t) >= len(m.Tensors) {
			return nil, errors.Errorf("subgraph input/output refers to tensor %d, model has %d tensors", t, len(m.Tensors))
		}
	}
	return m, nil
}

// Producer returns the index of the operator that outputs tensor t, or -1 if none does.
func (m *Model) Producer(t int32) int {
	for ii, op := range m.Operators {
		for _, output := range op.Outputs {
			if output == t {
				return ii
			}
		}
	}
	return -1
}

// CountOperators returns the number of operators of the model with the given opcode.
func (m *Model) CountOperators(opcode schema.BuiltinOperator) int {
	var count int
	for _, op := range m.Operators {
		if op.Opcode == opcode {
			count++
		}
	}
	return count
}
