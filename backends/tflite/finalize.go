// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	flatbuffers "github.com/google/flatbuffers/go"
)

// initialBuilderSize is the starting capacity of the flatbuffers builder, it grows as needed.
const initialBuilderSize = 1024

// finish serializes the tables into the model flatbuffer, with the graph inputs and outputs
// as the subgraph inputs and outputs.
//
// It panics if called a second time, or if a graph input or output has no tensor.
func (b *builder) finish() []byte {
	if b.finished {
		exceptions.Panicf("tflite: model already finished, the builder can't be reused")
	}
	b.finished = true

	inputs := make([]int32, len(b.graph.Inputs))
	for ii, id := range b.graph.Inputs {
		inputs[ii] = b.tensorOf(id)
	}
	outputs := make([]int32, len(b.graph.Outputs))
	for ii, id := range b.graph.Outputs {
		outputs[ii] = b.tensorOf(id)
	}

	size := initialBuilderSize
	for _, data := range b.buffers {
		size += len(data) + schema.BufferAlignment
	}
	fb := flatbuffers.NewBuilder(size)

	// Buffers go first, so the (potentially large) constant data ends up at the end of the file.
	buffers := make([]flatbuffers.UOffsetT, len(b.buffers))
	for ii := len(b.buffers) - 1; ii >= 0; ii-- {
		buffers[ii] = schema.CreateBuffer(fb, b.buffers[ii])
	}
	tensors := make([]flatbuffers.UOffsetT, len(b.tensors))
	for ii, t := range b.tensors {
		tensors[ii] = schema.CreateTensor(fb, t.shape, tensorType(t.dtype), t.buffer, t.name)
	}
	operators := make([]flatbuffers.UOffsetT, len(b.operators))
	for ii, op := range b.operators {
		operators[ii] = schema.CreateOperator(fb, op.opcodeIndex, op.inputs, op.outputs, op.options)
	}
	subgraph := schema.CreateSubGraph(fb, schema.SubGraphFields{
		Tensors:   tensors,
		Operators: operators,
		Inputs:    inputs,
		Outputs:   outputs,
	})
	operatorCodes := make([]flatbuffers.UOffsetT, len(b.operatorCodes))
	for ii, entry := range b.operatorCodes {
		operatorCodes[ii] = schema.CreateOperatorCode(fb, entry.code, entry.version)
	}
	model := schema.CreateModel(fb, schema.ModelFields{
		OperatorCodes: operatorCodes,
		Subgraphs:     []flatbuffers.UOffsetT{subgraph},
		Buffers:       buffers,
		Description:   Description,
	})
	return schema.FinishModel(fb, model)
}
