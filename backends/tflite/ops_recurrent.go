// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
)

// recurrentWeights are the tensors of one direction of a recurrent cell. The optional ones are noTensor
// when absent.
//
// Weights are [numGates*hiddenSize, inputSize], recurrent weights [numGates*hiddenSize, hiddenSize] and
// biases [numGates*hiddenSize]. The peephole (LSTM only) is [3*hiddenSize].
type recurrentWeights struct {
	weight, recurrentWeight int32
	bias, recurrentBias     int32
	peephole                int32
}

// recurrentConfig holds the attributes shared by the single-step and multi-step variants.
type recurrentConfig struct {
	hiddenSize  uint32
	resetAfter  bool
	gates       map[string]uint32 // Gate name to its row block in the weights.
	activations []webnn.RecurrentActivation
}

func gruGates(layout webnn.GruWeightLayout) map[string]uint32 {
	if layout == webnn.GruLayoutRzn {
		return map[string]uint32{"reset": 0, "update": 1, "new": 2}
	}
	return map[string]uint32{"update": 0, "reset": 1, "new": 2}
}

func lstmGates(layout webnn.LstmWeightLayout) map[string]uint32 {
	if layout == webnn.LstmLayoutIfgo {
		return map[string]uint32{"input": 0, "forget": 1, "cell": 2, "output": 3}
	}
	return map[string]uint32{"input": 0, "output": 1, "forget": 2, "cell": 3}
}

// peepholeBlocks is the order of the gates in the peephole weights.
var peepholeBlocks = map[string]uint32{"input": 0, "output": 1, "forget": 2}

// optionalTensor returns the tensor of an optional operand, or noTensor.
func (b *builder) optionalTensor(kind webnn.OpKind, id *webnn.OperandID) int32 {
	if id == nil {
		return noTensor
	}
	b.checkDType(kind, webnn.SlotInput, *id)
	return b.tensorOf(*id)
}

// activation emits one of the gate activations.
func (b *builder) activation(activation webnn.RecurrentActivation, x, out int32) (int32, error) {
	switch activation {
	case webnn.ActivationSigmoid:
		return b.unaryOp(schema.OpLogistic, x, out)
	case webnn.ActivationTanh:
		return b.unaryOp(schema.OpTanh, x, out)
	case webnn.ActivationRelu:
		return b.unaryOp(schema.OpRelu, x, out)
	}
	return 0, unsupportedf("recurrent activation %d", activation)
}

// rowBlock slices the rows [block*hiddenSize, (block+1)*hiddenSize) of a weight matrix or bias vector.
func (b *builder) rowBlock(t int32, block, hiddenSize uint32) (int32, error) {
	start, ok := shapeinference.CheckedMul(block, hiddenSize)
	if !ok {
		return 0, errors.Wrapf(ErrShapeOverflow, "gate #%d of hidden size %d", block, hiddenSize)
	}
	dims := b.dims(t)
	starts := make([]uint32, len(dims))
	sizes := make([]uint32, len(dims))
	copy(sizes, dims)
	starts[0], sizes[0] = start, hiddenSize
	return b.sliceTo(t, starts, sizes)
}

// matmulTo emits a BATCH_MATMUL of the matrices a [m, k] and b [k, n] into a new [m, n] tensor.
func (b *builder) matmulTo(lhs, rhs int32) (int32, error) {
	dims := []uint32{b.dims(lhs)[0], b.dims(rhs)[1]}
	return b.emitTemp(schema.OpBatchMatMul, b.dtype(lhs), dims, []int32{lhs, rhs}, &schema.BatchMatMulOptions{})
}

// projection emits x·weightᵗ+bias for the rows of one gate.
func (b *builder) projection(x, weight, bias int32, block, hiddenSize uint32) (int32, error) {
	rows, err := b.rowBlock(weight, block, hiddenSize)
	if err != nil {
		return 0, err
	}
	transposed, err := b.transposeTo(rows, []uint32{1, 0}, newTensor)
	if err != nil {
		return 0, err
	}
	product, err := b.matmulTo(x, transposed)
	if err != nil {
		return 0, err
	}
	if bias == noTensor {
		return product, nil
	}
	biasRows, err := b.rowBlock(bias, block, hiddenSize)
	if err != nil {
		return 0, err
	}
	return b.binaryOp(schema.OpAdd, product, biasRows, newTensor)
}

// gatePreActivation emits x·Wᵗ+b + h·Rᵗ+rb for one gate.
func (b *builder) gatePreActivation(x, h int32, w recurrentWeights, block, hiddenSize uint32) (int32, error) {
	inputPart, err := b.projection(x, w.weight, w.bias, block, hiddenSize)
	if err != nil {
		return 0, err
	}
	hiddenPart, err := b.projection(h, w.recurrentWeight, w.recurrentBias, block, hiddenSize)
	if err != nil {
		return 0, err
	}
	return b.binaryOp(schema.OpAdd, inputPart, hiddenPart, newTensor)
}

// gruStep emits one GRU step from the input x [batch, inputSize] and hidden state h [batch, hiddenSize],
// writing the new hidden state into out (or a new tensor).
func (b *builder) gruStep(x, h int32, w recurrentWeights, cfg recurrentConfig, out int32) (int32, error) {
	hiddenSize := cfg.hiddenSize
	gates := make(map[string]int32, 2)
	for _, name := range []string{"update", "reset"} {
		pre, err := b.gatePreActivation(x, h, w, cfg.gates[name], hiddenSize)
		if err != nil {
			return 0, err
		}
		gates[name], err = b.activation(cfg.activations[0], pre, newTensor)
		if err != nil {
			return 0, err
		}
	}
	update, reset := gates["update"], gates["reset"]

	newBlock := cfg.gates["new"]
	inputPart, err := b.projection(x, w.weight, w.bias, newBlock, hiddenSize)
	if err != nil {
		return 0, err
	}
	var hiddenPart int32
	if cfg.resetAfter {
		// r * (h·Rnᵗ + rbn)
		projected, err := b.projection(h, w.recurrentWeight, w.recurrentBias, newBlock, hiddenSize)
		if err != nil {
			return 0, err
		}
		hiddenPart, err = b.binaryOp(schema.OpMul, reset, projected, newTensor)
		if err != nil {
			return 0, err
		}
	} else {
		// (r * h)·Rnᵗ + rbn
		resetHidden, err := b.binaryOp(schema.OpMul, reset, h, newTensor)
		if err != nil {
			return 0, err
		}
		hiddenPart, err = b.projection(resetHidden, w.recurrentWeight, w.recurrentBias, newBlock, hiddenSize)
		if err != nil {
			return 0, err
		}
	}
	pre, err := b.binaryOp(schema.OpAdd, inputPart, hiddenPart, newTensor)
	if err != nil {
		return 0, err
	}
	newGate, err := b.activation(cfg.activations[1], pre, newTensor)
	if err != nil {
		return 0, err
	}

	// h' = n*(1-z) + z*h
	oneMinusUpdate, err := b.scalarLhsOp(schema.OpSub, 1, update, newTensor)
	if err != nil {
		return 0, err
	}
	kept, err := b.binaryOp(schema.OpMul, newGate, oneMinusUpdate, newTensor)
	if err != nil {
		return 0, err
	}
	carried, err := b.binaryOp(schema.OpMul, update, h, newTensor)
	if err != nil {
		return 0, err
	}
	return b.binaryOp(schema.OpAdd, kept, carried, out)
}

// lstmStep emits one LSTM step, writing the new hidden and cell states into hiddenOut and cellOut
// (or new tensors).
func (b *builder) lstmStep(x, h, c int32, w recurrentWeights, cfg recurrentConfig,
	hiddenOut, cellOut int32) (hidden, cell int32, err error) {
	hiddenSize := cfg.hiddenSize
	gates := make(map[string]int32, 4)
	for _, name := range []string{"input", "forget", "cell", "output"} {
		var pre int32
		pre, err = b.gatePreActivation(x, h, w, cfg.gates[name], hiddenSize)
		if err != nil {
			return
		}
		activation := cfg.activations[0]
		if name == "cell" {
			activation = cfg.activations[1]
		} else if w.peephole != noTensor {
			var peephole, term int32
			peephole, err = b.rowBlock(w.peephole, peepholeBlocks[name], hiddenSize)
			if err != nil {
				return
			}
			term, err = b.binaryOp(schema.OpMul, c, peephole, newTensor)
			if err != nil {
				return
			}
			pre, err = b.binaryOp(schema.OpAdd, pre, term, newTensor)
			if err != nil {
				return
			}
		}
		gates[name], err = b.activation(activation, pre, newTensor)
		if err != nil {
			return
		}
	}

	// c' = f*c + i*g
	var forgotten, added int32
	forgotten, err = b.binaryOp(schema.OpMul, gates["forget"], c, newTensor)
	if err != nil {
		return
	}
	added, err = b.binaryOp(schema.OpMul, gates["input"], gates["cell"], newTensor)
	if err != nil {
		return
	}
	cell, err = b.binaryOp(schema.OpAdd, forgotten, added, cellOut)
	if err != nil {
		return
	}

	// h' = o*activation(c')
	var activated int32
	activated, err = b.activation(cfg.activations[2], cell, newTensor)
	if err != nil {
		return
	}
	hidden, err = b.binaryOp(schema.OpMul, gates["output"], activated, hiddenOut)
	return
}

// checkRecurrentDTypes checks the data types of the operands of a recurrent operation, and rejects float16.
func (b *builder) checkRecurrentDTypes(kind webnn.OpKind, inputs []webnn.OperandID, outputs []webnn.OperandID) error {
	b.checkDType(kind, webnn.SlotInput, inputs...)
	b.checkDType(kind, webnn.SlotOutput, outputs...)
	return rejectFloat16(kind, b.operand(inputs[0]).DType)
}

func (b *builder) lowerGruCellOp(op *webnn.GruCell) error {
	kind := op.Kind()
	err := b.checkRecurrentDTypes(kind, []webnn.OperandID{op.Input, op.Weight, op.RecurrentWeight, op.HiddenState},
		[]webnn.OperandID{op.Output})
	if err != nil {
		return err
	}
	w := recurrentWeights{
		weight:          b.tensorOf(op.Weight),
		recurrentWeight: b.tensorOf(op.RecurrentWeight),
		bias:            b.optionalTensor(kind, op.Bias),
		recurrentBias:   b.optionalTensor(kind, op.RecurrentBias),
		peephole:        noTensor,
	}
	cfg := recurrentConfig{
		hiddenSize:  op.HiddenSize,
		resetAfter:  op.ResetAfter,
		gates:       gruGates(op.Layout),
		activations: op.Activations[:],
	}
	_, err = b.gruStep(b.tensorOf(op.Input), b.tensorOf(op.HiddenState), w, cfg, b.tensorOf(op.Output))
	return err
}

func (b *builder) lowerLstmCellOp(op *webnn.LstmCell) error {
	kind := op.Kind()
	if len(op.Outputs) != 2 {
		exceptions.Panicf("%s expects 2 outputs (hidden and cell states), got %d", kind, len(op.Outputs))
	}
	err := b.checkRecurrentDTypes(kind,
		[]webnn.OperandID{op.Input, op.Weight, op.RecurrentWeight, op.HiddenState, op.CellState}, op.Outputs)
	if err != nil {
		return err
	}
	w := recurrentWeights{
		weight:          b.tensorOf(op.Weight),
		recurrentWeight: b.tensorOf(op.RecurrentWeight),
		bias:            b.optionalTensor(kind, op.Bias),
		recurrentBias:   b.optionalTensor(kind, op.RecurrentBias),
		peephole:        b.optionalTensor(kind, op.Peephole),
	}
	cfg := recurrentConfig{
		hiddenSize:  op.HiddenSize,
		gates:       lstmGates(op.Layout),
		activations: op.Activations[:],
	}
	_, _, err = b.lstmStep(b.tensorOf(op.Input), b.tensorOf(op.HiddenState), b.tensorOf(op.CellState), w, cfg,
		b.tensorOf(op.Outputs[0]), b.tensorOf(op.Outputs[1]))
	return err
}

// directionSlice slices the block of direction d from a tensor whose first axis is the direction (or the step),
// and drops that axis. It returns noTensor for noTensor.
func (b *builder) directionSlice(t int32, d uint32) (int32, error) {
	if t == noTensor {
		return noTensor, nil
	}
	dims := b.dims(t)
	starts := make([]uint32, len(dims))
	sizes := make([]uint32, len(dims))
	copy(sizes, dims)
	starts[0], sizes[0] = d, 1
	sliced, err := b.sliceTo(t, starts, sizes)
	if err != nil {
		return 0, err
	}
	return b.reshapeTo(sliced, dims[1:], newTensor)
}

// directionWeights slices the weights of each direction up front.
func (b *builder) directionWeights(all recurrentWeights, numDirections int) ([]recurrentWeights, error) {
	perDirection := make([]recurrentWeights, numDirections)
	for d := range perDirection {
		var err error
		w := &perDirection[d]
		for _, pair := range []struct{ from, to *int32 }{
			{&all.weight, &w.weight},
			{&all.recurrentWeight, &w.recurrentWeight},
			{&all.bias, &w.bias},
			{&all.recurrentBias, &w.recurrentBias},
			{&all.peephole, &w.peephole},
		} {
			*pair.to, err = b.directionSlice(*pair.from, uint32(d))
			if err != nil {
				return nil, err
			}
		}
	}
	return perDirection, nil
}

// initialStates returns the initial state of each direction: sliced from initial, or zeros if it is noTensor.
func (b *builder) initialStates(initial int32, like int32, numDirections int, batch, hiddenSize uint32) ([]int32, error) {
	states := make([]int32, numDirections)
	for d := range states {
		var err error
		if initial != noTensor {
			states[d], err = b.directionSlice(initial, uint32(d))
		} else {
			dims := []uint32{batch, hiddenSize}
			numElements, ok := shapeinference.NumElements(dims)
			if !ok {
				return nil, errors.Wrapf(ErrShapeOverflow, "initial state of shape %v", dims)
			}
			dtype := b.dtype(like)
			states[d], err = b.constant(dtype, dims, make([]byte, numElements*dtype.Size()))
		}
		if err != nil {
			return nil, err
		}
	}
	return states, nil
}

// stackDirections concatenates the [batch, hiddenSize] states of each direction into
// [numDirections, batch, hiddenSize], into out or a new tensor.
func (b *builder) stackDirections(states []int32, out int32) (int32, error) {
	dims := b.dims(states[0])
	stackedDims := append([]uint32{uint32(len(states))}, dims...)
	if len(states) == 1 {
		return b.reshapeTo(states[0], stackedDims, out)
	}
	expanded := make([]int32, len(states))
	for d, state := range states {
		var err error
		expanded[d], err = b.reshapeTo(state, append([]uint32{1}, dims...), newTensor)
		if err != nil {
			return 0, err
		}
	}
	return b.concatTo(expanded, 0, out)
}

// recurrentLoop unrolls a multi-step recurrent network. step is called once per time step and direction,
// with the direction index and the input of the time step ([batch, inputSize]), and returns the new
// hidden state of that direction.
//
// It returns the per-step stacked hidden states [1, numDirections, batch, hiddenSize] if withSequence.
func (b *builder) recurrentLoop(input int32, steps uint32, direction webnn.RecurrentDirection,
	withSequence bool, step func(d int, x int32) (hidden int32, err error)) (sequence []int32, err error) {
	numDirections := direction.NumDirections()
	if steps == 0 || steps > b.dims(input)[0] {
		return nil, unsupportedf("recurrent network with %d steps over an input of shape %v", steps, b.dims(input))
	}
	stepInputs := make(map[uint32]int32, steps)
	inputAt := func(t uint32) (int32, error) {
		if x, found := stepInputs[t]; found {
			return x, nil
		}
		x, err := b.directionSlice(input, t)
		if err == nil {
			stepInputs[t] = x
		}
		return x, err
	}
	for s := range steps {
		hiddens := make([]int32, numDirections)
		for d := range numDirections {
			t := s
			backward := direction == webnn.DirectionBackward || (direction == webnn.DirectionBoth && d == 1)
			if backward {
				t = steps - 1 - s
			}
			var x int32
			x, err = inputAt(t)
			if err != nil {
				return
			}
			hiddens[d], err = step(d, x)
			if err != nil {
				return
			}
		}
		if withSequence {
			var stacked int32
			stacked, err = b.stackDirections(hiddens, newTensor)
			if err != nil {
				return
			}
			stacked, err = b.reshapeTo(stacked, append([]uint32{1}, b.dims(stacked)...), newTensor)
			if err != nil {
				return
			}
			sequence = append(sequence, stacked)
		}
	}
	return
}

// writeSequence concatenates the per-step hidden states into the [steps, numDirections, batch, hiddenSize] output.
func (b *builder) writeSequence(sequence []int32, output int32) error {
	if len(sequence) == 1 {
		_, err := b.reshapeTo(sequence[0], b.dims(output), output)
		return err
	}
	_, err := b.concatTo(sequence, 0, output)
	return err
}

func (b *builder) lowerGru(op *webnn.Gru) error {
	kind := op.Kind()
	numOutputs := 1
	if op.ReturnSequence {
		numOutputs = 2
	}
	if len(op.Outputs) != numOutputs {
		exceptions.Panicf("%s expects %d outputs, got %d", kind, numOutputs, len(op.Outputs))
	}
	err := b.checkRecurrentDTypes(kind, []webnn.OperandID{op.Input, op.Weight, op.RecurrentWeight}, op.Outputs)
	if err != nil {
		return err
	}
	input := b.tensorOf(op.Input)
	numDirections := op.Direction.NumDirections()
	weights, err := b.directionWeights(recurrentWeights{
		weight:          b.tensorOf(op.Weight),
		recurrentWeight: b.tensorOf(op.RecurrentWeight),
		bias:            b.optionalTensor(kind, op.Bias),
		recurrentBias:   b.optionalTensor(kind, op.RecurrentBias),
		peephole:        noTensor,
	}, numDirections)
	if err != nil {
		return err
	}
	hiddens, err := b.initialStates(b.optionalTensor(kind, op.InitialHiddenState), input, numDirections,
		b.dims(input)[1], op.HiddenSize)
	if err != nil {
		return err
	}
	cfg := recurrentConfig{
		hiddenSize:  op.HiddenSize,
		resetAfter:  op.ResetAfter,
		gates:       gruGates(op.Layout),
		activations: op.Activations[:],
	}
	sequence, err := b.recurrentLoop(input, op.Steps, op.Direction, op.ReturnSequence,
		func(d int, x int32) (int32, error) {
			h, err := b.gruStep(x, hiddens[d], weights[d], cfg, newTensor)
			hiddens[d] = h
			return h, err
		})
	if err != nil {
		return err
	}
	if _, err = b.stackDirections(hiddens, b.tensorOf(op.Outputs[0])); err != nil {
		return err
	}
	if op.ReturnSequence {
		return b.writeSequence(sequence, b.tensorOf(op.Outputs[1]))
	}
	return nil
}

func (b *builder) lowerLstm(op *webnn.Lstm) error {
	kind := op.Kind()
	numOutputs := 2
	if op.ReturnSequence {
		numOutputs = 3
	}
	if len(op.Outputs) != numOutputs {
		exceptions.Panicf("%s expects %d outputs, got %d", kind, numOutputs, len(op.Outputs))
	}
	err := b.checkRecurrentDTypes(kind, []webnn.OperandID{op.Input, op.Weight, op.RecurrentWeight}, op.Outputs)
	if err != nil {
		return err
	}
	input := b.tensorOf(op.Input)
	numDirections := op.Direction.NumDirections()
	weights, err := b.directionWeights(recurrentWeights{
		weight:          b.tensorOf(op.Weight),
		recurrentWeight: b.tensorOf(op.RecurrentWeight),
		bias:            b.optionalTensor(kind, op.Bias),
		recurrentBias:   b.optionalTensor(kind, op.RecurrentBias),
		peephole:        b.optionalTensor(kind, op.Peephole),
	}, numDirections)
	if err != nil {
		return err
	}
	batch := b.dims(input)[1]
	hiddens, err := b.initialStates(b.optionalTensor(kind, op.InitialHiddenState), input, numDirections,
		batch, op.HiddenSize)
	if err != nil {
		return err
	}
	cells, err := b.initialStates(b.optionalTensor(kind, op.InitialCellState), input, numDirections,
		batch, op.HiddenSize)
	if err != nil {
		return err
	}
	cfg := recurrentConfig{
		hiddenSize:  op.HiddenSize,
		gates:       lstmGates(op.Layout),
		activations: op.Activations[:],
	}
	sequence, err := b.recurrentLoop(input, op.Steps, op.Direction, op.ReturnSequence,
		func(d int, x int32) (int32, error) {
			h, c, err := b.lstmStep(x, hiddens[d], cells[d], weights[d], cfg, newTensor, newTensor)
			hiddens[d], cells[d] = h, c
			return h, err
		})
	if err != nil {
		return err
	}
	if _, err = b.stackDirections(hiddens, b.tensorOf(op.Outputs[0])); err != nil {
		return err
	}
	if _, err = b.stackDirections(cells, b.tensorOf(op.Outputs[1])); err != nil {
		return err
	}
	if op.ReturnSequence {
		return b.writeSequence(sequence, b.tensorOf(op.Outputs[2]))
	}
	return nil
}
