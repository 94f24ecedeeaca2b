// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"maps"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Description stored in every compiled model.
const Description = "TFLite model converted from WebNN Graph"

// Compile lowers the validated graph into a TFLite flatbuffer model.
//
// caps must be the capabilities the graph was validated against (usually webnn.TFLiteCapabilities()):
// an operand with a data type not accepted by caps is a contract violation and panics, as does an
// operation referring to an unknown operand.
//
// Graphs that can't be faithfully represented return an error wrapping ErrUnsupportedConfiguration,
// ErrShapeOverflow or ErrPaddingOverflow, and no model.
func Compile(graph *webnn.Graph, caps webnn.Capabilities) ([]byte, error) {
	b := newBuilder(graph, caps)
	for _, id := range slices.Sorted(maps.Keys(graph.Operands)) {
		if err := b.serializeOperand(id, graph.Operands[id]); err != nil {
			return nil, err
		}
	}
	for opIdx, op := range graph.Operations {
		numOperators := len(b.operators)
		if err := b.lower(op); err != nil {
			return nil, errors.WithMessagef(err, "lowering operation #%d (%s)", opIdx, op.Kind())
		}
		klog.V(1).Infof("tflite: operation #%d (%s) lowered to %d operator(s)", opIdx, op.Kind(), len(b.operators)-numOperators)
	}
	model := b.finish()
	if klog.V(2).Enabled() {
		klog.Infof("tflite: model with %d tensors, %d operators, %d buffers: %s",
			len(b.tensors), len(b.operators), len(b.buffers), humanize.Bytes(uint64(len(model))))
	}
	return model, nil
}
