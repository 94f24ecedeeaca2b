// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tflite compiles a validated webnn.Graph into a TFLite flatbuffer model.
//
// Each graph operation is lowered, in order, to one or more TFLite builtin operators. Operations without
// a direct TFLite equivalent (erf, softplus, the normalizations, the recurrent networks, etc.) are emulated
// with a chain of simpler operators and intermediate tensors.
//
// Basic usage:
//
//	caps := webnn.TFLiteCapabilities()
//	// ... build and validate graph against caps ...
//	model, err := tflite.Compile(graph, caps)
//	if err != nil {
//		if errors.Is(err, tflite.ErrUnsupportedConfiguration) { ... }
//	}
//	err = os.WriteFile("model.tflite", model, 0o644)
//
// Use Decode to inspect a compiled model.
//
// Logging uses klog: -v=1 logs each lowered operation, -v=2 the final table sizes.
package tflite
