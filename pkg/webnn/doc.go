// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package webnn models a validated WebNN computation graph: typed and shaped operands, and the closed set
// of operations that read and produce them.
//
// A Graph is built with NewGraph and its Add* methods, and is then handed (read-only) to a compiler, like
// the one in backends/tflite, together with the Capabilities of the target, which list the data types
// accepted by each operation role.
//
// Validation (type and shape rules of each operation) is not done here: graphs are expected to arrive
// already validated.
package webnn
