// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/pkg/errors"
)

// Recoverable errors returned by Compile. Use errors.Is to classify them.
var (
	// ErrUnsupportedConfiguration is returned for valid graphs that can't be faithfully lowered to TFLite.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrShapeOverflow is returned when a dimension doesn't fit TFLite's int32 dimensions.
	ErrShapeOverflow = shapeinference.ErrShapeOverflow

	// ErrPaddingOverflow is returned when padding or output size arithmetic overflows.
	ErrPaddingOverflow = shapeinference.ErrPaddingOverflow
)

// unsupportedf returns an error wrapping ErrUnsupportedConfiguration.
func unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupportedConfiguration, format, args...)
}
