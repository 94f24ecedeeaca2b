// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/webnn2tflite/backends/tflite"
	"github.com/pkg/errors"
)

// report reads the model in modelPath and writes the tables selected by the flags to w.
func report(w io.Writer, modelPath string) error {
	contents, err := os.ReadFile(modelPath)
	if err != nil {
		return errors.Wrapf(err, "reading model file")
	}
	m, err := tflite.Decode(contents)
	if err != nil {
		return err
	}
	summary(w, modelPath, len(contents), m)
	if *flagTensors {
		tensorsTable(w, m)
	}
	if *flagOperators {
		operatorsTable(w, m)
	}
	return nil
}

func summary(w io.Writer, modelPath string, fileSize int, m *tflite.Model) {
	var constantBytes int
	for _, buffer := range m.Buffers {
		constantBytes += len(buffer)
	}
	_, _ = fmt.Fprintln(w, titleStyle.Render("Summary"))
	table := newPlainTable(false, lipgloss.Right, lipgloss.Left)
	table.Row("model", modelPath)
	table.Row("version", fmt.Sprintf("%d", m.Version))
	table.Row("description", m.Description)
	table.Row("# tensors", humanize.Comma(int64(len(m.Tensors))))
	table.Row("# operators", humanize.Comma(int64(len(m.Operators))))
	table.Row("# buffers", humanize.Comma(int64(len(m.Buffers))))
	table.Row("inputs", formatTensorList(m, m.Inputs))
	table.Row("outputs", formatTensorList(m, m.Outputs))
	table.Row("constants", humanize.Bytes(uint64(constantBytes)))
	table.Row("file size", humanize.Bytes(uint64(fileSize)))
	_, _ = fmt.Fprintln(w, table.Render())
}

func tensorsTable(w io.Writer, m *tflite.Model) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("Tensors"))
	table := newPlainTable(true, lipgloss.Right, lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	table.Headers("#", "Name", "Type", "Shape", "Buffer", "Bytes")
	for ii, t := range m.Tensors {
		buffer, bytes := "-", "-"
		if t.Buffer != 0 {
			buffer = fmt.Sprintf("%d", t.Buffer)
			bytes = humanize.Bytes(uint64(len(m.Buffers[t.Buffer])))
		}
		table.Row(fmt.Sprintf("%d", ii), t.Name, t.Type.String(), formatShape(t.Shape), buffer, bytes)
	}
	_, _ = fmt.Fprintln(w, table.Render())
}

func operatorsTable(w io.Writer, m *tflite.Model) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("Operators"))
	table := newPlainTable(true, lipgloss.Right, lipgloss.Left)
	table.Headers("#", "Operator", "Inputs", "Outputs", "Options")
	for ii, op := range m.Operators {
		options := "-"
		if op.Options != nil {
			options = strings.TrimPrefix(fmt.Sprintf("%+v", op.Options), "&")
		}
		table.Row(fmt.Sprintf("%d", ii), op.Opcode.String(),
			formatTensorList(m, op.Inputs), formatTensorList(m, op.Outputs), options)
	}
	_, _ = fmt.Fprintln(w, table.Render())
}

// formatShape returns the shape as "[d0, d1, ...]", or "scalar".
func formatShape(shape []int32) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for ii, dim := range shape {
		parts[ii] = fmt.Sprintf("%d", dim)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatTensorList lists tensor indices, with their names if they have one.
func formatTensorList(m *tflite.Model, tensors []int32) string {
	parts := make([]string, len(tensors))
	for ii, t := range tensors {
		if t < 0 {
			parts[ii] = "-"
			continue
		}
		if name := m.Tensors[t].Name; name != "" {
			parts[ii] = fmt.Sprintf("%d:%s", t, name)
		} else {
			parts[ii] = fmt.Sprintf("%d", t)
		}
	}
	return strings.Join(parts, " ")
}
