// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// tflite_inspect prints the tables of a TFLite model file created by the webnn2tflite compiler.
//
// Usage:
//
//	tflite_inspect [-tensors] [-operators] [-no_color] model.tflite
package main

import (
	"flag"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"k8s.io/klog/v2"
)

var (
	flagTensors   = flag.Bool("tensors", false, "Lists the tensors of the model.")
	flagOperators = flag.Bool("operators", false, "Lists the operators of the model, in execution order.")
	flagNoColor   = flag.Bool("no_color", false, "Disables colors and text attributes in the tables.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing model file to inspect. See 'tflite_inspect -help'")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'tflite_inspect -help'.")
		os.Exit(1)
	}
	if *flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	if err := report(os.Stdout, args[0]); err != nil {
		klog.Errorf("Failed to inspect %q: %+v", args[0], err)
		os.Exit(1)
	}
}
