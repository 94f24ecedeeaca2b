// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tflite

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/webnn2tflite/backends/shapeinference"
	"github.com/gomlx/webnn2tflite/backends/tflite/schema"
	"github.com/gomlx/webnn2tflite/pkg/webnn"
	"github.com/pkg/errors"
)

// newTensor can be given as the output of the op helpers, to have a new intermediate tensor created.
const newTensor int32 = -1

var (
	arithmeticOps = map[webnn.OpKind]schema.BuiltinOperator{
		webnn.OpKindAdd: schema.OpAdd,
		webnn.OpKindSub: schema.OpSub,
		webnn.OpKindMul: schema.OpMul,
		webnn.OpKindDiv: schema.OpDiv,
		webnn.OpKindMax: schema.OpMaximum,
		webnn.OpKindMin: schema.OpMinimum,
		webnn.OpKindPow: schema.OpPow,
	}

	comparisonOps = map[webnn.OpKind]schema.BuiltinOperator{
		webnn.OpKindEqual:          schema.OpEqual,
		webnn.OpKindGreater:        schema.OpGreater,
		webnn.OpKindGreaterOrEqual: schema.OpGreaterEqual,
		webnn.OpKindLesser:         schema.OpLess,
		webnn.OpKindLesserOrEqual:  schema.OpLessEqual,
	}

	// Logical operations work on booleans: xor is "not equal".
	logicalOps = map[webnn.OpKind]schema.BuiltinOperator{
		webnn.OpKindLogicalAnd: schema.OpLogicalAnd,
		webnn.OpKindLogicalOr:  schema.OpLogicalOr,
		webnn.OpKindLogicalXor: schema.OpNotEqual,
	}

	directUnaryOps = map[webnn.OpKind]schema.BuiltinOperator{
		webnn.OpKindAbs:   schema.OpAbs,
		webnn.OpKindCeil:  schema.OpCeil,
		webnn.OpKindCos:   schema.OpCos,
		webnn.OpKindExp:   schema.OpExp,
		webnn.OpKindFloor: schema.OpFloor,
		webnn.OpKindLog:   schema.OpLog,
		webnn.OpKindNeg:   schema.OpNeg,
		webnn.OpKindSign:  schema.OpSign,
		webnn.OpKindSin:   schema.OpSin,
		webnn.OpKindSqrt:  schema.OpSqrt,
	}
)

// Abramowitz and Stegun formula 7.1.26 coefficients for erf.
var (
	erfCoefficients = [5]float64{0.254829592, -0.284496736, 1.421413741, -1.453152027, 1.061405429}
	erfP            = 0.3275911
)

// binaryOp emits op(lhs, rhs) into out, or into a new tensor with the broadcast shape if out is newTensor.
func (b *builder) binaryOp(op schema.BuiltinOperator, lhs, rhs, out int32) (int32, error) {
	if out == newTensor {
		dims, err := shapeinference.BroadcastShapes(b.dims(lhs), b.dims(rhs))
		if err != nil {
			return 0, errors.WithMessagef(err, "%s", op)
		}
		out, err = b.newTemp(b.dtype(lhs), dims)
		if err != nil {
			return 0, err
		}
	}
	b.emit(op, []int32{lhs, rhs}, []int32{out}, nil)
	return out, nil
}

// unaryOp emits op(x) into out, or into a new tensor shaped like x if out is newTensor.
func (b *builder) unaryOp(op schema.BuiltinOperator, x, out int32) (int32, error) {
	if out == newTensor {
		return b.emitLike(op, x, []int32{x}, nil)
	}
	b.emit(op, []int32{x}, []int32{out}, nil)
	return out, nil
}

// scalarOp emits op(x, scalar) where the scalar has the dtype of x.
func (b *builder) scalarOp(op schema.BuiltinOperator, x int32, value float64, out int32) (int32, error) {
	s, err := b.scalar(b.dtype(x), value)
	if err != nil {
		return 0, err
	}
	return b.binaryOp(op, x, s, out)
}

// scalarLhsOp emits op(scalar, x) where the scalar has the dtype of x.
func (b *builder) scalarLhsOp(op schema.BuiltinOperator, value float64, x int32, out int32) (int32, error) {
	s, err := b.scalar(b.dtype(x), value)
	if err != nil {
		return 0, err
	}
	return b.binaryOp(op, s, x, out)
}

// linear emits alpha*x + beta as a multiplication and an addition by scalars.
func (b *builder) linear(x int32, alpha, beta float64, out int32) (int32, error) {
	scaled, err := b.scalarOp(schema.OpMul, x, alpha, newTensor)
	if err != nil {
		return 0, err
	}
	return b.scalarOp(schema.OpAdd, scaled, beta, out)
}

// castTo emits a CAST of x to dtype into a new tensor.
func (b *builder) castTo(x int32, dtype dtypes.DType) (int32, error) {
	return b.emitTemp(schema.OpCast, dtype, b.dims(x), []int32{x}, castOptions(b.dtype(x), dtype))
}

// emitCast emits a CAST of from into the existing tensor to.
func (b *builder) emitCast(from, to int32) {
	b.emit(schema.OpCast, []int32{from}, []int32{to}, castOptions(b.dtype(from), b.dtype(to)))
}

func castOptions(from, to dtypes.DType) *schema.CastOptions {
	return &schema.CastOptions{InDataType: tensorType(from), OutDataType: tensorType(to)}
}

func (b *builder) lowerElementwiseBinary(op *webnn.ElementwiseBinary) error {
	kind := op.Op
	b.checkDType(kind, webnn.SlotInput, op.Lhs, op.Rhs)
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	lhs, rhs, output := b.tensorOf(op.Lhs), b.tensorOf(op.Rhs), b.tensorOf(op.Output)

	if tfOp, found := arithmeticOps[kind]; found {
		_, err := b.binaryOp(tfOp, lhs, rhs, output)
		return err
	}
	if tfOp, found := comparisonOps[kind]; found {
		// TFLite comparisons produce booleans, the graph expects uint8.
		result, err := b.emitTemp(tfOp, dtypes.Bool, b.dims(output), []int32{lhs, rhs}, nil)
		if err != nil {
			return err
		}
		b.emitCast(result, output)
		return nil
	}
	if tfOp, found := logicalOps[kind]; found {
		lhsBool, err := b.castTo(lhs, dtypes.Bool)
		if err != nil {
			return err
		}
		rhsBool, err := b.castTo(rhs, dtypes.Bool)
		if err != nil {
			return err
		}
		result, err := b.emitTemp(tfOp, dtypes.Bool, b.dims(output), []int32{lhsBool, rhsBool}, nil)
		if err != nil {
			return err
		}
		b.emitCast(result, output)
		return nil
	}
	exceptions.Panicf("%s is not an element-wise binary operation", kind)
	return nil
}

func (b *builder) lowerElementwiseUnary(op *webnn.ElementwiseUnary) error {
	kind := op.Op
	b.checkInOut(kind, op.Input, op.Output)
	x, output := b.tensorOf(op.Input), b.tensorOf(op.Output)
	if tfOp, found := directUnaryOps[kind]; found {
		_, err := b.unaryOp(tfOp, x, output)
		return err
	}

	switch kind {
	case webnn.OpKindCast:
		b.emitCast(x, output)
		return nil
	case webnn.OpKindIdentity:
		return b.lowerReshape(kind, op.Input, op.Output)
	case webnn.OpKindLogicalNot:
		xBool, err := b.castTo(x, dtypes.Bool)
		if err != nil {
			return err
		}
		result, err := b.unaryOp(schema.OpLogicalNot, xBool, newTensor)
		if err != nil {
			return err
		}
		b.emitCast(result, output)
		return nil
	}

	if err := rejectFloat16(kind, b.dtype(x)); err != nil {
		return err
	}
	switch kind {
	case webnn.OpKindErf:
		return b.erf(x, output)
	case webnn.OpKindTan:
		sin, err := b.unaryOp(schema.OpSin, x, newTensor)
		if err != nil {
			return err
		}
		cos, err := b.unaryOp(schema.OpCos, x, newTensor)
		if err != nil {
			return err
		}
		_, err = b.binaryOp(schema.OpDiv, sin, cos, output)
		return err
	case webnn.OpKindReciprocal:
		_, err := b.scalarLhsOp(schema.OpDiv, 1, x, output)
		return err
	}
	exceptions.Panicf("%s is not an element-wise unary operation", kind)
	return nil
}

// erf emulates the error function with the Abramowitz and Stegun approximation (maximum error 1.5e-7):
//
//	erf(x) = sign(x) * (1 - (a1*t + a2*t^2 + a3*t^3 + a4*t^4 + a5*t^5) * exp(-x^2)), with t = 1/(1+p*|x|)
func (b *builder) erf(x, output int32) error {
	absX, err := b.unaryOp(schema.OpAbs, x, newTensor)
	if err != nil {
		return err
	}
	denominator, err := b.linear(absX, erfP, 1, newTensor)
	if err != nil {
		return err
	}
	t, err := b.scalarLhsOp(schema.OpDiv, 1, denominator, newTensor)
	if err != nil {
		return err
	}
	var polynomial int32
	for ii, coef := range erfCoefficients {
		power, err := b.scalarOp(schema.OpPow, t, float64(ii+1), newTensor)
		if err != nil {
			return err
		}
		term, err := b.scalarOp(schema.OpMul, power, coef, newTensor)
		if err != nil {
			return err
		}
		if ii == 0 {
			polynomial = term
			continue
		}
		polynomial, err = b.binaryOp(schema.OpAdd, polynomial, term, newTensor)
		if err != nil {
			return err
		}
	}
	squared, err := b.scalarOp(schema.OpPow, x, 2, newTensor)
	if err != nil {
		return err
	}
	negSquared, err := b.unaryOp(schema.OpNeg, squared, newTensor)
	if err != nil {
		return err
	}
	gaussian, err := b.unaryOp(schema.OpExp, negSquared, newTensor)
	if err != nil {
		return err
	}
	product, err := b.binaryOp(schema.OpMul, polynomial, gaussian, newTensor)
	if err != nil {
		return err
	}
	complement, err := b.scalarLhsOp(schema.OpSub, 1, product, newTensor)
	if err != nil {
		return err
	}
	sign, err := b.unaryOp(schema.OpSign, x, newTensor)
	if err != nil {
		return err
	}
	_, err = b.binaryOp(schema.OpMul, sign, complement, output)
	return err
}

func (b *builder) lowerWhere(op *webnn.Where) error {
	kind := op.Kind()
	b.checkDType(kind, webnn.SlotCondition, op.Condition)
	b.checkDType(kind, webnn.SlotInput, op.TrueValue, op.FalseValue)
	b.checkDType(kind, webnn.SlotOutput, op.Output)
	condition, err := b.castTo(b.tensorOf(op.Condition), dtypes.Bool)
	if err != nil {
		return err
	}
	b.emit(schema.OpSelectV2, []int32{condition, b.tensorOf(op.TrueValue), b.tensorOf(op.FalseValue)},
		[]int32{b.tensorOf(op.Output)}, nil)
	return nil
}
