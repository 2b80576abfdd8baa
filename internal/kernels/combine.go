// Elementwise combinations of matching buffers
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

func checkBinary(op string, a, b gocv.Mat, dst *gocv.Mat) error {
	if err := requireFilled(op, a); err != nil {
		return err
	}
	if err := requireFilled(op, b); err != nil {
		return err
	}
	if err := requireSameSize(op, a, b, false); err != nil {
		return err
	}
	if a.Channels() != b.Channels() {
		return errors.Wrapf(ErrChannels, "%s: %d vs %d channels", op, a.Channels(), b.Channels())
	}
	if dst == nil {
		return errors.Wrap(ErrEmpty, op+": nil destination")
	}
	return requireSameSize(op, a, *dst, true)
}

// AddWeighted computes dst = clamp(a*w1 + b*w2 + bias, 0, 255) elementwise.
func AddWeighted(a gocv.Mat, w1 float64, b gocv.Mat, w2 float64, bias float64, dst *gocv.Mat) error {
	const op = "add weighted"
	if err := checkBinary(op, a, b, dst); err != nil {
		return err
	}
	if err := gocv.AddWeighted(a, w1, b, w2, bias, dst); err != nil {
		return errors.Wrap(err, op)
	}
	return requireFilled(op, *dst)
}

// BitwiseAnd computes dst = a & b elementwise.
func BitwiseAnd(a, b gocv.Mat, dst *gocv.Mat) error {
	const op = "bitwise and"
	if err := checkBinary(op, a, b, dst); err != nil {
		return err
	}
	if err := gocv.BitwiseAnd(a, b, dst); err != nil {
		return errors.Wrap(err, op)
	}
	return requireFilled(op, *dst)
}

// Invert computes dst = 255 - src for every channel.
func Invert(src gocv.Mat, dst *gocv.Mat) error {
	const op = "invert"
	if err := checkUnary(op, src, dst); err != nil {
		return err
	}
	if err := gocv.BitwiseNot(src, dst); err != nil {
		return errors.Wrap(err, op)
	}
	return requireFilled(op, *dst)
}
