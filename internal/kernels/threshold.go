// Thresholding and quantization kernels
package kernels

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// AdaptiveThreshold sets each sample of a 1-channel src to 255 when it exceeds
// the mean of its blockSize×blockSize neighbourhood minus c, and to 0
// otherwise.
func AdaptiveThreshold(src gocv.Mat, dst *gocv.Mat, blockSize int, c float32) error {
	const op = "adaptive threshold"
	if err := requireOddSize(op, blockSize); err != nil {
		return err
	}
	if err := checkUnary(op, src, dst, Intensity); err != nil {
		return err
	}
	if err := gocv.AdaptiveThreshold(src, dst, 255, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, blockSize, c); err != nil {
		return errors.Wrap(err, op)
	}
	return requireSameSize(op, src, *dst, false)
}

// QuantizeValue maps v onto the center of its bin when 0..255 is split into
// levels equal bins.
func QuantizeValue(v uint8, levels int) uint8 {
	bin := 256 / levels
	return uint8(int(v)/bin*bin + bin/2)
}

// Posterize quantizes every color channel of an RGBA buffer in place to levels
// bins per channel. The alpha channel is left untouched. levels must divide
// 256 and lie in [2, 128].
func Posterize(buf *gocv.Mat, levels int) error {
	const op = "posterize"
	if buf == nil {
		return errors.Wrap(ErrEmpty, op+": nil buffer")
	}
	if err := requireFilled(op, *buf); err != nil {
		return err
	}
	if err := requireChannels(op, *buf, Display); err != nil {
		return err
	}
	if levels < 2 || levels > 128 || 256%levels != 0 {
		return errors.Errorf("%s: unsupported level count %d", op, levels)
	}

	data, err := buf.DataPtrUint8()
	if err != nil {
		return errors.Wrap(err, op)
	}

	var table [256]uint8
	for v := range table {
		table[v] = QuantizeValue(uint8(v), levels)
	}
	for i := 0; i+3 < len(data); i += Display {
		data[i] = table[data[i]]
		data[i+1] = table[data[i+1]]
		data[i+2] = table[data[i+2]]
	}
	return nil
}
