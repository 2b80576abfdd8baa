package kernels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// createTestFrame builds an RGBA frame filled by fn.
func createTestFrame(t testing.TB, width, height int, fn func(x, y int) [4]uint8) gocv.Mat {
	t.Helper()
	m := NewDisplay(width, height)
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := fn(x, y)
			copy(data[(y*width+x)*4:], px[:])
		}
	}
	return m
}

func flat(r, g, b, a uint8) func(int, int) [4]uint8 {
	return func(int, int) [4]uint8 { return [4]uint8{r, g, b, a} }
}

func checker(x, y int) [4]uint8 {
	if (x/4+y/4)%2 == 0 {
		return [4]uint8{250, 240, 230, 255}
	}
	return [4]uint8{10, 20, 30, 255}
}

func bytesOf(t testing.TB, m gocv.Mat) []uint8 {
	t.Helper()
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	return data
}

func TestGrayscale(t *testing.T) {
	src := createTestFrame(t, 16, 8, flat(255, 255, 255, 255))
	defer src.Close()
	dst := NewIntensity(16, 8)
	defer dst.Close()

	require.NoError(t, Grayscale(src, &dst))
	assert.Equal(t, 1, dst.Channels())
	for _, v := range bytesOf(t, dst) {
		assert.Equal(t, uint8(255), v)
	}
}

func TestGrayscale_RejectsIntensityInput(t *testing.T) {
	src := NewIntensity(8, 8)
	defer src.Close()
	dst := NewIntensity(8, 8)
	defer dst.Close()

	err := Grayscale(src, &dst)
	assert.ErrorIs(t, err, ErrChannels)
}

func TestExpandToRGBA(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(77, 0, 0, 0), 4, 6, gocv.MatTypeCV8UC1)
	defer src.Close()
	dst := NewDisplay(6, 4)
	defer dst.Close()

	require.NoError(t, ExpandToRGBA(src, &dst))
	data := bytesOf(t, dst)
	for i := 0; i < len(data); i += 4 {
		assert.Equal(t, []uint8{77, 77, 77, 255}, data[i:i+4])
	}
}

func TestShapeMismatch(t *testing.T) {
	src := createTestFrame(t, 16, 8, checker)
	defer src.Close()
	wrong := NewIntensity(8, 8)
	defer wrong.Close()

	tests := []struct {
		name string
		run  func() error
	}{
		{"grayscale", func() error { return Grayscale(src, &wrong) }},
		{"gaussian", func() error { return GaussianBlur(src, &wrong, 5, 0) }},
		{"median", func() error { return MedianBlur(src, &wrong, 7) }},
		{"filter2d", func() error { return Filter2D(src, &wrong, SharpenKernel) }},
		{"bitwise and", func() error { return BitwiseAnd(src, wrong, &wrong) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), ErrShapeMismatch)
		})
	}
}

func TestKernelSizeValidation(t *testing.T) {
	src := NewIntensity(8, 8)
	defer src.Close()
	dst := NewIntensity(8, 8)
	defer dst.Close()

	for _, ksize := range []int{-3, 0, 1, 2, 4} {
		assert.ErrorIs(t, GaussianBlur(src, &dst, ksize, 0), ErrKernelSize, "ksize %d", ksize)
		assert.ErrorIs(t, MedianBlur(src, &dst, ksize), ErrKernelSize, "ksize %d", ksize)
		assert.ErrorIs(t, AdaptiveThreshold(src, &dst, ksize, 2), ErrKernelSize, "ksize %d", ksize)
	}

	bad := Kernel{Size: 3, Weights: []float32{1, 2, 3}}
	assert.ErrorIs(t, Filter2D(src, &dst, bad), ErrKernelSize)
}

func TestEmptyOperand(t *testing.T) {
	src := gocv.NewMat()
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()

	assert.ErrorIs(t, Grayscale(src, &dst), ErrEmpty)
	assert.ErrorIs(t, PyrDown(src, &dst), ErrEmpty)
	assert.ErrorIs(t, Posterize(&dst, 4), ErrEmpty)
}

func TestBlursPreserveDimensions(t *testing.T) {
	src := createTestFrame(t, 33, 17, checker)
	defer src.Close()

	dst := NewDisplay(33, 17)
	defer dst.Close()
	require.NoError(t, GaussianBlur(src, &dst, 5, 0))
	assert.True(t, SameShape(src, dst))

	require.NoError(t, MedianBlur(src, &dst, 7))
	assert.True(t, SameShape(src, dst))
}

func TestFilter2D_FlatRegions(t *testing.T) {
	tests := []struct {
		name   string
		kernel Kernel
		input  uint8
		want   uint8
	}{
		{"sharpen is identity on flat input", SharpenKernel, 90, 90},
		{"sharpen keeps black", SharpenKernel, 0, 0},
		{"emboss yields bias", EmbossKernel, 200, 128},
		{"emboss yields bias on black", EmbossKernel, 0, 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(tt.input), 0, 0, 0), 12, 12, gocv.MatTypeCV8UC1)
			defer src.Close()
			dst := NewIntensity(12, 12)
			defer dst.Close()

			require.NoError(t, Filter2D(src, &dst, tt.kernel))
			for _, v := range bytesOf(t, dst) {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}

func TestKernelSums(t *testing.T) {
	assert.Equal(t, float32(1), SharpenKernel.Sum())
	assert.Equal(t, float32(0), EmbossKernel.Sum())
	assert.NoError(t, SharpenKernel.Validate())
	assert.NoError(t, EmbossKernel.Validate())
}

func TestFilter2D_Clamps(t *testing.T) {
	// A bright pixel surrounded by black saturates under the sharpen kernel.
	src := NewIntensity(5, 5)
	defer src.Close()
	src.SetUCharAt(2, 2, 200)
	dst := NewIntensity(5, 5)
	defer dst.Close()

	require.NoError(t, Filter2D(src, &dst, SharpenKernel))
	assert.Equal(t, uint8(255), dst.GetUCharAt(2, 2))
	assert.Equal(t, uint8(0), dst.GetUCharAt(2, 1))
}

func TestSobel(t *testing.T) {
	// Vertical step: Gx responds, Gy stays flat.
	src := NewIntensity(16, 16)
	defer src.Close()
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			src.SetUCharAt(y, x, 100)
		}
	}
	wide := gocv.NewMat()
	defer wide.Close()
	gx := NewIntensity(16, 16)
	defer gx.Close()
	gy := NewIntensity(16, 16)
	defer gy.Close()

	require.NoError(t, Sobel(src, &wide, &gx, Horizontal))
	require.NoError(t, Sobel(src, &wide, &gy, Vertical))

	assert.Equal(t, uint8(255), gx.GetUCharAt(8, 8), "|4*100| saturates")
	assert.Equal(t, uint8(0), gx.GetUCharAt(8, 2))
	assert.Equal(t, uint8(0), gy.GetUCharAt(8, 8))
}

func TestCanny_FlatInputHasNoEdges(t *testing.T) {
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(140, 0, 0, 0), 24, 24, gocv.MatTypeCV8UC1)
	defer src.Close()
	dst := NewIntensity(24, 24)
	defer dst.Close()

	require.NoError(t, Canny(src, &dst, 50, 150))
	assert.Equal(t, 0, gocv.CountNonZero(dst))
}

func TestCanny_StepHasEdges(t *testing.T) {
	src := NewIntensity(24, 24)
	defer src.Close()
	for y := 0; y < 24; y++ {
		for x := 12; x < 24; x++ {
			src.SetUCharAt(y, x, 255)
		}
	}
	dst := NewIntensity(24, 24)
	defer dst.Close()

	require.NoError(t, Canny(src, &dst, 50, 150))
	assert.Greater(t, gocv.CountNonZero(dst), 0)
	for _, v := range bytesOf(t, dst) {
		assert.True(t, v == 0 || v == 255)
	}
}

func TestAdaptiveThreshold_Binary(t *testing.T) {
	src := createTestFrame(t, 32, 32, checker)
	defer src.Close()
	gray := NewIntensity(32, 32)
	defer gray.Close()
	require.NoError(t, Grayscale(src, &gray))

	dst := NewIntensity(32, 32)
	defer dst.Close()
	require.NoError(t, AdaptiveThreshold(gray, &dst, 9, 2))
	for _, v := range bytesOf(t, dst) {
		assert.True(t, v == 0 || v == 255)
	}
}

func TestAdaptiveThreshold_FlatIsWhite(t *testing.T) {
	// value > mean - 2 holds everywhere on a flat input.
	src := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(60, 0, 0, 0), 16, 16, gocv.MatTypeCV8UC1)
	defer src.Close()
	dst := NewIntensity(16, 16)
	defer dst.Close()

	require.NoError(t, AdaptiveThreshold(src, &dst, 9, 2))
	assert.Equal(t, 16*16, gocv.CountNonZero(dst))
}

// A 16-bit single-channel buffer passes the channel checks but is rejected
// inside OpenCV; the failure must surface instead of leaving dst untouched.
func TestOpenCVFailuresSurface(t *testing.T) {
	wide := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(1000, 0, 0, 0), 16, 16, gocv.MatTypeCV16SC1)
	defer wide.Close()

	tests := []struct {
		name string
		run  func(dst *gocv.Mat) error
	}{
		{"adaptive threshold", func(dst *gocv.Mat) error { return AdaptiveThreshold(wide, dst, 9, 2) }},
		{"median blur", func(dst *gocv.Mat) error { return MedianBlur(wide, dst, 7) }},
		{"canny", func(dst *gocv.Mat) error { return Canny(wide, dst, 50, 150) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := NewIntensity(16, 16)
			defer dst.Close()
			assert.Error(t, tt.run(&dst))
		})
	}
}

func TestPyramidRoundTrip(t *testing.T) {
	src := createTestFrame(t, 63, 47, checker)
	defer src.Close()

	half := gocv.NewMat()
	defer half.Close()
	require.NoError(t, PyrDown(src, &half))
	w, h := PyrDownSize(63, 47)
	assert.Equal(t, []int{w, h}, []int{half.Cols(), half.Rows()})
	assert.Equal(t, []int{32, 24}, []int{w, h})

	up := gocv.NewMat()
	defer up.Close()
	require.NoError(t, PyrUp(half, &up))
	assert.Equal(t, []int{64, 48}, []int{up.Cols(), up.Rows()})

	fixed := gocv.NewMat()
	defer fixed.Close()
	require.NoError(t, ResizeTo(up, &fixed, 63, 47))
	assert.True(t, SameShape(src, fixed))
}

func TestPyrDown_RejectsWrongDestination(t *testing.T) {
	src := createTestFrame(t, 16, 16, checker)
	defer src.Close()
	dst := NewDisplay(16, 16)
	defer dst.Close()

	assert.ErrorIs(t, PyrDown(src, &dst), ErrShapeMismatch)
}

func TestBitwiseAndInvert(t *testing.T) {
	a := createTestFrame(t, 4, 4, flat(0xF0, 0x0F, 0xFF, 0xFF))
	defer a.Close()
	b := createTestFrame(t, 4, 4, flat(0x3C, 0x3C, 0x00, 0xFF))
	defer b.Close()
	dst := NewDisplay(4, 4)
	defer dst.Close()

	require.NoError(t, BitwiseAnd(a, b, &dst))
	assert.Equal(t, []uint8{0x30, 0x0C, 0x00, 0xFF}, bytesOf(t, dst)[:4])

	inv := NewDisplay(4, 4)
	defer inv.Close()
	require.NoError(t, Invert(b, &inv))
	assert.Equal(t, []uint8{0xC3, 0xC3, 0xFF, 0x00}, bytesOf(t, inv)[:4])
}

func TestAddWeighted(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(100, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	defer a.Close()
	b := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(50, 0, 0, 0), 4, 4, gocv.MatTypeCV8UC1)
	defer b.Close()
	dst := NewIntensity(4, 4)
	defer dst.Close()

	require.NoError(t, AddWeighted(a, 0.5, b, 0.5, 0, &dst))
	assert.Equal(t, uint8(75), dst.GetUCharAt(0, 0))

	require.NoError(t, AddWeighted(a, 2, b, 2, 10, &dst))
	assert.Equal(t, uint8(255), dst.GetUCharAt(3, 3))
}

func TestQuantizeValue(t *testing.T) {
	for v := 0; v < 256; v++ {
		got := QuantizeValue(uint8(v), 4)
		assert.Equal(t, uint8(v/64*64+32), got)
		assert.Contains(t, []uint8{32, 96, 160, 224}, got)
	}
}

func TestPosterize(t *testing.T) {
	src := createTestFrame(t, 16, 16, func(x, y int) [4]uint8 {
		v := uint8(y*16 + x)
		return [4]uint8{v, 255 - v, v / 2, v}
	})
	defer src.Close()
	original := append([]uint8(nil), bytesOf(t, src)...)

	require.NoError(t, Posterize(&src, 4))
	data := bytesOf(t, src)
	for i := 0; i < len(data); i += 4 {
		for c := 0; c < 3; c++ {
			assert.Equal(t, original[i+c]/64*64+32, data[i+c])
		}
		assert.Equal(t, original[i+3], data[i+3], "alpha must pass through")
	}

	once := append([]uint8(nil), data...)
	require.NoError(t, Posterize(&src, 4))
	assert.Equal(t, once, bytesOf(t, src))
}

func TestPosterize_InvalidLevels(t *testing.T) {
	buf := NewDisplay(2, 2)
	defer buf.Close()
	for _, levels := range []int{0, 1, 3, 256} {
		assert.Error(t, Posterize(&buf, levels), "levels %d", levels)
	}
}

func BenchmarkGaussianBlur(b *testing.B) {
	src := createTestFrame(b, 640, 480, checker)
	defer src.Close()
	gray := NewIntensity(640, 480)
	defer gray.Close()
	if err := Grayscale(src, &gray); err != nil {
		b.Fatal(err)
	}
	dst := NewIntensity(640, 480)
	defer dst.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := GaussianBlur(gray, &dst, 5, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPosterize(b *testing.B) {
	buf := createTestFrame(b, 640, 480, checker)
	defer buf.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := Posterize(&buf, 4); err != nil {
			b.Fatal(err)
		}
	}
}
