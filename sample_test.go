package png

import "testing"

// TestRescaleSamplePassthrough checks the s==t identity case.
func TestRescaleSamplePassthrough(t *testing.T) {
	if got := rescaleSample(5, 8, 8); got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

// TestRescaleSampleAllOnesMapToAllOnes is spec.md §8 test 7's sBIT law:
// an all-ones s-bit value maps to an all-ones t-bit value at any
// target depth, both widening and narrowing.
func TestRescaleSampleAllOnesMapToAllOnes(t *testing.T) {
	cases := []struct{ s, t int }{
		{1, 8}, {2, 8}, {4, 8}, {5, 8}, {8, 16}, {1, 16}, {8, 1}, {16, 8}, {5, 3},
	}
	for _, c := range cases {
		allOnes := uint32(1)<<uint(c.s) - 1
		want := uint32(1)<<uint(c.t) - 1
		got := rescaleSample(allOnes, c.s, c.t)
		if got != want {
			t.Fatalf("s=%d t=%d: got %d, want %d", c.s, c.t, got, want)
		}
	}
}

func TestRescaleSampleZeroMapsToZero(t *testing.T) {
	if got := rescaleSample(0, 3, 8); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if got := rescaleSample(0, 8, 3); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestScale8Replication(t *testing.T) {
	if got := scale8(0xFF, 16); got != 0xFFFF {
		t.Fatalf("got %#x, want 0xffff", got)
	}
	if got := scale8(0x00, 16); got != 0 {
		t.Fatalf("got %#x, want 0", got)
	}
}

// TestSampleAtSubByte checks 1/2/4-bit packed extraction, MSB-first
// within each byte.
func TestSampleAtSubByte(t *testing.T) {
	// One byte, bitDepth=1, eight 1-bit samples: 1 0 1 1 0 0 0 1 = 0xB1.
	row := []byte{0xB1}
	want := []uint32{1, 0, 1, 1, 0, 0, 0, 1}
	for col, w := range want {
		if got := sampleAt(row, 1, 1, col, 0); got != w {
			t.Fatalf("col %d: got %d, want %d", col, got, w)
		}
	}

	// bitDepth=4, two samples per byte: high nibble 0xA, low nibble 0x3.
	row4 := []byte{0xA3}
	if got := sampleAt(row4, 1, 4, 0, 0); got != 0xA {
		t.Fatalf("got %#x, want 0xa", got)
	}
	if got := sampleAt(row4, 1, 4, 1, 0); got != 0x3 {
		t.Fatalf("got %#x, want 0x3", got)
	}
}

func TestSampleAt16Bit(t *testing.T) {
	row := []byte{0x01, 0x02, 0x03, 0x04}
	if got := sampleAt(row, 2, 16, 0, 0); got != 0x0102 {
		t.Fatalf("got %#x, want 0x0102", got)
	}
	if got := sampleAt(row, 2, 16, 0, 1); got != 0x0304 {
		t.Fatalf("got %#x, want 0x0304", got)
	}
}

func TestDecodedImageSize(t *testing.T) {
	h := IHDR{Width: 3, Height: 3}
	if got := decodedImageSize(h, RGBA8); got != 36 {
		t.Fatalf("got %d, want 36", got)
	}
	if got := decodedImageSize(h, RGBA16); got != 72 {
		t.Fatalf("got %d, want 72", got)
	}
}

func TestProcessingDepth(t *testing.T) {
	cases := []struct {
		h    IHDR
		want int
	}{
		{IHDR{BitDepth: 4, ColorType: ColorGrayscale}, 4},
		{IHDR{BitDepth: 16, ColorType: ColorTrueColor}, 16},
		{IHDR{BitDepth: 8, ColorType: ColorIndexed}, 8},
		{IHDR{BitDepth: 1, ColorType: ColorIndexed}, 8},
	}
	for _, c := range cases {
		if got := processingDepth(c.h); got != c.want {
			t.Fatalf("%+v: got %d, want %d", c.h, got, c.want)
		}
	}
}
