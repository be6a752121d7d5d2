package png

import "testing"

// TestDecodeS1GrayscaleSinglePixel is spec.md §8 scenario S1.
func TestDecodeS1GrayscaleSinglePixel(t *testing.T) {
	buf := onePixelGrayscalePNG(0x80)

	ctx := NewContext()
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}

	size, err := ctx.DecodedImageSize(RGBA8)
	if err != nil {
		t.Fatalf("DecodedImageSize: %v", err)
	}
	if size != 4 {
		t.Fatalf("got size %d, want 4", size)
	}

	out := make([]byte, size)
	if err := ctx.DecodeImage(out, RGBA8, AllFlags); err != nil {
		t.Fatalf("DecodeImage: %+v", err)
	}
	want := []byte{0x80, 0x80, 0x80, 0xFF}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, out[i], want[i])
		}
	}
}

// TestSignatureDiscrimination is spec.md §8 test 1.
func TestSignatureDiscrimination(t *testing.T) {
	ctx := NewContext()
	if err := ctx.SetSourceBuffer([]byte("definitely not a png")); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	err := ctx.DecodeImage(out, RGBA8, 0)
	if !Is(err, ESignature) {
		t.Fatalf("expected ESignature, got %v", err)
	}
}

// TestHeaderIdempotence is spec.md §8 test 2.
func TestHeaderIdempotence(t *testing.T) {
	buf := onePixelGrayscalePNG(0x11)
	ctx := NewContext()
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	h1, err := ctx.GetHeader()
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	h2, err := ctx.GetHeader()
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("GetHeader not idempotent: %+v != %+v", h1, h2)
	}
}

// TestDecodeS3TruncatedStillHasHeader is spec.md §8 scenario S3: a
// stream cut right after IHDR's CRC, with no IDAT at all, fails
// DecodeImage with ESourceEnd while GetHeader still succeeds.
func TestDecodeS3TruncatedStillHasHeader(t *testing.T) {
	full := onePixelGrayscalePNG(0x42)
	truncated := full[:33] // signature(8) + IHDR chunk(8+13+4) = 33 bytes

	ctx := NewContext()
	if err := ctx.SetSourceBuffer(truncated); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	h, err := ctx.GetHeader()
	if err != nil {
		t.Fatalf("GetHeader: %v", err)
	}
	if h.Width != 1 || h.Height != 1 {
		t.Fatalf("unexpected header: %+v", h)
	}

	out := make([]byte, 4)
	err = ctx.DecodeImage(out, RGBA8, 0)
	if !Is(err, ESourceEnd) {
		t.Fatalf("expected ESourceEnd, got %v", err)
	}
}

// TestDecodeS4CRCEnforcement is spec.md §8 scenario S4.
func TestDecodeS4CRCEnforcement(t *testing.T) {
	base := onePixelGrayscalePNG(0x7A)
	corrupted := append([]byte(nil), base...)
	corrupted[32] ^= 1 // last byte of IHDR's trailing CRC

	// Default policy: CRC mismatch fails the read.
	ctx := NewContext()
	if err := ctx.SetSourceBuffer(corrupted); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out0 := make([]byte, 4)
	if err := ctx.DecodeImage(out0, RGBA8, 0); !Is(err, EChunkCrc) {
		t.Fatalf("expected EChunkCrc, got %v", err)
	}

	// Skip policy for critical chunks: the same bytes decode cleanly.
	ctx2 := NewContext(WithCRCPolicy(CRCPolicy{Critical: CRCSkip, Ancillary: CRCUse}))
	if err := ctx2.SetSourceBuffer(corrupted); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	if err := ctx2.DecodeImage(out, RGBA8, 0); err != nil {
		t.Fatalf("DecodeImage with CRCSkip: %+v", err)
	}
	if out[0] != 0x7A {
		t.Fatalf("got %#x, want 0x7a", out[0])
	}
}

// TestDecodeS5InterlacedConstantColor is spec.md §8 scenario S5: a 3x3
// interlaced TrueColor image of a single constant colour decodes to
// that colour at every pixel regardless of which Adam7 pass produced
// it.
func TestDecodeS5InterlacedConstantColor(t *testing.T) {
	// Pass geometry for a 3x3 image, computed independently of adam7.go
	// (see DESIGN.md): passes 1,4,5,6,7 are non-empty with dimensions
	// 1x1, 1x1, 2x1, 1x2, 3x1 respectively.
	passDims := [][2]int{{1, 1}, {1, 1}, {2, 1}, {1, 2}, {3, 1}}
	px := []byte{128, 64, 32}

	var raw []byte
	for _, d := range passDims {
		w, h := d[0], d[1]
		for row := 0; row < h; row++ {
			raw = append(raw, 0x00) // filter None
			for k := 0; k < w; k++ {
				raw = append(raw, px...)
			}
		}
	}

	idat := deflateBytes(raw)
	buf := encodePNG([]testChunk{
		{"IHDR", ihdrPayload(3, 3, 8, ColorTrueColor, 1)},
		{"IDAT", idat},
		{"IEND", nil},
	})

	ctx := NewContext()
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	size, err := ctx.DecodedImageSize(RGBA8)
	if err != nil {
		t.Fatalf("DecodedImageSize: %v", err)
	}
	if size != 36 {
		t.Fatalf("got size %d, want 36", size)
	}
	out := make([]byte, size)
	if err := ctx.DecodeImage(out, RGBA8, 0); err != nil {
		t.Fatalf("DecodeImage: %+v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			off := (y*3 + x) * 4
			want := []byte{128, 64, 32, 255}
			for i, w := range want {
				if out[off+i] != w {
					t.Fatalf("pixel (%d,%d) byte %d = %d, want %d", x, y, i, out[off+i], w)
				}
			}
		}
	}
}

// TestDecodeS6PaletteIndexOutOfRange is spec.md §8 scenario S6.
func TestDecodeS6PaletteIndexOutOfRange(t *testing.T) {
	raw := []byte{0x00, 5} // filter None, index 5 with only 1 palette entry
	idat := deflateBytes(raw)
	buf := encodePNG([]testChunk{
		{"IHDR", ihdrPayload(1, 1, 8, ColorIndexed, 0)},
		{"PLTE", []byte{10, 20, 30}},
		{"IDAT", idat},
		{"IEND", nil},
	})

	ctx := NewContext()
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	err := ctx.DecodeImage(out, RGBA8, 0)
	if !Is(err, EPlteIdx) {
		t.Fatalf("expected EPlteIdx, got %v", err)
	}

	err = ctx.DecodeImage(out, RGBA8, 0)
	if !Is(err, EBadState) {
		t.Fatalf("expected EBadState on retry, got %v", err)
	}
}

// TestSetSourceBufferExactlyOnce checks spec.md §4.6's "exactly once"
// rule on SetSourceBuffer/SetSourceStream.
func TestSetSourceBufferExactlyOnce(t *testing.T) {
	ctx := NewContext()
	if err := ctx.SetSourceBuffer(onePixelGrayscalePNG(1)); err != nil {
		t.Fatalf("first SetSourceBuffer: %v", err)
	}
	if err := ctx.SetSourceBuffer(onePixelGrayscalePNG(2)); !Is(err, EBufferAlreadySet) {
		t.Fatalf("expected EBufferAlreadySet, got %v", err)
	}
}

// TestGetChunkUnavailable checks that a chunk never present in the
// stream reports ChunkUnavailable rather than a zero value silently.
func TestGetChunkUnavailable(t *testing.T) {
	ctx := NewContext()
	if err := ctx.SetSourceBuffer(onePixelGrayscalePNG(1)); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	if _, err := ctx.GetPalette(); !Is(err, EChunkUnavailable) {
		t.Fatalf("expected EChunkUnavailable, got %v", err)
	}
}

// TestChunkLimitsMaxChunkBytesRejectsOversizedChunk checks
// set_chunk_limits's max_chunk_bytes axis: a tEXt chunk larger than the
// configured cap fails the chunk read outright with EChunkSize.
func TestChunkLimitsMaxChunkBytesRejectsOversizedChunk(t *testing.T) {
	text := append([]byte("Comment\x00"), make([]byte, 32)...)
	buf := encodePNG([]testChunk{
		{"IHDR", ihdrPayload(1, 1, 8, ColorGrayscale, 0)},
		{"tEXt", text},
		{"IDAT", deflateBytes([]byte{0x00, 0x01})},
		{"IEND", nil},
	})

	// MaxChunkBytes is sized to admit IHDR's own 13-byte payload (also
	// subject to the same per-chunk cap) but not the larger tEXt chunk.
	ctx := NewContext(WithChunkLimits(ChunkLimits{MaxChunkBytes: 20, CacheBytes: defaultCacheBytes}))
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	if err := ctx.DecodeImage(out, RGBA8, 0); !Is(err, EChunkSize) {
		t.Fatalf("expected EChunkSize, got %v", err)
	}
}

// TestChunkLimitsCacheBytesSkipsWithoutError checks set_chunk_limits's
// cache_bytes axis: a tEXt chunk that would overflow a tiny cache budget
// is silently skipped (decoding still succeeds; the chunk is simply
// never recorded), per spec.md §5.
func TestChunkLimitsCacheBytesSkipsWithoutError(t *testing.T) {
	text := append([]byte("Comment\x00"), []byte("hello world")...)
	buf := encodePNG([]testChunk{
		{"IHDR", ihdrPayload(1, 1, 8, ColorGrayscale, 0)},
		{"tEXt", text},
		{"IDAT", deflateBytes([]byte{0x00, 0x01})},
		{"IEND", nil},
	})

	// CacheBytes is sized to fit IHDR's own 13-byte payload (also subject
	// to the same cache accounting) but not the much larger tEXt chunk.
	ctx := NewContext(WithChunkLimits(ChunkLimits{MaxChunkBytes: defaultMaxChunkBytes, CacheBytes: 15}))
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	if err := ctx.DecodeImage(out, RGBA8, 0); err != nil {
		t.Fatalf("DecodeImage: %+v", err)
	}
	if _, err := ctx.GetText(); !Is(err, EChunkUnavailable) {
		t.Fatalf("expected the oversized-for-cache tEXt chunk to be skipped, got %v", err)
	}
}

// TestDecodeAlphaSbitRescale checks that the GrayscaleAlpha/TrueColorAlpha
// branches rescale alpha through sBIT exactly like every other channel:
// an 8-bit image with sBIT{Alpha: 1} must bit-replicate a raw alpha
// sample of 1 up to 0xFF, not pass it through unrescaled.
func TestDecodeAlphaSbitRescale(t *testing.T) {
	// filter None, gray=0x80, alpha=0x80: sBIT{Alpha:1} takes the raw
	// byte's top bit (the one significant bit, PNG's left-justified
	// convention) as the 1-bit value 1, then replicates it across all 8
	// output bits.
	raw := []byte{0x00, 0x80, 0x80}
	buf := encodePNG([]testChunk{
		{"IHDR", ihdrPayload(1, 1, 8, ColorGrayscaleAlpha, 0)},
		{"sBIT", []byte{8, 1}}, // grayscale=8 (passthrough), alpha=1
		{"IDAT", deflateBytes(raw)},
		{"IEND", nil},
	})

	ctx := NewContext()
	if err := ctx.SetSourceBuffer(buf); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	out := make([]byte, 4)
	if err := ctx.DecodeImage(out, RGBA8, UseSbit); err != nil {
		t.Fatalf("DecodeImage: %+v", err)
	}
	if out[3] != 0xFF {
		t.Fatalf("alpha = %#x, want 0xff (sBIT alpha=1 bit-replicated)", out[3])
	}
}

// TestImageWrapper checks the image.Image convenience accessor against
// the same S1 fixture.
func TestImageWrapper(t *testing.T) {
	ctx := NewContext()
	if err := ctx.SetSourceBuffer(onePixelGrayscalePNG(0x80)); err != nil {
		t.Fatalf("SetSourceBuffer: %v", err)
	}
	img, err := ctx.Image(RGBA8)
	if err != nil {
		t.Fatalf("Image: %+v", err)
	}
	if img.Bounds().Dx() != 1 || img.Bounds().Dy() != 1 {
		t.Fatalf("unexpected bounds: %+v", img.Bounds())
	}
}
