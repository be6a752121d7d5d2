package png

import "testing"

// TestSubimagesCoverAllPixelsOnce checks that, for a range of image
// sizes, the seven Adam7 passes partition every pixel exactly once —
// the property the scanline pipeline depends on to reconstruct a full
// image from its interlaced passes.
func TestSubimagesCoverAllPixelsOnce(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 2}, {3, 3}, {5, 5}, {8, 8}, {9, 7}, {1, 100}, {100, 1}}
	for _, sz := range sizes {
		w, h := sz[0], sz[1]
		counts := make([][]int, h)
		for i := range counts {
			counts[i] = make([]int, w)
		}
		for _, sub := range subimages(w, h, 1) {
			geo := passGeometry(sub.pass)
			for row := 0; row < sub.height; row++ {
				y := geo.yStart + row*geo.yDelta
				for k := 0; k < sub.width; k++ {
					x := geo.xStart + k*geo.xDelta
					counts[y][x]++
				}
			}
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if counts[y][x] != 1 {
					t.Fatalf("size %dx%d: pixel (%d,%d) covered %d times, want 1", w, h, x, y, counts[y][x])
				}
			}
		}
	}
}

// TestSubimagesNonInterlaced checks that interlace method 0 returns the
// single full-image subimage untouched by the Adam7 table.
func TestSubimagesNonInterlaced(t *testing.T) {
	subs := subimages(10, 20, 0)
	if len(subs) != 1 {
		t.Fatalf("got %d subimages, want 1", len(subs))
	}
	if subs[0].width != 10 || subs[0].height != 20 || subs[0].pass != 0 {
		t.Fatalf("unexpected subimage: %+v", subs[0])
	}
}

// TestSubimages3x3KnownGeometry pins the 3x3 case spec.md §8 scenario
// S5 decodes, against hand-computed pass dimensions, independent of
// how subimages happens to be implemented.
func TestSubimages3x3KnownGeometry(t *testing.T) {
	want := map[int][2]int{1: {1, 1}, 4: {1, 1}, 5: {2, 1}, 6: {1, 2}, 7: {3, 1}}
	got := subimages(3, 3, 1)
	if len(got) != len(want) {
		t.Fatalf("got %d non-empty passes, want %d", len(got), len(want))
	}
	for _, sub := range got {
		dims, ok := want[sub.pass]
		if !ok {
			t.Fatalf("unexpected pass %d present", sub.pass)
		}
		if sub.width != dims[0] || sub.height != dims[1] {
			t.Fatalf("pass %d: got %dx%d, want %dx%d", sub.pass, sub.width, sub.height, dims[0], dims[1])
		}
	}
}

func TestBytesPerPixelFloorsToOne(t *testing.T) {
	if bytesPerPixel(1, 1) != 1 {
		t.Fatalf("1 channel at 1 bit depth should floor to bpp=1")
	}
	if bytesPerPixel(3, 8) != 3 {
		t.Fatalf("3 channels at 8 bits should be bpp=3")
	}
	if bytesPerPixel(4, 16) != 8 {
		t.Fatalf("4 channels at 16 bits should be bpp=8")
	}
}

func TestScanlineByteWidth(t *testing.T) {
	cases := []struct {
		width, channels, bitDepth, want int
	}{
		{8, 1, 1, 2},  // 8 bits packed + 1 filter byte
		{1, 1, 1, 2},  // 1 bit rounds up to a whole byte + filter byte
		{3, 3, 8, 10}, // 9 sample bytes + filter byte
		{2, 4, 16, 17},
	}
	for _, c := range cases {
		got := scanlineByteWidth(c.width, c.channels, c.bitDepth)
		if got != c.want {
			t.Fatalf("scanlineByteWidth(%d,%d,%d) = %d, want %d", c.width, c.channels, c.bitDepth, got, c.want)
		}
	}
}
