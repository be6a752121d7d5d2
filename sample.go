package png

// rescaleSample rescales an s-bit value x to a t-bit value, per spec.md
// §4.5's sBIT law: passthrough when s==t, a right shift when narrowing,
// and left-bit replication (MSBs repeating down into the newly opened
// low bits) when widening, so that an all-ones input maps to an
// all-ones output at any target depth.
func rescaleSample(x uint32, s, t int) uint32 {
	if s == t {
		return x
	}
	if t < s {
		return x >> uint(s-t)
	}
	var result uint32
	n := t
	for n > 0 {
		if n >= s {
			result = (result << uint(s)) | x
			n -= s
		} else {
			result = (result << uint(n)) | (x >> uint(s-n))
			n = 0
		}
	}
	return result
}

// sbitRescale rescales a raw sample extracted at bitDepth down to its s
// significant bits (PNG stores significant bits left-justified within
// the full sample width) and then up or down to the t-bit target.
func sbitRescale(raw uint32, bitDepth, s, t int) uint32 {
	if s < bitDepth {
		raw >>= uint(bitDepth - s)
	}
	return rescaleSample(raw, s, t)
}

// scale8 widens an 8-bit component (a palette byte, a trns alpha byte)
// to the t-bit output range by replication, same law as rescaleSample
// specialized for a known 8-bit source.
func scale8(v uint8, t int) uint32 {
	return rescaleSample(uint32(v), 8, t)
}

// sampleAt extracts the raw sample for column col, channel ch from a
// defiltered scanline (filter byte already stripped), per spec.md §4.5's
// packed-sample and big-endian-u16 extraction rules.
func sampleAt(row []byte, channels, bitDepth, col, ch int) uint32 {
	if bitDepth < 8 {
		k := col
		samplesPerByte := 8 / bitDepth
		byteIdx := k / samplesPerByte
		shift := 8 - bitDepth - (k%samplesPerByte)*bitDepth
		mask := (1 << uint(bitDepth)) - 1
		return uint32(row[byteIdx]>>uint(shift)) & uint32(mask)
	}
	bytesPerSample := bitDepth / 8
	idx := (col*channels + ch) * bytesPerSample
	if bytesPerSample == 1 {
		return uint32(row[idx])
	}
	return uint32(row[idx])<<8 | uint32(row[idx+1])
}

// OutputFormat selects decode_image's pixel layout, per spec.md §4.6.
type OutputFormat int

const (
	RGBA8 OutputFormat = iota
	RGBA16
)

func pixelSize(format OutputFormat) int {
	if format == RGBA16 {
		return 8
	}
	return 4
}

// decodedImageSize is pixel_size(fmt) x width x height, per spec.md §8
// test 5.
func decodedImageSize(h IHDR, format OutputFormat) uint64 {
	return uint64(pixelSize(format)) * uint64(h.Width) * uint64(h.Height)
}

// processingDepth is spec.md §4.5's rule: 16 for 16-bit source samples,
// 8 for Indexed (palette components are always byte-wide), the source
// bit depth otherwise.
func processingDepth(h IHDR) int {
	switch {
	case h.BitDepth == 16:
		return 16
	case h.ColorType == ColorIndexed:
		return 8
	default:
		return int(h.BitDepth)
	}
}

// defaultSBIT returns the per-channel significant-bit counts used when
// no sBIT chunk is in effect: the source bit depth for every channel,
// or 8 for Indexed images (palette components are byte-wide).
func defaultSBIT(h IHDR) SBIT {
	d := h.BitDepth
	switch h.ColorType {
	case ColorGrayscale:
		return SBIT{Kind: SBITGray, Grayscale: d}
	case ColorTrueColor:
		return SBIT{Kind: SBITColor, Red: d, Green: d, Blue: d}
	case ColorIndexed:
		return SBIT{Kind: SBITIndexed, Red: 8, Green: 8, Blue: 8}
	case ColorGrayscaleAlpha:
		return SBIT{Kind: SBITGrayAlpha, Grayscale: d, Alpha: d}
	case ColorTrueColorAlpha:
		return SBIT{Kind: SBITColorAlpha, Red: d, Green: d, Blue: d, Alpha: d}
	}
	return SBIT{}
}

// decodeImage runs the scanline pipeline and writes every pixel into out
// in the requested format, applying transparency keying, palette lookup,
// sBIT rescaling and gamma correction as flags select. It returns
// whatever decodeScanlines returns: a chunk header already read off the
// wire while draining the zlib trailer, to be handed to the post-IDAT
// validator in place of a fresh readHeader call.
func decodeImage(cr *chunkReader, store *MetadataStore, out []byte, format OutputFormat, flags DecodeFlags) (*chunkHeader, error) {
	h := store.header
	width := int(h.Width)
	pxSize := pixelSize(format)
	needed := decodedImageSize(h, format)
	if uint64(len(out)) < needed {
		return nil, newErr(EBufferSizeTooSmall)
	}

	outDepth := 8
	if format == RGBA16 {
		outDepth = 16
	}
	outMax := uint32(1)<<uint(outDepth) - 1

	var lut []uint16
	if flags&UseGamma != 0 && store.gamaPresent {
		var err error
		lut, err = buildGammaLUT(store.gama.AsFloat(), 1<<uint(outDepth))
		if err != nil {
			return nil, err
		}
	}

	sbits := defaultSBIT(h)
	if flags&UseSbit != 0 && store.sbitPresent {
		sbits = store.sbit
	}
	useTrns := flags&UseTransparency != 0 && store.trnsPresent

	bitDepth := int(h.BitDepth)
	channels := h.Channels()
	ct := h.ColorType

	putPixel := func(x, y int, r, g, b, a uint32) {
		off := (y*width + x) * pxSize
		if format == RGBA8 {
			out[off] = byte(r)
			out[off+1] = byte(g)
			out[off+2] = byte(b)
			out[off+3] = byte(a)
			return
		}
		putU16 := func(at int, v uint32) {
			out[at] = byte(v >> 8)
			out[at+1] = byte(v)
		}
		putU16(off, r)
		putU16(off+2, g)
		putU16(off+4, b)
		putU16(off+6, a)
	}

	onScanline := func(pass, row, subW int, data []byte) error {
		geo := passGeometry(pass)
		y := geo.yStart + row*geo.yDelta

		for k := 0; k < subW; k++ {
			x := geo.xStart + k*geo.xDelta

			var r, g, b, a uint32
			a = outMax

			switch ct {
			case ColorGrayscale:
				raw := sampleAt(data, channels, bitDepth, k, 0)
				v := sbitRescale(raw, bitDepth, int(sbits.Grayscale), outDepth)
				v = applyGammaU32(lut, v)
				r, g, b = v, v, v
				if useTrns && raw == uint32(store.trns.Gray) {
					a = 0
				}
			case ColorTrueColor:
				rawR := sampleAt(data, channels, bitDepth, k, 0)
				rawG := sampleAt(data, channels, bitDepth, k, 1)
				rawB := sampleAt(data, channels, bitDepth, k, 2)
				r = applyGammaU32(lut, sbitRescale(rawR, bitDepth, int(sbits.Red), outDepth))
				g = applyGammaU32(lut, sbitRescale(rawG, bitDepth, int(sbits.Green), outDepth))
				b = applyGammaU32(lut, sbitRescale(rawB, bitDepth, int(sbits.Blue), outDepth))
				if useTrns && rawR == uint32(store.trns.Red) && rawG == uint32(store.trns.Green) && rawB == uint32(store.trns.Blue) {
					a = 0
				}
			case ColorIndexed:
				idx := sampleAt(data, channels, bitDepth, k, 0)
				if int(idx) >= len(store.palette) {
					return newErr(EPlteIdx)
				}
				e := store.palette[idx]
				r = applyGammaU32(lut, scale8(e.R, outDepth))
				g = applyGammaU32(lut, scale8(e.G, outDepth))
				b = applyGammaU32(lut, scale8(e.B, outDepth))
				if useTrns {
					a = scale8(store.trns.AlphaForIndex(int(idx)), outDepth)
				}
			case ColorGrayscaleAlpha:
				rawV := sampleAt(data, channels, bitDepth, k, 0)
				rawA := sampleAt(data, channels, bitDepth, k, 1)
				v := applyGammaU32(lut, sbitRescale(rawV, bitDepth, int(sbits.Grayscale), outDepth))
				r, g, b = v, v, v
				a = sbitRescale(rawA, bitDepth, int(sbits.Alpha), outDepth)
			case ColorTrueColorAlpha:
				rawR := sampleAt(data, channels, bitDepth, k, 0)
				rawG := sampleAt(data, channels, bitDepth, k, 1)
				rawB := sampleAt(data, channels, bitDepth, k, 2)
				rawA := sampleAt(data, channels, bitDepth, k, 3)
				r = applyGammaU32(lut, sbitRescale(rawR, bitDepth, int(sbits.Red), outDepth))
				g = applyGammaU32(lut, sbitRescale(rawG, bitDepth, int(sbits.Green), outDepth))
				b = applyGammaU32(lut, sbitRescale(rawB, bitDepth, int(sbits.Blue), outDepth))
				a = sbitRescale(rawA, bitDepth, int(sbits.Alpha), outDepth)
			}

			putPixel(x, y, r, g, b, a)
		}
		return nil
	}

	return decodeScanlines(cr, store, onScanline)
}

func applyGammaU32(lut []uint16, v uint32) uint32 {
	if lut == nil {
		return v
	}
	if int(v) >= len(lut) {
		return v
	}
	return uint32(lut[v])
}
