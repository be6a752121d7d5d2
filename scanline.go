package png

import (
	"compress/zlib"
	"errors"
	"io"
)

// idatEndError is returned by idatReader.Read when the chunk reader,
// asked for more IDAT bytes, finds that the next chunk is not IDAT. The
// caller decides whether that is fatal (scanline data still wanted,
// mapped to EIdatTooShort) or benign (only the zlib trailer's checksum
// bytes were being prefetched after the last scanline was already
// produced).
type idatEndError struct {
	next chunkHeader
}

func (e *idatEndError) Error() string { return "png: IDAT stream ended at " + e.next.typ.String() }

// idatReader presents the payloads of a run of consecutive IDAT chunks
// as a single continuous io.Reader, advancing the chunk reader across
// IDAT boundaries as it drains each one. This is the fumin/png
// teacher's io.Reader-over-IDAT technique, generalized off its
// hard-coded single-chunk assumption.
type idatReader struct {
	cr        *chunkReader
	remaining uint32
	pending   *chunkHeader // set once the next non-IDAT chunk's header has been read
}

func newIdatReader(cr *chunkReader, first chunkHeader) *idatReader {
	return &idatReader{cr: cr, remaining: first.length}
}

func (r *idatReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for r.remaining == 0 {
		if r.pending != nil {
			return 0, &idatEndError{next: *r.pending}
		}
		hdr, err := r.cr.readHeader()
		if err != nil {
			return 0, err
		}
		if hdr.typ != ctIDAT {
			r.pending = &hdr
			return 0, &idatEndError{next: hdr}
		}
		r.remaining = hdr.length
	}
	n := len(p)
	if uint32(n) > r.remaining {
		n = int(r.remaining)
	}
	b, err := r.cr.readPayload(uint32(n))
	if err != nil {
		return 0, err
	}
	r.remaining -= uint32(len(b))
	copy(p, b)
	return len(b), nil
}

// finish discards whatever remains of the last IDAT chunk's payload (the
// zlib stream may end a little short of the chunk boundary) and returns
// the already-read header of the first following chunk, if the reader
// happened to peek one while draining the zlib trailer. When it returns
// nil, the chunk reader is untouched past the IDAT run and the caller
// should call readHeader itself to find the next chunk.
func (r *idatReader) finish() (*chunkHeader, error) {
	if r.pending != nil {
		return r.pending, nil
	}
	if r.remaining > 0 {
		if err := r.cr.discardPayload(r.remaining); err != nil {
			return nil, err
		}
		r.remaining = 0
	}
	return nil, nil
}

// scanlineFunc receives one reconstructed (filter byte already removed
// and reversed) scanline at a time, in pass order for interlaced images
// (pass 0 for non-interlaced ones) and top-to-bottom within a pass.
// width is the subimage's pixel width (the Adam7 pass's own width, or
// the full image width for pass 0), needed by the caller to iterate
// columns since it cannot be recovered unambiguously from a sub-byte
// packed data length alone.
type scanlineFunc func(pass, row, width int, data []byte) error

// decodeScanlines drives the inflater across store's IDAT run and
// reverses the PNG filter byte-by-byte, per spec.md §4.4. It returns
// once every subimage (Adam7 pass, or the single full image) has been
// fully produced, leaving cr positioned so that a fresh readHeader call
// starts the post-IDAT validator pass — unless it returns a pending
// header via the returned *chunkHeader, in which case the caller must
// feed that header to validatePostIDAT as the first chunk rather than
// reading one afresh.
func decodeScanlines(cr *chunkReader, store *MetadataStore, fn scanlineFunc) (*chunkHeader, error) {
	if !store.haveFirstIDAT {
		return nil, newErr(EIdatTooShort)
	}

	ir := newIdatReader(cr, store.firstIDAT)
	zr, err := zlib.NewReader(ir)
	if err != nil {
		return nil, mapInflateErr(err)
	}

	h := store.header
	channels := h.Channels()
	bpp := bytesPerPixel(channels, int(h.BitDepth))

	for _, sub := range subimages(int(h.Width), int(h.Height), h.InterlaceMethod) {
		rowWidth := scanlineByteWidth(sub.width, channels, int(h.BitDepth))
		cur := make([]byte, rowWidth)
		prev := make([]byte, rowWidth)

		for row := 0; row < sub.height; row++ {
			if _, err := io.ReadFull(zr, cur); err != nil {
				return nil, mapInflateErr(err)
			}
			if err := reverseFilter(cur[0], cur[1:], prev[1:], bpp); err != nil {
				return nil, err
			}
			if err := fn(sub.pass, row, sub.width, cur[1:]); err != nil {
				return nil, err
			}
			prev, cur = cur, prev
		}
	}

	if err := zr.Close(); err != nil {
		var ee *idatEndError
		if !errors.As(err, &ee) {
			return nil, wrapErr(EZlib, err)
		}
	}

	return ir.finish()
}

func mapInflateErr(err error) error {
	var ee *idatEndError
	if errors.As(err, &ee) {
		return newErr(EIdatTooShort)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newErr(EIdatTooShort)
	}
	return wrapErr(EIdatStream, err)
}

// reverseFilter undoes one of the five PNG scanline filters in place.
// cur is the scanline's sample bytes (the leading filter-type byte
// already stripped); prev is the previous scanline's sample bytes at
// the same subimage (all zero for a subimage's first row). bpp is the
// number of whole bytes one pixel occupies, floored to 1 below one byte.
func reverseFilter(filterType byte, cur, prev []byte, bpp int) error {
	switch filterType {
	case ftNone:
	case ftSub:
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case ftUp:
		for i, p := range prev {
			cur[i] += p
		}
	case ftAverage:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += prev[i] / 2
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += uint8((int(cur[i-bpp]) + int(prev[i])) / 2)
		}
	case ftPaeth:
		for i := 0; i < bpp && i < len(cur); i++ {
			cur[i] += paethPredictor(0, prev[i], 0)
		}
		for i := bpp; i < len(cur); i++ {
			cur[i] += paethPredictor(cur[i-bpp], prev[i], prev[i-bpp])
		}
	default:
		return newErr(EFilter)
	}
	return nil
}

// Filter type bytes, as per the PNG spec.
const (
	ftNone    = 0
	ftSub     = 1
	ftUp      = 2
	ftAverage = 3
	ftPaeth   = 4
)

func paethPredictor(a, b, c uint8) uint8 {
	pp := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(pp-int(a)), absInt(pp-int(b)), absInt(pp-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
