package png

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// chunkLimitDecision classifies a chunk against the configured resource
// limits before its payload is read, per spec.md §5 "Resource policy":
// max_chunk_bytes is a hard per-chunk cap that fails the read outright;
// cache_bytes bounds the running total of cached ancillary payloads,
// and a chunk that would overflow it is skipped, not an error, mirroring
// original_source/spng.c's chunk_fits_in_cache. A zero limit leaves that
// axis unbounded, matching set_chunk_limits's own convention.
func chunkLimitDecision(store *MetadataStore, limits ChunkLimits, length uint32) (skip bool, err error) {
	if limits.MaxChunkBytes != 0 && length > limits.MaxChunkBytes {
		return false, newErr(EChunkSize)
	}
	usage := store.cacheUsage + uint64(length)
	if limits.CacheBytes != 0 && usage > limits.CacheBytes {
		return true, nil
	}
	store.cacheUsage = usage
	return false, nil
}

// ingestMetadata drives cr from wherever it currently sits (the PNG
// signature, on the first call) through chunks until it reaches the
// header of the first IDAT chunk, running the per-chunk validator on
// everything it sees along the way. On success store.haveFirstIDAT is
// true and store.firstIDAT holds that header, not yet consumed; cr is
// positioned to read the IDAT's payload next.
func ingestMetadata(cr *chunkReader, store *MetadataStore, imageLimits ImageLimits, chunkLimits ChunkLimits) error {
	for {
		hdr, err := cr.readHeader()
		if err != nil {
			return err
		}

		if hdr.typ == ctIDAT {
			if !store.headerPresent {
				return newErr(ENoIhdr)
			}
			store.firstIDAT = hdr
			store.haveFirstIDAT = true
			store.sawAnyIDAT = true
			return nil
		}

		skip, err := chunkLimitDecision(store, chunkLimits, hdr.length)
		if err != nil {
			return err
		}
		if skip {
			if err := cr.skipRemainder(); err != nil {
				return err
			}
			continue
		}

		if !store.headerPresent && hdr.typ != ctIHDR {
			return newErr(ENoIhdr)
		}

		if hdr.typ.reservedBitSet() {
			return newErr(EChunkType)
		}

		if hdr.typ.isPrivate() {
			if err := cr.skipRemainder(); err != nil {
				return err
			}
			continue
		}

		if err := dispatchPreIDAT(cr, store, hdr, imageLimits); err != nil {
			return err
		}
		if err := cr.skipRemainder(); err != nil {
			return err
		}
	}
}

func dispatchPreIDAT(cr *chunkReader, store *MetadataStore, hdr chunkHeader, limits ImageLimits) error {
	switch hdr.typ {
	case ctIHDR:
		return parseIHDR(cr, store, hdr, limits)
	case ctPLTE:
		return parsePLTE(cr, store, hdr)
	case ctCHRM:
		return parseCHRM(cr, store, hdr)
	case ctGAMA:
		return parseGAMA(cr, store, hdr)
	case ctICCP:
		return parseICCP(cr, store, hdr)
	case ctSBIT:
		return parseSBIT(cr, store, hdr)
	case ctSRGB:
		return parseSRGB(cr, store, hdr)
	case ctBKGD:
		return parseBKGD(cr, store, hdr)
	case ctTRNS:
		return parseTRNS(cr, store, hdr)
	case ctHIST:
		return parseHIST(cr, store, hdr)
	case ctPHYS:
		return parsePHYS(cr, store, hdr)
	case ctSPLT:
		return parseSPLT(cr, store, hdr)
	case ctTIME:
		return parseTIME(cr, store, hdr)
	case ctOFFS:
		return parseOFFS(cr, store, hdr)
	case ctEXIF:
		return parseEXIF(cr, store, hdr)
	case ctTEXT, ctZTXT, ctITXT:
		return parseTextAndStore(cr, store, hdr)
	case ctIEND:
		return newErr(EChunkPos)
	default:
		if hdr.typ.isCritical() {
			if !knownCriticalChunks[hdr.typ] {
				return newErr(EChunkUnknownCritical)
			}
			return newErr(EChunkPos)
		}
		return cr.skipRemainder()
	}
}

// validatePostIDAT walks whatever remains of the stream after the
// scanline pipeline has consumed the last IDAT it needed, enforcing the
// symmetric back half of the chunk grammar: only tIME, eXIf, the text
// chunks, and IDATs immediately trailing the last one already seen are
// tolerated; anything else critical is ChunkPos. Reaching IEND ends the
// walk successfully. pending, when non-nil, is a chunk header the
// scanline pipeline already read off the wire while draining the zlib
// trailer; it is consumed as the first chunk instead of calling
// readHeader again (which would otherwise skip straight past it).
func validatePostIDAT(cr *chunkReader, store *MetadataStore, pending *chunkHeader, chunkLimits ChunkLimits) error {
	extraIDATAllowed := true
	first := true
	for {
		var hdr chunkHeader
		if first && pending != nil {
			hdr = *pending
		} else {
			var err error
			hdr, err = cr.readHeader()
			if err != nil {
				return err
			}
		}
		first = false

		switch {
		case hdr.typ == ctIDAT:
			if !extraIDATAllowed {
				return newErr(EChunkPos)
			}
			if err := cr.skipRemainder(); err != nil {
				return err
			}
		case hdr.typ == ctIEND:
			if hdr.length != 0 {
				return newErr(EChunkSize)
			}
			if err := cr.verifyTrailingCRC(); err != nil {
				return err
			}
			store.sawIEND = true
			return nil
		case hdr.typ == ctTIME:
			extraIDATAllowed = false
			skip, err := chunkLimitDecision(store, chunkLimits, hdr.length)
			if err != nil {
				return err
			}
			if skip {
				if err := cr.skipRemainder(); err != nil {
					return err
				}
				continue
			}
			if err := parseTIME(cr, store, hdr); err != nil {
				return err
			}
			if err := cr.skipRemainder(); err != nil {
				return err
			}
		case hdr.typ == ctEXIF:
			extraIDATAllowed = false
			skip, err := chunkLimitDecision(store, chunkLimits, hdr.length)
			if err != nil {
				return err
			}
			if skip {
				if err := cr.skipRemainder(); err != nil {
					return err
				}
				continue
			}
			if err := parseEXIF(cr, store, hdr); err != nil {
				return err
			}
			if err := cr.skipRemainder(); err != nil {
				return err
			}
		case hdr.typ == ctTEXT, hdr.typ == ctZTXT, hdr.typ == ctITXT:
			extraIDATAllowed = false
			skip, err := chunkLimitDecision(store, chunkLimits, hdr.length)
			if err != nil {
				return err
			}
			if skip {
				if err := cr.skipRemainder(); err != nil {
					return err
				}
				continue
			}
			if err := parseTextAndStore(cr, store, hdr); err != nil {
				return err
			}
			if err := cr.skipRemainder(); err != nil {
				return err
			}
		default:
			extraIDATAllowed = false
			if hdr.typ.isCritical() {
				return newErr(EChunkPos)
			}
			if err := cr.skipRemainder(); err != nil {
				return err
			}
		}
	}
}

func parseIHDR(cr *chunkReader, store *MetadataStore, hdr chunkHeader, limits ImageLimits) error {
	if store.headerPresent {
		return newErr(EIhdrSize)
	}
	if hdr.length != 13 {
		return newErr(EIhdrSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}

	h := IHDR{
		Width:             binary.BigEndian.Uint32(b[0:4]),
		Height:            binary.BigEndian.Uint32(b[4:8]),
		BitDepth:          b[8],
		ColorType:         b[9],
		CompressionMethod: b[10],
		FilterMethod:      b[11],
		InterlaceMethod:   b[12],
	}

	if h.Width == 0 || h.Width > defaultMaxDim {
		return newErr(EWidth)
	}
	if h.Height == 0 || h.Height > defaultMaxDim {
		return newErr(EHeight)
	}
	if limits.MaxWidth != 0 && h.Width > limits.MaxWidth {
		return newErr(EUserWidth)
	}
	if limits.MaxHeight != 0 && h.Height > limits.MaxHeight {
		return newErr(EUserHeight)
	}

	depths, ok := legalBitDepths[h.ColorType]
	if !ok {
		return newErr(EColorType)
	}
	depthOK := false
	for _, d := range depths {
		if d == h.BitDepth {
			depthOK = true
			break
		}
	}
	if !depthOK {
		return newErr(EBitDepth)
	}
	if h.CompressionMethod != 0 {
		return newErr(ECompressionMethod)
	}
	if h.FilterMethod != 0 {
		return newErr(EFilterMethod)
	}
	if h.InterlaceMethod > 1 {
		return newErr(EInterlaceMethod)
	}

	store.header = h
	store.headerPresent = true
	return nil
}

// parsePLTE enforces spec's length rule (positive multiple of 3, at most
// 256 entries, and at most 2^bit_depth entries for Indexed) and that the
// colour type actually permits a palette at all.
func parsePLTE(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EDupPlte)
	}
	if store.header.ColorType == ColorGrayscale || store.header.ColorType == ColorGrayscaleAlpha {
		return newErr(EColorType)
	}
	if hdr.length == 0 || hdr.length%3 != 0 {
		return newErr(EChunkSize)
	}
	n := hdr.length / 3
	if n > 256 {
		return newErr(EChunkSize)
	}
	if store.header.ColorType == ColorIndexed && n > uint32(1)<<store.header.BitDepth {
		return newErr(EChunkSize)
	}

	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	entries := make([]PLTEEntry, n)
	for i := range entries {
		entries[i] = PLTEEntry{R: b[i*3], G: b[i*3+1], B: b[i*3+2]}
	}
	store.palette = entries
	store.palettePresent = true
	return nil
}

// parseCHRM, like gAMA/iCCP/sBIT/sRGB below, must precede PLTE: once a
// palette has been recorded, any of these arriving later is ChunkPos.
func parseCHRM(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EChunkPos)
	}
	if store.chrmPresent {
		return newErr(EDupChrm)
	}
	if hdr.length != 32 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	store.chrm = CHRMInt{
		WhitePointX: binary.BigEndian.Uint32(b[0:4]),
		WhitePointY: binary.BigEndian.Uint32(b[4:8]),
		RedX:        binary.BigEndian.Uint32(b[8:12]),
		RedY:        binary.BigEndian.Uint32(b[12:16]),
		GreenX:      binary.BigEndian.Uint32(b[16:20]),
		GreenY:      binary.BigEndian.Uint32(b[20:24]),
		BlueX:       binary.BigEndian.Uint32(b[24:28]),
		BlueY:       binary.BigEndian.Uint32(b[28:32]),
	}
	store.chrmPresent = true
	return nil
}

func parseGAMA(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EChunkPos)
	}
	if store.gamaPresent {
		return newErr(EDupGama)
	}
	if hdr.length != 4 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	v := binary.BigEndian.Uint32(b)
	if v == 0 {
		return newErr(EGama)
	}
	store.gama = GAMA{Gamma: v}
	store.gamaPresent = true
	return nil
}

// parseICCP stores the profile name and the raw, still-compressed
// profile bytes; decompressing an ICC profile is outside this decoder's
// scope (nothing here needs the profile's contents, only its presence).
func parseICCP(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EChunkPos)
	}
	if store.iccpPresent {
		return newErr(EDupIccp)
	}
	if hdr.length == 0 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	nameWindow := b
	if len(nameWindow) > 80 {
		nameWindow = nameWindow[:80]
	}
	nul := bytes.IndexByte(nameWindow, 0)
	if nul < 0 {
		return newErr(EIccpName)
	}
	name := b[:nul]
	if !checkPNGKeyword(name) {
		return newErr(EIccpName)
	}
	rest := b[nul+1:]
	if len(rest) < 2 {
		return newErr(EChunkSize)
	}
	if rest[0] != 0 {
		return newErr(EIccpName)
	}
	store.iccp = ICCP{
		ProfileName:       string(name),
		CompressionMethod: rest[0],
		Profile:           append([]byte(nil), rest[1:]...),
	}
	store.iccpPresent = true
	return nil
}

func parseSBIT(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EChunkPos)
	}
	if store.sbitPresent {
		return newErr(EDupSbit)
	}
	ct := store.header.ColorType
	var want uint32
	switch ct {
	case ColorGrayscale:
		want = 1
	case ColorTrueColor, ColorIndexed:
		want = 3
	case ColorGrayscaleAlpha:
		want = 2
	case ColorTrueColorAlpha:
		want = 4
	}
	if hdr.length != want {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}

	// Palette samples are always 8 bits wide regardless of IHDR's bit
	// depth, which for Indexed describes the index, not the colour.
	refDepth := store.header.BitDepth
	if ct == ColorIndexed {
		refDepth = 8
	}
	valid := func(v uint8) bool { return v >= 1 && v <= refDepth }

	var s SBIT
	switch ct {
	case ColorGrayscale:
		s = SBIT{Kind: SBITGray, Grayscale: b[0]}
		if !valid(b[0]) {
			return newErr(ESbit)
		}
	case ColorTrueColor, ColorIndexed:
		kind := SBITColor
		if ct == ColorIndexed {
			kind = SBITIndexed
		}
		s = SBIT{Kind: kind, Red: b[0], Green: b[1], Blue: b[2]}
		if !valid(b[0]) || !valid(b[1]) || !valid(b[2]) {
			return newErr(ESbit)
		}
	case ColorGrayscaleAlpha:
		s = SBIT{Kind: SBITGrayAlpha, Grayscale: b[0], Alpha: b[1]}
		if !valid(b[0]) || !valid(b[1]) {
			return newErr(ESbit)
		}
	case ColorTrueColorAlpha:
		s = SBIT{Kind: SBITColorAlpha, Red: b[0], Green: b[1], Blue: b[2], Alpha: b[3]}
		if !valid(b[0]) || !valid(b[1]) || !valid(b[2]) || !valid(b[3]) {
			return newErr(ESbit)
		}
	}
	store.sbit = s
	store.sbitPresent = true
	return nil
}

func parseSRGB(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.palettePresent {
		return newErr(EChunkPos)
	}
	if store.srgbPresent {
		return newErr(EDupSrgb)
	}
	if hdr.length != 1 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	if b[0] > 3 {
		return newErr(ESrgb)
	}
	store.srgb = SRGB{RenderingIntent: b[0]}
	store.srgbPresent = true
	return nil
}

// parseBKGD, parseTRNS and parseHIST are the three chunks that need a
// palette already in hand. Rather than a position check against PLTE's
// offset (the original's equivalent check can never observe a PLTE
// recorded after the chunk it is guarding, since a streaming reader
// validates each chunk as it arrives — see DESIGN.md's chunk-ordering
// entry), the palette requirement is enforced directly: if the colour
// type needs one and none has been stored yet, that is the failure,
// whether or not a PLTE chunk shows up later in the stream.
func parseBKGD(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.bkgdPresent {
		return newErr(EDupBkgd)
	}
	ct := store.header.ColorType
	var want uint32
	switch ct {
	case ColorGrayscale, ColorGrayscaleAlpha:
		want = 2
	case ColorTrueColor, ColorTrueColorAlpha:
		want = 6
	case ColorIndexed:
		want = 1
	}
	if hdr.length != want {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}

	mask := uint16(0xFFFF)
	if store.header.BitDepth < 16 {
		mask = uint16(1<<store.header.BitDepth) - 1
	}

	bk := BKGD{ColorType: ct}
	switch ct {
	case ColorGrayscale, ColorGrayscaleAlpha:
		bk.Gray = binary.BigEndian.Uint16(b[0:2]) & mask
	case ColorTrueColor, ColorTrueColorAlpha:
		bk.Red = binary.BigEndian.Uint16(b[0:2]) & mask
		bk.Green = binary.BigEndian.Uint16(b[2:4]) & mask
		bk.Blue = binary.BigEndian.Uint16(b[4:6]) & mask
	case ColorIndexed:
		if !store.palettePresent {
			return newErr(EBkgdNoPalette)
		}
		if int(b[0]) >= len(store.palette) {
			return newErr(EBkgdPaletteIdx)
		}
		bk.PaletteIndex = b[0]
	}
	store.bkgd = bk
	store.bkgdPresent = true
	return nil
}

func parseTRNS(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.trnsPresent {
		return newErr(EDupTrns)
	}
	ct := store.header.ColorType
	if ct == ColorGrayscaleAlpha || ct == ColorTrueColorAlpha {
		return newErr(ETransparencyColorType)
	}
	if hdr.length == 0 {
		return newErr(EChunkSize)
	}

	mask := uint16(0xFFFF)
	if store.header.BitDepth < 16 {
		mask = uint16(1<<store.header.BitDepth) - 1
	}

	switch ct {
	case ColorGrayscale:
		if hdr.length != 2 {
			return newErr(EChunkSize)
		}
		b, err := cr.readAllPayload()
		if err != nil {
			return err
		}
		store.trns = TRNS{Kind: TRNSGray, Gray: binary.BigEndian.Uint16(b) & mask}
	case ColorTrueColor:
		if hdr.length != 6 {
			return newErr(EChunkSize)
		}
		b, err := cr.readAllPayload()
		if err != nil {
			return err
		}
		store.trns = TRNS{
			Kind:  TRNSColor,
			Red:   binary.BigEndian.Uint16(b[0:2]) & mask,
			Green: binary.BigEndian.Uint16(b[2:4]) & mask,
			Blue:  binary.BigEndian.Uint16(b[4:6]) & mask,
		}
	case ColorIndexed:
		if !store.palettePresent {
			return newErr(ETransparencyNoPalette)
		}
		if int(hdr.length) > len(store.palette) {
			return newErr(EChunkSize)
		}
		b, err := cr.readAllPayload()
		if err != nil {
			return err
		}
		store.trns = TRNS{Kind: TRNSIndexed, IndexAlpha: append([]byte(nil), b...)}
	}
	store.trnsPresent = true
	return nil
}

func parseHIST(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if !store.palettePresent {
		return newErr(EHistNoPalette)
	}
	if store.histPresent {
		return newErr(EDupHist)
	}
	n := len(store.palette)
	if int(hdr.length) != n*2 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	freq := make([]uint16, n)
	for i := range freq {
		freq[i] = binary.BigEndian.Uint16(b[i*2 : i*2+2])
	}
	store.hist = HIST{Frequency: freq}
	store.histPresent = true
	return nil
}

func parsePHYS(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.physPresent {
		return newErr(EDupPhys)
	}
	if hdr.length != 9 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	unit := b[8]
	if unit > 1 {
		return newErr(EPhys)
	}
	store.phys = PHYS{
		PixelsPerUnitX: binary.BigEndian.Uint32(b[0:4]),
		PixelsPerUnitY: binary.BigEndian.Uint32(b[4:8]),
		UnitSpecifier:  unit,
	}
	store.physPresent = true
	return nil
}

// parseSPLT appends to store.splt; sPLT has no singleton/duplicate rule
// of its own, only the duplicate-keyword rule enforced across all
// recorded entries.
func parseSPLT(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if hdr.length < 3 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	nul := bytes.IndexByte(b, 0)
	if nul < 0 || nul > 79 {
		return newErr(ESplTName)
	}
	name := b[:nul]
	if !checkPNGKeyword(name) {
		return newErr(ESplTName)
	}
	for _, s := range store.splt {
		if s.Name == string(name) {
			return newErr(ESplTDupName)
		}
	}

	rest := b[nul+1:]
	if len(rest) < 1 {
		return newErr(EChunkSize)
	}
	depth := rest[0]
	if depth != 8 && depth != 16 {
		return newErr(ESplTDepth)
	}
	stride := 6
	if depth == 16 {
		stride = 10
	}
	entryData := rest[1:]
	if len(entryData)%stride != 0 {
		return newErr(EChunkSize)
	}

	count := len(entryData) / stride
	entries := make([]SPLTSample, count)
	for i := 0; i < count; i++ {
		e := entryData[i*stride : (i+1)*stride]
		if depth == 8 {
			entries[i] = SPLTSample{
				Red: uint16(e[0]), Green: uint16(e[1]), Blue: uint16(e[2]), Alpha: uint16(e[3]),
				Frequency: binary.BigEndian.Uint16(e[4:6]),
			}
		} else {
			entries[i] = SPLTSample{
				Red: binary.BigEndian.Uint16(e[0:2]), Green: binary.BigEndian.Uint16(e[2:4]),
				Blue: binary.BigEndian.Uint16(e[4:6]), Alpha: binary.BigEndian.Uint16(e[6:8]),
				Frequency: binary.BigEndian.Uint16(e[8:10]),
			}
		}
	}
	store.splt = append(store.splt, SPLT{Name: string(name), SampleDepth: depth, Entries: entries})
	return nil
}

func parseTIME(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.timePresent {
		return newErr(EDupTime)
	}
	if hdr.length != 7 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	t := TIME{Year: binary.BigEndian.Uint16(b[0:2]), Month: b[2], Day: b[3], Hour: b[4], Minute: b[5], Second: b[6]}
	if t.Month < 1 || t.Month > 12 || t.Day < 1 || t.Day > 31 || t.Hour > 23 || t.Minute > 59 || t.Second > 60 {
		return newErr(ETime)
	}
	store.time = t
	store.timePresent = true
	return nil
}

// parseOFFS enforces the corrected bound from spec.md §9 item 3: both x
// and y, not just x twice, are constrained to [-2^31+1, 2^31-1].
func parseOFFS(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.offsPresent {
		return newErr(EDupOffs)
	}
	if hdr.length != 9 {
		return newErr(EChunkSize)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	x := int32(binary.BigEndian.Uint32(b[0:4]))
	y := int32(binary.BigEndian.Uint32(b[4:8]))
	unit := b[8]

	const bound = int32(1<<31 - 1)
	if x < -bound || y < -bound {
		return newErr(EOffs)
	}
	if unit > 1 {
		return newErr(EOffs)
	}
	store.offs = OFFS{X: x, Y: y, UnitSpecifier: unit}
	store.offsPresent = true
	return nil
}

func parseEXIF(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	if store.exifPresent {
		return newErr(EDupExif)
	}
	if hdr.length < 4 {
		return newErr(EExif)
	}
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	little := [4]byte{0x49, 0x49, 0x2A, 0x00}
	big := [4]byte{0x4D, 0x4D, 0x00, 0x2A}
	var got [4]byte
	copy(got[:], b[:4])
	if got != little && got != big {
		return newErr(EExif)
	}
	store.exif = EXIF{Data: append([]byte(nil), b...)}
	store.exifPresent = true
	return nil
}

// checkPNGKeyword validates a PNG keyword per the iTXt/sPLT/iCCP shared
// rule: 1-79 printable Latin-1 bytes, no leading, trailing, or doubled
// interior space.
func checkPNGKeyword(b []byte) bool {
	if len(b) < 1 || len(b) > 79 {
		return false
	}
	if b[0] == ' ' || b[len(b)-1] == ' ' {
		return false
	}
	prevSpace := false
	for _, c := range b {
		printable := (c >= 32 && c <= 126) || (c >= 161 && c <= 255)
		if !printable {
			return false
		}
		if c == ' ' {
			if prevSpace {
				return false
			}
			prevSpace = true
		} else {
			prevSpace = false
		}
	}
	return true
}

// inflateAll decompresses a complete zlib stream, used for zTXt and
// compressed iTXt text (the same codec IDAT uses, applied to a much
// smaller buffer already held in memory).
func inflateAll(b []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, wrapErr(EZlib, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, wrapErr(EZlib, err)
	}
	return out, nil
}

func parseTextAndStore(cr *chunkReader, store *MetadataStore, hdr chunkHeader) error {
	b, err := cr.readAllPayload()
	if err != nil {
		return err
	}
	rec, err := parseTextChunk(hdr.typ, b)
	if err != nil {
		return err
	}
	store.text = append(store.text, rec)
	return nil
}

// parseTextChunk fully parses tEXt/zTXt/iTXt: keyword plus decompressed
// text, per spec.md §9 Open Question 1 resolved in favour of complete
// records over a presence-only placeholder.
func parseTextChunk(typ chunkType, b []byte) (TextRecord, error) {
	nul := bytes.IndexByte(b, 0)
	if nul < 0 {
		return TextRecord{}, newErr(ETextKeyword)
	}
	keyword := b[:nul]
	if !checkPNGKeyword(keyword) {
		return TextRecord{}, newErr(ETextKeyword)
	}
	rest := b[nul+1:]

	switch typ {
	case ctTEXT:
		return TextRecord{Kind: TextPlain, Keyword: string(keyword), Text: string(rest)}, nil

	case ctZTXT:
		if len(rest) < 1 {
			return TextRecord{}, newErr(EText)
		}
		method := rest[0]
		if method != 0 {
			return TextRecord{}, newErr(EText)
		}
		text, err := inflateAll(rest[1:])
		if err != nil {
			return TextRecord{}, err
		}
		return TextRecord{Kind: TextCompressed, Keyword: string(keyword), Text: string(text), CompressionMethod: method}, nil

	case ctITXT:
		if len(rest) < 2 {
			return TextRecord{}, newErr(EText)
		}
		flag, method := rest[0], rest[1]
		rest = rest[2:]

		langNul := bytes.IndexByte(rest, 0)
		if langNul < 0 {
			return TextRecord{}, newErr(EText)
		}
		lang := rest[:langNul]
		rest = rest[langNul+1:]

		trNul := bytes.IndexByte(rest, 0)
		if trNul < 0 {
			return TextRecord{}, newErr(EText)
		}
		translated := rest[:trNul]
		rest = rest[trNul+1:]

		var text string
		switch flag {
		case 0:
			text = string(rest)
		case 1:
			if method != 0 {
				return TextRecord{}, newErr(EText)
			}
			out, err := inflateAll(rest)
			if err != nil {
				return TextRecord{}, err
			}
			text = string(out)
		default:
			return TextRecord{}, newErr(EText)
		}

		return TextRecord{
			Kind: TextInternational, Keyword: string(keyword), Text: text,
			CompressionFlag: flag, CompressionMethod: method,
			LanguageTag: string(lang), TranslatedKeyword: string(translated),
		}, nil
	}

	return TextRecord{}, newErr(EText)
}
