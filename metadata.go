package png

import "time"

// Colour type codes, per spec.md §3/§6.
const (
	ColorGrayscale      uint8 = 0
	ColorTrueColor      uint8 = 2
	ColorIndexed        uint8 = 3
	ColorGrayscaleAlpha uint8 = 4
	ColorTrueColorAlpha uint8 = 6
)

// IHDR is the image header: spec.md §3 "Image header".
type IHDR struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// Channels returns the number of samples per pixel implied by ColorType,
// e.g. 4 for TrueColorAlpha. Valid only once the header has been
// validated (ColorType is one of the five legal values).
func (h IHDR) Channels() int {
	switch h.ColorType {
	case ColorGrayscale:
		return 1
	case ColorTrueColor:
		return 3
	case ColorIndexed:
		return 1
	case ColorGrayscaleAlpha:
		return 2
	case ColorTrueColorAlpha:
		return 4
	}
	return 0
}

// legalBitDepths maps each colour type to its allowed bit depths, per
// spec.md §6's table.
var legalBitDepths = map[uint8][]uint8{
	ColorGrayscale:      {1, 2, 4, 8, 16},
	ColorTrueColor:      {8, 16},
	ColorIndexed:        {1, 2, 4, 8},
	ColorGrayscaleAlpha: {8, 16},
	ColorTrueColorAlpha: {8, 16},
}

// PLTEEntry is a single RGB8 palette colour, per spec.md §3 "Palette".
type PLTEEntry struct {
	R, G, B uint8
}

// TRNSKind tags which of TRNS's fields are meaningful, selected by the
// IHDR colour type at parse time. spec.md §9 calls for a tagged variant
// here rather than "only one field is meaningful" as a convention; Kind
// is that tag.
type TRNSKind int

const (
	TRNSGray TRNSKind = iota
	TRNSColor
	TRNSIndexed
)

// TRNS is the transparency chunk, spec.md §3 "Transparency". Exactly one
// of its variants is populated, selected by Kind.
type TRNS struct {
	Kind TRNSKind

	Gray uint16 // TRNSGray

	Red, Green, Blue uint16 // TRNSColor

	IndexAlpha []uint8 // TRNSIndexed: alpha per palette index, in order
}

// AlphaForIndex returns the palette alpha for index i, per spec.md §4.5:
// trns[i] if i is within the recorded range, else fully opaque (255).
func (t TRNS) AlphaForIndex(i int) uint8 {
	if i >= 0 && i < len(t.IndexAlpha) {
		return t.IndexAlpha[i]
	}
	return 255
}

// CHRMInt is the canonical, wire-level cHRM record: eight unsigned
// 32-bit integers, each an x or y value times 100000 (spec.md §9 Open
// Question 2 resolves the int/float duality in favour of this form).
type CHRMInt struct {
	WhitePointX, WhitePointY uint32
	RedX, RedY               uint32
	GreenX, GreenY           uint32
	BlueX, BlueY             uint32
}

// CHRM is the floating-point convenience derived from CHRMInt.
type CHRM struct {
	WhitePointX, WhitePointY float64
	RedX, RedY               float64
	GreenX, GreenY           float64
	BlueX, BlueY             float64
}

// AsFloat converts a CHRMInt to its CHRM convenience form.
func (c CHRMInt) AsFloat() CHRM {
	div := func(v uint32) float64 { return float64(v) / 100000.0 }
	return CHRM{
		WhitePointX: div(c.WhitePointX), WhitePointY: div(c.WhitePointY),
		RedX: div(c.RedX), RedY: div(c.RedY),
		GreenX: div(c.GreenX), GreenY: div(c.GreenY),
		BlueX: div(c.BlueX), BlueY: div(c.BlueY),
	}
}

// GAMA is the gamma chunk: file gamma times 100000, per spec.md §3.
type GAMA struct {
	Gamma uint32
}

// AsFloat returns gAMA/100000, the file_gamma value spec.md §4.5 feeds
// into the gamma LUT formula.
func (g GAMA) AsFloat() float64 { return float64(g.Gamma) / 100000.0 }

// ICCP is the embedded ICC colour profile chunk.
type ICCP struct {
	ProfileName       string
	CompressionMethod uint8
	Profile           []byte // raw, still-compressed profile bytes
}

// SRGB is the standard RGB rendering-intent chunk.
type SRGB struct {
	RenderingIntent uint8
}

// SBITKind tags which fields of SBIT are meaningful, mirroring TRNSKind.
type SBITKind int

const (
	SBITGray SBITKind = iota
	SBITColor
	SBITIndexed
	SBITGrayAlpha
	SBITColorAlpha
)

// SBIT is the significant-bits chunk, spec.md §3 "Significant-bit
// depths". Per-channel original bit counts, tagged by colour type.
type SBIT struct {
	Kind SBITKind

	Grayscale uint8
	Red, Green, Blue, Alpha uint8
}

// BKGD is the suggested background colour chunk, tagged by colour type.
type BKGD struct {
	ColorType uint8 // the IHDR colour type this record was parsed against

	Gray             uint16
	Red, Green, Blue uint16
	PaletteIndex     uint8
}

// HIST is the palette usage histogram: one entry per PLTE entry.
type HIST struct {
	Frequency []uint16
}

// PHYS is the physical pixel dimensions chunk.
type PHYS struct {
	PixelsPerUnitX, PixelsPerUnitY uint32
	UnitSpecifier                  uint8 // 0 = unknown, 1 = metre
}

// SPLTSample is one entry of a suggested palette.
type SPLTSample struct {
	Red, Green, Blue, Alpha uint16
	Frequency               uint16
}

// SPLT is one suggested-palette chunk. Multiple sPLT chunks may appear;
// MetadataStore keeps them all, keyed only by the duplicate-keyword rule
// spec.md §4.3 describes (not a general singleton).
type SPLT struct {
	Name        string
	SampleDepth uint8 // 8 or 16
	Entries     []SPLTSample
}

// TIME is the last-modification timestamp chunk.
type TIME struct {
	Year                      uint16
	Month, Day                uint8
	Hour, Minute, Second      uint8
}

// AsTime converts TIME to a time.Time in UTC.
func (t TIME) AsTime() time.Time {
	return time.Date(int(t.Year), time.Month(t.Month), int(t.Day), int(t.Hour), int(t.Minute), int(t.Second), 0, time.UTC)
}

// OFFS is the image offset chunk. X and Y are signed; spec.md §9 item 3
// notes the original C implementation's check_offs bug (it compares x
// against the positive bound twice and never checks y), whose corrected
// invariant -2^31+1 <= x,y <= 2^31-1 this build enforces for both axes.
type OFFS struct {
	X, Y          int32
	UnitSpecifier uint8 // 0 = pixel, 1 = micrometre
}

// EXIF holds the raw eXIf payload (a TIFF-format metadata blob).
type EXIF struct {
	Data []byte
}

// TextKind distinguishes tEXt/zTXt/iTXt, per spec.md §6 recognised
// chunk types.
type TextKind int

const (
	TextPlain      TextKind = 1
	TextCompressed TextKind = 2
	TextInternational TextKind = 3
)

// TextRecord is a fully parsed textual metadata chunk. spec.md §9 Open
// Question 1 is resolved here by full parsing (keyword + decompressed
// text, for zTXt/iTXt), not presence-only recording: see SPEC_FULL.md §3.3.
type TextRecord struct {
	Kind    TextKind
	Keyword string
	Text    string

	CompressionFlag   uint8  // iTXt only
	CompressionMethod uint8  // iTXt, zTXt only
	LanguageTag       string // iTXt only
	TranslatedKeyword string // iTXt only
}

// MetadataStore is spec.md §4.3's typed record set: one slot per
// standard chunk, each carrying a present flag alongside its parsed
// value, plus back-references into the palette for palette-derived
// chunks (bKGD's PaletteIndex, tRNS's IndexAlpha).
type MetadataStore struct {
	header        IHDR
	headerPresent bool

	palette        []PLTEEntry
	palettePresent bool

	trns        TRNS
	trnsPresent bool

	chrm        CHRMInt
	chrmPresent bool

	gama        GAMA
	gamaPresent bool

	iccp        ICCP
	iccpPresent bool

	sbit        SBIT
	sbitPresent bool

	srgb        SRGB
	srgbPresent bool

	bkgd        BKGD
	bkgdPresent bool

	hist        HIST
	histPresent bool

	phys        PHYS
	physPresent bool

	splt []SPLT

	time        TIME
	timePresent bool

	offs        OFFS
	offsPresent bool

	exif        EXIF
	exifPresent bool

	text []TextRecord

	firstIDAT     chunkHeader
	haveFirstIDAT bool
	sawAnyIDAT    bool
	sawIEND       bool

	// cacheUsage is the running total spec.md §5's cache_bytes limit
	// bounds: the sum of the declared lengths of every non-IDAT chunk
	// accepted before the first IDAT (critical ones such as IHDR and
	// PLTE included) and of every tIME/eXIf/text chunk accepted after it.
	cacheUsage uint64
}
