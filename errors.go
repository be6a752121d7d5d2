package png

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the closed enumeration of failure causes a Context
// operation can return. It never grows a new member silently: every
// caller-visible failure maps to exactly one of these.
type ErrorKind int

const (
	// Usage errors.
	EInvalid ErrorKind = iota + 1
	EOutOfMemory
	EOverflow
	EBadState
	EBufferSizeTooSmall
	EBufferAlreadySet
	EBadFormat
	EBadFlags
	EChunkUnavailable
	EEncodeOnly

	// Structural errors.
	ESignature
	ENoIhdr
	EIhdrSize
	EChunkPos
	EChunkSize
	EChunkCrc
	EChunkType
	EChunkUnknownCritical
	EIdatTooShort
	EIdatStream
	EZlib
	EFilter
	EPlteIdx

	// Field-level errors.
	EWidth
	EHeight
	EUserWidth
	EUserHeight
	EBitDepth
	EColorType
	ECompressionMethod
	EFilterMethod
	EInterlaceMethod
	EChrm
	EGama
	ESbit
	ESrgb
	EPhys
	ETime
	EOffs
	EExif
	ETransparencyColorType
	ETransparencyNoPalette
	EBkgdNoPalette
	EBkgdPaletteIdx
	EHistNoPalette
	EIccpName
	ESplTName
	ESplTDupName
	ESplTDepth
	EText
	ETextKeyword

	// Duplicate-chunk errors.
	EDupPlte
	EDupChrm
	EDupGama
	EDupIccp
	EDupSbit
	EDupSrgb
	EDupBkgd
	EDupHist
	EDupTrns
	EDupPhys
	EDupTime
	EDupOffs
	EDupExif

	// Source errors.
	ESourceEnd
	ESourceError
)

var errorKindNames = map[ErrorKind]string{
	EInvalid:              "invalid argument",
	EOutOfMemory:           "out of memory",
	EOverflow:              "arithmetic overflow",
	EBadState:              "context is in a failed state",
	EBufferSizeTooSmall:    "output buffer too small",
	EBufferAlreadySet:      "source already set",
	EBadFormat:             "unrecognized output format",
	EBadFlags:              "unrecognized decode flags",
	EChunkUnavailable:      "chunk not present",
	EEncodeOnly:            "operation is encode-only",
	ESignature:             "invalid PNG signature",
	ENoIhdr:                "missing IHDR chunk",
	EIhdrSize:              "invalid IHDR size or placement",
	EChunkPos:              "chunk out of order",
	EChunkSize:             "invalid chunk length",
	EChunkCrc:              "chunk CRC mismatch",
	EChunkType:             "invalid chunk type",
	EChunkUnknownCritical:  "unknown critical chunk",
	EIdatTooShort:          "IDAT stream ended prematurely",
	EIdatStream:            "invalid IDAT stream",
	EZlib:                  "zlib/inflate error",
	EFilter:                "invalid scanline filter type",
	EPlteIdx:               "palette index out of range",
	EWidth:                 "invalid width",
	EHeight:                "invalid height",
	EUserWidth:             "width exceeds configured limit",
	EUserHeight:            "height exceeds configured limit",
	EBitDepth:              "invalid bit depth",
	EColorType:             "invalid colour type",
	ECompressionMethod:     "invalid compression method",
	EFilterMethod:          "invalid filter method",
	EInterlaceMethod:       "invalid interlace method",
	EChrm:                  "invalid cHRM chunk",
	EGama:                  "invalid gAMA chunk",
	ESbit:                  "invalid sBIT chunk",
	ESrgb:                  "invalid sRGB chunk",
	EPhys:                  "invalid pHYs chunk",
	ETime:                  "invalid tIME chunk",
	EOffs:                  "invalid oFFs chunk",
	EExif:                  "invalid eXIf chunk",
	ETransparencyColorType: "tRNS illegal for this colour type",
	ETransparencyNoPalette: "tRNS before PLTE",
	EBkgdNoPalette:         "bKGD before PLTE",
	EBkgdPaletteIdx:        "bKGD palette index out of range",
	EHistNoPalette:         "hIST without PLTE",
	EIccpName:              "invalid iCCP profile name",
	ESplTName:              "invalid sPLT keyword",
	ESplTDupName:           "duplicate sPLT keyword",
	ESplTDepth:             "invalid sPLT sample depth",
	EText:                  "invalid text chunk",
	ETextKeyword:           "invalid text keyword",
	EDupPlte:               "duplicate PLTE",
	EDupChrm:               "duplicate cHRM",
	EDupGama:               "duplicate gAMA",
	EDupIccp:               "duplicate iCCP",
	EDupSbit:               "duplicate sBIT",
	EDupSrgb:               "duplicate sRGB",
	EDupBkgd:               "duplicate bKGD",
	EDupHist:               "duplicate hIST",
	EDupTrns:               "duplicate tRNS",
	EDupPhys:               "duplicate pHYs",
	EDupTime:               "duplicate tIME",
	EDupOffs:               "duplicate oFFs",
	EDupExif:               "duplicate eXIf",
	ESourceEnd:             "source exhausted",
	ESourceError:           "source read failed",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("png.ErrorKind(%d)", int(k))
}

// Error is the concrete error type every core operation returns on
// failure. Kind is the closed tag from spec; Cause, when non-nil, is the
// lower-level error (an I/O failure, a zlib error, ...) that triggered it.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("png: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("png: %s", e.Kind)
}

// Unwrap exposes Cause so errors.Is/errors.As chains through it.
func (e *Error) Unwrap() error { return e.Cause }

// Format supports "%+v" the way github.com/pkg/errors-wrapped causes do,
// printing the stack trace attached to Cause, if any.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Cause != nil {
				fmt.Fprintf(s, "\n%+v", e.Cause)
			}
			return
		}
		fmt.Fprintf(s, "%s", e.Error())
	default:
		fmt.Fprintf(s, "%s", e.Error())
	}
}

// newErr constructs an Error with no particular cause.
func newErr(kind ErrorKind) error {
	return errors.WithStack(&Error{Kind: kind})
}

// wrapErr constructs an Error wrapping cause, attaching a stack trace at
// the call site via pkg/errors the way the rest of the corpus does.
func wrapErr(kind ErrorKind, cause error) error {
	if cause == nil {
		return newErr(kind)
	}
	return errors.WithStack(&Error{Kind: kind, Cause: cause})
}

// KindOf extracts the ErrorKind from err, walking the Unwrap/Cause chain
// (including any pkg/errors stack-trace wrapper). It returns (0, false)
// when err does not originate from this package.
func KindOf(err error) (ErrorKind, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// Is reports whether err's ErrorKind equals kind. Convenience for
// callers who only care about the kind, not the wrapped cause.
func Is(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
