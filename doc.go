// Package png implements a streaming PNG decoder.
//
// It is a fork of fumin/png's row-by-row approach, generalized from a
// single hard-coded colour type (truecolour-with-alpha, 8-bit) to the full
// PNG colour model: all five colour types, every legal bit depth, Adam7
// interlacing, palette and transparency handling, significant-bit
// rescaling, gamma correction, and full textual and ancillary metadata
// parsing (tEXt/zTXt/iTXt, cHRM, iCCP, sRGB, bKGD, hIST, pHYs, sPLT,
// tIME, oFFs, eXIf). Encoding is out of scope, as is any mutation of an
// already-decoded image.
//
// The decoder never blocks beyond the caller-supplied Source, performs no
// internal queuing, and is not safe for concurrent use by multiple
// goroutines against the same Context.
package png
