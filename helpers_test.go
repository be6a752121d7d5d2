package png

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
)

// testChunk is one {type, payload} pair for assembling a synthetic PNG
// byte stream in tests, without committing binary fixture files.
type testChunk struct {
	typ     string
	payload []byte
}

// encodePNG assembles the 8-byte signature followed by each chunk in
// order, computing every chunk's CRC-32 the same way a real encoder
// would (type bytes + payload, IEEE polynomial — the same one
// crcAdapter computes, just via the standard library here since this
// is test-only code).
func encodePNG(chunks []testChunk) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature[:])
	for _, c := range chunks {
		writeTestChunk(&buf, c.typ, c.payload)
	}
	return buf.Bytes()
}

func writeTestChunk(buf *bytes.Buffer, typ string, payload []byte) {
	var lenB [4]byte
	binary.BigEndian.PutUint32(lenB[:], uint32(len(payload)))
	buf.Write(lenB[:])
	buf.WriteString(typ)
	buf.Write(payload)

	h := crc32.NewIEEE()
	h.Write([]byte(typ))
	h.Write(payload)
	var crcB [4]byte
	binary.BigEndian.PutUint32(crcB[:], h.Sum32())
	buf.Write(crcB[:])
}

// ihdrPayload builds a 13-byte IHDR payload.
func ihdrPayload(width, height uint32, bitDepth, colorType, interlace byte) []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[0:4], width)
	binary.BigEndian.PutUint32(b[4:8], height)
	b[8] = bitDepth
	b[9] = colorType
	b[10] = 0
	b[11] = 0
	b[12] = interlace
	return b
}

// deflateBytes zlib-compresses raw, the same codec IDAT payloads use.
func deflateBytes(raw []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(raw)
	w.Close()
	return buf.Bytes()
}

// onePixelGrayscalePNG builds a minimal non-interlaced 1x1 Grayscale
// 8-bit PNG whose single sample is v, per spec.md §8 scenario S1.
func onePixelGrayscalePNG(v byte) []byte {
	raw := []byte{0x00, v} // filter None, one sample
	idat := deflateBytes(raw)
	return encodePNG([]testChunk{
		{"IHDR", ihdrPayload(1, 1, 8, ColorGrayscale, 0)},
		{"IDAT", idat},
		{"IEND", nil},
	})
}
