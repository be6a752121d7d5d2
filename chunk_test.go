package png

import "testing"

func TestChunkTypeBits(t *testing.T) {
	ihdr := chunkType{'I', 'H', 'D', 'R'}
	if !ihdr.isCritical() {
		t.Fatal("IHDR should be critical")
	}
	if ihdr.isPrivate() || ihdr.reservedBitSet() || ihdr.isSafeToCopy() {
		t.Fatalf("IHDR should have no other bits set: %+v", ihdr)
	}

	text := chunkType{'t', 'E', 'X', 't'}
	if text.isCritical() {
		t.Fatal("tEXt should be ancillary")
	}

	priv := chunkType{'t', 'e', 'X', 't'}
	if !priv.isPrivate() {
		t.Fatal("lowercase 2nd byte should mark a private chunk")
	}

	reserved := chunkType{'t', 'E', 'x', 't'}
	if !reserved.reservedBitSet() {
		t.Fatal("lowercase 3rd byte should set the reserved bit")
	}
}

func TestCheckPNGKeyword(t *testing.T) {
	valid := []string{"Title", "a", "Two Words", "Author"}
	for _, v := range valid {
		if !checkPNGKeyword([]byte(v)) {
			t.Fatalf("expected %q to be valid", v)
		}
	}

	invalid := []string{"", " leading", "trailing ", "double  space", string(make([]byte, 80))}
	for _, v := range invalid {
		if checkPNGKeyword([]byte(v)) {
			t.Fatalf("expected %q to be invalid", v)
		}
	}
}

func TestChunkReaderRejectsBadSignature(t *testing.T) {
	src := newBufferSource([]byte("not a png file at all!!"))
	cr := newChunkReader(src, DefaultCRCPolicy())
	_, err := cr.readHeader()
	if !Is(err, ESignature) {
		t.Fatalf("expected ESignature, got %v", err)
	}
}

func TestChunkReaderRejectsOversizedLength(t *testing.T) {
	buf := encodePNG([]testChunk{{"IHDR", ihdrPayload(1, 1, 8, ColorGrayscale, 0)}})
	// Corrupt IHDR's length field (first chunk header after the 8-byte
	// signature) to exceed the 2^31-1 ceiling.
	buf[8] = 0xFF
	src := newBufferSource(buf)
	cr := newChunkReader(src, DefaultCRCPolicy())
	_, err := cr.readHeader()
	if !Is(err, EChunkSize) {
		t.Fatalf("expected EChunkSize, got %v", err)
	}
}
