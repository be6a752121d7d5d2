package png

// defaultMaxDim is the default width/height ceiling: spec.md's absolute
// maximum, 2^31-1. Callers may tighten it with Context.SetImageLimits.
const defaultMaxDim = (1 << 31) - 1

// defaultMaxChunkBytes bounds an individual chunk's declared length
// before the chunk reader will read its payload into memory.
const defaultMaxChunkBytes = maxChunkLength

// defaultCacheBytes bounds the aggregate declared length of chunk
// payloads: every non-IDAT chunk before the first IDAT (IHDR and PLTE
// included) plus tIME, eXIf and text chunks after it. It does not apply
// to IDAT, which is streamed, never cached in full.
const defaultCacheBytes = 64 << 20 // 64 MiB

// ImageLimits bounds the width/height accepted from IHDR, per spec.md
// §4.6 set_image_limits.
type ImageLimits struct {
	MaxWidth  uint32
	MaxHeight uint32
}

// ChunkLimits bounds individual chunk size and the aggregate cache of
// chunk payloads, per spec.md §4.6 set_chunk_limits and §5
// "Resource policy".
type ChunkLimits struct {
	MaxChunkBytes uint32
	CacheBytes    uint64
}

func defaultImageLimits() ImageLimits {
	return ImageLimits{MaxWidth: defaultMaxDim, MaxHeight: defaultMaxDim}
}

func defaultChunkLimits() ChunkLimits {
	return ChunkLimits{MaxChunkBytes: defaultMaxChunkBytes, CacheBytes: defaultCacheBytes}
}
