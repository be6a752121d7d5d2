package png

import "io"

// DecodeFlags is the bitset spec.md §4.6 passes to decode_image,
// selecting which optional colour corrections the sample transformer
// applies.
type DecodeFlags uint32

const (
	// UseTransparency keys tRNS-matching samples to alpha 0.
	UseTransparency DecodeFlags = 1 << iota
	// UseGamma applies the gAMA-derived correction LUT.
	UseGamma
	// UseSbit rescales through the sBIT record instead of the source
	// bit depth.
	UseSbit
)

// AllFlags is the union of every defined flag, the common "give me the
// fully corrected image" choice.
const AllFlags = UseTransparency | UseGamma | UseSbit

// Context is the decoder's single stateful object, per spec.md §3
// "Decoder Context": source, policy, the metadata store, and a
// validity flag that DecodeImage latches permanently on its first
// failure (accessor failures do not latch it).
// A Context is not safe for concurrent use; nothing here shares state
// across Contexts beyond the caller's own allocator.
type Context struct {
	flags DecodeFlags

	imageLimits ImageLimits
	chunkLimits ChunkLimits
	crcPolicy   CRCPolicy

	sourceSet bool
	cr        *chunkReader
	store     MetadataStore

	metadataRead bool
	imageDecoded bool
	badState     bool
}

// ContextOption configures a Context at construction time, the
// functional-options shape spec.md's new(alloc_policy, flags) maps to
// in idiomatic Go: allocation policy is the runtime's GC, so only flags
// and the resource limits remain as knobs.
type ContextOption func(*Context)

// WithFlags sets the decode flags that Image decodes with. DecodeImage
// does not read them; it always takes its flags as an argument.
func WithFlags(flags DecodeFlags) ContextOption {
	return func(c *Context) { c.flags = flags }
}

// WithImageLimits overrides the default width/height ceiling.
func WithImageLimits(limits ImageLimits) ContextOption {
	return func(c *Context) { c.imageLimits = limits }
}

// WithChunkLimits overrides the default chunk-size and chunk-cache
// ceilings.
func WithChunkLimits(limits ChunkLimits) ContextOption {
	return func(c *Context) { c.chunkLimits = limits }
}

// WithCRCPolicy overrides the default CRC enforcement policy.
func WithCRCPolicy(policy CRCPolicy) ContextOption {
	return func(c *Context) { c.crcPolicy = policy }
}

// NewContext constructs a Context ready to receive a source, per
// spec.md §4.6 new(alloc_policy, flags).
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		imageLimits: defaultImageLimits(),
		chunkLimits: defaultChunkLimits(),
		crcPolicy:   DefaultCRCPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSourceBuffer attaches an in-memory PNG as the Context's source.
// Calling it, or SetSourceStream, a second time fails with
// EBufferAlreadySet, per spec.md §4.6 "exactly once".
func (c *Context) SetSourceBuffer(buf []byte) error {
	return c.setSource(NewBufferSource(buf))
}

// SetSourceStream attaches a pull-style reader as the Context's source.
func (c *Context) SetSourceStream(r io.Reader) error {
	return c.setSource(NewStreamSource(r))
}

func (c *Context) setSource(src Source) error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.sourceSet {
		return newErr(EBufferAlreadySet)
	}
	c.cr = newChunkReader(src, c.crcPolicy)
	c.sourceSet = true
	return nil
}

// SetImageLimits bounds the width/height IHDR is allowed to declare,
// per spec.md §4.6 set_image_limits. Zero leaves a dimension unbounded
// beyond the hard 2^31-1 ceiling.
func (c *Context) SetImageLimits(maxWidth, maxHeight uint32) error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.metadataRead {
		return newErr(EBadState)
	}
	c.imageLimits = ImageLimits{MaxWidth: maxWidth, MaxHeight: maxHeight}
	return nil
}

// SetChunkLimits bounds individual chunk size and the chunk cache,
// per spec.md §4.6 set_chunk_limits.
func (c *Context) SetChunkLimits(maxChunkBytes uint32, cacheBytes uint64) error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.metadataRead {
		return newErr(EBadState)
	}
	c.chunkLimits = ChunkLimits{MaxChunkBytes: maxChunkBytes, CacheBytes: cacheBytes}
	return nil
}

// SetCRCPolicy configures CRC handling independently for critical and
// ancillary chunks, per spec.md §4.6 set_crc_policy.
func (c *Context) SetCRCPolicy(critical, ancillary CRCAction) error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.metadataRead {
		return newErr(EBadState)
	}
	c.crcPolicy = CRCPolicy{Critical: critical, Ancillary: ancillary}
	if c.cr != nil {
		c.cr.policy = c.crcPolicy
	}
	return nil
}

// ensureMetadata drives the chunk reader through the signature and
// every pre-IDAT chunk on first use, the way spec.md §2's control flow
// describes: "the first call that needs header data triggers the chunk
// reader". Later calls are no-ops once metadata has been fully read.
// A failure here does not by itself latch BadState — only DecodeImage
// does that, per spec.md §5 — so a chunk already parsed before the
// failure (IHDR, typically) remains available through its accessor
// even though the overall scan did not reach the first IDAT (spec.md
// §8 scenario S3).
func (c *Context) ensureMetadata() error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.metadataRead {
		return nil
	}
	if !c.sourceSet {
		return newErr(EInvalid)
	}
	if err := ingestMetadata(c.cr, &c.store, c.imageLimits, c.chunkLimits); err != nil {
		return err
	}
	c.metadataRead = true
	return nil
}

// GetHeader returns the parsed IHDR, per spec.md §8 test 2's header
// idempotence property: once read, repeated calls return the identical
// record regardless of anything that happens afterwards.
func (c *Context) GetHeader() (IHDR, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.headerPresent {
		return IHDR{}, err
	}
	if !c.store.headerPresent {
		return IHDR{}, newErr(EChunkUnavailable)
	}
	return c.store.header, nil
}

// GetPalette returns the PLTE entries, or EChunkUnavailable if the
// image carries none.
func (c *Context) GetPalette() ([]PLTEEntry, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.palettePresent {
		return nil, err
	}
	if !c.store.palettePresent {
		return nil, newErr(EChunkUnavailable)
	}
	return c.store.palette, nil
}

// GetTransparency returns the tRNS record.
func (c *Context) GetTransparency() (TRNS, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.trnsPresent {
		return TRNS{}, err
	}
	if !c.store.trnsPresent {
		return TRNS{}, newErr(EChunkUnavailable)
	}
	return c.store.trns, nil
}

// GetChrmInt returns the canonical integer cHRM record, per spec.md §9
// Open Question 2's resolution in favour of the wire-level form.
func (c *Context) GetChrmInt() (CHRMInt, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.chrmPresent {
		return CHRMInt{}, err
	}
	if !c.store.chrmPresent {
		return CHRMInt{}, newErr(EChunkUnavailable)
	}
	return c.store.chrm, nil
}

// GetChrm is the floating-point convenience derived from GetChrmInt.
func (c *Context) GetChrm() (CHRM, error) {
	ci, err := c.GetChrmInt()
	if err != nil {
		return CHRM{}, err
	}
	return ci.AsFloat(), nil
}

// GetGama returns the gAMA record.
func (c *Context) GetGama() (GAMA, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.gamaPresent {
		return GAMA{}, err
	}
	if !c.store.gamaPresent {
		return GAMA{}, newErr(EChunkUnavailable)
	}
	return c.store.gama, nil
}

// GetIccp returns the iCCP record.
func (c *Context) GetIccp() (ICCP, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.iccpPresent {
		return ICCP{}, err
	}
	if !c.store.iccpPresent {
		return ICCP{}, newErr(EChunkUnavailable)
	}
	return c.store.iccp, nil
}

// GetSbit returns the sBIT record.
func (c *Context) GetSbit() (SBIT, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.sbitPresent {
		return SBIT{}, err
	}
	if !c.store.sbitPresent {
		return SBIT{}, newErr(EChunkUnavailable)
	}
	return c.store.sbit, nil
}

// GetSrgb returns the sRGB record.
func (c *Context) GetSrgb() (SRGB, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.srgbPresent {
		return SRGB{}, err
	}
	if !c.store.srgbPresent {
		return SRGB{}, newErr(EChunkUnavailable)
	}
	return c.store.srgb, nil
}

// GetBkgd returns the bKGD record.
func (c *Context) GetBkgd() (BKGD, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.bkgdPresent {
		return BKGD{}, err
	}
	if !c.store.bkgdPresent {
		return BKGD{}, newErr(EChunkUnavailable)
	}
	return c.store.bkgd, nil
}

// GetHist returns the hIST record.
func (c *Context) GetHist() (HIST, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.histPresent {
		return HIST{}, err
	}
	if !c.store.histPresent {
		return HIST{}, newErr(EChunkUnavailable)
	}
	return c.store.hist, nil
}

// GetPhys returns the pHYs record.
func (c *Context) GetPhys() (PHYS, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.physPresent {
		return PHYS{}, err
	}
	if !c.store.physPresent {
		return PHYS{}, newErr(EChunkUnavailable)
	}
	return c.store.phys, nil
}

// GetSplt returns every sPLT chunk recorded, in file order.
func (c *Context) GetSplt() ([]SPLT, error) {
	if err := c.ensureMetadata(); err != nil && len(c.store.splt) == 0 {
		return nil, err
	}
	if len(c.store.splt) == 0 {
		return nil, newErr(EChunkUnavailable)
	}
	return c.store.splt, nil
}

// GetTime returns the tIME record. tIME may legally trail the image
// data; a tIME chunk that appears after IDAT is only visible here once
// DecodeImage has run its post-IDAT pass.
func (c *Context) GetTime() (TIME, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.timePresent {
		return TIME{}, err
	}
	if !c.store.timePresent {
		return TIME{}, newErr(EChunkUnavailable)
	}
	return c.store.time, nil
}

// GetOffs returns the oFFs record.
func (c *Context) GetOffs() (OFFS, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.offsPresent {
		return OFFS{}, err
	}
	if !c.store.offsPresent {
		return OFFS{}, newErr(EChunkUnavailable)
	}
	return c.store.offs, nil
}

// GetExif returns the eXIf record.
func (c *Context) GetExif() (EXIF, error) {
	if err := c.ensureMetadata(); err != nil && !c.store.exifPresent {
		return EXIF{}, err
	}
	if !c.store.exifPresent {
		return EXIF{}, newErr(EChunkUnavailable)
	}
	return c.store.exif, nil
}

// GetText returns every tEXt/zTXt/iTXt record recorded so far, fully
// parsed (spec.md §9 Open Question 1: no half-parsed, presence-only
// records are ever returned).
func (c *Context) GetText() ([]TextRecord, error) {
	if err := c.ensureMetadata(); err != nil && len(c.store.text) == 0 {
		return nil, err
	}
	if len(c.store.text) == 0 {
		return nil, newErr(EChunkUnavailable)
	}
	return c.store.text, nil
}

// DecodedImageSize returns the byte length DecodeImage requires its out
// buffer to have for the given format, per spec.md §8 test 5.
func (c *Context) DecodedImageSize(format OutputFormat) (uint64, error) {
	if err := c.ensureMetadata(); err != nil {
		return 0, err
	}
	return decodedImageSize(c.store.header, format), nil
}

// DecodeImage runs the scanline pipeline and the sample transformer,
// writing the full image into out in the requested format, then walks
// whatever chunks remain to IEND. It may be called at most once per
// Context; any failure, including one surfaced from the implicit
// metadata read, transitions the Context to BadState permanently (per
// spec.md §5 "decode_image must be called at most once").
func (c *Context) DecodeImage(out []byte, format OutputFormat, flags DecodeFlags) error {
	if c.badState {
		return newErr(EBadState)
	}
	if c.imageDecoded {
		return newErr(EBadState)
	}
	if format != RGBA8 && format != RGBA16 {
		c.badState = true
		return newErr(EBadFormat)
	}

	if err := c.ensureMetadata(); err != nil {
		c.badState = true
		return err
	}

	pending, err := decodeImage(c.cr, &c.store, out, format, flags)
	if err != nil {
		c.badState = true
		return err
	}
	if err := validatePostIDAT(c.cr, &c.store, pending, c.chunkLimits); err != nil {
		c.badState = true
		return err
	}

	c.imageDecoded = true
	return nil
}
