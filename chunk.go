package png

import (
	"encoding/binary"
)

// pngSignature is the 8-byte magic every PNG datastream must start with.
var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// chunkType is the 4-byte ASCII type code of a chunk. PNG encodes three
// bits of metadata in the case of each byte; see isCritical/isPrivate/
// reservedBitSet/isSafeToCopy below (spec.md glossary: Critical/Ancillary
// chunk).
type chunkType [4]byte

func (t chunkType) String() string { return string(t[:]) }

func (t chunkType) isCritical() bool     { return t[0]&0x20 == 0 }
func (t chunkType) isPrivate() bool      { return t[1]&0x20 != 0 }
func (t chunkType) reservedBitSet() bool { return t[2]&0x20 != 0 }
func (t chunkType) isSafeToCopy() bool   { return t[3]&0x20 != 0 }

var (
	ctIHDR = chunkType{'I', 'H', 'D', 'R'}
	ctPLTE = chunkType{'P', 'L', 'T', 'E'}
	ctIDAT = chunkType{'I', 'D', 'A', 'T'}
	ctIEND = chunkType{'I', 'E', 'N', 'D'}
	ctTRNS = chunkType{'t', 'R', 'N', 'S'}
	ctCHRM = chunkType{'c', 'H', 'R', 'M'}
	ctGAMA = chunkType{'g', 'A', 'M', 'A'}
	ctICCP = chunkType{'i', 'C', 'C', 'P'}
	ctSBIT = chunkType{'s', 'B', 'I', 'T'}
	ctSRGB = chunkType{'s', 'R', 'G', 'B'}
	ctTEXT = chunkType{'t', 'E', 'X', 't'}
	ctZTXT = chunkType{'z', 'T', 'X', 't'}
	ctITXT = chunkType{'i', 'T', 'X', 't'}
	ctBKGD = chunkType{'b', 'K', 'G', 'D'}
	ctHIST = chunkType{'h', 'I', 'S', 'T'}
	ctPHYS = chunkType{'p', 'H', 'Y', 's'}
	ctSPLT = chunkType{'s', 'P', 'L', 'T'}
	ctTIME = chunkType{'t', 'I', 'M', 'E'}
	ctOFFS = chunkType{'o', 'F', 'F', 's'}
	ctEXIF = chunkType{'e', 'X', 'I', 'f'}
)

// knownCriticalChunks is used to reject an unrecognized critical chunk
// with EChunkUnknownCritical per spec.md §4.3.
var knownCriticalChunks = map[chunkType]bool{
	ctIHDR: true, ctPLTE: true, ctIDAT: true, ctIEND: true,
}

// maxChunkLength is the largest legal declared chunk length: 2^31-1,
// per spec.md §3.
const maxChunkLength = (1 << 31) - 1

// CRCAction selects how a chunk reader treats a chunk's trailing CRC-32,
// per spec.md §4.2.
type CRCAction int

const (
	// CRCUse verifies the CRC and fails with EChunkCrc on mismatch.
	CRCUse CRCAction = iota
	// CRCSkip reads the CRC but never compares it.
	CRCSkip
	// CRCDiscard reads the CRC but never compares it, exactly like
	// CRCSkip: the chunk is still parsed and recorded, not dropped, and
	// nothing rejects this value for critical chunks.
	CRCDiscard
)

// CRCPolicy configures CRC handling independently for critical and
// ancillary chunks, per spec.md §4.2.
type CRCPolicy struct {
	Critical  CRCAction
	Ancillary CRCAction
}

// DefaultCRCPolicy verifies every chunk's CRC, matching a conforming PNG
// reader's default behaviour.
func DefaultCRCPolicy() CRCPolicy {
	return CRCPolicy{Critical: CRCUse, Ancillary: CRCUse}
}

// chunkHeader is the {length, type} pair read at the start of a chunk;
// spec.md §3's "Chunk record" minus the offset/crc fields, which the
// chunkReader tracks separately while the chunk is being consumed.
type chunkHeader struct {
	length uint32
	typ    chunkType
}

// chunkReader drives the low-level chunk framing: signature, then
// {length(4), type(4), payload(length), crc(4)} repeated, per spec.md
// §4.2. It holds exactly the state spec.md names: current_chunk,
// current_chunk_bytes_left, running_crc.
type chunkReader struct {
	src Source

	policy CRCPolicy
	crc    *crcAdapter

	current         chunkHeader
	bytesLeft       uint32
	haveCurrent     bool
	sawFirstHeader  bool
	pendingCRCCheck bool // true once a chunk's payload has been fully read and its CRC remains to be verified on the NEXT readHeader call
}

func newChunkReader(src Source, policy CRCPolicy) *chunkReader {
	return &chunkReader{src: src, policy: policy, crc: newCRCAdapter()}
}

// readSignature consumes and validates the 8-byte PNG magic.
func (r *chunkReader) readSignature() error {
	b, err := r.src.readExact(8)
	if err != nil {
		if Is(err, ESourceEnd) {
			return newErr(ESignature)
		}
		return err
	}
	if [8]byte(b) != pngSignature {
		return newErr(ESignature)
	}
	return nil
}

// verifyTrailingCRC reads the 4-byte CRC trailer of the CURRENT chunk
// (whose payload must already be fully consumed or discarded) and checks
// it per policy. Called from readHeader before moving to the next chunk,
// and explicitly at end-of-stream for the final chunk (IEND).
func (r *chunkReader) verifyTrailingCRC() error {
	if !r.pendingCRCCheck {
		return nil
	}
	if r.bytesLeft != 0 {
		return newErr(EInvalid) // caller bug: payload not fully consumed
	}
	action := r.policy.Ancillary
	if r.current.typ.isCritical() {
		action = r.policy.Critical
	}
	b, err := r.src.readExact(4)
	if err != nil {
		return err
	}
	stored := binary.BigEndian.Uint32(b)
	r.pendingCRCCheck = false
	if action == CRCSkip || action == CRCDiscard {
		return nil
	}
	if stored != r.crc.sum32() {
		return newErr(EChunkCrc)
	}
	return nil
}

// readHeader validates the previous chunk's CRC (per policy), then reads
// the next 8-byte chunk header, per spec.md §4.2.
func (r *chunkReader) readHeader() (chunkHeader, error) {
	if err := r.verifyTrailingCRC(); err != nil {
		return chunkHeader{}, err
	}

	if !r.sawFirstHeader {
		if err := r.readSignature(); err != nil {
			return chunkHeader{}, err
		}
		r.sawFirstHeader = true
	}

	b, err := r.src.readExact(8)
	if err != nil {
		return chunkHeader{}, err
	}
	length := binary.BigEndian.Uint32(b[:4])
	if length > maxChunkLength {
		return chunkHeader{}, newErr(EChunkSize)
	}
	var typ chunkType
	copy(typ[:], b[4:8])

	r.current = chunkHeader{length: length, typ: typ}
	r.bytesLeft = length
	r.haveCurrent = true
	r.pendingCRCCheck = true
	r.crc.reset(typ)
	return r.current, nil
}

// readPayload consumes n <= bytesLeft bytes of the current chunk's
// payload and folds them into the running CRC, returning the bytes.
func (r *chunkReader) readPayload(n uint32) ([]byte, error) {
	if !r.haveCurrent || n > r.bytesLeft {
		return nil, newErr(EInvalid)
	}
	b, err := r.src.readExact(int(n))
	if err != nil {
		return nil, err
	}
	r.crc.write(b)
	r.bytesLeft -= n
	return b, nil
}

// discardPayload consumes n <= bytesLeft bytes without retaining them
// (other than folding them into the running CRC), used to skip chunk
// trailers and ignored chunks.
func (r *chunkReader) discardPayload(n uint32) error {
	_, err := r.readPayload(n)
	return err
}

// readAllPayload reads the whole remaining payload of the current chunk.
func (r *chunkReader) readAllPayload() ([]byte, error) {
	return r.readPayload(r.bytesLeft)
}

// skipRemainder discards whatever payload remains unread.
func (r *chunkReader) skipRemainder() error {
	if r.bytesLeft == 0 {
		return nil
	}
	return r.discardPayload(r.bytesLeft)
}
