package bbfmt

import (
	"fmt"

	"github.com/ngsfmt/bigbedkit/internal/bbio"
	"github.com/ngsfmt/bigbedkit/pkg/types"
)

// RecordFixedSize is the size of the fixed portion of a BED record inside a
// decompressed block: chromId, chromStart, chromEnd.
const RecordFixedSize = 4 + 4 + 4

// DecodeRecords decodes every BED record packed into block, in order. Each
// record is chromId/chromStart/chromEnd followed by a NUL-terminated rest
// string; the terminator itself is not part of Rest and is consumed as a
// single byte, matching how bedToBigBed originally wrote it.
func DecodeRecords(block []byte, swapped bool) ([]types.BedLine, error) {
	var records []types.BedLine
	r := bbio.NewReader(block, 0, swapped)

	for r.Pos() < int64(len(block)) {
		start := r.Pos()
		if !bbio.Has(block, int(start), RecordFixedSize) {
			return nil, fmt.Errorf("bed record at %d: %w", start, ErrTruncated)
		}
		chromID, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("bed record chromId: %w", ErrTruncated)
		}
		chromStart, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("bed record chromStart: %w", ErrTruncated)
		}
		chromEnd, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("bed record chromEnd: %w", ErrTruncated)
		}

		restStart := int(r.Pos())
		nulAt := -1
		for i := restStart; i < len(block); i++ {
			if block[i] == 0 {
				nulAt = i
				break
			}
		}
		if nulAt == -1 {
			return nil, fmt.Errorf("bed record rest: unterminated string: %w", ErrCorruptNode)
		}

		var rest []byte
		if nulAt > restStart {
			rest = append([]byte(nil), block[restStart:nulAt]...)
		}
		r.Seek(int64(nulAt) + 1)

		records = append(records, types.BedLine{
			ChromID: chromID,
			Start:   chromStart,
			End:     chromEnd,
			Rest:    rest,
		})
	}

	return records, nil
}
