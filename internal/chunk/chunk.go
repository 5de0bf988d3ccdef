// Package chunk splits media data into bounded-size pieces for storage and
// joins them back. join(split(d, n)) == d for every d and every n > 0.
package chunk

import (
	"fmt"

	"github.com/dmitrijs2005/gophdiary/internal/common"
)

// Split divides data into ceil(len(data)/size) pieces. Every piece is
// exactly size bytes except the last, which holds the remainder. Empty data
// yields no pieces. Pieces are copies and do not alias data.
func Split(data []byte, size int) ([][]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size %d: %w", size, common.ErrInvalidArgument)
	}

	n := (len(data) + size - 1) / size
	chunks := make([][]byte, 0, n)
	for start := 0; start < len(data); start += size {
		end := min(start+size, len(data))
		chunks = append(chunks, append([]byte(nil), data[start:end]...))
	}
	return chunks, nil
}

// Join concatenates chunks in the given order. An empty sequence yields an
// empty, non-nil buffer.
func Join(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}

	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}
