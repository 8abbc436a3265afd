package report

import (
	"fmt"

	"blainsmith.com/go/seahash"
)

// Checksum is an order-independent fingerprint of emitted table cells.
// Each (file, sample, column, value) cell hashes to a 64-bit term and
// the terms sum commutatively, so two runs writing the same cells in
// different row order produce the same checksum.
type Checksum struct {
	// NCells is the number of cells accumulated.
	NCells int64
	// Sum is the commutative sum of per-cell hashes.
	Sum uint64
}

// Add accumulates one table cell.
func (c *Checksum) Add(file, sample, column, value string) {
	h := seahash.New()
	for _, part := range []string{file, sample, column, value} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	c.NCells++
	c.Sum += h.Sum64()
}

// Merge adds other's cells into c.
func (c *Checksum) Merge(other Checksum) {
	c.NCells += other.NCells
	c.Sum += other.Sum
}

// String renders the checksum as a fixed-width hex string.
func (c Checksum) String() string {
	return fmt.Sprintf("%016x", c.Sum)
}
