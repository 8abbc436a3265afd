package samplename

import (
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	a := r.Record(Identity{Original: "a.fastq", Name: "a"})
	expect.EQ(t, a.Name, "a")
	expect.EQ(t, r.Len(), 1)

	// Recording the same canonical name keeps the first identity.
	again := r.Record(Identity{Original: "a.fq", Name: "a"})
	expect.EQ(t, again.Original, "a.fastq")
	expect.EQ(t, r.Len(), 1)

	// Near-identical names are tolerated, only logged.
	r.Record(Identity{Original: "a1.fastq", Name: "a1"})
	expect.EQ(t, r.Len(), 2)
	expect.EQ(t, r.Names(), []string{"a", "a1"})

	id, ok := r.Lookup("a1")
	expect.True(t, ok)
	expect.EQ(t, id.Original, "a1.fastq")
	_, ok = r.Lookup("missing")
	expect.False(t, ok)
}
