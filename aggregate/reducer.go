package aggregate

import "github.com/grailbio/qc/grouping"

// Reducer computes additional cells of a merged group row. Reducers run
// after the built-in weighted, average and sum columns and may
// overwrite them.
type Reducer interface {
	Reduce(merged *Row, members []grouping.Member)
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc func(merged *Row, members []grouping.Member)

// Reduce calls f.
func (f ReducerFunc) Reduce(merged *Row, members []grouping.Member) {
	f(merged, members)
}
