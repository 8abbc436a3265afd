package aggregate

import "github.com/grailbio/qc/grouping"

// WeightedCol pairs a value column with the column providing its
// weights.
type WeightedCol struct {
	Col    string
	Weight string
}

// Policy controls how the member rows of a group merge into one row.
// Columns not named by the policy are left out of the merged row.
type Policy struct {
	// Weighted columns merge as sum(value*weight)/sum(weight).
	Weighted []WeightedCol
	// Avg columns merge as sum(value)/memberCount.
	Avg []string
	// Sum columns merge as sum(value).
	Sum []string
	// Extra reducers run last, in order, and may overwrite any cell.
	Extra []Reducer
}

// GroupRows is the output block for one group: for groups of two or
// more samples, the merged row followed by every member row; for
// singleton groups, just the member's row.
type GroupRows struct {
	Group string
	Rows  []Row
}

// Aggregate merges data (metric rows keyed by sample name) according to
// the resolved groups, in group order. Missing and non-numeric cells
// contribute zero and never fail the merge.
func Aggregate(data map[string]map[string]Value, groups []grouping.Group, p Policy) []GroupRows {
	out := make([]GroupRows, 0, len(groups))
	for _, g := range groups {
		if len(g.Members) == 0 {
			continue
		}
		name := g.Name
		if len(g.Members) > 1 {
			// A merged row must not shadow a real sample.
			if _, ok := data[name]; ok {
				name += " (grouped)"
			}
		}
		if len(g.Members) == 1 {
			m := g.Members[0]
			out = append(out, GroupRows{
				Group: name,
				Rows:  []Row{{Sample: m.Display, Data: data[m.Original]}},
			})
			continue
		}

		merged := Row{Sample: name, Data: make(map[string]Value)}

		// Weight columns are summed first so that every weighted column
		// shares the same denominators.
		weightSum := make(map[string]float64)
		if len(p.Weighted) > 0 {
			for _, wc := range p.Weighted {
				weightSum[wc.Weight] = 0
			}
			for col := range weightSum {
				weightSum[col] = sumCol(data, g.Members, col)
			}
			for _, wc := range p.Weighted {
				weight := weightSum[wc.Weight]
				if weight <= 0 {
					continue
				}
				var total float64
				for _, m := range g.Members {
					row := data[m.Original]
					v, vok := Num(row[wc.Col])
					w, wok := Num(row[wc.Weight])
					if vok && wok {
						total += v * w
					}
				}
				merged.Data[wc.Col] = total / weight
			}
		}

		for _, col := range p.Avg {
			merged.Data[col] = sumCol(data, g.Members, col) / float64(len(g.Members))
		}

		for _, col := range p.Sum {
			if w, ok := weightSum[col]; ok {
				merged.Data[col] = w
				continue
			}
			merged.Data[col] = sumCol(data, g.Members, col)
		}

		for _, r := range p.Extra {
			r.Reduce(&merged, g.Members)
		}

		rows := make([]Row, 0, len(g.Members)+1)
		rows = append(rows, merged)
		for _, m := range g.Members {
			rows = append(rows, Row{Sample: m.Display, Data: data[m.Original]})
		}
		out = append(out, GroupRows{Group: name, Rows: rows})
	}
	return out
}

func sumCol(data map[string]map[string]Value, members []grouping.Member, col string) float64 {
	var total float64
	for _, m := range members {
		if v, ok := Num(data[m.Original][col]); ok {
			total += v
		}
	}
	return total
}
