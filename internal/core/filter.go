package core

// Filter returns the rows whose region and category are members of the
// selected value sets. Dimensions are AND-combined, values within a
// dimension OR-combined, and matching is exact. Unknown dimension names
// are ignored; callers can report them via FilterSelection.Unknown.
//
// The result is always a new slice in input order, so the caller's rows
// are never aliased.
func Filter(rows []Row, sel FilterSelection) []Row {
	sets := make(map[string]map[string]struct{})
	for dim, values := range sel {
		if !IsKnownDimension(dim) || len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		sets[dim] = set
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if matchesAll(r, sets) {
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(r Row, sets map[string]map[string]struct{}) bool {
	for dim, set := range sets {
		v, _ := r.Dimension(dim)
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}
