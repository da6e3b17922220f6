package core

// Aggregate sums sales, orders and profit in sequence order. An empty
// input yields zero totals.
func Aggregate(rows []Row) Aggregates {
	var agg Aggregates
	for _, r := range rows {
		agg.TotalSales += r.Sales
		agg.TotalOrders += r.Orders
		agg.TotalProfit += r.Profit
	}
	return agg
}

// SumByCategory totals sales per category, ordered by first appearance.
func SumByCategory(rows []Row) []CategoryAmount {
	index := make(map[string]int)
	var out []CategoryAmount
	for _, r := range rows {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, CategoryAmount{Name: r.Category})
		}
		out[i].Sales += r.Sales
	}
	return out
}

// DistinctValues lists the values of a dimension in first-appearance order.
// Unknown dimensions yield nil.
func DistinctValues(rows []Row, dim string) []string {
	if !IsKnownDimension(dim) {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v, _ := r.Dimension(dim)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Summarize computes the full and filtered totals in one call.
func Summarize(full, filtered []Row) Summary {
	return Summary{
		Full:         Aggregate(full),
		Filtered:     Aggregate(filtered),
		FullRows:     len(full),
		FilteredRows: len(filtered),
	}
}
