package core

// CategoryAmount is the sales total for one category.
type CategoryAmount struct {
	Name  string
	Sales float64
}

// Summary pairs the totals of the full dataset with those of the current
// filtered view.
type Summary struct {
	Full         Aggregates
	Filtered     Aggregates
	FullRows     int
	FilteredRows int
}
