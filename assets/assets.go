// Package assets bundles the sample dataset shown when no upload or default
// file is available.
package assets

import _ "embed"

// SampleName identifies the embedded dataset in logs and the UI notice.
const SampleName = "sample_sales.csv"

// SampleCSV is a small day-first sales table covering four regions and
// four categories.
//
//go:embed sample_sales.csv
var SampleCSV []byte
