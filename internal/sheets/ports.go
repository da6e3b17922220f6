package sheets

import "context"

// DatasetReader supplies the raw CSV bytes of the default dataset. The
// bytes go through the same loader as uploads, so every reader shares one
// parsing contract.
type DatasetReader interface {
	// ReadDataset returns the CSV content and a name identifying where it
	// came from.
	ReadDataset(ctx context.Context) (data []byte, source string, err error)
}
