package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"salesdash/internal/core"
	"salesdash/internal/log"
)

// formatBytes renders a byte count such as "10 MiB".
func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}

// loadErrorStatus maps a load failure onto the HTTP status shown to the
// user: bad content is 422, an unreadable source is 400.
func loadErrorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrSchema):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// loadErrorType names the error kind for logs and JSON bodies.
func loadErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrSchema):
		return log.ErrorTypeSchema
	case errors.Is(err, core.ErrSource):
		return log.ErrorTypeSource
	default:
		return log.ErrorTypeInternal
	}
}

// loadErrorMessage is the text shown to the user for a load failure.
// Schema and source errors already describe the problem in user terms.
func loadErrorMessage(err error) string {
	var schema *core.SchemaError
	if errors.As(err, &schema) {
		return schema.Error()
	}
	var source *core.SourceError
	if errors.As(err, &source) {
		return source.Error()
	}
	return "Something went wrong while loading the data"
}

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"join":   strings.Join,
	"year":   func() int { return time.Now().Year() },
	"bytes":  formatBytes,
	"plural": plural,
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
