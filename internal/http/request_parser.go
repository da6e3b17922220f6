// Package http provides HTTP server and handler implementations.
//
// This file implements request parsing helpers: filter selections from
// query strings, bounded list limits, method guards and the upload form.

package http

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"salesdash/internal/core"
)

// UploadField is the multipart field carrying the CSV file.
const UploadField = "file"

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 1 << 20

// ParseSelection reads region and category filters from q. Repeated keys
// select several values; blanks and duplicates are dropped. Other keys are
// ignored.
func ParseSelection(q url.Values) core.FilterSelection {
	sel := core.FilterSelection{}
	for _, dim := range []string{core.DimRegion, core.DimCategory} {
		seen := make(map[string]bool)
		for _, raw := range q[dim] {
			v := strings.TrimSpace(raw)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			sel[dim] = append(sel[dim], v)
		}
	}
	return sel
}

// nonFilterParams are query keys handlers read for something other than
// filtering.
var nonFilterParams = map[string]bool{"format": true, "limit": true}

// UnknownFilters returns, sorted, the query keys that are neither a known
// dimension nor a handler parameter.
func UnknownFilters(q url.Values) []string {
	sel := core.FilterSelection{}
	for k, v := range q {
		if !nonFilterParams[k] {
			sel[k] = v
		}
	}
	unknown := sel.Unknown()
	sort.Strings(unknown)
	return unknown
}

// ParseLimit returns the "limit" parameter clamped to [1, max], or def when
// absent or invalid.
func ParseLimit(q url.Values, def, max int) int {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireGET allows GET and HEAD.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// Upload is a CSV file received from the upload form.
type Upload struct {
	File multipart.File
	Name string
	Size int64
}

// UploadError is a problem with the upload form itself, before any CSV is
// read.
type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string { return e.Message }

// ParseUpload reads the upload form, bounding the body to maxBytes. The
// caller closes Upload.File. Form problems are returned as *UploadError.
func ParseUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Upload, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &UploadError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("File is too large (limit %s)", formatBytes(maxBytes)),
			}
		}
		return nil, &UploadError{Status: http.StatusBadRequest, Message: "Invalid upload form"}
	}

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		return nil, &UploadError{Status: http.StatusBadRequest, Message: "Choose a CSV file to upload"}
	}
	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		file.Close()
		return nil, &UploadError{Status: http.StatusBadRequest, Message: "Only .csv files are accepted"}
	}
	return &Upload{File: file, Name: name, Size: header.Size}, nil
}

// isHTMX reports whether the request came from an htmx swap rather than a
// full page navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
