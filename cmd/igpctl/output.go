package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// describe prefixes err with its kind, e.g. "write error: ...".
func describe(err error) error {
	kind := domain.ErrorKind(err)
	if kind == "" {
		return err
	}
	return fmt.Errorf("%s error: %w", kind, err)
}
