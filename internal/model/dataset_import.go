package model

import "time"

// TableImport records one replacement of the stored reference table.
type TableImport struct {
	ID         string    `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	Records    int       `json:"records" yaml:"records"`
	ImportedAt time.Time `json:"imported_at" yaml:"imported_at"`
}
