package store

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// Schema returns the DDL for the search cache tables.
func Schema() string {
	return schemaSQL
}

// EnsureSchema creates the search cache tables if they do not exist. The
// candidate tables are owned elsewhere and are never touched.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
