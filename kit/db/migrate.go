package db

import (
	"context"
	_ "embed"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schema }

// Migrate applies the embedded schema. Every statement is idempotent.
func Migrate(ctx context.Context, c Client) error {
	_, err := c.Exec(ctx, schema)
	return err
}
