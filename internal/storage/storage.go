package storage

import (
	"context"

	"tradeScope/internal/model"
)

// Storage defines a sink for tool invocation records.
type Storage interface {
	PutToolRecords(ctx context.Context, records []model.ToolRecord) error
}

// Discard drops every record. Used when auditing is disabled.
type Discard struct{}

func (Discard) PutToolRecords(context.Context, []model.ToolRecord) error { return nil }
