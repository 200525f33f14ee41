package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/netpulse/netpulse/internal/config"
	"github.com/netpulse/netpulse/pkg/types"
)

// Source produces the raw measurement records for one evaluation cycle.
type Source interface {
	Load(ctx context.Context) ([]types.MeasurementRecord, error)
}

// New returns the Source selected by src.Type.
func New(src config.Source) (Source, error) {
	switch src.Type {
	case "csv":
		return &csvSource{path: src.Path}, nil
	case "sqlite":
		return &sqliteSource{path: src.Path, table: src.Table}, nil
	case "prometheus":
		client, err := buildHTTPClient(src)
		if err != nil {
			return nil, fmt.Errorf("ingest: build http client: %w", err)
		}
		return &promSource{src: src, client: client, now: time.Now}, nil
	default:
		return nil, fmt.Errorf("ingest: unsupported source type %q", src.Type)
	}
}

// ParseError reports a value that could not be converted to a number.
type ParseError struct {
	Line   int // 1-based; for sqlite the row ordinal
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
