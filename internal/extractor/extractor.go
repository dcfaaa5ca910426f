// Package extractor routes source strings to the extraction strategy that
// claims them and turns fetched input into normalized content records.
package extractor

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gocorpus/internal/corpus"
)

// ErrNoHandler is returned by Dispatch when no registered extractor claims a
// source. It is distinguishable from "a handler ran but found nothing",
// which returns an empty slice and a nil error.
var ErrNoHandler = errors.New("no extractor accepts source")

// Extractor is one extraction strategy. CanHandle must be a pure, fast
// predicate over the source string's shape (scheme, host, suffix) and never
// perform I/O. Extract may perform I/O but never fails past its own
// boundary: on failure it logs and returns an empty slice, and partial
// success is expressed by returning only the records that succeeded.
type Extractor interface {
	Name() string
	CanHandle(source string) bool
	Extract(ctx context.Context, source string) []corpus.Record
}

// Registry holds the ordered set of extractors and accumulates records
// across dispatches. Registration order is priority order: the first
// extractor whose CanHandle returns true wins. The registry is not safe for
// concurrent use; extraction runs are sequential.
type Registry struct {
	extractors []Extractor
	records    []corpus.Record
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an extractor. Registering the same kind twice is legal;
// both are tried in order and the first match wins.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
	log.Debug().Str("extractor", e.Name()).Msg("registered extractor")
}

// Dispatch routes source to the first extractor that claims it, appends the
// returned records to the run accumulator, and returns them. When nothing
// claims the source it returns ErrNoHandler; it never panics or propagates
// an extraction fault.
func (r *Registry) Dispatch(ctx context.Context, source string) ([]corpus.Record, error) {
	for _, e := range r.extractors {
		if !e.CanHandle(source) {
			continue
		}
		log.Info().Str("extractor", e.Name()).Str("source", source).Msg("dispatching source")
		records := e.Extract(ctx, source)
		r.records = append(r.records, records...)
		return records, nil
	}
	log.Warn().Str("source", source).Msg("no extractor accepts source")
	return nil, ErrNoHandler
}

// Records returns all records accumulated since the last Reset.
func (r *Registry) Records() []corpus.Record {
	return r.records
}

// Reset clears the run accumulator. Callers reset explicitly between
// independent extraction runs; it never happens automatically.
func (r *Registry) Reset() {
	r.records = nil
}
