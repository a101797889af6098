package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/meteo-etl/internal/domain"
)

// Cleaner implements Transformer using domain.CleanRecord. Rows whose
// timestamp does not parse are dropped silently; the caller sees them only
// as the difference between input and output lengths.
type Cleaner struct{}

// NewCleaner creates a Cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

func (c *Cleaner) Transform(ctx context.Context, raw []domain.RawRecord) ([]domain.Record, error) {
	out := make([]domain.Record, 0, len(raw))
	for i := range raw {
		if i%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := domain.CleanRecord(raw[i])
		if errors.Is(err, domain.ErrInvalidTimestamp) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
