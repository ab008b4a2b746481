package places

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
)

type scriptedSource struct {
	calls int
	err   error
	out   []entities.RawFacility
}

func (s *scriptedSource) Name() entities.SourceKind { return entities.SourcePrimary }

func (s *scriptedSource) Search(context.Context, entities.Coordinate, int, []string) ([]entities.RawFacility, error) {
	s.calls++
	return s.out, s.err
}

func TestBreakerSource_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &scriptedSource{err: errors.New("upstream down")}
	source := NewBreakerSource(inner, 2, time.Minute)

	for range 2 {
		_, err := source.Search(context.Background(), center, 7000, nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, providers.ErrSourceSkipped)
	}

	_, err := source.Search(context.Background(), center, 7000, nil)
	assert.ErrorIs(t, err, providers.ErrSourceSkipped)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, "open", source.State())
}

func TestBreakerSource_EmptyIsNotFailure(t *testing.T) {
	inner := &scriptedSource{}
	source := NewBreakerSource(inner, 1, time.Minute)

	for range 3 {
		got, err := source.Search(context.Background(), center, 7000, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, entities.SourcePrimary, source.Name())
}
