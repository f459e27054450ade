package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
)

func TestParallel_KeepsOrder(t *testing.T) {
	results, err := Parallel(context.Background(),
		func(context.Context) (int, error) { return 3, nil },
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
	)

	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, results)
}

func TestParallel_FailureCancelsOthers(t *testing.T) {
	notFound := domain.NewNotFoundError("auditor", "a-1")

	results, err := Parallel(context.Background(),
		func(context.Context) (int, error) { return 0, notFound },
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
	)

	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, domain.IsNotFound(err))
}

func TestParallel2(t *testing.T) {
	stats, calls, err := Parallel2(context.Background(),
		func(context.Context) (domain.CallStats, error) { return domain.CallStats{Audited: 2}, nil },
		func(context.Context) ([]string, error) { return []string{"c-1"}, nil },
	)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Audited)
	assert.Equal(t, []string{"c-1"}, calls)
}

func TestParallel3_ZeroValuesOnError(t *testing.T) {
	boom := errors.New("boom")

	a, b, c, err := Parallel3(context.Background(),
		func(context.Context) (int, error) { return 7, nil },
		func(context.Context) (string, error) { return "", boom },
		func(context.Context) (map[string]int, error) { return map[string]int{"x": 1}, nil },
	)

	require.ErrorIs(t, err, boom)
	assert.Zero(t, a)
	assert.Empty(t, b)
	assert.Nil(t, c)
}
