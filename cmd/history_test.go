package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

type mockHistoryReader struct {
	GetValuesFunc       func(ctx context.Context, identifier, slug string, from, to *time.Time) (model.ValueRecords, error)
	GetLatestValuesFunc func(ctx context.Context) (model.ValueRecords, error)
}

func (m *mockHistoryReader) GetValues(ctx context.Context, identifier, slug string, from, to *time.Time) (model.ValueRecords, error) {
	if m.GetValuesFunc != nil {
		return m.GetValuesFunc(ctx, identifier, slug, from, to)
	}
	return nil, nil
}

func (m *mockHistoryReader) GetLatestValues(ctx context.Context) (model.ValueRecords, error) {
	if m.GetLatestValuesFunc != nil {
		return m.GetLatestValuesFunc(ctx)
	}
	return nil, nil
}

func TestHistory_LatestValuesWithoutFilter(t *testing.T) {
	stamp := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	db := &mockHistoryReader{
		GetLatestValuesFunc: func(ctx context.Context) (model.ValueRecords, error) {
			return model.ValueRecords{
				{TimeStamp: stamp, Value: "25.4", Identifier: "acme_farms_sensor_7", Slug: "temperature"},
			}, nil
		},
	}

	out := &bytes.Buffer{}
	require.NoError(t, history(context.Background(), db, out, "", "", 0))
	assert.Equal(t, "2026-08-30T12:00:00Z\tacme_farms_sensor_7/temperature\t25.4\n", out.String())
}

func TestHistory_FilteredRange(t *testing.T) {
	var gotIdentifier, gotSlug string
	var gotFrom, gotTo *time.Time
	db := &mockHistoryReader{
		GetValuesFunc: func(ctx context.Context, identifier, slug string, from, to *time.Time) (model.ValueRecords, error) {
			gotIdentifier, gotSlug = identifier, slug
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}

	out := &bytes.Buffer{}
	require.NoError(t, history(context.Background(), db, out, "acme_farms_sensor_7", "temperature", 24*time.Hour))

	assert.Equal(t, "acme_farms_sensor_7", gotIdentifier)
	assert.Equal(t, "temperature", gotSlug)
	require.NotNil(t, gotFrom)
	require.NotNil(t, gotTo)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), *gotFrom, time.Minute)

	// without --since the database applies its own default range
	require.NoError(t, history(context.Background(), db, out, "acme_farms_sensor_7", "temperature", 0))
	assert.Nil(t, gotFrom)
	assert.Nil(t, gotTo)
}

func TestHistory_ReadErrorIsReturned(t *testing.T) {
	readErr := errors.New("connection reset")
	db := &mockHistoryReader{
		GetLatestValuesFunc: func(ctx context.Context) (model.ValueRecords, error) {
			return nil, readErr
		},
	}

	assert.ErrorIs(t, history(context.Background(), db, &bytes.Buffer{}, "", "", 0), readErr)
}
