package dao

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-agrisense/models"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	u := &models.User{Username: "asha"}
	require.NoError(t, m.Users.Create(ctx, u))
	assert.Equal(t, 1, u.ID)
	assert.ErrorIs(t, m.Users.Create(ctx, &models.User{Username: "asha"}), ErrDuplicate)

	got, err := m.Users.ByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = m.Users.ByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPredictions_NewestFirstPerUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, crop := range []string{"rice", "maize", "jute"} {
		require.NoError(t, m.Predictions.Create(ctx, &models.CropPrediction{UserID: 1, PredictedCrop: crop}))
	}
	require.NoError(t, m.Predictions.Create(ctx, &models.CropPrediction{UserID: 2, PredictedCrop: "apple"}))

	got, err := m.Predictions.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "jute", got[0].PredictedCrop)
	assert.Equal(t, "rice", got[2].PredictedCrop)
}

func TestMemoryProfiles_Upsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := &models.User{Username: "asha"}
	require.NoError(t, m.Users.Create(ctx, u))

	p, err := m.Profiles.Upsert(ctx, u.ID, models.ProfileRequest{Location: "Nakuru", FarmSize: 3})
	require.NoError(t, err)
	p2, err := m.Profiles.Upsert(ctx, u.ID, models.ProfileRequest{Location: "Eldoret", FarmSize: 4})
	require.NoError(t, err)

	assert.Equal(t, p.ID, p2.ID)
	assert.Equal(t, "Eldoret", p2.Location)
	assert.Equal(t, "asha", p2.User.Username)

	all, err := m.Profiles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryPredictions_Page(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		require.NoError(t, m.Predictions.Create(ctx, &models.CropPrediction{UserID: 1, PredictedCrop: "rice"}))
	}

	page, err := m.Predictions.Page(ctx, 1, models.PredictionFilter{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, page.TotalCount)
	require.Len(t, page.Data, 5)
	assert.EqualValues(t, 7, page.Data[0].ID)

	page, err = m.Predictions.Page(ctx, 1, models.PredictionFilter{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, models.DefaultPageSize, page.PageSize)

	_, err = m.Predictions.ByID(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	p, err := m.Predictions.ByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "rice", p.PredictedCrop)
}
