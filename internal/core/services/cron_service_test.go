package services

import (
	"context"
	"testing"
	"time"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/pkg/testdb"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeExpiredTokens(t *testing.T) {
	ctx := context.Background()
	repo := repositories.NewRefreshTokenRepository(testdb.Open(t))

	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "expired", ExpiresAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.RefreshToken{UserID: 1, TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	svc := NewCronService(repo)
	n, err := svc.PurgeExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByTokenHash(ctx, "live")
	assert.NoError(t, err)
	_, err = repo.GetByTokenHash(ctx, "expired")
	assert.Error(t, err)
}

func TestPurgeSchedule(t *testing.T) {
	schedule, err := cron.ParseStandard(PurgeSchedule)
	require.NoError(t, err)

	next := schedule.Next(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC), next)
}
