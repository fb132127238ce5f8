package services

import (
	"context"
	"fmt"
	"testing"

	"findchain-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		points int64
		level  string
		next   string
	}{
		{0, "Newcomer", "Friend"},
		{499, "Newcomer", "Friend"},
		{500, "Friend", "Hero"},
		{1999, "Hero", "Super Hero"},
		{5000, "Legend", ""},
		{12000, "Legend", ""},
	}
	for _, tc := range cases {
		level, next := LevelFor(tc.points)
		assert.Equal(t, tc.level, level.Name, tc.points)
		if tc.next == "" {
			assert.Nil(t, next, tc.points)
		} else {
			require.NotNil(t, next, tc.points)
			assert.Equal(t, tc.next, next.Name, tc.points)
		}
	}
}

func TestReputationAndTrustTier(t *testing.T) {
	assert.Equal(t, 0, Reputation(0, 0))
	assert.Equal(t, 75, Reputation(3, 1))
	assert.Equal(t, 100, Reputation(4, 0))

	assert.Equal(t, "Trusted", TrustTier(80))
	assert.Equal(t, "Verified", TrustTier(50))
	assert.Equal(t, "New", TrustTier(20))
	assert.Equal(t, "Unverified", TrustTier(19))
}

func TestAwardIsIdempotent(t *testing.T) {
	svc := NewPointsService(newTestDB(t))
	ctx := context.Background()
	addr := "0xAbCdEf0000000000000000000000000000000001"

	up, awarded, err := svc.Award(ctx, addr, models.PointsKindDeviceReturned, "claim:7", "Returned device for token 3")
	require.NoError(t, err)
	assert.True(t, awarded)
	assert.Equal(t, int64(180), up.TotalPoints)
	assert.Equal(t, int64(1), up.ItemsReturned)
	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", up.Address)

	up, awarded, err = svc.Award(ctx, addr, models.PointsKindDeviceReturned, "claim:7", "Returned device for token 3")
	require.NoError(t, err)
	assert.False(t, awarded)
	assert.Equal(t, int64(180), up.TotalPoints)
	assert.Equal(t, int64(1), up.ItemsReturned)

	events, total, err := svc.History(ctx, addr, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "claim:7", events[0].Reference)
}

func TestSummaryTracksLevelAndReputation(t *testing.T) {
	svc := NewPointsService(newTestDB(t))
	ctx := context.Background()
	addr := "0x00000000000000000000000000000000000000aa"

	for _, ref := range []string{"listing:1", "listing:2", "listing:3"} {
		_, _, err := svc.Award(ctx, addr, models.PointsKindFoundPosted, ref, "Posted found item")
		require.NoError(t, err)
	}
	for _, ref := range []string{"claim:1", "claim:2"} {
		_, _, err := svc.Award(ctx, addr, models.PointsKindDeviceReturned, ref, "Returned device")
		require.NoError(t, err)
	}
	_, _, err := svc.Award(ctx, addr, models.PointsKindClaimRejected, "claim:3", "Claim rejected")
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, int64(720), sum.TotalPoints)
	assert.Equal(t, "Friend", sum.Level)
	assert.Equal(t, "Hero", sum.NextLevel)
	assert.Equal(t, int64(280), sum.PointsToNext)
	assert.Equal(t, int64(3), sum.ItemsPosted)
	assert.Equal(t, int64(2), sum.ItemsReturned)
	assert.Equal(t, int64(1), sum.ClaimsRejected)
	assert.Equal(t, 66, sum.Reputation)
	assert.Equal(t, "Verified", sum.TrustTier)
	assert.NotNil(t, sum.LastLevelUpAt)
}

func TestSummaryForNewWallet(t *testing.T) {
	svc := NewPointsService(newTestDB(t))

	sum, err := svc.Summary(context.Background(), "0x00000000000000000000000000000000000000BB")
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000bb", sum.Address)
	assert.Equal(t, int64(0), sum.TotalPoints)
	assert.Equal(t, "Newcomer", sum.Level)
	assert.Equal(t, "Friend", sum.NextLevel)
	assert.Equal(t, int64(500), sum.PointsToNext)
	assert.Equal(t, "Unverified", sum.TrustTier)

	// Reading a profile never creates one.
	for i := 0; i < 3; i++ {
		_, err := svc.Summary(context.Background(), fmt.Sprintf("0x%040x", i+1))
		require.NoError(t, err)
	}
	var rows int64
	require.NoError(t, svc.DB.Model(&models.UserPoints{}).Count(&rows).Error)
	assert.Equal(t, int64(0), rows)
}
