package warchest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAwardsFixture(t *testing.T, config *AwardsConfig) (*NakamaAwardsSystem, *NakamaLedgerSystem, *testNakamaModule, *capturingPublisher) {
	t.Helper()

	nk := newTestNakama()
	ledger := NewNakamaLedgerSystem(nil)
	awards := NewNakamaAwardsSystem(config)
	publisher := &capturingPublisher{}

	w := newTestWarchest(ledger, awards)
	w.AddPublisher(publisher)

	return awards, ledger, nk, publisher
}

func TestAwardsPlayerConnectedWelcomesNewPlayer(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	awards, _, nk, publisher := newAwardsFixture(t, nil)

	balance, created, err := awards.PlayerConnected(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(100), balance.Points)

	assert.Equal(t, 1, nk.notificationCount("user1", NotificationCodeWelcome))
	assert.Equal(t, []bool{true}, publisher.authCalls)

	// A returning player gets no second welcome.
	_, created, err = awards.PlayerConnected(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, nk.notificationCount("user1", NotificationCodeWelcome))
	assert.Equal(t, []bool{true, false}, publisher.authCalls)
}

func TestAwardsDestructibleDestroyed(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	awards, ledger, nk, publisher := newAwardsFixture(t, nil)

	_, _, err := ledger.EnsurePlayer(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)

	balance, err := awards.DestructibleDestroyed(ctx, logger, nk, "user1", true)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, int64(150), balance.Points)

	assert.Equal(t, 1, nk.notificationCount("user1", NotificationCodeAward))
	assert.Equal(t, []string{"destructible_destroyed"}, publisher.eventNames())
}

func TestAwardsDestructibleNotQualifying(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	awards, ledger, nk, _ := newAwardsFixture(t, nil)

	_, _, err := ledger.EnsurePlayer(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)

	balance, err := awards.DestructibleDestroyed(ctx, logger, nk, "user1", false)
	require.NoError(t, err)
	assert.Nil(t, balance)

	unchanged, err := ledger.GetBalance(ctx, logger, nk, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), unchanged.Points)
}

func TestAwardsContainerEmptiedRequiresDrained(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	awards, ledger, nk, _ := newAwardsFixture(t, nil)

	_, _, err := ledger.EnsurePlayer(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)

	// Walking away from a half-full container earns nothing.
	balance, err := awards.ContainerEmptied(ctx, logger, nk, "user1", true, false)
	require.NoError(t, err)
	assert.Nil(t, balance)

	// A non-qualifying container earns nothing even when drained.
	balance, err = awards.ContainerEmptied(ctx, logger, nk, "user1", false, true)
	require.NoError(t, err)
	assert.Nil(t, balance)

	balance, err = awards.ContainerEmptied(ctx, logger, nk, "user1", true, true)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, int64(150), balance.Points)
}

func TestAwardsConfiguredAmounts(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}
	awards, ledger, nk, _ := newAwardsFixture(t, &AwardsConfig{DestructiblePoints: 10, ContainerPoints: 20})

	_, _, err := ledger.EnsurePlayer(ctx, logger, nk, "user1", "Alice")
	require.NoError(t, err)

	balance, err := awards.DestructibleDestroyed(ctx, logger, nk, "user1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(110), balance.Points)

	balance, err = awards.ContainerEmptied(ctx, logger, nk, "user1", true, true)
	require.NoError(t, err)
	assert.Equal(t, int64(130), balance.Points)
}
