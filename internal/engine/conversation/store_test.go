package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-engine/internal/common/logger"
	"intent-engine/internal/models"
)

type fakePersister struct {
	states  map[string]State
	loadErr error
	saveErr error
	saves   int
}

func (f *fakePersister) Load(_ context.Context, userID string) (*State, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	st, ok := f.states[userID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (f *fakePersister) Save(_ context.Context, st State, _ time.Duration) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.states == nil {
		f.states = map[string]State{}
	}
	f.states[st.Context.UserID] = st
	return nil
}

func TestStore_OneEntryPerUser(t *testing.T) {
	store := NewStore(time.Hour, 5, logger.NewTestLogger(t))
	ctx := context.Background()

	a := store.GetOrCreate(ctx, "alice")
	b := store.GetOrCreate(ctx, "alice")
	c := store.GetOrCreate(ctx, "bob")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, store.Len())
}

func TestStore_ExpiredEntryReplacedOnGetOrCreate(t *testing.T) {
	clock := newClock()
	store := NewStore(time.Hour, 5, logger.NewTestLogger(t), WithClock(clock.Now))
	ctx := context.Background()

	old := store.GetOrCreate(ctx, "alice")
	old.Update(models.IntentSales, models.Params{}, nil, "sales today", "")
	clock.Advance(2 * time.Hour)

	looked, ok := store.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, old, looked)
	assert.True(t, looked.IsExpired())

	fresh := store.GetOrCreate(ctx, "alice")
	assert.NotSame(t, old, fresh)
	assert.Equal(t, models.Intent(""), fresh.Intent())
	assert.Equal(t, 1, store.Len())
}

func TestStore_LookupMissing(t *testing.T) {
	store := NewStore(time.Hour, 5, logger.NewNoOpLogger())
	_, ok := store.Lookup("ghost")
	assert.False(t, ok)
}

func TestStore_HydratesFromPersister(t *testing.T) {
	clock := newClock()
	p := &fakePersister{states: map[string]State{
		"alice": {Context: Context{
			UserID:     "alice",
			Intent:     models.IntentPendingPurchases,
			Params:     models.ParamsFromMap(map[string]string{"brand": "DONALDSON"}),
			LastActive: clock.Now().Add(-10 * time.Minute),
		}},
		"stale": {Context: Context{
			UserID:     "stale",
			Intent:     models.IntentSales,
			LastActive: clock.Now().Add(-3 * time.Hour),
		}},
	}}
	store := NewStore(time.Hour, 5, logger.NewTestLogger(t), WithClock(clock.Now), WithPersister(p))

	alice := store.GetOrCreate(context.Background(), "alice")
	assert.Equal(t, models.IntentPendingPurchases, alice.Intent())
	assert.Equal(t, "DONALDSON", *alice.Params().Brand)

	stale := store.GetOrCreate(context.Background(), "stale")
	assert.Equal(t, models.Intent(""), stale.Intent())
}

func TestStore_PersistenceFailuresAreSwallowed(t *testing.T) {
	p := &fakePersister{loadErr: errors.New("redis down"), saveErr: errors.New("redis down")}
	store := NewStore(time.Hour, 5, logger.NewTestLogger(t), WithPersister(p))

	sess := store.GetOrCreate(context.Background(), "alice")
	require.NotNil(t, sess)
	store.Save(context.Background(), sess)
	assert.Equal(t, 1, p.saves)
}

func TestStore_SaveWithoutPersisterIsNoop(t *testing.T) {
	store := NewStore(time.Hour, 5, logger.NewNoOpLogger())
	store.Save(context.Background(), store.GetOrCreate(context.Background(), "alice"))
	store.Save(context.Background(), nil)
}
