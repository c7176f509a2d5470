package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-engine/internal/common/errors"
	"intent-engine/internal/common/logger"
	"intent-engine/internal/models"
)

func TestRedisPersister_RoundTripWithTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisPersister(client)
	st := State{
		Context: Context{
			UserID: "alice",
			Intent: models.IntentPendingPurchases,
			Params: models.ParamsFromMap(map[string]string{"brand": "DONALDSON"}),
			LastResult: &models.HandlerResult{
				Rows:    []models.Row{{"status": "DELAYED", "total_value": 10.5}},
				Columns: []string{"status", "total_value"},
			},
		},
		History: []Turn{{ID: "t1", Role: RoleUser, Text: "late orders"}},
	}

	require.NoError(t, p.Save(context.Background(), st, time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("intent:ctx:alice"))

	got, err := p.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.IntentPendingPurchases, got.Context.Intent)
	assert.Equal(t, "DONALDSON", *got.Context.Params.Brand)
	assert.Equal(t, "DELAYED", got.Context.LastResult.Rows[0]["status"])
	assert.Equal(t, 10.5, got.Context.LastResult.Rows[0]["total_value"])
	assert.Equal(t, "late orders", got.History[0].Text)

	missing, err := p.Load(context.Background(), "bob")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRedisPersister_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	p := NewRedisPersister(client)

	mock.ExpectGet("intent:ctx:alice").SetErr(errors.New("connection refused"))
	_, err := p.Load(context.Background(), "alice")
	assert.True(t, errors.Is(err, apperrors.ErrContextPersistenceFailed))

	mock.ExpectGet("intent:ctx:alice").SetVal("{not json")
	_, err = p.Load(context.Background(), "alice")
	assert.True(t, errors.Is(err, apperrors.ErrContextPersistenceFailed))

	st := State{Context: Context{UserID: "alice"}}
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	mock.ExpectSet("intent:ctx:alice", raw, time.Minute).SetErr(errors.New("READONLY"))
	err = p.Save(context.Background(), st, time.Minute)
	assert.True(t, errors.Is(err, apperrors.ErrContextPersistenceFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithRedisPersister(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisPersister(client)
	first := NewStore(time.Hour, 5, logger.NewTestLogger(t), WithPersister(p))
	sess := first.GetOrCreate(context.Background(), "alice")
	sess.Update(models.IntentStock, models.ParamsFromMap(map[string]string{"brand": "MANN"}), nil, "estoque mann", "")
	first.Save(context.Background(), sess)

	second := NewStore(time.Hour, 5, logger.NewTestLogger(t), WithPersister(p))
	other := second.GetOrCreate(context.Background(), "alice")
	assert.Equal(t, models.IntentStock, other.Intent())
	assert.Equal(t, "MANN", *other.Params().Brand)
}
