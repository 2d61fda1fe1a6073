package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"

	"github.com/IshaanNene/EcoCheck/internal/types"
)

func TestRedisKV_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	kv := newRedisKV(db, "ecocheck:", testLogger)
	ctx := context.TODO()

	// Success
	mock.ExpectGet("ecocheck:geminiApiKey").SetVal(`"secret"`)
	val, err := kv.Get(ctx, CredentialKey)
	assert.NoError(t, err)
	assert.Equal(t, `"secret"`, string(val))

	// Missing
	mock.ExpectGet("ecocheck:lastAnalysis").RedisNil()
	_, err = kv.Get(ctx, LastAnalysisKey)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Error
	mock.ExpectGet("ecocheck:lastAnalysis").SetErr(errors.New("redis error"))
	_, err = kv.Get(ctx, LastAnalysisKey)
	var serr *types.StorageError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, "get", serr.Op)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisKV_SetDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	kv := newRedisKV(db, "ecocheck:", testLogger)
	ctx := context.TODO()

	value := []byte(`{"label":"Moderate"}`)
	mock.ExpectSet("ecocheck:lastAnalysis", value, 0).SetVal("OK")
	assert.NoError(t, kv.Set(ctx, LastAnalysisKey, value))

	mock.ExpectDel("ecocheck:analysis_1", "ecocheck:analysis_2").SetVal(2)
	assert.NoError(t, kv.Delete(ctx, "analysis_1", "analysis_2"))

	// No keys is a no-op.
	assert.NoError(t, kv.Delete(ctx))

	mock.ExpectDel("ecocheck:x").SetErr(errors.New("redis error"))
	assert.Error(t, kv.Delete(ctx, "x"))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisKV_Keys(t *testing.T) {
	db, mock := redismock.NewClientMock()
	kv := newRedisKV(db, "ecocheck:", testLogger)
	ctx := context.TODO()

	mock.ExpectScan(0, "ecocheck:*", 100).SetVal([]string{"ecocheck:lastAnalysis", "ecocheck:analysis_7"}, 0)
	keys, err := kv.Keys(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{LastAnalysisKey, "analysis_7"}, keys)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestRedisKV_KeysFollowsCursor(t *testing.T) {
	db, mock := redismock.NewClientMock()
	kv := newRedisKV(db, "ecocheck:", testLogger)
	ctx := context.TODO()

	mock.ExpectScan(0, "ecocheck:*", 100).SetVal([]string{"ecocheck:analysis_1"}, 17)
	mock.ExpectScan(17, "ecocheck:*", 100).SetVal([]string{"ecocheck:analysis_2", "ecocheck:lastAnalysis"}, 0)
	keys, err := kv.Keys(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"analysis_1", "analysis_2", LastAnalysisKey}, keys)

	mock.ExpectScan(0, "ecocheck:*", 100).SetErr(errors.New("redis error"))
	_, err = kv.Keys(ctx)
	var serr *types.StorageError
	assert.ErrorAs(t, err, &serr)
	assert.Equal(t, "scan", serr.Op)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestStoreOverRedis_ClearOldAnalyses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewStore(newRedisKV(db, "ecocheck:", testLogger), testStorageConfig(), testLogger)
	ctx := context.TODO()

	mock.ExpectScan(0, "ecocheck:*", 100).SetVal([]string{
		"ecocheck:lastAnalysis",
		"ecocheck:analysis_1",
		"ecocheck:analysisHistory",
	}, 0)
	mock.ExpectGet("ecocheck:analysisHistory").SetVal(`[1,2,3]`)
	mock.ExpectDel("ecocheck:analysis_1", "ecocheck:analysisHistory").SetVal(2)

	n, err := s.ClearOldAnalyses(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
