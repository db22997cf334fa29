package identity

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore(rdb, 90*24*time.Hour, 14*24*time.Hour), mr
}

func TestPhoneHintRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.PhoneHint(ctx, "dev1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SavePhoneHint(ctx, "dev1", "555-0101"))

	phone, found, err := store.PhoneHint(ctx, "dev1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "555-0101", phone)

	// Hints are scoped per device token.
	_, found, err = store.PhoneHint(ctx, "dev2")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPatientIDRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePatientID(ctx, "dev1", 42))

	id, found, err := store.PatientID(ctx, "dev1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(42), id)
}

func TestHintsExpire(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePhoneHint(ctx, "dev1", "555-0101"))
	require.NoError(t, store.SavePatientID(ctx, "dev1", 42))

	// Patient id expires first (14d vs 90d).
	mr.FastForward(15 * 24 * time.Hour)

	_, found, err := store.PatientID(ctx, "dev1")
	require.NoError(t, err)
	assert.False(t, found, "patient id hint should expire after 14 days")

	_, found, err = store.PhoneHint(ctx, "dev1")
	require.NoError(t, err)
	assert.True(t, found, "phone hint lives 90 days")

	mr.FastForward(80 * 24 * time.Hour)
	_, found, err = store.PhoneHint(ctx, "dev1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SavePhoneHint(ctx, "dev1", "555-0101"))
	require.NoError(t, store.SavePatientID(ctx, "dev1", 42))
	require.NoError(t, store.Clear(ctx, "dev1"))

	_, found, _ := store.PhoneHint(ctx, "dev1")
	assert.False(t, found)
	_, found, _ = store.PatientID(ctx, "dev1")
	assert.False(t, found)
}

func TestCorruptPatientID(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Set(patientKey("dev1"), "not-a-number")

	_, _, err := store.PatientID(ctx, "dev1")
	assert.Error(t, err)
}
