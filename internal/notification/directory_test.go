package notification

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

	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

type countingContacts struct {
	contact models.UserContact
	err     error
	calls   int
}

func (c *countingContacts) GetContact(_ context.Context, _ string) (models.UserContact, error) {
	c.calls++
	return c.contact, c.err
}

func (c *countingContacts) UpdatePreferences(_ context.Context, _ string, prefs models.NotificationPreferences) error {
	if c.err != nil {
		return c.err
	}
	c.contact.EmailNotifications = prefs.EmailNotifications
	c.contact.SMSNotifications = prefs.SMSNotifications
	return nil
}

func testContact() models.UserContact {
	return models.UserContact{ID: "user-1", Name: "Morag", Email: "morag@example.com", EmailNotifications: true}
}

func TestCachedDirectory_MissThenPopulate(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	store := &countingContacts{contact: testContact()}
	dir := NewCachedDirectory(store, redisClient, 5*time.Minute, logger.NewTestLogger(t))

	cachedData, _ := json.Marshal(testContact())
	redisMock.ExpectGet("user:contact:user-1").RedisNil()
	redisMock.ExpectSet("user:contact:user-1", cachedData, 5*time.Minute).SetVal("OK")

	got, err := dir.GetContact(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "morag@example.com", got.Email)
	assert.Equal(t, 1, store.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedDirectory_Hit(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	store := &countingContacts{}
	dir := NewCachedDirectory(store, redisClient, 5*time.Minute, logger.NewTestLogger(t))

	cachedData, _ := json.Marshal(testContact())
	redisMock.ExpectGet("user:contact:user-1").SetVal(string(cachedData))

	got, err := dir.GetContact(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Morag", got.Name)
	assert.Equal(t, 0, store.calls)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestCachedDirectory_RedisErrorFallsThrough(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	store := &countingContacts{contact: testContact()}
	dir := NewCachedDirectory(store, redisClient, time.Minute, logger.NewTestLogger(t))

	redisMock.ExpectGet("user:contact:user-1").SetErr(errors.New("connection refused"))
	cachedData, _ := json.Marshal(testContact())
	redisMock.ExpectSet("user:contact:user-1", cachedData, time.Minute).SetErr(errors.New("connection refused"))

	got, err := dir.GetContact(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)
	assert.Equal(t, 1, store.calls)
}

func TestCachedDirectory_StoreErrorNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &countingContacts{err: errors.New("user not found")}
	dir := NewCachedDirectory(store, rdb, time.Minute, logger.NewTestLogger(t))

	_, err := dir.GetContact(context.Background(), "ghost")
	assert.Error(t, err)
	assert.False(t, mr.Exists("user:contact:ghost"))
}

func TestCachedDirectory_TTLAndInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &countingContacts{contact: testContact()}
	dir := NewCachedDirectory(store, rdb, 5*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := dir.GetContact(ctx, "user-1")
	require.NoError(t, err)
	_, err = dir.GetContact(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 5*time.Minute, mr.TTL("user:contact:user-1"))

	mr.FastForward(6 * time.Minute)
	_, err = dir.GetContact(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)

	require.NoError(t, dir.Invalidate(ctx, "user-1"))
	assert.False(t, mr.Exists("user:contact:user-1"))
}

func TestCachedDirectory_UpdatePreferencesRefreshesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &countingContacts{contact: testContact()}
	dir := NewCachedDirectory(store, rdb, 5*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	before, err := dir.GetContact(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, before.EmailNotifications)

	updated, err := dir.UpdatePreferences(ctx, "user-1", models.NotificationPreferences{EmailNotifications: false, SMSNotifications: true})
	require.NoError(t, err)
	assert.False(t, updated.EmailNotifications)
	assert.True(t, updated.SMSNotifications)
	assert.Equal(t, 2, store.calls)

	cached, err := mr.Get("user:contact:user-1")
	require.NoError(t, err)
	var contact models.UserContact
	require.NoError(t, json.Unmarshal([]byte(cached), &contact))
	assert.False(t, contact.EmailNotifications)

	after, err := dir.GetContact(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, after.EmailNotifications)
	assert.Equal(t, 2, store.calls)
}

func TestCachedDirectory_UpdatePreferencesStoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := &countingContacts{err: errors.New("connection refused")}
	dir := NewCachedDirectory(store, rdb, 5*time.Minute, logger.NewTestLogger(t))

	_, err := dir.UpdatePreferences(context.Background(), "user-1", models.NotificationPreferences{})
	assert.Error(t, err)
	assert.Equal(t, 0, store.calls)
}
