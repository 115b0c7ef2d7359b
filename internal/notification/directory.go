package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

const contactCachePrefix = "user:contact:"

// ContactLookup resolves how to reach a user.
type ContactLookup interface {
	GetContact(ctx context.Context, userID string) (models.UserContact, error)
}

// ContactStore is the user store behind the directory.
type ContactStore interface {
	ContactLookup
	UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) error
}

// CachedDirectory is a read-through Redis cache in front of the user store.
// Cache failures fall through to the store.
type CachedDirectory struct {
	store  ContactStore
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedDirectory(store ContactStore, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{store: store, redis: rdb, ttl: ttl, logger: log}
}

func contactCacheKey(userID string) string {
	return contactCachePrefix + userID
}

func (d *CachedDirectory) GetContact(ctx context.Context, userID string) (models.UserContact, error) {
	key := contactCacheKey(userID)

	if d.redis != nil {
		val, err := d.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var contact models.UserContact
			if err := json.Unmarshal([]byte(val), &contact); err == nil {
				return contact, nil
			}
			d.logger.Warn("discarding malformed cached contact", map[string]interface{}{"userId": userID})
		case !errors.Is(err, redis.Nil):
			d.logger.Warn("contact cache read failed", map[string]interface{}{"userId": userID, "error": err})
		}
	}

	contact, err := d.store.GetContact(ctx, userID)
	if err != nil {
		return contact, err
	}

	if d.redis != nil {
		data, _ := json.Marshal(contact)
		if err := d.redis.Set(ctx, key, data, d.ttl).Err(); err != nil {
			d.logger.Warn("contact cache write failed", map[string]interface{}{"userId": userID, "error": err})
		}
	}
	return contact, nil
}

// UpdatePreferences writes the new channel choices and drops the cached
// contact so the next sweep sees them.
func (d *CachedDirectory) UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) (models.UserContact, error) {
	if err := d.store.UpdatePreferences(ctx, userID, prefs); err != nil {
		return models.UserContact{}, err
	}
	if err := d.Invalidate(ctx, userID); err != nil {
		d.logger.Warn("contact cache invalidation failed", map[string]interface{}{"userId": userID, "error": err})
	}
	return d.GetContact(ctx, userID)
}

// Invalidate drops the cached contact.
func (d *CachedDirectory) Invalidate(ctx context.Context, userID string) error {
	if d.redis == nil {
		return nil
	}
	return d.redis.Del(ctx, contactCacheKey(userID)).Err()
}
