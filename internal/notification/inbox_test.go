package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "letting-compliance/internal/common/errors"
	"letting-compliance/internal/common/logger"
	"letting-compliance/internal/models"
)

type fakeInboxStore struct {
	markErr error
	updated int64
	read    []string
}

func (f *fakeInboxStore) ListByUser(context.Context, string, bool, int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeInboxStore) CountUnread(context.Context, string) (int, error) { return 0, nil }

func (f *fakeInboxStore) MarkRead(_ context.Context, _, id string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.read = append(f.read, id)
	return nil
}

func (f *fakeInboxStore) MarkAllRead(context.Context, string) (int64, error) {
	return f.updated, f.markErr
}

type recordingReadMarker struct {
	err     error
	ids     []string
	userIDs []string
}

func (r *recordingReadMarker) MarkRead(_ context.Context, id string) error {
	r.ids = append(r.ids, id)
	return r.err
}

func (r *recordingReadMarker) MarkAllRead(_ context.Context, userID string) error {
	r.userIDs = append(r.userIDs, userID)
	return r.err
}

func TestInbox_MarkReadUpdatesIndex(t *testing.T) {
	store := &fakeInboxStore{}
	index := &recordingReadMarker{}
	inbox := NewInbox(store, index, logger.NewTestLogger(t))

	require.NoError(t, inbox.MarkRead(context.Background(), "user-1", "n-1"))
	assert.Equal(t, []string{"n-1"}, store.read)
	assert.Equal(t, []string{"n-1"}, index.ids)
}

func TestInbox_IndexFailureIsNotReturned(t *testing.T) {
	store := &fakeInboxStore{updated: 2}
	index := &recordingReadMarker{err: errors.New("es unavailable")}
	inbox := NewInbox(store, index, logger.NewTestLogger(t))

	require.NoError(t, inbox.MarkRead(context.Background(), "user-1", "n-1"))
	n, err := inbox.MarkAllRead(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"user-1"}, index.userIDs)
}

func TestInbox_StoreFailureSkipsIndex(t *testing.T) {
	store := &fakeInboxStore{markErr: apperrors.NewNotFoundError("Notification", "n-9")}
	index := &recordingReadMarker{}
	inbox := NewInbox(store, index, logger.NewTestLogger(t))

	err := inbox.MarkRead(context.Background(), "user-1", "n-9")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, index.ids)
}

func TestInbox_NothingUnreadSkipsIndex(t *testing.T) {
	index := &recordingReadMarker{}
	inbox := NewInbox(&fakeInboxStore{}, index, logger.NewTestLogger(t))

	n, err := inbox.MarkAllRead(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, index.userIDs)
}

func TestInbox_WithoutIndex(t *testing.T) {
	store := &fakeInboxStore{}
	inbox := NewInbox(store, nil, logger.NewTestLogger(t))

	require.NoError(t, inbox.MarkRead(context.Background(), "user-1", "n-1"))
	assert.Equal(t, []string{"n-1"}, store.read)
}
