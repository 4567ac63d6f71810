package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/dmitrijs2005/photodiary/internal/gallery"
	"github.com/dmitrijs2005/photodiary/internal/logging"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/dmitrijs2005/photodiary/internal/blobstore"
	"github.com/dmitrijs2005/photodiary/internal/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBlobs struct{ mock.Mock }

func (m *mockBlobs) Put(ctx context.Context, key string, data []byte) error {
	return m.Called(ctx, key, data).Error(0)
}

func (m *mockBlobs) URL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockBlobs) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockBlobs) List(ctx context.Context, prefix string) ([]blobstore.Blob, error) {
	args := m.Called(ctx, prefix)
	out, _ := args.Get(0).([]blobstore.Blob)
	return out, args.Error(1)
}

const testID = "8f14e45f-ceea-467f-a0e6-8c5f3f2f6a1b"

var (
	insertQ = regexp.QuoteMeta("INSERT INTO memories (image_url, caption, storage_path)")
	listQ   = regexp.QuoteMeta("SELECT id, image_url, caption, storage_path, date FROM memories")
	deleteQ = regexp.QuoteMeta("DELETE FROM memories WHERE id=$1")
	pathsQ  = regexp.QuoteMeta("SELECT storage_path FROM memories")
)

func newRemote(t *testing.T) (*Remote, sqlmock.Sqlmock, *mockBlobs) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs := &mockBlobs{}
	return NewRemote(db, repomanager.NewPostgresRepositoryManager(), blobs, 0, logging.Nop()), mock, blobs
}

var docCols = []string{"id", "image_url", "caption", "storage_path", "date"}

func TestRemote_CreateDocument_CommitsAndReturnsID(t *testing.T) {
	r, mock, _ := newRemote(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(insertQ).
		WithArgs("https://x/a.png", "beach", "images/1_a.png").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}).AddRow(testID, now))
	mock.ExpectCommit()

	id, err := r.CreateDocument(context.Background(), models.Collection, models.NewDocument{
		ImageURL: "https://x/a.png", Caption: "beach", StoragePath: "images/1_a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, testID, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_CreateDocument_RollsBackOnError(t *testing.T) {
	r, mock, _ := newRemote(t)

	mock.ExpectBegin()
	mock.ExpectQuery(insertQ).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	_, err := r.CreateDocument(context.Background(), models.Collection, models.NewDocument{ImageURL: "u", StoragePath: "p"})
	require.ErrorContains(t, err, "permission denied")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_UnknownCollection(t *testing.T) {
	r, mock, _ := newRemote(t)
	ctx := context.Background()

	_, err := r.CreateDocument(ctx, "users", models.NewDocument{})
	assert.ErrorIs(t, err, common.ErrUnknownCollection)

	assert.ErrorIs(t, r.DeleteDocument(ctx, "users", testID), common.ErrUnknownCollection)

	_, err = r.SubscribeOrdered(ctx, gallery.Query{Collection: "users", OrderField: "date", Direction: "desc"}, func(gallery.Snapshot) {}, func(error) {})
	assert.ErrorIs(t, err, common.ErrUnknownCollection)

	_, err = r.SubscribeOrdered(ctx, gallery.Query{Collection: models.Collection, OrderField: "caption", Direction: "asc"}, func(gallery.Snapshot) {}, func(error) {})
	assert.ErrorContains(t, err, "unsupported order")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_DeleteDocument(t *testing.T) {
	r, mock, _ := newRemote(t)

	mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, r.DeleteDocument(context.Background(), models.Collection, testID))

	mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.DeleteDocument(context.Background(), models.Collection, testID), common.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_SubscribeReceivesSnapshotsAfterWrites(t *testing.T) {
	r, mock, _ := newRemote(t)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(listQ).WillReturnRows(sqlmock.NewRows(docCols))

	snaps := make(chan gallery.Snapshot, 4)
	cancel, err := r.SubscribeOrdered(context.Background(), gallery.MemoriesQuery, func(s gallery.Snapshot) { snaps <- s }, func(err error) { t.Error(err) })
	require.NoError(t, err)
	defer cancel()

	select {
	case s := <-snaps:
		assert.Empty(t, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}

	mock.ExpectBegin()
	mock.ExpectQuery(insertQ).WillReturnRows(sqlmock.NewRows([]string{"id", "date"}).AddRow(testID, now))
	mock.ExpectCommit()
	mock.ExpectQuery(listQ).WillReturnRows(sqlmock.NewRows(docCols).AddRow(testID, "u", "c", "images/1_a.png", now))

	_, err = r.CreateDocument(context.Background(), models.Collection, models.NewDocument{ImageURL: "u", Caption: "c", StoragePath: "images/1_a.png"})
	require.NoError(t, err)

	select {
	case s := <-snaps:
		require.Len(t, s, 1)
		assert.Equal(t, testID, s[0].ID)
		assert.Equal(t, now, s[0].Date)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}

	cancel()
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemote_SubscribeLoadError(t *testing.T) {
	r, mock, _ := newRemote(t)
	mock.ExpectQuery(listQ).WillReturnError(errors.New("relation \"memories\" does not exist"))

	errs := make(chan error, 1)
	cancel, err := r.SubscribeOrdered(context.Background(), gallery.MemoriesQuery, func(gallery.Snapshot) { t.Error("unexpected snapshot") }, func(err error) { errs <- err })
	require.NoError(t, err)
	defer cancel()

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "does not exist")
	case <-time.After(2 * time.Second):
		t.Fatal("no error")
	}
}

func TestRemote_Blobs(t *testing.T) {
	r, _, blobs := newRemote(t)
	ctx := context.Background()
	data := []byte("img")

	blobs.On("Put", mock.Anything, "images/1_a.png", data).Return(nil).Once()
	h, err := r.UploadBlob(ctx, "images/1_a.png", data)
	require.NoError(t, err)
	assert.Equal(t, gallery.UploadHandle{Path: "images/1_a.png"}, h)

	blobs.On("Put", mock.Anything, "images/2_b.png", data).Return(errors.New("quota")).Once()
	_, err = r.UploadBlob(ctx, "images/2_b.png", data)
	require.EqualError(t, err, "quota")

	blobs.On("URL", mock.Anything, "images/1_a.png").Return("https://signed", nil).Once()
	u, err := r.ResolveURL(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "https://signed", u)

	blobs.On("Delete", mock.Anything, "images/1_a.png").Return(nil).Once()
	require.NoError(t, r.DeleteBlob(ctx, "images/1_a.png"))

	listed := []blobstore.Blob{{Key: "images/1_a.png"}}
	blobs.On("List", mock.Anything, "images/").Return(listed, nil).Once()
	got, err := r.ListBlobs(ctx, "images/")
	require.NoError(t, err)
	assert.Equal(t, listed, got)

	blobs.AssertExpectations(t)
}

func TestRemote_StoragePaths(t *testing.T) {
	r, mock, _ := newRemote(t)
	mock.ExpectQuery(pathsQ).WillReturnRows(sqlmock.NewRows([]string{"storage_path"}).AddRow("images/1_a.png"))

	got, err := r.StoragePaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"images/1_a.png": {}}, got)
}
