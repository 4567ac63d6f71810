package memories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photodiary/internal/common"
	"github.com/dmitrijs2005/photodiary/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testID = "8f14e45f-ceea-467f-a0e6-8c5f3f2f6a1b"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var (
	insertQ = `(?s)^INSERT\s+INTO\s+memories\s*\(image_url, caption, storage_path\)\s*VALUES\s*\(\$1, \$2, \$3\)\s*RETURNING\s+id, date$`
	deleteQ = regexp.QuoteMeta(`DELETE FROM memories WHERE id=$1`)
	listQ   = `(?s)^SELECT id, image_url, caption, storage_path, date FROM memories\s+ORDER BY date DESC, id DESC$`
	pathsQ  = regexp.QuoteMeta(`SELECT storage_path FROM memories`)
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(insertQ).
		WithArgs("http://img", "", "images/1_a.jpg").
		WillReturnRows(sqlmock.NewRows([]string{"id", "date"}).AddRow(testID, now))

	got, err := repo.Create(context.Background(), models.NewDocument{ImageURL: "http://img", StoragePath: "images/1_a.jpg"})
	require.NoError(t, err)
	assert.Equal(t, models.Document{ID: testID, ImageURL: "http://img", StoragePath: "images/1_a.jpg", Date: now}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQ).
		WithArgs("u", "c", "p").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), models.NewDocument{ImageURL: "u", Caption: "c", StoragePath: "p"})
	require.Error(t, err)
	assert.Regexp(t, `failed to insert memory: .*db down`, err.Error())
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
		wantMsg string
	}{
		{
			name: "ok",
			id:   testID,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing row",
			id:   testID,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: common.ErrNotFound,
		},
		{
			name:    "malformed id never reaches the database",
			id:      "not-a-uuid",
			setup:   func(sqlmock.Sqlmock) {},
			wantErr: common.ErrNotFound,
		},
		{
			name: "db error",
			id:   testID,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnError(errors.New("db err"))
			},
			wantMsg: "failed to delete memory: db err",
		},
		{
			name: "rows affected error",
			id:   testID,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(deleteQ).WithArgs(testID).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))
			},
			wantMsg: "rows affected error: rows-err",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()
			tt.setup(mock)

			err := repo.Delete(context.Background(), tt.id)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.EqualError(t, err, tt.wantMsg)
			default:
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListOrdered_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	t1 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "image_url", "caption", "storage_path", "date"}).
		AddRow("b", "http://img/b", "second", "images/2_b.jpg", t1).
		AddRow("a", "http://img/a", "", "images/1_a.jpg", t2)
	mock.ExpectQuery(listQ).WillReturnRows(rows)

	got, err := repo.ListOrdered(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "second", got[0].Caption)
	assert.Equal(t, t1, got[0].Date)
	assert.Equal(t, "a", got[1].ID)
}

func TestListOrdered_EmptyIsNotNil(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(listQ).WillReturnRows(sqlmock.NewRows([]string{"id", "image_url", "caption", "storage_path", "date"}))

	got, err := repo.ListOrdered(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListOrdered_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(listQ).WillReturnError(errors.New("db err"))

		_, err := repo.ListOrdered(context.Background())
		assert.Regexp(t, `failed to select memories: .*db err`, err.Error())
	})

	t.Run("scan", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(listQ).WillReturnRows(
			sqlmock.NewRows([]string{"id", "image_url", "caption", "storage_path", "date"}).
				AddRow("a", "u", "c", "p", "not-a-time"))

		_, err := repo.ListOrdered(context.Background())
		assert.Error(t, err)
	})

	t.Run("rows", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(listQ).WillReturnRows(
			sqlmock.NewRows([]string{"id", "image_url", "caption", "storage_path", "date"}).
				AddRow("a", "u", "c", "p", time.Now()).
				AddRow("b", "u", "c", "p", time.Now()).
				RowError(1, errors.New("row-err")))

		_, err := repo.ListOrdered(context.Background())
		assert.EqualError(t, err, "row-err")
	})
}

func TestStoragePaths(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(pathsQ).WillReturnRows(
		sqlmock.NewRows([]string{"storage_path"}).AddRow("images/1_a.jpg").AddRow("images/2_b.jpg"))

	got, err := repo.StoragePaths(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"images/1_a.jpg": {}, "images/2_b.jpg": {}}, got)
}

func TestStoragePaths_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(pathsQ).WillReturnError(errors.New("db err"))

	_, err := repo.StoragePaths(context.Background())
	assert.Regexp(t, `failed to select storage paths: .*db err`, err.Error())
}
