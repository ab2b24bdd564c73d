package state

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

func newMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStoreWithDB(db), mock
}

func TestSQLiteStore_DriverFailures(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		run       func(ctx context.Context, s *SQLiteStore) error
		errMsg    string
		errIs     error
	}{
		{
			name: "list query error is wrapped",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT .* FROM clusters c").WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				_, err := s.ListClusters(ctx, core.ListOptions{})
				return err
			},
			errMsg: "failed to list clusters",
			errIs:  assert.AnError,
		},
		{
			name: "delete failure rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM clusters WHERE parent_uid = \?`).
					WithArgs("eng").
					WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
				mock.ExpectExec(`DELETE FROM clusters WHERE uid = \?`).
					WithArgs("eng").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				return s.DeleteCluster(ctx, "eng")
			},
			errMsg: "failed to delete cluster",
			errIs:  assert.AnError,
		},
		{
			name: "children conflict rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM clusters WHERE parent_uid = \?`).
					WithArgs("eng").
					WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
				mock.ExpectRollback()
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				return s.DeleteCluster(ctx, "eng")
			},
			errMsg: "2 child clusters",
			errIs:  ErrConflict,
		},
		{
			name: "begin failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				_, err := s.TagArea(ctx, core.TagRequest{AreaUID: "ui", TagSlugs: []string{"react"}})
				return err
			},
			errMsg: "failed to begin transaction",
		},
		{
			name: "commit failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery("SELECT .* FROM areas a WHERE a.uid = ").
					WithArgs("ui").
					WillReturnRows(sqlmock.NewRows([]string{
						"uid", "name", "description", "cluster_uid", "sort_order", "status", "tags", "created_at", "updated_at",
					}).AddRow("ui", "Component library", "", "fe", 0, "active", "", "", ""))
				mock.ExpectExec("INSERT INTO area_tags").
					WithArgs("ui", "react").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit().WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				_, err := s.TagArea(ctx, core.TagRequest{AreaUID: "ui", TagSlugs: []string{"react"}})
				return err
			},
			errMsg: "failed to commit transaction",
		},
		{
			name: "stats count error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT COUNT\(\*\) FROM clusters`).WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				_, err := s.Stats(ctx)
				return err
			},
			errMsg: "failed to count",
		},
		{
			name: "status update on missing row",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE tags SET status = \?`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			run: func(ctx context.Context, s *SQLiteStore) error {
				_, err := s.SetTagStatus(ctx, "ghost", core.StatusArchived)
				return err
			},
			errMsg: `tag "ghost"`,
			errIs:  ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			err := tt.run(context.Background(), store)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteStore_ValidationSkipsDriver(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	_, err := store.CreateTag(ctx, core.TagInput{Slug: "Not A Slug", DisplayName: "x"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.SetClusterStatus(ctx, "eng", core.Status("retired"))
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.UntagArea(ctx, core.TagRequest{AreaUID: "ui"})
	assert.ErrorIs(t, err, ErrInvalid)

	assert.NoError(t, mock.ExpectationsWereMet())
}
