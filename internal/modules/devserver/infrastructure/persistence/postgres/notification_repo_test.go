package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/saransh1220/careerpush/internal/modules/devserver/infrastructure/persistence/postgres"
	"github.com/saransh1220/careerpush/internal/modules/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(sqlDB, "sqlmock"), mock, func() { sqlDB.Close() }
}

var columns = []string{
	"id", "user_id", "type", "category", "title", "message", "is_read", "read_at",
	"action_url", "job_id", "application_id", "mission_id", "subscription_id", "score_id", "created_at",
}

func TestPgNotificationRepository_CRUDLikeOperations(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()
	notificationID := uuid.NewString()
	jobID := "job-7"

	n := &domain.Notification{
		ID:        notificationID,
		UserID:    userID,
		Type:      domain.NotificationTypeInfo,
		Category:  domain.CategoryJob,
		Title:     "Title",
		Message:   "Message",
		JobID:     &jobID,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, n))

	readAt := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(notificationID, userID, "info", "job", "Title", "Message", true, readAt, nil, jobID, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(`SELECT (.+) FROM notifications`).
		WithArgs(userID, 10, 5).
		WillReturnRows(rows)
	items, err := repo.GetByUserID(ctx, userID, 10, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, userID, items[0].UserID)
	assert.Equal(t, domain.CategoryJob, items[0].Category)
	require.NotNil(t, items[0].JobID)
	assert.Equal(t, jobID, *items[0].JobID)
	assert.Nil(t, items[0].ActionURL)
	require.NotNil(t, items[0].ReadAt)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(notificationID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkAsRead(ctx, notificationID, userID))

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.MarkAllAsRead(ctx, userID))

	mock.ExpectExec(`DELETE FROM notifications`).
		WithArgs(notificationID, userID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(ctx, notificationID, userID))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	count, err := repo.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgNotificationRepository_Create_SetsCreatedAtWhenZero(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	n := &domain.Notification{
		ID:      uuid.NewString(),
		UserID:  uuid.NewString(),
		Title:   "T",
		Message: "M",
		Type:    domain.NotificationTypeInfo,
	}
	require.True(t, n.CreatedAt.IsZero())

	mock.ExpectExec(`INSERT INTO notifications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), n))
	assert.False(t, n.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgNotificationRepository_GetByUserID_EmptyAndError(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT (.+) FROM notifications`).
		WithArgs(userID, 10, 0).
		WillReturnRows(sqlmock.NewRows(columns))
	items, err := repo.GetByUserID(ctx, userID, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	mock.ExpectQuery(`SELECT (.+) FROM notifications`).
		WithArgs(userID, 10, 0).
		WillReturnError(errors.New("query fail"))
	items, err = repo.GetByUserID(ctx, userID, 10, 0)
	require.Error(t, err)
	assert.Nil(t, items)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgNotificationRepository_RowScopedErrorBranches(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	ctx := context.Background()
	notificationID := uuid.NewString()
	userID := uuid.NewString()

	ops := map[string]struct {
		pattern string
		call    func() error
	}{
		"mark read": {`UPDATE notifications`, func() error { return repo.MarkAsRead(ctx, notificationID, userID) }},
		"delete":    {`DELETE FROM notifications`, func() error { return repo.Delete(ctx, notificationID, userID) }},
	}

	for name, op := range ops {
		t.Run(name+" exec error", func(t *testing.T) {
			mock.ExpectExec(op.pattern).
				WithArgs(notificationID, userID).
				WillReturnError(errors.New("exec fail"))
			require.EqualError(t, op.call(), "exec fail")
		})

		t.Run(name+" rows affected error", func(t *testing.T) {
			mock.ExpectExec(op.pattern).
				WithArgs(notificationID, userID).
				WillReturnResult(sqlmock.NewErrorResult(errors.New("rows fail")))
			require.EqualError(t, op.call(), "rows fail")
		})

		t.Run(name+" not found", func(t *testing.T) {
			mock.ExpectExec(op.pattern).
				WithArgs(notificationID, userID).
				WillReturnResult(sqlmock.NewResult(0, 0))
			require.ErrorIs(t, op.call(), domain.ErrNotificationNotFound)
		})
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgNotificationRepository_UnreadCount_Error(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	userID := uuid.NewString()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userID).
		WillReturnError(errors.New("count fail"))

	count, err := repo.UnreadCount(context.Background(), userID)
	require.EqualError(t, err, "count fail")
	assert.Equal(t, 0, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPgNotificationRepository_MarkAllAsRead_Error(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	repo := postgres.NewPgNotificationRepository(db)
	userID := uuid.NewString()

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs(userID).
		WillReturnError(errors.New("exec fail"))

	require.EqualError(t, repo.MarkAllAsRead(context.Background(), userID), "exec fail")
	require.NoError(t, mock.ExpectationsWereMet())
}
