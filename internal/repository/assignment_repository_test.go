package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignInsertsWithinTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	referrer := "staff-1"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activity_faculties").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO activity_faculties").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Assign(context.Background(), "a1", []string{"u1", "u2"}, &referrer))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO activity_faculties").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.Assign(context.Background(), "a1", []string{"u1"}, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRSVP(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"activity_id", "user_id", "referrer_id", "rsvp", "created_at", "updated_at"}).
		AddRow("a1", "u1", "staff-1", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE activity_faculties SET rsvp = $3")).
		WithArgs("a1", "u1", true, sqlmock.AnyArg()).
		WillReturnRows(rows)

	assignment, err := repo.SetRSVP(context.Background(), "a1", "u1", true)
	require.NoError(t, err)
	require.NotNil(t, assignment.RSVP)
	assert.True(t, *assignment.RSVP)
	require.NotNil(t, assignment.ReferrerID)
	assert.Equal(t, "staff-1", *assignment.ReferrerID)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE activity_faculties SET rsvp = $3")).WillReturnError(sql.ErrNoRows)
	_, err = repo.SetRSVP(context.Background(), "a1", "ghost", false)
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestRemoveAssignments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activity_faculties WHERE activity_id = $1 AND user_id = ANY($2)")).
		WithArgs("a1", pq.Array([]string{"u1", "u2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.Remove(context.Background(), "a1", []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
