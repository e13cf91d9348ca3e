package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/geocoder89/modelhub/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumns = []string{"id", "data", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	return mock
}

func TestCollectionRepo_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "food" (id, data, created_at, updated_at)`)).
		WithArgs(pgxmock.AnyArg(), []byte(`{"name":"pizza"}`), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	it, err := repo.Create(context.Background(), item.Attributes{"name": "pizza"})
	require.NoError(t, err)

	_, err = uuid.Parse(it.ID)
	assert.NoError(t, err)
	assert.Equal(t, "pizza", it.Attributes["name"])
}

func TestCollectionRepo_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "food" WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(itemColumns).AddRow(id, []byte(`{"name":"pizza","calories":"300"}`), now, now))

	it, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, it.ID)
	assert.Equal(t, item.Attributes{"name": "pizza", "calories": "300"}, it.Attributes)
}

func TestCollectionRepo_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)
	id := uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "food" WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, item.ErrNotFound)

	// malformed ids never reach the database
	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestCollectionRepo_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "clothes", nil)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "clothes" ORDER BY created_at ASC, id ASC`)).
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow(uuid.NewString(), []byte(`{"name":"shirt"}`), now, now).
			AddRow(uuid.NewString(), []byte(`{"name":"hat"}`), now, now))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "hat", items[1].Attributes["name"])
}

func TestCollectionRepo_List_Empty(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "clothes", nil)

	mock.ExpectQuery(`SELECT (.+) FROM "clothes"`).WillReturnRows(pgxmock.NewRows(itemColumns))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollectionRepo_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "food"`)).
		WithArgs(id, []byte(`{"name":"burger"}`)).
		WillReturnRows(pgxmock.NewRows(itemColumns).AddRow(id, []byte(`{"name":"burger"}`), now, now))

	it, err := repo.Update(context.Background(), id, item.Attributes{"name": "burger"})
	require.NoError(t, err)
	assert.Equal(t, "burger", it.Attributes["name"])

	missing := uuid.NewString()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE "food"`)).
		WithArgs(missing, []byte(`{}`)).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Update(context.Background(), missing, nil)
	assert.ErrorIs(t, err, item.ErrNotFound)
}

func TestCollectionRepo_DeleteIsIdempotent(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)
	id := uuid.NewString()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "food" WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "food" WHERE id = $1`)).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), id))
	require.NoError(t, repo.Delete(context.Background(), id))
	require.NoError(t, repo.Delete(context.Background(), "garbage"))
}

func TestCollectionRepo_StorageErrorsPropagate(t *testing.T) {
	mock := newMock(t)
	boom := errors.New("connection reset")
	obs := &recordingObserver{}
	repo := NewCollectionRepo(mock, "food", obs)

	mock.ExpectQuery(`SELECT (.+) FROM "food"`).WillReturnError(boom)

	_, err := repo.List(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"food.list"}, obs.ops)
}

func TestCollectionRepo_EnsureTable(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepo(mock, "food", nil)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "food"`)).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, repo.EnsureTable(context.Background()))
}

func TestUsersRepo_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewUsersRepo(mock, nil)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(pgxmock.AnyArg(), "newuser", "hash", "admin", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	u, err := repo.Create(context.Background(), "newuser", "hash", "admin")
	require.NoError(t, err)
	assert.Equal(t, "newuser", u.Username)
	assert.Equal(t, "admin", u.Role)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs(pgxmock.AnyArg(), "newuser", "hash", "admin", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = repo.Create(context.Background(), "newuser", "hash", "admin")
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestUsersRepo_GetByUsername(t *testing.T) {
	mock := newMock(t)
	repo := NewUsersRepo(mock, nil)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
		WithArgs("newuser").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("u-1", "newuser", "hash", "admin", now, now))

	u, err := repo.GetByUsername(context.Background(), "newuser")
	require.NoError(t, err)
	assert.Equal(t, "hash", u.PasswordHash)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

type recordingObserver struct {
	ops []string
}

func (o *recordingObserver) ObserveDB(op string, fn func() error) error {
	o.ops = append(o.ops, op)
	return fn()
}
