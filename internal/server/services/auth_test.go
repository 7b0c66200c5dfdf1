package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

const (
	selectUserRe = `SELECT id, email, password_digest, created_at FROM users`
	insertUserRe = `INSERT INTO users`
)

type fakeHasher struct {
	mu       sync.Mutex
	verified []string
	hashErr  error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	if password == "" {
		return "", common.ErrHashing
	}
	return "hashed:" + password, nil
}

func (h *fakeHasher) Verify(password, digest string) (bool, error) {
	h.mu.Lock()
	h.verified = append(h.verified, digest)
	h.mu.Unlock()
	if !strings.HasPrefix(digest, "hashed:") {
		return false, common.ErrHashing
	}
	return digest == "hashed:"+password, nil
}

type recorder struct {
	mu             sync.Mutex
	registrations  []string
	logins         []string
	authorizations []string
}

func (r *recorder) RecordRegistration(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations = append(r.registrations, o)
}

func (r *recorder) RecordLogin(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins = append(r.logins, o)
}

func (r *recorder) RecordAuthorization(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authorizations = append(r.authorizations, o)
}

func (r *recorder) RecordHTTPRequest(string, string, int, time.Duration) {}
func (r *recorder) RecordGRPCRequest(string, string, time.Duration)      {}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	iss, err := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, auth.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return iss
}

func newMockService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *fakeHasher, *recorder) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &fakeHasher{}
	rec := &recorder{}
	svc, err := NewAuthService(db, repomanager.NewPostgresRepositoryManager(), h, newIssuer(t), nil, rec)
	require.NoError(t, err)
	return svc, mock, h, rec
}

func userRows(id, email, digest string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_digest", "created_at"}).
		AddRow(id, email, digest, testNow)
}

// --- construction ---

func TestNewAuthService_HashFailure(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewAuthService(db, repomanager.NewPostgresRepositoryManager(), &fakeHasher{hashErr: errors.New("boom")}, newIssuer(t), nil, nil)
	require.Error(t, err)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	svc, mock, _, rec := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserRe).WithArgs("a@x.com", "hashed:pw1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", testNow))
	mock.ExpectCommit()

	token, err := svc.Register(context.Background(), "a@x.com", "pw1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	claims, err := svc.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, []string{"success"}, rec.registrations)
}

func TestRegister_Duplicate(t *testing.T) {
	svc, mock, _, rec := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnRows(userRows("u-1", "a@x.com", "hashed:pw1"))
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "a@x.com", "pw2")
	require.ErrorIs(t, err, common.ErrDuplicateUser)
	require.NoError(t, mock.ExpectationsWereMet(), "no insert may happen for a taken email")
	assert.Equal(t, []string{"duplicate_user"}, rec.registrations)
}

func TestRegister_ConcurrentInsertLoses(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserRe).WithArgs("a@x.com", "hashed:pw").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrDuplicateUser)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_LookupFailure(t *testing.T) {
	svc, mock, _, rec := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrDuplicateUser)
	assert.Equal(t, []string{"error"}, rec.registrations)
}

func TestRegister_InsertFailure(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserRe).WithArgs("a@x.com", "hashed:pw").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRegister_BeginFailure(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestRegister_CommitFailure(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserRe).WithArgs("a@x.com", "hashed:pw").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", testNow))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	token, err := svc.Register(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.Empty(t, token)
}

func TestRegister_EmptyPassword(t *testing.T) {
	svc, mock, _, rec := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Register(context.Background(), "a@x.com", "")
	require.ErrorIs(t, err, common.ErrHashing)
	assert.NotErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []string{"invalid_input"}, rec.registrations)
}

func TestRegister_EmptyEmail(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	_, err := svc.Register(context.Background(), "", "pw")
	require.ErrorIs(t, err, common.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet(), "no database access expected")
}

// --- EnsureUser ---

func TestEnsureUser(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(insertUserRe).WithArgs("a@x.com", "hashed:pw").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", testNow))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnRows(userRows("u-1", "a@x.com", "hashed:pw"))
	mock.ExpectRollback()

	created, err := svc.EnsureUser(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureUser(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

// --- Login ---

func TestLogin_Success(t *testing.T) {
	svc, mock, _, rec := newMockService(t)

	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnRows(userRows("u-1", "a@x.com", "hashed:pw"))

	token, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)

	claims, err := svc.Authorize(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, []string{"success"}, rec.logins)
}

func TestLogin_UnknownAndWrongPasswordLookTheSame(t *testing.T) {
	svc, mock, h, rec := newMockService(t)

	mock.ExpectQuery(selectUserRe).WithArgs("unknown@x.com").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnRows(userRows("u-1", "a@x.com", "hashed:pw"))

	_, errUnknown := svc.Login(context.Background(), "unknown@x.com", "anything")
	_, errWrong := svc.Login(context.Background(), "a@x.com", "wrongpw")

	require.ErrorIs(t, errUnknown, common.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, common.ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())

	// both paths run exactly one verification
	require.Len(t, h.verified, 2)
	assert.Equal(t, svc.dummyDigest, h.verified[0])
	assert.Equal(t, "hashed:pw", h.verified[1])
	assert.Equal(t, []string{"invalid_credentials", "invalid_credentials"}, rec.logins)
}

func TestLogin_StoreFailure(t *testing.T) {
	svc, mock, h, _ := newMockService(t)

	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnError(errors.New("db down"))

	_, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Empty(t, h.verified)
}

func TestLogin_MalformedStoredDigest(t *testing.T) {
	svc, mock, _, _ := newMockService(t)

	mock.ExpectQuery(selectUserRe).WithArgs("a@x.com").WillReturnRows(userRows("u-1", "a@x.com", "garbage"))

	_, err := svc.Login(context.Background(), "a@x.com", "pw")
	require.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrHashing)
}

// --- Authorize ---

func TestAuthorize_Invalid(t *testing.T) {
	svc, _, _, rec := newMockService(t)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.Authorize(context.Background(), token)
		require.ErrorIs(t, err, common.ErrInvalidToken, token)
	}
	assert.Equal(t, []string{"invalid_token", "invalid_token", "invalid_token"}, rec.authorizations)
}

func TestAuthorize_ForeignSecret(t *testing.T) {
	svc, _, _, _ := newMockService(t)

	other, err := auth.NewTokenIssuer([]byte("other-secret"), time.Hour, auth.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	token, err := other.Issue("u-1", "a@x.com")
	require.NoError(t, err)

	_, err = svc.Authorize(context.Background(), token)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

// --- outcome ---

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"success":             nil,
		"duplicate_user":      common.ErrDuplicateUser,
		"invalid_credentials": common.ErrInvalidCredentials,
		"invalid_token":       common.ErrInvalidToken,
		"invalid_input":       common.ErrHashing,
		"error":               errors.New("x"),
	}
	for want, err := range cases {
		assert.Equal(t, want, outcome(err))
	}
	assert.Equal(t, "error", outcome(errors.Join(common.ErrorInternal, common.ErrHashing)))
}
