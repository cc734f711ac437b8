package service

import (
	"context"
	"testing"

	"sitebooks/internal/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func (f *fixture) authService() AuthService {
	return NewAuthService(f.users, f.jobs, f.audits, f.txm, f.feed, testSecret)
}

func TestBootstrapAndLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	auth := f.authService()

	session, err := auth.Bootstrap(ctx, BootstrapRequest{Code: "100", PIN: "1234", Name: "المدير"})
	require.NoError(t, err)
	assert.True(t, session.IsAdmin)
	assert.NotEmpty(t, session.Token)

	_, err = auth.Bootstrap(ctx, BootstrapRequest{Code: "101", PIN: "1234", Name: "آخر"})
	assert.ErrorIs(t, err, ErrProtected)

	_, err = auth.Login(ctx, LoginRequest{Code: "100", PIN: "9999"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, LoginRequest{Code: "nobody", PIN: "1234"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err = auth.Login(ctx, LoginRequest{Code: " 100 ", PIN: "1234"})
	require.NoError(t, err)

	userID, err := auth.ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID.String(), userID)

	_, err = auth.ParseToken(session.Token + "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	other := NewAuthService(f.users, f.jobs, f.audits, f.txm, f.feed, []byte("another-secret"))
	_, err = other.ParseToken(session.Token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBootstrapRejectsWeakPIN(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.authService().Bootstrap(context.Background(), BootstrapRequest{Code: "1", PIN: "12", Name: "x"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPrincipalFollowsJobGrants(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	auth := f.authService()
	jobs := NewJobService(f.jobs, f.audits, f.txm, f.feed, auth)
	users := NewUserService(f.users, f.jobs, f.audits, f.txm, f.feed)

	job, err := jobs.CreateJob(ctx, "", JobRequest{Name: "محاسب مساعد", Permissions: access.Grants{
		"/expenses": {View: true},
	}})
	require.NoError(t, err)
	user, err := users.CreateUser(ctx, "", CreateUserRequest{Code: "200", PIN: "4321", Name: "سالم", JobID: job.ID.String()})
	require.NoError(t, err)

	principal, err := auth.Principal(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, access.HasPermission(principal, "/expenses", access.View))
	assert.False(t, access.HasPermission(principal, "/expenses", access.Create))

	_, err = jobs.UpdateJob(ctx, "", job.ID.String(), JobRequest{Name: job.Name, Permissions: access.Grants{
		"/expenses": {View: true, Create: true},
	}})
	require.NoError(t, err)

	principal, err = auth.Principal(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, access.HasPermission(principal, "/expenses", access.Create), "job change must drop cached grants")

	inactive := false
	_, err = users.UpdateUser(ctx, "", user.ID.String(), UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	_, err = auth.Principal(ctx, user.ID.String())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, LoginRequest{Code: "200", PIN: "4321"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestJobRules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	auth := f.authService()
	jobs := NewJobService(f.jobs, f.audits, f.txm, f.feed, auth)
	users := NewUserService(f.users, f.jobs, f.audits, f.txm, f.feed)

	_, err := jobs.CreateJob(ctx, "", JobRequest{Name: "bad", Permissions: access.Grants{"expenses": {View: true}}})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, jobs.SeedDefaultJobs(ctx))
	require.NoError(t, jobs.SeedDefaultJobs(ctx))
	all, err := jobs.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.ErrorIs(t, jobs.DeleteJob(ctx, "", all[0].ID.String()), ErrProtected)

	job, err := jobs.CreateJob(ctx, "", JobRequest{Name: "سائق"})
	require.NoError(t, err)
	_, err = jobs.CreateJob(ctx, "", JobRequest{Name: "سائق"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = users.CreateUser(ctx, "", CreateUserRequest{Code: "300", PIN: "1111", Name: "ماهر", JobID: job.ID.String()})
	require.NoError(t, err)
	assert.ErrorIs(t, jobs.DeleteJob(ctx, "", job.ID.String()), ErrProtected)
}

func TestLastAdminIsKept(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	users := NewUserService(f.users, f.jobs, f.audits, f.txm, f.feed)

	first, err := f.authService().Bootstrap(ctx, BootstrapRequest{Code: "1", PIN: "1234", Name: "أول"})
	require.NoError(t, err)
	firstID := first.User.ID.String()

	demote := false
	_, err = users.UpdateUser(ctx, firstID, firstID, UpdateUserRequest{IsAdmin: &demote})
	assert.ErrorIs(t, err, ErrProtected)

	second, err := users.CreateUser(ctx, firstID, CreateUserRequest{Code: "2", PIN: "5678", Name: "ثان", IsAdmin: true})
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, firstID, CreateUserRequest{Code: "2", PIN: "5678", Name: "مكرر"})
	assert.ErrorIs(t, err, ErrConflict)

	assert.ErrorIs(t, users.DeleteUser(ctx, firstID, firstID), ErrProtected)
	require.NoError(t, users.DeleteUser(ctx, second.ID.String(), firstID))
	assert.ErrorIs(t, users.DeleteUser(ctx, "", second.ID.String()), ErrProtected)

	all, err := users.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ثان", all[0].Name)
}
