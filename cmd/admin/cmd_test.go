package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/testmaker/internal/attachment"
	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/internal/reconcile"
	"terminal-terrace/testmaker/internal/testutils"
	"terminal-terrace/testmaker/internal/user"
	"terminal-terrace/testmaker/packages/response"
)

type fakeUsers struct {
	created   []user.CreateUserRequest
	resets    map[uint]string
	byName    map[string]*userModel.User
	createErr error
}

func newFakeUsers() *fakeUsers {
	alice := "alice"
	return &fakeUsers{
		resets: make(map[uint]string),
		byName: map[string]*userModel.User{
			"alice":             {ID: 7, Username: &alice, Email: "alice@example.com"},
			"alice@example.com": {ID: 7, Username: &alice, Email: "alice@example.com"},
		},
	}
}

func (f *fakeUsers) Create(ctx context.Context, req user.CreateUserRequest) (*userModel.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &userModel.User{ID: 42, Email: req.Email, Username: req.Username, Role: req.Role}, nil
}

func (f *fakeUsers) lookup(key string) (*userModel.User, error) {
	u, ok := f.byName[key]
	if !ok {
		return nil, response.NewBusinessError(response.WithErrorCode(response.NotFound), response.WithErrorMessage("用户不存在"))
	}
	return u, nil
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	return f.lookup(username)
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	return f.lookup(email)
}

func (f *fakeUsers) ResetPassword(ctx context.Context, id uint, newPassword string) error {
	f.resets[id] = newPassword
	return nil
}

func setup(t *testing.T, password string) (*commandLine, *fakeUsers, *bytes.Buffer, *[]bool) {
	t.Helper()
	original := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(password), nil
	}
	t.Cleanup(func() { readPasswordFunc = original })

	users := newFakeUsers()
	out := &bytes.Buffer{}
	var sweeps []bool
	cli := &commandLine{
		users: users,
		sweep: func(ctx context.Context, dryRun bool) (reconcile.Report, error) {
			sweeps = append(sweeps, dryRun)
			if dryRun {
				return reconcile.Report{Scanned: 3, Orphans: []string{"tasks/1/files/x.pdf"}, DryRun: true}, nil
			}
			return reconcile.Report{
				Scanned:       3,
				Orphans:       []string{"tasks/1/files/x.pdf", "answers/2/photos/y.png"},
				CleanupReport: attachment.CleanupReport{Deleted: []string{"tasks/1/files/x.pdf"}, Failed: map[string]string{"answers/2/photos/y.png": "denied"}},
			}, nil
		},
		out: out,
	}
	return cli, users, out, &sweeps
}

func TestCommandLine_Help(t *testing.T) {
	cli, _, _, _ := setup(t, "secret1")

	tests := []struct {
		name string
		args []string
	}{
		{"no subcommand", nil},
		{"unknown subcommand", []string{"lol"}},
		{"adduser without email", []string{"adduser"}},
		{"resetpassword without username", []string{"resetpassword"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(append([]string{"admin"}, tt.args...))
			assert.ErrorIs(t, err, errHelp)
		})
	}
}

func TestCommandLine_AddUser(t *testing.T) {
	cli, users, out, _ := setup(t, "secret1")

	err := cli.run([]string{"admin", "adduser", "-email", " Bob@Example.com ", "-username", "bob", "-role", "TEACHER"})
	require.NoError(t, err)
	require.Len(t, users.created, 1)

	req := users.created[0]
	assert.Equal(t, "bob@example.com", req.Email)
	assert.Equal(t, "bob", *req.Username)
	assert.Equal(t, userModel.RoleTeacher, req.Role)
	assert.Equal(t, "secret1", *req.Password)
	assert.True(t, req.IsVerified)
	assert.Contains(t, out.String(), "created user #42")
}

func TestCommandLine_AddUserEmptyPassword(t *testing.T) {
	cli, users, _, _ := setup(t, "")

	err := cli.run([]string{"admin", "adduser", "-email", "bob@example.com"})
	assert.ErrorIs(t, err, errHelp)
	assert.Empty(t, users.created)
}

func TestCommandLine_AddUserConflict(t *testing.T) {
	cli, users, _, _ := setup(t, "secret1")
	users.createErr = response.NewBusinessError(response.WithErrorCode(response.Conflict), response.WithErrorMessage("用户名或邮箱已存在"))

	err := cli.run([]string{"admin", "adduser", "-email", "bob@example.com"})
	assert.Equal(t, response.Conflict, response.CodeOf(err))
}

func TestCommandLine_ResetPassword(t *testing.T) {
	cli, users, _, _ := setup(t, "n3wpass")

	require.NoError(t, cli.run([]string{"admin", "resetpassword", "-username", "alice"}))
	assert.Equal(t, "n3wpass", users.resets[7])

	delete(users.resets, 7)
	require.NoError(t, cli.run([]string{"admin", "resetpassword", "-username", "alice@example.com"}))
	assert.Equal(t, "n3wpass", users.resets[7])

	err := cli.run([]string{"admin", "resetpassword", "-username", "nobody"})
	assert.Equal(t, response.NotFound, response.CodeOf(err))
}

func TestCommandLine_ReadPasswordError(t *testing.T) {
	cli, _, _, _ := setup(t, "")
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, errors.New("not a terminal") }

	err := cli.run([]string{"admin", "resetpassword", "-username", "alice"})
	assert.EqualError(t, err, "not a terminal")
}

func TestCommandLine_Sweep(t *testing.T) {
	cli, _, out, sweeps := setup(t, "")

	require.NoError(t, cli.run([]string{"admin", "sweep", "-dry-run"}))
	assert.Contains(t, out.String(), "1 orphaned (dry run)")

	err := cli.run([]string{"admin", "sweep"})
	assert.EqualError(t, err, "1 objects could not be deleted")
	assert.Contains(t, out.String(), "answers/2/photos/y.png: denied")
	assert.Equal(t, []bool{true, false}, *sweeps)
}

type noRefs struct{}

func (noRefs) ReferencedURLs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestCommandLine_SweepRequiresMinAge(t *testing.T) {
	cli, _, out, _ := setup(t, "")
	store := testutils.NewMemoryStore()
	store.Put("tasks/1/files/just-uploaded.pdf", []byte("x"), time.Now())
	sweeper := reconcile.NewSweeper(store, noRefs{}, reconcile.Options{}, nil)
	cli.sweep = func(ctx context.Context, dryRun bool) (reconcile.Report, error) {
		return sweeper.WithDryRun(dryRun).Run(ctx)
	}

	err := cli.run([]string{"admin", "sweep"})
	assert.ErrorIs(t, err, reconcile.ErrMinAgeRequired)
	assert.True(t, store.Has("tasks/1/files/just-uploaded.pdf"))

	require.NoError(t, cli.run([]string{"admin", "sweep", "-dry-run"}))
	assert.Contains(t, out.String(), "tasks/1/files/just-uploaded.pdf")
}
