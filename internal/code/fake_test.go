package code

import (
	"context"
	"errors"
	"sync"

	userModel "terminal-terrace/testmaker/internal/model/user"
	"terminal-terrace/testmaker/packages/response"
)

type fakeAccounts struct {
	mu    sync.Mutex
	users map[uint]userModel.User
}

func newFakeAccounts(users ...userModel.User) *fakeAccounts {
	a := &fakeAccounts{users: make(map[uint]userModel.User)}
	for _, u := range users {
		a.users[u.ID] = u
	}
	return a
}

func (a *fakeAccounts) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok {
		return nil, response.NewBusinessError(response.WithErrorCode(response.NotFound), response.WithErrorMessage("用户不存在"))
	}
	return &u, nil
}

func (a *fakeAccounts) MarkEmailVerified(ctx context.Context, id uint, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[id]
	if !ok || u.Email != email {
		return response.NewBusinessError(response.WithErrorCode(response.Conflict), response.WithErrorMessage("邮箱已变更，请重新获取验证码"))
	}
	u.IsEmailVerified = true
	a.users[id] = u
	return nil
}

func (a *fakeAccounts) setEmail(id uint, email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := a.users[id]
	u.Email = email
	a.users[id] = u
}

type sentCode struct {
	to, code string
	minutes  int
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (m *fakeMailer) SendVerificationCode(to, code string, expireMinutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{to: to, code: code, minutes: expireMinutes})
	return nil
}

func (m *fakeMailer) last() sentCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentCode{}
	}
	return m.sent[len(m.sent)-1]
}

var errSMTPDown = errors.New("smtp: connection refused")
