package service_test

import (
	"context"
	"sort"
	"time"

	"edufolio/internal/entity"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type memUserRepo struct {
	seq   uint
	users map[uint]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]entity.User)}
}

func (m *memUserRepo) Create(ctx context.Context, user *entity.User) error {
	m.seq++
	user.ID = m.seq
	if user.Role == "" {
		user.Role = entity.UserRoleUser
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *memUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, user := range m.users {
		if user.Email != nil && *user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Update(ctx context.Context, user *entity.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *memUserRepo) List(ctx context.Context) ([]entity.User, error) {
	users := make([]entity.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type memTokenRepo struct {
	users *memUserRepo
	seq   uint
	rows  map[string]entity.RefreshToken
}

func newMemTokenRepo(users *memUserRepo) *memTokenRepo {
	return &memTokenRepo{users: users, rows: make(map[string]entity.RefreshToken)}
}

func (m *memTokenRepo) Create(ctx context.Context, t *entity.RefreshToken) error {
	m.seq++
	t.ID = m.seq
	m.rows[t.Token] = *t
	return nil
}

func (m *memTokenRepo) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	row, ok := m.rows[token]
	if !ok {
		return nil, nil
	}
	if owner, _ := m.users.FindByID(ctx, row.UserID); owner != nil {
		row.User = *owner
	}
	return &row, nil
}

func (m *memTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	delete(m.rows, token)
	return nil
}

func (m *memTokenRepo) DeleteAllByUser(ctx context.Context, userID uint) error {
	for token, row := range m.rows {
		if row.UserID == userID {
			delete(m.rows, token)
		}
	}
	return nil
}

func (m *memTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	for token, row := range m.rows {
		if row.ExpiresAt.Before(time.Now()) {
			delete(m.rows, token)
			deleted++
		}
	}
	return deleted, nil
}

type memCodeRepo struct {
	seq  uint
	rows map[uint]entity.EmailVerification
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{rows: make(map[uint]entity.EmailVerification)}
}

func (m *memCodeRepo) Create(ctx context.Context, v *entity.EmailVerification) error {
	m.seq++
	v.ID = m.seq
	m.rows[v.ID] = *v
	return nil
}

func (m *memCodeRepo) FindByEmailAndCode(ctx context.Context, email, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error) {
	for _, row := range m.rows {
		if row.Email == email && row.Code == code && row.Purpose == purpose {
			row := row
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memCodeRepo) FindByUserAndCode(ctx context.Context, userID uint, code string, purpose entity.VerificationPurpose) (*entity.EmailVerification, error) {
	for _, row := range m.rows {
		if row.UserID != nil && *row.UserID == userID && row.Code == code && row.Purpose == purpose {
			row := row
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memCodeRepo) Delete(ctx context.Context, id uint) error {
	delete(m.rows, id)
	return nil
}

func (m *memCodeRepo) DeleteByEmail(ctx context.Context, email string, purpose entity.VerificationPurpose) error {
	for id, row := range m.rows {
		if row.Email == email && row.Purpose == purpose {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memCodeRepo) DeleteByUser(ctx context.Context, userID uint, purpose entity.VerificationPurpose) error {
	for id, row := range m.rows {
		if row.UserID != nil && *row.UserID == userID && row.Purpose == purpose {
			delete(m.rows, id)
		}
	}
	return nil
}

func (m *memCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var deleted int64
	for id, row := range m.rows {
		if row.ExpiresAt.Before(time.Now()) {
			delete(m.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

type memEventRepo struct {
	events []entity.AuthEvent
}

func (m *memEventRepo) Log(ctx context.Context, event *entity.AuthEvent) error {
	m.events = append(m.events, *event)
	return nil
}

type sentMail struct {
	To      string
	Code    string
	Purpose entity.VerificationPurpose
}

type captureSender struct {
	sent     []sentMail
	failWith error
}

func (s *captureSender) SendVerificationCode(ctx context.Context, to string, code string, purpose entity.VerificationPurpose) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, sentMail{To: to, Code: code, Purpose: purpose})
	return nil
}

func (s *captureSender) lastCode() string {
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1].Code
}
