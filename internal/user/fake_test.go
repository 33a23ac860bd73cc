package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	attachmentModel "terminal-terrace/testmaker/internal/model/attachment"
	userModel "terminal-terrace/testmaker/internal/model/user"
)

// memoryUserRepo 内存版 UserRepository
type memoryUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]userModel.User
	owned  map[uint][]attachmentModel.List
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]userModel.User), owned: make(map[uint][]attachmentModel.List)}
}

func (r *memoryUserRepo) Create(ctx context.Context, u *userModel.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || (u.Username != nil && existing.Username != nil && *existing.Username == *u.Username) {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = *u
	return nil
}

func (r *memoryUserRepo) find(match func(userModel.User) bool) (*userModel.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id uint) (*userModel.User, error) {
	return r.find(func(u userModel.User) bool { return u.ID == id })
}

func (r *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*userModel.User, error) {
	return r.find(func(u userModel.User) bool { return u.Username != nil && *u.Username == username })
}

func (r *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*userModel.User, error) {
	return r.find(func(u userModel.User) bool { return u.Email == email })
}

func (r *memoryUserRepo) GetByOAuth(ctx context.Context, provider userModel.Provider, oauthID string) (*userModel.User, error) {
	return r.find(func(u userModel.User) bool {
		return u.OAuthProvider == provider && u.OAuthID != nil && *u.OAuthID == oauthID
	})
}

func (r *memoryUserRepo) List(ctx context.Context, q ListQuery) ([]userModel.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []userModel.User
	for _, u := range r.users {
		if q.Role != "" && u.Role != q.Role {
			continue
		}
		if q.IsActive != nil && u.IsActive != *q.IsActive {
			continue
		}
		if q.Search != "" && !strings.Contains(u.Email, q.Search) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	start := (q.Page - 1) * q.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + q.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memoryUserRepo) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	u, err := r.GetByUsername(ctx, username)
	return err == nil && u.ID != excludeID, nil
}

func (r *memoryUserRepo) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	u, err := r.GetByEmail(ctx, email)
	return err == nil && u.ID != excludeID, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, id uint, changes map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range changes {
		switch k {
		case "email":
			u.Email = v.(string)
		case "username":
			s := v.(string)
			u.Username = &s
		case "full_name":
			s := v.(string)
			u.FullName = &s
		case "role":
			u.Role = v.(userModel.Role)
		case "is_active":
			u.IsActive = v.(bool)
		case "is_verified":
			u.IsVerified = v.(bool)
		case "is_email_verified":
			u.IsEmailVerified = v.(bool)
		case "hashed_password":
			s := v.(string)
			u.HashedPassword = &s
		case "last_login_at":
			t := v.(time.Time)
			u.LastLoginAt = &t
		case "oauth_provider":
			u.OAuthProvider = v.(userModel.Provider)
		case "oauth_id":
			s := v.(string)
			u.OAuthID = &s
		default:
			panic("memoryUserRepo: unexpected column " + k)
		}
	}
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) MarkEmailVerified(ctx context.Context, id uint, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.Email != email {
		return false, nil
	}
	u.IsEmailVerified = true
	r.users[id] = u
	return true, nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.users, id)
	delete(r.owned, id)
	return nil
}

func (r *memoryUserRepo) AttachmentsOwnedBy(ctx context.Context, userID uint) ([]attachmentModel.List, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owned[userID], nil
}

// plainHasher 测试用，避免 bcrypt 的耗时
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Verify(plain, hash string) bool { return hash == "hashed:"+plain }
