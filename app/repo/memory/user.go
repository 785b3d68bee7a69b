package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
	"github.com/suhendararyadi/lppm-iaipi-mhs/app/repo"
)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.IsActive = true
	user.CreatedAt, user.UpdatedAt = now, now

	stored := *user
	stored.Prodi = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok || !u.IsActive {
		return nil, repo.ErrNotFound
	}
	u = r.s.expandUser(u)
	return &u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email && u.IsActive {
			u = r.s.expandUser(u)
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *UserRepo) FindAll(ctx context.Context, f model.UserFilter) ([]model.User, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []model.User
	for _, u := range r.s.users {
		if !u.IsActive {
			continue
		}
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(u.FullName), search) &&
			!strings.Contains(u.Email, search) &&
			!strings.Contains(strings.ToLower(u.NIM), search) {
			continue
		}
		matched = append(matched, r.s.expandUser(u))
	}

	less := func(a, b model.User) bool {
		switch f.SortBy {
		case "email":
			return a.Email < b.Email
		case "full_name":
			return a.FullName < b.FullName
		case "nim":
			return a.NIM < b.NIM
		case "role":
			return a.Role < b.Role
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
	desc := strings.ToLower(f.Order) != "asc"
	sort.SliceStable(matched, func(i, j int) bool {
		if desc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start < 0 {
		start = 0
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (r *UserRepo) FindByRole(ctx context.Context, role string) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var users []model.User
	for _, u := range r.s.users {
		if u.Role == role && u.IsActive {
			users = append(users, r.s.expandUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].FullName < users[j].FullName })
	return users, nil
}

func (r *UserRepo) CountByRole(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, u := range r.s.users {
		if u.IsActive {
			counts[u.Role]++
		}
	}
	return counts, nil
}

func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.users[user.ID]
	if !ok {
		return repo.ErrNotFound
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for id, u := range r.s.users {
		if id != user.ID && u.Email == user.Email {
			return repo.ErrDuplicate
		}
	}

	current.Email = user.Email
	current.PasswordHash = user.PasswordHash
	current.FullName = user.FullName
	current.NIM = user.NIM
	current.Role = user.Role
	current.ProdiID = user.ProdiID
	current.RefreshToken = user.RefreshToken
	current.UpdatedAt = time.Now()
	r.s.users[user.ID] = current
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *UserRepo) AddBlacklistToken(ctx context.Context, token model.BlacklistedToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token.CreatedAt = time.Now()
	r.s.blacklist[token.Token] = token
	return nil
}

func (r *UserRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.blacklist[token]
	return ok && t.ExpiresAt.After(time.Now()), nil
}

func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.RefreshToken = ""
	r.s.users[userID] = u
	return nil
}
