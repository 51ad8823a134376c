package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/google/uuid"
)

// Repository implements levelshare.Repository using in-memory storage
type Repository struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]*levelshare.User
	usersByName map[string]uuid.UUID
	levels      map[uuid.UUID]*levelshare.Level
	levelSeq    map[uuid.UUID]uint64 // insertion order, for stable recency sort
	nextSeq     uint64
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:       make(map[uuid.UUID]*levelshare.User),
		usersByName: make(map[string]uuid.UUID),
		levels:      make(map[uuid.UUID]*levelshare.Level),
		levelSeq:    make(map[uuid.UUID]uint64),
	}
}

var _ levelshare.Repository = (*Repository)(nil)

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *levelshare.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Uniqueness is enforced here, under the write lock; any earlier lookup
	// was only a fast path.
	if _, exists := r.usersByName[user.Username]; exists {
		return levelshare.ErrDuplicateUsername
	}

	// Create a copy to avoid external modifications
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByName[user.Username] = user.ID

	return nil
}

func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*levelshare.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, levelshare.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*levelshare.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByName[username]
	if !exists {
		return nil, levelshare.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) UpdateUserRole(ctx context.Context, username string, role levelshare.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.usersByName[username]
	if !exists {
		return levelshare.ErrUserNotFound
	}
	r.users[id].Role = role
	return nil
}

func (r *Repository) DeleteUser(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, exists := r.usersByName[username]
	if !exists {
		return levelshare.ErrUserNotFound
	}
	delete(r.users, id)
	delete(r.usersByName, username)
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]*levelshare.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*levelshare.User, 0, len(r.users))
	for _, user := range r.users {
		userCopy := *user
		result = append(result, &userCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})

	return result, nil
}

// Level operations

func (r *Repository) CreateLevel(ctx context.Context, level *levelshare.Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	levelCopy := *level
	levelCopy.Images = append([]levelshare.BlobRef(nil), level.Images...)
	r.levels[level.ID] = &levelCopy
	r.levelSeq[level.ID] = r.nextSeq
	r.nextSeq++

	return nil
}

func (r *Repository) GetLevel(ctx context.Context, id uuid.UUID) (*levelshare.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	level, exists := r.levels[id]
	if !exists {
		return nil, levelshare.ErrLevelNotFound
	}
	return copyLevel(level), nil
}

func (r *Repository) DeleteLevel(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.levels[id]; !exists {
		return levelshare.ErrLevelNotFound
	}
	delete(r.levels, id)
	delete(r.levelSeq, id)
	return nil
}

func (r *Repository) ListLevels(ctx context.Context, filter levelshare.LevelFilter) ([]*levelshare.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*levelshare.Level
	for _, level := range r.levels {
		if filter.Creator != "" && level.CreatorUsername != filter.Creator {
			continue
		}
		result = append(result, copyLevel(level))
	}

	r.sortByRecency(result)
	return result, nil
}

func (r *Repository) SearchLevels(ctx context.Context, query string, limit int) ([]*levelshare.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	var result []*levelshare.Level
	for _, level := range r.levels {
		if strings.Contains(strings.ToLower(level.Title), q) ||
			strings.Contains(strings.ToLower(level.CreatorUsername), q) {
			result = append(result, copyLevel(level))
		}
	}

	r.sortByRecency(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// sortByRecency orders newest-first, falling back to insertion order for
// equal timestamps. Callers must hold at least a read lock.
func (r *Repository) sortByRecency(levels []*levelshare.Level) {
	sort.SliceStable(levels, func(i, j int) bool {
		if !levels[i].CreatedAt.Equal(levels[j].CreatedAt) {
			return levels[i].CreatedAt.After(levels[j].CreatedAt)
		}
		return r.levelSeq[levels[i].ID] < r.levelSeq[levels[j].ID]
	})
}

func copyLevel(level *levelshare.Level) *levelshare.Level {
	levelCopy := *level
	levelCopy.Images = append([]levelshare.BlobRef(nil), level.Images...)
	return &levelCopy
}
