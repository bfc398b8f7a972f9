package repositories

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/videohub/backend/internal/models"
)

// memoryDB holds every collection behind one lock. seq records insertion order
// so equal timestamps still sort deterministically.
type memoryDB struct {
	mu   sync.RWMutex
	next int64
	seq  map[string]int64

	users     map[string]models.User
	videos    map[string]models.Video
	comments  map[string]models.Comment
	likes     map[string]models.Like
	subs      map[string]models.Subscription
	playlists map[string]models.Playlist
	tweets    map[string]models.Tweet
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		seq:       make(map[string]int64),
		users:     make(map[string]models.User),
		videos:    make(map[string]models.Video),
		comments:  make(map[string]models.Comment),
		likes:     make(map[string]models.Like),
		subs:      make(map[string]models.Subscription),
		playlists: make(map[string]models.Playlist),
		tweets:    make(map[string]models.Tweet),
	}
}

func (m *memoryDB) stamp(id string) {
	m.next++
	m.seq[id] = m.next
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

// memoryUsers implements UserRepository.
type memoryUsers struct{ db *memoryDB }

func (r memoryUsers) Create(ctx context.Context, user models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; ok {
		return ErrConflict
	}
	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrConflict
		}
	}
	user.WatchHistory = cloneStrings(user.WatchHistory)
	r.db.users[user.ID] = user
	r.db.stamp(user.ID)
	return nil
}

func (r memoryUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	u.WatchHistory = cloneStrings(u.WatchHistory)
	return u, nil
}

func (r memoryUsers) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]models.User, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if u, ok := r.db.users[id]; ok {
			u.WatchHistory = cloneStrings(u.WatchHistory)
			out = append(out, u)
		}
	}
	return out, nil
}

func (r memoryUsers) FindByUsername(ctx context.Context, username string) (models.User, error) {
	users, _ := r.FindByUsernames(ctx, []string{username})
	if len(users) == 0 {
		return models.User{}, ErrNotFound
	}
	return users[0], nil
}

func (r memoryUsers) FindByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	wanted := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		wanted[name] = struct{}{}
	}
	var out []models.User
	for _, u := range r.db.users {
		if _, ok := wanted[u.Username]; ok {
			u.WatchHistory = cloneStrings(u.WatchHistory)
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r memoryUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.Email == email {
			u.WatchHistory = cloneStrings(u.WatchHistory)
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (r memoryUsers) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.User
	for _, u := range r.db.users {
		if containsFold(u.Username, query) || containsFold(u.FullName, query) {
			u.WatchHistory = cloneStrings(u.WatchHistory)
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return page(out, 0, limit), nil
}

func (r memoryUsers) Update(ctx context.Context, user models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, u := range r.db.users {
		if id != user.ID && (u.Username == user.Username || u.Email == user.Email) {
			return ErrConflict
		}
	}
	user.RefreshToken = current.RefreshToken
	user.WatchHistory = current.WatchHistory
	user.CreatedAt = current.CreatedAt
	r.db.users[user.ID] = user
	return nil
}

func (r memoryUsers) mutate(id string, fn func(*models.User)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	r.db.users[id] = u
	return nil
}

func (r memoryUsers) SetRefreshToken(ctx context.Context, id, token string) error {
	return r.mutate(id, func(u *models.User) { u.RefreshToken = token })
}

func (r memoryUsers) AppendWatchHistory(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	first := false
	err := r.mutate(id, func(u *models.User) {
		first = !slices.Contains(u.WatchHistory, videoID)
		u.WatchHistory = append(cloneStrings(u.WatchHistory), videoID)
		u.UpdatedAt = now
	})
	return first, err
}

func (r memoryUsers) ClearWatchHistory(ctx context.Context, id string, now time.Time) error {
	return r.mutate(id, func(u *models.User) {
		u.WatchHistory = []string{}
		u.UpdatedAt = now
	})
}

// memoryVideos implements VideoRepository.
type memoryVideos struct{ db *memoryDB }

func (r memoryVideos) Create(ctx context.Context, video models.Video) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.videos[video.ID]; ok {
		return ErrConflict
	}
	r.db.videos[video.ID] = video
	r.db.stamp(video.ID)
	return nil
}

func (r memoryVideos) FindByID(ctx context.Context, id string) (models.Video, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	v, ok := r.db.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return v, nil
}

func (r memoryVideos) FindByIDs(ctx context.Context, ids []string) ([]models.Video, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]models.Video, 0, len(ids))
	for _, id := range uniqueIDs(ids) {
		if v, ok := r.db.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memoryVideos) Update(ctx context.Context, video models.Video) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.videos[video.ID]
	if !ok {
		return ErrNotFound
	}
	video.OwnerID = current.OwnerID
	video.Views = current.Views
	video.CreatedAt = current.CreatedAt
	r.db.videos[video.ID] = video
	return nil
}

func (r memoryVideos) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.videos[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.videos, id)
	return nil
}

func (r memoryVideos) IncrementViews(ctx context.Context, id string, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	v, ok := r.db.videos[id]
	if !ok {
		return ErrNotFound
	}
	v.Views++
	v.UpdatedAt = now
	r.db.videos[id] = v
	return nil
}

func (r memoryVideos) List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var matches []models.Video
	for _, v := range r.db.videos {
		if filter.OwnerID != "" && v.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(v.Category, filter.Category) {
			continue
		}
		if filter.Published != nil && v.IsPublished != *filter.Published {
			continue
		}
		if filter.Query != "" && !containsFold(v.Title, filter.Query) && !containsFold(v.Description, filter.Query) {
			continue
		}
		matches = append(matches, v)
	}

	sortBy := filter.SortBy
	if !ValidVideoSort(sortBy) {
		sortBy = VideoSortCreatedAt
	}
	less := func(a, b models.Video) int {
		switch sortBy {
		case VideoSortUpdatedAt:
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case VideoSortTitle:
			return strings.Compare(a.Title, b.Title)
		case VideoSortViews:
			return compareInt64(a.Views, b.Views)
		case VideoSortDuration:
			return compareFloat(a.Duration, b.Duration)
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		c := less(matches[i], matches[j])
		if c == 0 {
			c = compareInt64(r.db.seq[matches[i].ID], r.db.seq[matches[j].ID])
		}
		if filter.SortDesc {
			return c > 0
		}
		return c < 0
	})

	return page(matches, filter.Offset, filter.Limit), int64(len(matches)), nil
}

func (r memoryVideos) ListByOwners(ctx context.Context, ownerIDs []string, publishedOnly bool) ([]models.Video, error) {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Video
	for _, v := range r.db.videos {
		if _, ok := owners[v.OwnerID]; !ok {
			continue
		}
		if publishedOnly && !v.IsPublished {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c > 0
		}
		return r.db.seq[out[i].ID] > r.db.seq[out[j].ID]
	})
	return out, nil
}

func (r memoryVideos) TotalsByOwner(ctx context.Context, ownerID string) (VideoTotals, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var totals VideoTotals
	for _, v := range r.db.videos {
		if v.OwnerID == ownerID {
			totals.Videos++
			totals.Views += v.Views
		}
	}
	return totals, nil
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
