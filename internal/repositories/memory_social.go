package repositories

import (
	"context"
	"sort"
	"time"

	"github.com/videohub/backend/internal/models"
)

// memoryComments implements CommentRepository.
type memoryComments struct{ db *memoryDB }

func (r memoryComments) Create(ctx context.Context, comment models.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[comment.ID]; ok {
		return ErrConflict
	}
	r.db.comments[comment.ID] = comment
	r.db.stamp(comment.ID)
	return nil
}

func (r memoryComments) FindByID(ctx context.Context, id string) (models.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return c, nil
}

func (r memoryComments) Update(ctx context.Context, comment models.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.comments[comment.ID]
	if !ok {
		return ErrNotFound
	}
	current.Content = comment.Content
	current.UpdatedAt = comment.UpdatedAt
	r.db.comments[comment.ID] = current
	return nil
}

func (r memoryComments) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.comments, id)
	return nil
}

func (r memoryComments) ListByTarget(ctx context.Context, target models.Target) ([]models.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Comment
	for _, c := range r.db.comments {
		if c.Target == target {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c > 0
		}
		return r.db.seq[out[i].ID] > r.db.seq[out[j].ID]
	})
	return out, nil
}

func (r memoryComments) DeleteByTarget(ctx context.Context, target models.Target) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var ids []string
	for id, c := range r.db.comments {
		if c.Target == target {
			ids = append(ids, id)
			delete(r.db.comments, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// memoryLikes implements LikeRepository.
type memoryLikes struct{ db *memoryDB }

func (r memoryLikes) findLocked(likedBy string, target models.Target) (string, bool) {
	for id, l := range r.db.likes {
		if l.LikedBy == likedBy && l.Target == target {
			return id, true
		}
	}
	return "", false
}

func (r memoryLikes) Add(ctx context.Context, like models.Like) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.findLocked(like.LikedBy, like.Target); ok {
		return false, nil
	}
	r.db.likes[like.ID] = like
	r.db.stamp(like.ID)
	return true, nil
}

func (r memoryLikes) Remove(ctx context.Context, likedBy string, target models.Target) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.findLocked(likedBy, target)
	if !ok {
		return false, nil
	}
	delete(r.db.likes, id)
	return true, nil
}

func (r memoryLikes) Exists(ctx context.Context, likedBy string, target models.Target) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.findLocked(likedBy, target)
	return ok, nil
}

func (r memoryLikes) LikedAmong(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (map[string]bool, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]bool)
	for _, l := range r.db.likes {
		if l.LikedBy != likedBy || l.Target.Kind != kind {
			continue
		}
		if _, ok := wanted[l.Target.ID]; ok {
			out[l.Target.ID] = true
		}
	}
	return out, nil
}

func (r memoryLikes) CountByTargets(ctx context.Context, kind models.TargetKind, ids []string) (map[string]int64, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]int64)
	for _, l := range r.db.likes {
		if l.Target.Kind != kind {
			continue
		}
		if _, ok := wanted[l.Target.ID]; ok {
			out[l.Target.ID]++
		}
	}
	return out, nil
}

func (r memoryLikes) ListByUser(ctx context.Context, likedBy string, kind models.TargetKind) ([]models.Like, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Like
	for _, l := range r.db.likes {
		if l.LikedBy == likedBy && l.Target.Kind == kind {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].UpdatedAt.Compare(out[j].UpdatedAt); c != 0 {
			return c > 0
		}
		return r.db.seq[out[i].ID] > r.db.seq[out[j].ID]
	})
	return out, nil
}

func (r memoryLikes) RemoveByUserTargets(ctx context.Context, likedBy string, kind models.TargetKind, ids []string) (int64, error) {
	return r.removeWhere(kind, ids, func(l models.Like) bool { return l.LikedBy == likedBy })
}

func (r memoryLikes) RemoveByTargets(ctx context.Context, kind models.TargetKind, ids []string) (int64, error) {
	return r.removeWhere(kind, ids, func(models.Like) bool { return true })
}

func (r memoryLikes) removeWhere(kind models.TargetKind, ids []string, keep func(models.Like) bool) (int64, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var removed int64
	for id, l := range r.db.likes {
		if l.Target.Kind != kind || !keep(l) {
			continue
		}
		if _, ok := wanted[l.Target.ID]; ok {
			delete(r.db.likes, id)
			removed++
		}
	}
	return removed, nil
}

// memorySubscriptions implements SubscriptionRepository.
type memorySubscriptions struct{ db *memoryDB }

func (r memorySubscriptions) findLocked(subscriberID, channelID string) (string, bool) {
	for id, s := range r.db.subs {
		if s.SubscriberID == subscriberID && s.ChannelID == channelID {
			return id, true
		}
	}
	return "", false
}

func (r memorySubscriptions) Add(ctx context.Context, sub models.Subscription) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.findLocked(sub.SubscriberID, sub.ChannelID); ok {
		return false, nil
	}
	r.db.subs[sub.ID] = sub
	r.db.stamp(sub.ID)
	return true, nil
}

func (r memorySubscriptions) Remove(ctx context.Context, subscriberID, channelID string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	id, ok := r.findLocked(subscriberID, channelID)
	if !ok {
		return false, nil
	}
	delete(r.db.subs, id)
	return true, nil
}

func (r memorySubscriptions) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	_, ok := r.findLocked(subscriberID, channelID)
	return ok, nil
}

func (r memorySubscriptions) ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Subscription
	for _, s := range r.db.subs {
		if s.SubscriberID == subscriberID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].CreatedAt.Compare(out[j].CreatedAt); c != 0 {
			return c > 0
		}
		return r.db.seq[out[i].ID] > r.db.seq[out[j].ID]
	})
	return out, nil
}

func (r memorySubscriptions) CountByChannels(ctx context.Context, channelIDs []string) (map[string]int64, error) {
	wanted := make(map[string]struct{}, len(channelIDs))
	for _, id := range channelIDs {
		wanted[id] = struct{}{}
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make(map[string]int64)
	for _, s := range r.db.subs {
		if _, ok := wanted[s.ChannelID]; ok {
			out[s.ChannelID]++
		}
	}
	return out, nil
}

func (r memorySubscriptions) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, s := range r.db.subs {
		if s.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

// memoryPlaylists implements PlaylistRepository.
type memoryPlaylists struct{ db *memoryDB }

func (r memoryPlaylists) Create(ctx context.Context, playlist models.Playlist) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	for _, p := range r.db.playlists {
		if p.OwnerID == playlist.OwnerID && p.Name == playlist.Name {
			return ErrConflict
		}
	}
	playlist.Videos = uniqueIDs(playlist.Videos)
	r.db.playlists[playlist.ID] = playlist
	r.db.stamp(playlist.ID)
	return nil
}

func (r memoryPlaylists) FindByID(ctx context.Context, id string) (models.Playlist, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	p.Videos = cloneStrings(p.Videos)
	return p, nil
}

func (r memoryPlaylists) FindByOwnerAndName(ctx context.Context, ownerID, name string) (models.Playlist, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, p := range r.db.playlists {
		if p.OwnerID == ownerID && p.Name == name {
			p.Videos = cloneStrings(p.Videos)
			return p, nil
		}
	}
	return models.Playlist{}, ErrNotFound
}

func (r memoryPlaylists) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []models.Playlist
	for _, p := range r.db.playlists {
		if p.OwnerID == ownerID {
			p.Videos = cloneStrings(p.Videos)
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].UpdatedAt.Compare(out[j].UpdatedAt); c != 0 {
			return c > 0
		}
		return r.db.seq[out[i].ID] > r.db.seq[out[j].ID]
	})
	return out, nil
}

func (r memoryPlaylists) Update(ctx context.Context, playlist models.Playlist) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	current, ok := r.db.playlists[playlist.ID]
	if !ok {
		return ErrNotFound
	}
	for id, p := range r.db.playlists {
		if id != playlist.ID && p.OwnerID == current.OwnerID && p.Name == playlist.Name {
			return ErrConflict
		}
	}
	current.Name = playlist.Name
	current.Description = playlist.Description
	current.UpdatedAt = playlist.UpdatedAt
	r.db.playlists[playlist.ID] = current
	return nil
}

func (r memoryPlaylists) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.playlists, id)
	return nil
}

func (r memoryPlaylists) PrependVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.playlists[id]
	if !ok {
		return false, ErrNotFound
	}
	if p.Contains(videoID) {
		return false, nil
	}
	p.Videos = append([]string{videoID}, p.Videos...)
	p.UpdatedAt = now
	r.db.playlists[id] = p
	return true, nil
}

func (r memoryPlaylists) RemoveVideo(ctx context.Context, id, videoID string, now time.Time) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.playlists[id]
	if !ok {
		return false, ErrNotFound
	}
	kept, removed := without(p.Videos, videoID)
	if !removed {
		return false, nil
	}
	p.Videos = kept
	p.UpdatedAt = now
	r.db.playlists[id] = p
	return true, nil
}

func (r memoryPlaylists) RemoveVideoEverywhere(ctx context.Context, videoID string, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, p := range r.db.playlists {
		kept, removed := without(p.Videos, videoID)
		if !removed {
			continue
		}
		p.Videos = kept
		p.UpdatedAt = now
		r.db.playlists[id] = p
		n++
	}
	return n, nil
}

func without(ids []string, drop string) ([]string, bool) {
	out := make([]string, 0, len(ids))
	removed := false
	for _, id := range ids {
		if id == drop {
			removed = true
			continue
		}
		out = append(out, id)
	}
	return out, removed
}
