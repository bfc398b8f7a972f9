package repositories

import "github.com/videohub/backend/internal/db"

// Store bundles the repositories backed by one database.
type Store struct {
	Users         UserRepository
	Videos        VideoRepository
	Comments      CommentRepository
	Likes         LikeRepository
	Subscriptions SubscriptionRepository
	Playlists     PlaylistRepository
	Tweets        TweetRepository
}

// NewPostgresStore wires every repository to the provided pool.
func NewPostgresStore(pool db.Pool) Store {
	return Store{
		Users:         NewPostgresUserRepository(pool),
		Videos:        NewPostgresVideoRepository(pool),
		Comments:      NewPostgresCommentRepository(pool),
		Likes:         NewPostgresLikeRepository(pool),
		Subscriptions: NewPostgresSubscriptionRepository(pool),
		Playlists:     NewPostgresPlaylistRepository(pool),
		Tweets:        NewPostgresTweetRepository(pool),
	}
}

// NewMemoryStore returns a process-local store with the same semantics as the Postgres one.
func NewMemoryStore() Store {
	m := newMemoryDB()
	return Store{
		Users:         memoryUsers{m},
		Videos:        memoryVideos{m},
		Comments:      memoryComments{m},
		Likes:         memoryLikes{m},
		Subscriptions: memorySubscriptions{m},
		Playlists:     memoryPlaylists{m},
		Tweets:        memoryTweets{m},
	}
}
