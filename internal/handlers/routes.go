package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/commands"
	"github.com/videohub/backend/internal/middleware"
	"github.com/videohub/backend/internal/readmodel"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Commands      *commands.Service
	Engine        *readmodel.Engine
	Auth          Authenticator
	Limiter       middleware.RateLimiter
	Uploads       Uploads
	SecureCookies bool
	HealthCheck   func(ctx context.Context) error
	Logger        *zap.Logger
}

// NewRouter builds the HTTP API under /api/v1 plus /healthz.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{Check: deps.HealthCheck}
	users := UserHandler{Commands: deps.Commands, Engine: deps.Engine, Uploads: deps.Uploads, SecureCookies: deps.SecureCookies}
	videos := VideoHandler{Commands: deps.Commands, Engine: deps.Engine, Uploads: deps.Uploads}
	comments := CommentHandler{Commands: deps.Commands, Engine: deps.Engine}
	likes := LikeHandler{Commands: deps.Commands, Engine: deps.Engine}
	subs := SubscriptionHandler{Commands: deps.Commands, Engine: deps.Engine}
	playlists := PlaylistHandler{Commands: deps.Commands, Engine: deps.Engine}
	tweets := TweetHandler{Commands: deps.Commands, Engine: deps.Engine, Uploads: deps.Uploads}
	dashboard := DashboardHandler{Engine: deps.Engine}

	authn := requireAuth(deps.Auth)
	limited := func(scope string) func(http.Handler) http.Handler {
		return middleware.RateLimit(deps.Limiter, scope)
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, apperr.NotFound("route %s %s does not exist", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(r.Context(), w, http.StatusMethodNotAllowed, nil, "method not allowed")
	})

	r.Get("/healthz", health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(limited("register")).Post("/register", users.Register)
			r.With(limited("login")).Post("/login", users.Login)
			r.With(limited("refresh")).Post("/refresh-token", users.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Post("/logout", users.Logout)
				r.Post("/change-password", users.ChangePassword)
				r.Get("/current-user", users.CurrentUser)
				r.Patch("/update-account", users.UpdateAccount)
				r.Patch("/update-bio", users.UpdateBio)
				r.Patch("/avatar", users.UpdateAvatar)
				r.Patch("/cover-image", users.UpdateCoverImage)
				r.Get("/channel/{username}", users.Channel)
				r.Get("/history", users.WatchHistory)
				r.Delete("/history", users.ClearWatchHistory)
				r.Get("/{userId}", users.ByID)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/all", videos.All)
			r.Get("/search", videos.Search)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/user/{userId}", videos.ByUser)
				r.Post("/upload-video", videos.Publish)
				r.Get("/user-video/{videoId}", videos.Watch)
				r.Patch("/update-video/{videoId}", videos.Update)
				r.Delete("/delete-video/{videoId}", videos.Delete)
				r.Patch("/toggle/publish/{videoId}", videos.TogglePublish)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(authn)
			r.Get("/{videoId}", comments.VideoComments)
			r.Post("/{videoId}", comments.AddToVideo)
			r.Patch("/c/{commentId}", comments.UpdateVideoComment)
			r.Delete("/c/{commentId}", comments.DeleteVideoComment)
			r.Get("/tweets/{tweetId}/comment", comments.TweetComments)
			r.Post("/tweets/{tweetId}/comment", comments.AddToTweet)
			r.Patch("/tweet-comments/{commentId}", comments.UpdateTweetComment)
			r.Delete("/tweet-comments/{commentId}", comments.DeleteTweetComment)
		})

		r.Route("/likes", func(r chi.Router) {
			r.Use(authn)
			r.Post("/toggle/v/{videoId}", likes.ToggleVideo)
			r.Post("/toggle/c/{commentId}", likes.ToggleComment)
			r.Post("/toggle/t/{tweetId}", likes.ToggleTweet)
			r.Get("/videos", likes.LikedVideos)
			r.Get("/check/v/{videoId}", likes.CheckVideo)
			r.Get("/check/c/{commentId}", likes.CheckComment)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(authn)
			r.Get("/videos", subs.Feed)
			r.Get("/subscribed/{subscriberId}", subs.Subscribed)
			r.Post("/channel/{channelId}", subs.Toggle)
			r.Get("/channel/{channelId}", subs.SubscriberCount)
		})

		r.Route("/playlist", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", playlists.Create)
			r.Get("/user/{userId}", playlists.ByUser)
			r.Get("/liked-videos", playlists.LikedVideos)
			r.Patch("/add/{videoId}/{playlistId}", playlists.AddVideo)
			r.Patch("/remove/{videoId}/{playlistId}", playlists.RemoveVideo)
			r.Get("/{playlistId}", playlists.Get)
			r.Patch("/{playlistId}", playlists.Update)
			r.Delete("/{playlistId}", playlists.Delete)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.Use(authn)
			r.Post("/", tweets.Create)
			r.Get("/", tweets.List)
			r.Get("/user/{userId}", tweets.ByUser)
			r.Get("/{tweetId}", tweets.Get)
			r.Patch("/{tweetId}", tweets.Update)
			r.Delete("/{tweetId}", tweets.Delete)
			r.Post("/{tweetId}/react", tweets.React)
			r.Get("/{tweetId}/reactions", tweets.Reactions)
			r.Post("/{tweetId}/vote", tweets.Vote)
			r.Get("/{tweetId}/poll", tweets.Poll)
			r.Post("/{tweetId}/retweet", tweets.Retweet)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(authn)
			r.Get("/stats/{channelId}", dashboard.Stats)
			r.Get("/videos", dashboard.Videos)
		})

		r.With(authn).Get("/search/all", dashboard.Search)
	})

	return r
}
