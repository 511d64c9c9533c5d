package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/hub"
	"github.com/devaloi/agora/internal/middleware"
	"github.com/devaloi/agora/internal/service"
	"github.com/devaloi/agora/internal/upload"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Hub        *hub.Hub
	Users      *service.UserService
	Categories *service.CategoryService
	Topics     *service.TopicService
	Comments   *service.CommentService
	Votes      *service.VoteService
	Stats      *service.StatsService
	Avatars    *upload.AvatarStore
	Logger     zerolog.Logger
	CORSOrigin string
	SendBuffer int
}

// NewRouter builds the HTTP API, the realtime endpoint and static uploads.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigin))

	authed := middleware.Auth(d.Users)
	admin := middleware.RequireRole(domain.RoleAdmin)

	r.Get("/health", Health())
	r.With(middleware.OptionalAuth(d.Users)).Get("/ws", ServeWS(d.Hub, d.SendBuffer, d.Logger))

	if d.Avatars != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(d.Avatars.Root()))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", Register(d.Users))
			r.Post("/login", Login(d.Users))

			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Get("/me", Me())

				r.Group(func(r chi.Router) {
					r.Use(admin)
					r.Get("/users", ListUsers(d.Users))
					r.Patch("/users/{userID}/activate", ActivateUser(d.Users))
					r.Patch("/users/{userID}/deactivate", DeactivateUser(d.Users))
					r.Patch("/users/{userID}/ban", BanUser(d.Users))
					r.Patch("/users/{userID}/unban", UnbanUser(d.Users))
					r.Get("/{userID}", GetUser(d.Users))
					r.Put("/{userID}", UpdateUser(d.Users))
					r.Delete("/{userID}", DeleteUser(d.Users))
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authed)
			r.Get("/profile", Profile(d.Users))
			r.Put("/profile", UpdateProfile(d.Users, d.Avatars))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", ListCategories(d.Categories))
			r.Get("/{categoryID}", GetCategory(d.Categories))

			r.Group(func(r chi.Router) {
				r.Use(authed, admin)
				r.Post("/", CreateCategory(d.Categories))
				r.Put("/{categoryID}", UpdateCategory(d.Categories))
				r.Delete("/{categoryID}", DeleteCategory(d.Categories))
			})
		})

		r.Route("/topics", func(r chi.Router) {
			r.Get("/latest", LatestTopics(d.Topics))

			r.Group(func(r chi.Router) {
				r.Use(authed)
				r.Post("/", CreateTopic(d.Topics))
				r.Get("/", ListTopics(d.Topics))
				r.Get("/{topicID}", GetTopic(d.Topics))
				r.Put("/{topicID}", UpdateTopic(d.Topics))
				r.Patch("/{topicID}/delete", DeleteTopic(d.Topics))
				r.Patch("/{topicID}/restore", RestoreTopic(d.Topics))
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(authed)
			r.Post("/", CreateComment(d.Comments))
			r.Get("/", ListComments(d.Comments))
			r.Get("/topic/{topicID}", ListTopicComments(d.Comments))
			r.Put("/{commentID}", UpdateComment(d.Comments))
			r.Delete("/{commentID}", DeleteComment(d.Comments))
			r.Patch("/{commentID}/delete", DeleteComment(d.Comments))
			r.Patch("/{commentID}/restore", RestoreComment(d.Comments))
		})

		r.Route("/votes", func(r chi.Router) {
			r.Use(authed)
			r.Post("/", CastVote(d.Votes))
			r.Get("/", ListVotes(d.Votes))
			r.Delete("/{voteID}", DeleteVote(d.Votes))
		})

		r.With(authed, admin).Get("/stats/dashboard", Dashboard(d.Stats))

		r.Route("/realtime", func(r chi.Router) {
			r.Get("/rooms", ListRooms(d.Hub))
			r.Get("/rooms/{topicID}", RoomInfo(d.Hub))
		})
	})

	return r
}
