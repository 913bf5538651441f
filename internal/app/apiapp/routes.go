package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/crush/internal/config"
	"github.com/ivankudzin/crush/internal/infra/metrics"
	authsvc "github.com/ivankudzin/crush/internal/services/auth"
	discoversvc "github.com/ivankudzin/crush/internal/services/discover"
	likessvc "github.com/ivankudzin/crush/internal/services/likes"
	matchessvc "github.com/ivankudzin/crush/internal/services/matches"
	mediasvc "github.com/ivankudzin/crush/internal/services/media"
	messagessvc "github.com/ivankudzin/crush/internal/services/messages"
	profilessvc "github.com/ivankudzin/crush/internal/services/profiles"
	"github.com/ivankudzin/crush/internal/services/realtime"
	"github.com/ivankudzin/crush/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService     *authsvc.Service
	ProfileService  *profilessvc.Service
	MediaService    *mediasvc.Service
	DiscoverService *discoversvc.Service
	LikeService     *likessvc.Service
	MatchService    *matchessvc.Service
	MessageService  *messagessvc.Service
	Hub             *realtime.Hub
	Logger          *zap.Logger
	Config          config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	log := deps.Logger
	presenter := handlers.NewPresenter(deps.MediaService)

	authHandler := handlers.NewAuthHandler(deps.AuthService, log)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService, presenter, log)
	mediaHandler := handlers.NewMediaHandler(deps.MediaService, presenter, log)
	discoverHandler := handlers.NewDiscoverHandler(deps.DiscoverService, deps.ProfileService, presenter, log)
	likesHandler := handlers.NewLikesHandler(deps.LikeService, deps.ProfileService, presenter, log)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService, deps.ProfileService, presenter, log)
	messagesHandler := handlers.NewMessagesHandler(deps.MessageService, deps.ProfileService, log)
	realtimeHandler := handlers.NewRealtimeHandler(deps.Hub, deps.ProfileService, log)
	systemHandler := handlers.NewSystemHandler(deps.Config.Version)

	authMW := AuthMiddleware(deps.AuthService, log)
	wsAuthMW := AuthMiddleware(deps.AuthService, log, WithQueryToken())
	authThrottle := ThrottleByIP(deps.Config.Limits.AuthPerSecond, deps.Config.Limits.AuthBurst)

	r.Get("/healthz", systemHandler.Health)
	r.Handle("/metrics", metrics.Handler())
	r.With(wsAuthMW).Get("/ws", realtimeHandler.Connect)

	r.Group(func(r chi.Router) {
		r.Use(RequestTimeout(deps.Config.HTTP))

		r.Get("/system/status", systemHandler.Status)

		r.Route("/auth", func(r chi.Router) {
			r.With(authThrottle).Post("/register", authHandler.Register)
			r.With(authThrottle).Post("/login", authHandler.Login)
			r.With(authMW).Get("/me", authHandler.Me)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", profileHandler.Create)
			r.Get("/me", profileHandler.Mine)
			r.Delete("/me", profileHandler.Deactivate)
			r.Get("/discover", discoverHandler.Discover)
			r.Post("/like/{profileId}", likesHandler.Like)
			r.Put("/bio", profileHandler.UpdateBio)
			r.Post("/interests", profileHandler.AddInterests)
			r.Delete("/interests", profileHandler.RemoveInterests)
			r.Put("/preferences", profileHandler.UpdatePreferences)
			r.Post("/photos", mediaHandler.UploadPhotos)
			r.Put("/photos/primary/{photoId}", mediaHandler.SetPrimary)
			r.Delete("/photos/{photoId}", mediaHandler.DeletePhoto)
			r.Post("/verify", mediaHandler.SubmitVerification)
			r.Get("/{profileId}", profileHandler.Get)
			r.Put("/{profileId}", profileHandler.Update)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Use(authMW)
			r.Get("/", matchesHandler.List)
			r.Get("/history", matchesHandler.History)
			r.Get("/{matchId}", matchesHandler.Get)
			r.Delete("/{matchId}", matchesHandler.Unmatch)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(authMW)
			r.Post("/", messagesHandler.Send)
			r.Get("/{profileId}", messagesHandler.Conversation)
			r.Put("/{messageId}/read", messagesHandler.MarkRead)
			r.Delete("/{messageId}", messagesHandler.Delete)
		})
	})
}
