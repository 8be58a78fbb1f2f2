package routes

import (
	"github.com/crownstage/pageant-system/handlers"
	"github.com/crownstage/pageant-system/middleware"
	"github.com/crownstage/pageant-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes собирает все маршруты приложения.
//
// Три уровня доступа: публичные (витрина, номинации, голосование),
// авторизованные admin/host (управление конкурсами и номинантами) и
// только admin (жюри, ручные голоса, удаление).
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	competitionHandler *handlers.CompetitionHandler,
	nomineeHandler *handlers.NomineeHandler,
	contestantHandler *handlers.ContestantHandler,
	voteHandler *handlers.VoteHandler,
	judgeHandler *handlers.JudgeHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	staffOnly := middleware.Authorize(models.RoleAdmin, models.RoleHost)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/competitions", func(r chi.Router) {
		// Публичная витрина: только видимые статусы
		r.Get("/", competitionHandler.ListPublicHandler)
		r.Get("/{competitionID}", competitionHandler.GetByIDHandler)
		r.Get("/{competitionID}/contestants", contestantHandler.ListHandler)
		r.Get("/{competitionID}/judges", judgeHandler.ListCompetitionJudgesHandler)
		r.Get("/{competitionID}/votes/quote", voteHandler.QuoteHandler)
		r.Get("/{competitionID}/prize-summary", voteHandler.PrizeSummaryHandler)

		// Номинация и голосование открыты для зрителей
		r.Post("/{competitionID}/nominees", nomineeHandler.SubmitHandler)
		r.Post("/{competitionID}/contestants/{contestantID}/votes", voteHandler.PurchaseHandler)

		// Управление конкурсом
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(staffOnly)

			r.Post("/", competitionHandler.CreateHandler)
			r.Put("/{competitionID}", competitionHandler.UpdateHandler)
			r.Patch("/{competitionID}/status", competitionHandler.UpdateStatusHandler)
			r.Post("/{competitionID}/cover", competitionHandler.UploadCoverHandler)
			r.Get("/{competitionID}/nominees", nomineeHandler.ListActiveHandler)
		})
	})

	router.Route("/nominees", func(r chi.Router) {
		// Анкета по инвайт-токену из письма
		r.Put("/claim", nomineeHandler.CompleteProfileByTokenHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(staffOnly)

			r.Get("/{nomineeID}", nomineeHandler.GetByIDHandler)
			r.Post("/{nomineeID}/approve", nomineeHandler.ApproveHandler)
			r.Post("/{nomineeID}/reject", nomineeHandler.RejectHandler)
			r.Post("/{nomineeID}/convert", nomineeHandler.ConvertHandler)
			r.Put("/{nomineeID}/profile", nomineeHandler.CompleteProfileHandler)
			r.Post("/{nomineeID}/resend-invite", nomineeHandler.ResendInviteHandler)
		})
	})

	router.Route("/contestants", func(r chi.Router) {
		r.Get("/{contestantID}", contestantHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(staffOnly)

			r.Post("/{contestantID}/photo", contestantHandler.UploadPhotoHandler)
		})
	})

	router.Route("/judges", func(r chi.Router) {
		r.Get("/", judgeHandler.ListHandler)
		r.Get("/{judgeID}", judgeHandler.GetByIDHandler)
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/competitions", competitionHandler.ListAdminHandler)
		r.Delete("/competitions/{competitionID}", competitionHandler.DeleteHandler)

		r.Post("/judges", judgeHandler.CreateHandler)
		r.Put("/judges/{judgeID}", judgeHandler.UpdateHandler)
		r.Delete("/judges/{judgeID}", judgeHandler.DeleteHandler)
		r.Post("/competitions/{competitionID}/judges/{judgeID}", judgeHandler.AssignHandler)
		r.Delete("/competitions/{competitionID}/judges/{judgeID}", judgeHandler.UnassignHandler)

		r.Post("/competitions/{competitionID}/contestants/{contestantID}/manual-votes", voteHandler.ManualVotesHandler)
		r.Put("/contestants/{contestantID}/votes", contestantHandler.SetVotesHandler)
		r.Delete("/contestants/{contestantID}", contestantHandler.DeleteHandler)
	})

	// Live-события: подписка на комнату конкурса
	router.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)
}
