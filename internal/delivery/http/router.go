package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventlottery/internal/delivery/http/controllers"
	"eventlottery/internal/delivery/http/middleware"
	"eventlottery/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	eventController *controllers.EventController,
	waitlistController *controllers.WaitlistController,
	lotteryController *controllers.LotteryController,
	notificationController *controllers.NotificationController,
	tokenController *controllers.TokenController,
) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("GET /my/events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /my/registrations", auth(eventController.MyRegistrations))
	mux.HandleFunc("POST /events/{eventID}/open", auth(eventController.OpenRegistration))
	mux.HandleFunc("POST /events/{eventID}/close", auth(eventController.CloseRegistration))
	mux.HandleFunc("GET /events/{eventID}/registrations", auth(eventController.Registrations))

	// Waiting list
	mux.HandleFunc("POST /events/{eventID}/waitlist", auth(waitlistController.Join))
	mux.HandleFunc("DELETE /events/{eventID}/waitlist", auth(waitlistController.Leave))
	mux.HandleFunc("GET /events/{eventID}/waitlist", waitlistController.List)

	// Lottery
	mux.HandleFunc("POST /events/{eventID}/draw", auth(lotteryController.Draw))
	mux.HandleFunc("POST /events/{eventID}/decisions/{decisionID}/response", auth(lotteryController.Respond))
	mux.HandleFunc("POST /events/{eventID}/cancel", auth(lotteryController.Cancel))

	// Notifications
	mux.HandleFunc("GET /notifications", auth(notificationController.List))
	mux.HandleFunc("POST /notifications/{notificationID}/read", auth(notificationController.MarkRead))
	mux.HandleFunc("PUT /me/notification-settings", auth(notificationController.UpdateSettings))
	mux.HandleFunc("PUT /me/profile", auth(notificationController.UpdateProfile))

	// Development-only token minting. nil in production.
	if tokenController != nil {
		mux.HandleFunc("POST /dev/token", tokenController.Issue)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(logger, mux)
}
