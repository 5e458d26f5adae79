package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/gomoku-arena/internal/api/handler"
	"github.com/mcoot/gomoku-arena/internal/api/middleware"
	"github.com/mcoot/gomoku-arena/internal/api/response"
	"github.com/mcoot/gomoku-arena/internal/events"
	logmiddleware "github.com/mcoot/gomoku-arena/internal/middleware"
	"github.com/mcoot/gomoku-arena/internal/services/autoplay"
	"github.com/mcoot/gomoku-arena/internal/services/match"
	"github.com/mcoot/gomoku-arena/internal/services/rooms"
	"github.com/mcoot/gomoku-arena/internal/services/session"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Sessions    *session.Registry
	Rooms       *rooms.Registry
	Match       *match.Controller
	Autoplay    *autoplay.Service
	HubManager  *events.HubManager
	CORSOrigins []string // Empty allows any origin
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.Sessions, cfg.Logger)
	roomHandler := handler.NewRoomHandler(cfg.Rooms, cfg.Sessions, cfg.Logger)
	matchHandler := handler.NewMatchHandler(cfg.Match, cfg.Sessions, cfg.Logger)
	autostepHandler := handler.NewAutostepHandler(cfg.Autoplay, cfg.Rooms, cfg.Sessions, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Rooms, cfg.HubManager, cfg.Sessions, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(logmiddleware.Logging(cfg.Logger))
	api.Use(middleware.Session(cfg.Sessions))

	// Identity
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/suggest_username", authHandler.SuggestUsername).Methods(http.MethodGet)
	api.HandleFunc("/auth/update_username", authHandler.UpdateUsername).Methods(http.MethodPost)
	api.HandleFunc("/auth/cleanup_users", authHandler.CleanupUsers).Methods(http.MethodPost)
	api.Handle("/auth/me", middleware.RequireSession(http.HandlerFunc(authHandler.Me))).Methods(http.MethodGet)

	// Rooms
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/rooms/{id}/join", roomHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/leave", roomHandler.Leave).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/messages", roomHandler.SendMessage).Methods(http.MethodPost)

	// Negotiation and moves
	api.HandleFunc("/rooms/{id}/ai_config", matchHandler.SetAIConfig).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/lock_config", matchHandler.LockConfig).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/ready", matchHandler.SetReady).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/color", matchHandler.SetOwnerColor).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/step", matchHandler.Step).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/confirm_move", matchHandler.ConfirmMove).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/rematch", matchHandler.Rematch).Methods(http.MethodPost)

	// Background steps
	api.HandleFunc("/rooms/{id}/autostep", autostepHandler.Start).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}/autostep/{job}", autostepHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/autostep/{job}", autostepHandler.Cancel).Methods(http.MethodDelete)

	// Room event stream
	api.HandleFunc("/rooms/{id}/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// CORS wraps the whole router so preflight requests never reach route
	// method matching
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	})(r)
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Envelope: response.OK, Status: "ok"})
}
