package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/connect6-live/game/service"
)

// Server represents the REST API server
type Server struct {
	service   service.GameService
	updates   http.Handler
	websocket http.HandlerFunc
	router    *mux.Router
	logger    *zap.Logger
}

// NewServer creates a new API server. updates serves the server-sent events
// stream and websocket the /ws endpoint; either may be nil.
func NewServer(gameService service.GameService, updates http.Handler, websocket http.HandlerFunc, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service:   gameService,
		updates:   updates,
		websocket: websocket,
		router:    mux.NewRouter(),
		logger:    logger.Named("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	// Routes stay on the root router so a wrong method answers 405.

	// Participant operations
	s.router.HandleFunc("/game/choose", s.handleChooseColor).Methods("POST")
	s.router.HandleFunc("/game/move", s.handleMove).Methods("POST")
	s.router.HandleFunc("/game/reset", s.handleReset).Methods("POST")

	// Game state
	s.router.HandleFunc("/game/state", s.handleGetState).Methods("GET")
	s.router.HandleFunc("/game/history", s.handleGetHistory).Methods("GET")

	// Live updates
	if s.updates != nil {
		s.router.Handle("/game/updates", s.updates).Methods("GET")
	}
	if s.websocket != nil {
		s.router.HandleFunc("/ws", s.websocket)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the underlying router so callers can mount extra routes
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body, treating an empty body as invalid
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return io.EOF
	}
	return json.NewDecoder(r.Body).Decode(v)
}

// Participant Handlers

type chooseRequest struct {
	PlayerID string `json:"playerId"`
	Choice   int    `json:"choice"`
}

func (s *Server) handleChooseColor(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.ChooseColor(r.Context(), req.PlayerID, req.Choice)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type moveRequest struct {
	X        *int   `json:"x"`
	Y        *int   `json:"y"`
	PlayerID string `json:"playerId,omitempty"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.X == nil || req.Y == nil {
		respondError(w, http.StatusBadRequest, "x and y are required")
		return
	}

	// The participant comes from the query string; the body is a fallback
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		playerID = req.PlayerID
	}

	result, err := s.service.MakeMove(r.Context(), playerID, *req.X, *req.Y)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Reset(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Game State Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetState(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.History(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	total := len(history)

	// Optional tail: ?last=N returns the most recent N moves
	if raw := r.URL.Query().Get("last"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "last must be a non-negative integer")
			return
		}
		if n < len(history) {
			history = history[len(history)-n:]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"moves":       history,
		"total_moves": total,
	})
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// logRequests logs every request at debug level
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}
