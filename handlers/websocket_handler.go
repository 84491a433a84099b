package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Transcendigos/tscd-main-sub000/game"
	"github.com/Transcendigos/tscd-main-sub000/middleware"
	"github.com/Transcendigos/tscd-main-sub000/services"
	"github.com/Transcendigos/tscd-main-sub000/ws"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin allow-listing is handled by the CORS layer in front.
		return true
	},
}

// clientCommand is what a playing socket may send.
type clientCommand struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
}

const (
	cmdTypeReady = "READY"
	cmdTypeInput = "INPUT"
	cmdTypeLeave = "LEAVE"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	registry *game.Registry
	logger   *slog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, registry *game.Registry, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, registry: registry, logger: logger}
}

// ServeMatch handles GET /ws/matches/{sessionID}. Players get a command
// socket; anyone else attaches read-only to the same room.
func (h *WebSocketHandler) ServeMatch(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "Missing sessionID", http.StatusBadRequest)
		return
	}

	sess, ok := h.registry.Session(sessionID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.String("session_id", sessionID), slog.Any("error", err))
		return
	}

	client := &ws.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: game.MatchRoom(sessionID),
	}

	if sess.HasPlayer(userID) {
		client.OnMessage = func(raw []byte) {
			h.dispatchCommand(sess, userID, raw)
		}
		client.OnClose = func() {
			// A dropped player socket forfeits an in-progress match.
			if err := sess.Leave(userID); err != nil {
				h.logger.Debug("leave after disconnect ignored",
					slog.String("session_id", sessionID), slog.Any("error", err))
			}
		}
	}

	client.Hub.Register <- client
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("match socket attached",
		slog.String("session_id", sessionID),
		slog.Int("user_id", userID),
		slog.Bool("player", sess.HasPlayer(userID)))
}

func (h *WebSocketHandler) dispatchCommand(sess *game.Session, userID int, raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		h.logger.Debug("bad match command", slog.Any("error", err))
		return
	}

	var err error
	switch cmd.Type {
	case cmdTypeReady:
		err = sess.SetReady(userID)
	case cmdTypeInput:
		err = sess.SetInput(userID, cmd.Direction)
	case cmdTypeLeave:
		err = sess.Leave(userID)
	default:
		return
	}
	if err != nil {
		h.logger.Debug("match command rejected",
			slog.String("type", cmd.Type), slog.Any("error", err))
	}
}

// ServeTournament handles GET /ws/tournaments/{tournamentID}: a read-only
// bracket update feed.
func (h *WebSocketHandler) ServeTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		http.Error(w, "Invalid tournamentID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}

	client := &ws.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: services.TournamentRoom(tournamentID),
	}
	client.Hub.Register <- client
	go client.WritePump()
	go client.ReadPump()
}
