// Package chat is the fan chat: message history over HTTP and live messages
// plus presence over a websocket, fanned out through the event bus.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/brinda/clasico/internal/bus"
	"github.com/brinda/clasico/internal/clasico"
	"github.com/brinda/clasico/internal/records"
)

const (
	DefaultRoom      = "clasico"
	MaxMessageLength = 500
	historyLimit     = 50

	EventMessage = "message"
	EventJoin    = "join"
	EventLeave   = "leave"
)

var errInvalidMessage = errors.New("invalid message")

type Message struct {
	ID        string         `json:"id"`
	Room      string         `json:"room"`
	UserID    string         `json:"user_id"`
	Name      string         `json:"name,omitempty"`
	Team      clasico.TeamID `json:"team,omitempty"`
	Text      string         `json:"text"`
	CreatedAt time.Time      `json:"created_at"`
}

type PostRequest struct {
	Room   string         `json:"room,omitempty"`
	UserID string         `json:"user_id"`
	Name   string         `json:"name,omitempty"`
	Team   clasico.TeamID `json:"team,omitempty"`
	Text   string         `json:"text"`
}

type PresenceEvent struct {
	Room   string   `json:"room"`
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Online []string `json:"online"`
}

type PresenceResponse struct {
	Room   string   `json:"room"`
	Online []string `json:"online"`
}

type Handler struct {
	logger   *slog.Logger
	store    records.Store
	bus      bus.Bus
	presence *Presence
	now      func() time.Time
}

// NewHandler returns the chat handler. A nil store keeps history in memory for
// the life of the process, and a nil bus delivers within this process only.
func NewHandler(logger *slog.Logger, store records.Store, b bus.Bus) *Handler {
	if store == nil {
		store = records.NewMemory(records.Messages)
	}
	if b == nil {
		b = bus.NewBroker()
	}
	return &Handler{
		logger:   logger,
		store:    store,
		bus:      b,
		presence: NewPresence(),
		now:      time.Now,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/messages", h.history)
	r.Post("/messages", h.post)
	r.Get("/presence", h.online)
	r.Get("/ws", h.connect)
	return r
}

func roomOf(r *http.Request) string {
	if room := r.URL.Query().Get("room"); room != "" {
		return room
	}
	return DefaultRoom
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.History(r.Context(), roomOf(r)))
}

// History returns the latest messages of room, oldest first.
func (h *Handler) History(ctx context.Context, room string) []Message {
	recs, err := h.store.Select(ctx, records.Messages, records.Filter{"room": room})
	if err != nil {
		h.logger.WarnContext(ctx, "loading chat history failed", "room", room, "error", err)
		return []Message{}
	}
	msgs, err := records.Decode[Message](recs)
	if err != nil {
		h.logger.WarnContext(ctx, "decoding chat history failed", "room", room, "error", err)
		return []Message{}
	}
	slices.SortFunc(msgs, func(a, b Message) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if len(msgs) > historyLimit {
		msgs = msgs[len(msgs)-historyLimit:]
	}
	return msgs
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	msg, err := h.Post(r.Context(), req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// Post stores a message and broadcasts it. Storage failures are logged; the
// message is still delivered live.
func (h *Handler) Post(ctx context.Context, req PostRequest) (Message, error) {
	text := strings.TrimSpace(req.Text)
	switch {
	case req.UserID == "":
		return Message{}, fmt.Errorf("%w: user_id required", errInvalidMessage)
	case text == "":
		return Message{}, fmt.Errorf("%w: empty text", errInvalidMessage)
	case utf8.RuneCountInString(text) > MaxMessageLength:
		return Message{}, fmt.Errorf("%w: text longer than %d characters", errInvalidMessage, MaxMessageLength)
	}
	if req.Room == "" {
		req.Room = DefaultRoom
	}
	msg := Message{
		ID:        uuid.NewString(),
		Room:      req.Room,
		UserID:    req.UserID,
		Name:      req.Name,
		Team:      req.Team,
		Text:      text,
		CreatedAt: h.now().UTC(),
	}

	rec, err := records.From(msg)
	if err == nil {
		_, err = h.store.Insert(ctx, records.Messages, rec)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "storing chat message failed", "room", msg.Room, "error", err)
	}
	if err := h.bus.Publish(ctx, bus.Chat, bus.NewEvent(EventMessage, msg)); err != nil {
		h.logger.WarnContext(ctx, "publishing chat message failed", "room", msg.Room, "error", err)
	}
	return msg, nil
}

func (h *Handler) online(w http.ResponseWriter, r *http.Request) {
	room := roomOf(r)
	writeJSON(w, http.StatusOK, PresenceResponse{Room: room, Online: h.presence.Online(room)})
}

type inbound struct {
	Text string `json:"text"`
}

// connect upgrades to a websocket. The client sends {"text": ...} frames and
// receives every chat and presence event of its room.
func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id query parameter required"})
		return
	}
	room := roomOf(r)
	name := q.Get("name")
	team := clasico.TeamID(q.Get("team"))

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
	defer cancel()

	messages, unsubMessages, err := h.bus.Subscribe(ctx, bus.Chat)
	if err != nil {
		h.logger.Error("subscribing to chat failed", "error", err)
		conn.Close(websocket.StatusInternalError, "chat unavailable")
		return
	}
	defer unsubMessages()
	presence, unsubPresence, err := h.bus.Subscribe(ctx, bus.Presence)
	if err != nil {
		h.logger.Error("subscribing to presence failed", "error", err)
		conn.Close(websocket.StatusInternalError, "chat unavailable")
		return
	}
	defer unsubPresence()

	if h.presence.Join(room, userID) {
		h.announce(ctx, EventJoin, room, userID, name)
	}
	defer func() {
		if h.presence.Leave(room, userID) {
			h.announce(context.WithoutCancel(ctx), EventLeave, room, userID, name)
		}
	}()

	go h.forward(ctx, conn, room, messages, presence)

	for {
		var in inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			h.logger.Debug("websocket read ended", "error", err)
			return
		}
		_, err := h.Post(ctx, PostRequest{Room: room, UserID: userID, Name: name, Team: team, Text: in.Text})
		if err != nil {
			if err := wsjson.Write(ctx, conn, map[string]string{"error": err.Error()}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) announce(ctx context.Context, typ, room, userID, name string) {
	ev := bus.NewEvent(typ, PresenceEvent{
		Room:   room,
		UserID: userID,
		Name:   name,
		Online: h.presence.Online(room),
	})
	if err := h.bus.Publish(ctx, bus.Presence, ev); err != nil {
		h.logger.WarnContext(ctx, "publishing presence failed", "room", room, "error", err)
	}
}

// forward writes the room's events to conn until ctx ends or a write fails.
func (h *Handler) forward(ctx context.Context, conn *websocket.Conn, room string, channels ...<-chan []byte) {
	merged := make(chan []byte)
	for _, ch := range channels {
		go func() {
			for data := range ch {
				select {
				case merged <- data:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-merged:
			if eventRoom(data) != room {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func eventRoom(data []byte) string {
	var ev struct {
		Payload struct {
			Room string `json:"room"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ""
	}
	return ev.Payload.Room
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
