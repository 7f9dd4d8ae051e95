package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/delivery"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

// Store connected live sessions (connection key -> *delivery.Session)
type LiveHub struct {
	sessions map[string]*delivery.Session
	mutex    sync.Mutex
}

var hub = &LiveHub{
	sessions: make(map[string]*delivery.Session),
	mutex:    sync.Mutex{},
}

// EvictIdle exits sessions that have not changed state within the TTL and
// returns how many were dropped. The backstop for sockets that died without
// an exit; the deferred cleanup in the handler tolerates the removal.
func (h *LiveHub) EvictIdle(ttl time.Duration) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	evicted := 0
	for key, s := range h.sessions {
		if time.Since(s.LastActive()) > ttl {
			s.Exit()
			delete(h.sessions, key)
			evicted++
		}
	}
	if evicted > 0 {
		zap.S().Infow("evicted idle live sessions", "count", evicted)
	}
	return evicted
}

// FindByDocument returns the presenter session currently delivering the
// given document, or nil when nobody has it live.
func (h *LiveHub) FindByDocument(documentID string) *delivery.Session {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, s := range h.sessions {
		if s.Snapshot().DocumentID == documentID {
			return s
		}
	}
	return nil
}

// Live exported for testing purposes
type Live struct {
	Loader *delivery.Loader
	Secret string
}

// liveCommand is one inbound transport message on the live socket.
type liveCommand struct {
	Action     string `json:"action"`
	DocumentID string `json:"documentID"`
	Index      int    `json:"index"`
	Key        string `json:"key"`
}

// LiveWebSocketHandler runs one live delivery session over a websocket.
// The presenter joins with a userId query param (already authenticated
// upstream) and drives the transport; a share token instead attaches the
// caller as a read-only mirror of the presenter's session for that
// document. Every tick and transition pushes a full state snapshot down
// the socket.
func (l Live) LiveWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	userID := r.URL.Query().Get("userId")
	if token := r.URL.Query().Get("token"); token != "" {
		tokenDocID, err := VerifyLiveToken(l.Secret, token)
		if err != nil {
			zap.S().Warnw("live join with invalid token", "error", err)
			conn.WriteJSON(map[string]interface{}{"error": "invalid live token"})
			conn.Close()
			return
		}
		l.serveObserver(conn, tokenDocID)
		return
	}
	if userID == "" {
		conn.Close()
		return
	}

	key := userID

	// writes come from both the read loop and the ticker goroutine
	var writeMu sync.Mutex
	session := delivery.NewSession(func(snap delivery.Snapshot) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(snap); err != nil {
			zap.S().Debugw("live snapshot write failed", "key", key, "error", err)
		}
	})

	hub.mutex.Lock()
	if old, exists := hub.sessions[key]; exists {
		// one live session per presenter; the newer connection wins
		old.Exit()
	}
	hub.sessions[key] = session
	hub.mutex.Unlock()
	zap.S().Infow("live session connected", "key", key)

	defer func() {
		session.Exit()
		hub.mutex.Lock()
		if hub.sessions[key] == session {
			delete(hub.sessions, key)
		}
		hub.mutex.Unlock()
		conn.Close()
		zap.S().Infow("live session disconnected", "key", key)
	}()

	// push the initial selecting-phase snapshot
	snap := session.Snapshot()
	writeMu.Lock()
	conn.WriteJSON(snap)
	writeMu.Unlock()

	for {
		var cmd liveCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}

		switch cmd.Action {
		case "select":
			docID := cmd.DocumentID
			if docID == "" {
				continue
			}
			session.BeginLoading(docID)
			cards, err := l.Loader.LoadCards(r.Context(), docID)
			if err != nil {
				zap.S().Errorw("failed to load cards for live session", "documentID", docID, "error", err)
				writeMu.Lock()
				conn.WriteJSON(map[string]interface{}{"error": "failed to load cards"})
				writeMu.Unlock()
				continue
			}
			if err := session.LoadCards(cards); err != nil {
				writeMu.Lock()
				conn.WriteJSON(map[string]interface{}{"error": "no cards to deliver"})
				writeMu.Unlock()
				continue
			}
			session.StartClock()
		case delivery.CmdToggle, delivery.CmdNext, delivery.CmdPrevious:
			session.Apply(cmd.Action, 0)
		case delivery.CmdJump:
			session.Apply(delivery.CmdJump, cmd.Index)
		case "key":
			session.ApplyKey(cmd.Key)
		case "exit":
			session.Exit()
			return
		default:
			zap.S().Debugw("unknown live command", "action", cmd.Action)
		}
	}
}

// serveObserver mirrors the presenter's session for a share-token client.
// Observers never get a session of their own and never touch the hub:
// they receive every snapshot the presenter produces and any command
// other than exit is refused.
func (l Live) serveObserver(conn *websocket.Conn, documentID string) {
	defer conn.Close()

	presenter := hub.FindByDocument(documentID)
	if presenter == nil {
		conn.WriteJSON(map[string]interface{}{"error": "no live session for this document"})
		return
	}

	var writeMu sync.Mutex
	cancel := presenter.Watch(func(snap delivery.Snapshot) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(snap); err != nil {
			zap.S().Debugw("observer snapshot write failed", "documentID", documentID, "error", err)
		}
	})
	defer cancel()
	zap.S().Infow("live observer joined", "documentID", documentID)

	snap := presenter.Snapshot()
	writeMu.Lock()
	conn.WriteJSON(snap)
	writeMu.Unlock()

	for {
		var cmd liveCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Action == "exit" {
			return
		}
		writeMu.Lock()
		conn.WriteJSON(map[string]interface{}{"error": "session is read-only"})
		writeMu.Unlock()
	}
}
