// Package gateway is the websocket ingress of the simulation host. Client
// frames are decoded on the connection goroutine and applied on the main loop.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/KirkDiggler/headsteal/internal/entities"
	apperr "github.com/KirkDiggler/headsteal/internal/errors"
	"github.com/KirkDiggler/headsteal/internal/events"
	"github.com/KirkDiggler/headsteal/internal/logger"
	"github.com/KirkDiggler/headsteal/internal/world"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Queue runs work on the main loop
type Queue interface {
	Post(fn func())
}

// HeadItems builds wearable head items
type HeadItems interface {
	HeadItem(key string) (entities.Item, error)
}

// Operator handles operator commands
type Operator interface {
	ReleaseByName(ctx context.Context, name string) (string, bool)
}

// Config holds gateway dependencies
type Config struct {
	World *world.Memory
	Bus   *events.Bus
	Queue Queue
	Heads HeadItems
	// Operator enables release frames when set
	Operator Operator
	Addr     string
}

// Gateway accepts websocket clients and feeds their frames to the host
type Gateway struct {
	world    *world.Memory
	bus      *events.Bus
	queue    Queue
	heads    HeadItems
	admin    Operator
	addr     string
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// New creates a gateway
func New(cfg *Config) *Gateway {
	if cfg == nil || cfg.World == nil {
		panic("world is required")
	}
	if cfg.Bus == nil {
		panic("event bus is required")
	}
	if cfg.Queue == nil {
		panic("main loop queue is required")
	}
	if cfg.Heads == nil {
		panic("head items are required")
	}

	g := &Gateway{
		world: cfg.World,
		bus:   cfg.Bus,
		queue: cfg.Queue,
		heads: cfg.Heads,
		admin: cfg.Operator,
		addr:  cfg.Addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[*session]struct{}),
	}
	cfg.World.OnMessage(g.relay)
	return g
}

// Handler returns the gateway routes
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", g.ServeHTTP)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Serve listens until ctx is cancelled
func (g *Gateway) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              g.addr,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.ForComponent("gateway").WithField("addr", g.addr).Info("gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperr.Wrap(err, "gateway stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		g.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperr.Wrap(err, "gateway shutdown")
		}
		return nil
	}
}

// ServeHTTP upgrades one client connection
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ForComponent("gateway").WithError(err).Warn("websocket upgrade failed")
		return
	}

	s := &session{
		gw:      g,
		conn:    conn,
		send:    make(chan Reply, sendBuffer),
		players: make(map[string]bool),
		log:     logger.ForComponent("gateway").WithField("remote", r.RemoteAddr),
	}
	g.mu.Lock()
	g.sessions[s] = struct{}{}
	g.mu.Unlock()

	s.log.Info("client connected")
	go s.writePump()
	s.readPump()
}

// Sessions returns the number of connected clients
func (g *Gateway) Sessions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

func (g *Gateway) drop(s *session) {
	g.mu.Lock()
	_, ok := g.sessions[s]
	delete(g.sessions, s)
	g.mu.Unlock()
	if ok {
		close(s.send)
	}
}

func (g *Gateway) closeAll() {
	g.mu.Lock()
	all := make([]*session, 0, len(g.sessions))
	for s := range g.sessions {
		all = append(all, s)
	}
	g.mu.Unlock()

	for _, s := range all {
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("close on shutdown failed")
		}
	}
}

// relay forwards player messages to the sessions that joined that player
func (g *Gateway) relay(playerID, line string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for s := range g.sessions {
		if s.owns(playerID) {
			s.push(Reply{Type: ReplyMessage, PlayerID: playerID, Text: line})
		}
	}
}

type session struct {
	gw   *Gateway
	conn *websocket.Conn
	send chan Reply
	log  *logrus.Entry

	mu      sync.Mutex
	players map[string]bool
}

func (s *session) owns(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players[playerID]
}

func (s *session) track(playerID string, joined bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if joined {
		s.players[playerID] = true
	} else {
		delete(s.players, playerID)
	}
}

// push queues a reply without blocking the main loop. Callers hold gw.mu.
func (s *session) push(r Reply) {
	select {
	case s.send <- r:
	default:
		s.log.WithField("reply", r.Type).Debug("send buffer full, reply dropped")
	}
}

func (s *session) reply(seq uint64, err error) {
	r := Reply{Seq: seq, Type: ReplyAck}
	if err != nil {
		r.Type = ReplyError
		r.Error = apperr.GetMessage(err)
	}

	s.gw.mu.Lock()
	defer s.gw.mu.Unlock()
	if _, ok := s.gw.sessions[s]; ok {
		s.push(r)
	}
}

func (s *session) readPump() {
	defer func() {
		s.gw.drop(s)
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("failed to close websocket connection")
		}
		s.log.Info("client disconnected")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.log.WithError(err).Warn("failed to set read deadline")
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("websocket read failed")
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(payload, &f); err != nil {
			s.log.WithError(err).Debug("discarding malformed frame")
			s.reply(0, apperr.InvalidArgument("malformed frame"))
			continue
		}

		if err := f.validate(); err != nil {
			s.reply(f.Seq, err)
			continue
		}

		frame := f
		s.gw.queue.Post(func() {
			// joined players are tracked first so lines sent during the join reach this client
			if frame.Type == FrameJoin {
				s.track(frame.PlayerID, true)
			}
			err := s.gw.Apply(context.Background(), frame)
			switch {
			case err != nil:
				if frame.Type == FrameJoin {
					s.track(frame.PlayerID, false)
				}
				s.log.WithFields(logrus.Fields{
					"frame":     frame.Type,
					"player_id": frame.PlayerID,
				}).WithError(err).Debug("frame rejected")
			case frame.Type == FrameQuit:
				s.track(frame.PlayerID, false)
			}
			s.reply(frame.Seq, err)
		})
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case r, ok := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					s.log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := s.conn.WriteJSON(r); err != nil {
				s.log.WithError(err).Debug("write json failed")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
