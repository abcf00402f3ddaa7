package api

import (
	"net/http"
	"sync"

	"ecolearn_backend/internal/model"
	"ecolearn_backend/internal/service"
	"ecolearn_backend/pkg/auth"
	"ecolearn_backend/pkg/logger"

	json "github.com/goccy/go-json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type feedClient struct {
	userID uuid.UUID
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (fc *feedClient) send(event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.conn.WriteMessage(websocket.TextMessage, data)
}

type feedRoutes struct {
	bus *service.EventBus
	a   *auth.JWTAuth

	clientsMu sync.RWMutex
	clients   map[*feedClient]struct{}
}

// NewFeedRoutes exposes the live event feed over a websocket. Every connected
// client receives leaderboard updates; events carrying a user id are only
// delivered to that user's connections.
func NewFeedRoutes(handler *gin.RouterGroup, bus *service.EventBus, a *auth.JWTAuth) {
	r := &feedRoutes{
		bus:     bus,
		a:       a,
		clients: make(map[*feedClient]struct{}),
	}

	h := handler.Group("/feed")
	h.Use(a.Middleware())
	h.GET("/", r.handleWebSocket)

	go r.fanOut()
}

func (r *feedRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Logger()

	authCtx, ok := auth.FromContext(c)
	if !ok {
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &feedClient{userID: authCtx.UserID, conn: conn}

	r.clientsMu.Lock()
	r.clients[client] = struct{}{}
	r.clientsMu.Unlock()

	go r.readLoop(client)
}

// readLoop drains ignored client frames so control messages are processed and
// a closed connection is noticed promptly.
func (r *feedRoutes) readLoop(client *feedClient) {
	log := logger.Logger()

	defer func() {
		client.conn.Close()
		r.clientsMu.Lock()
		delete(r.clients, client)
		r.clientsMu.Unlock()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("websocket unexpected close",
					zap.String("user_id", client.userID.String()),
					zap.Error(err))
			}
			return
		}
	}
}

func (r *feedRoutes) fanOut() {
	log := logger.Logger()

	events := r.bus.Subscribe()
	for event := range events {
		r.clientsMu.RLock()
		targets := make([]*feedClient, 0, len(r.clients))
		for client := range r.clients {
			if event.UserID == uuid.Nil || event.UserID == client.userID {
				targets = append(targets, client)
			}
		}
		r.clientsMu.RUnlock()

		for _, client := range targets {
			if err := client.send(event); err != nil {
				log.Warn("failed to push feed event",
					zap.String("user_id", client.userID.String()),
					zap.String("event_type", event.Type),
					zap.Error(err))
			}
		}
	}
}
