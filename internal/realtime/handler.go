package realtime

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/courier/internal/presence"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The identity collaborator fronts this endpoint; origin policy
		// belongs to the gateway.
		return true
	},
}

// Handler upgrades authenticated requests to websocket connections and
// keeps the presence registry in sync with their lifetimes.
type Handler struct {
	log      *zap.Logger
	registry *presence.Registry
}

type HandlerParam struct {
	fx.In

	Log      *zap.Logger
	Registry *presence.Registry
}

func NewHandler(p HandlerParam) *Handler {
	return &Handler{
		log:      p.Log.Named("realtime"),
		registry: p.Registry,
	}
}

// Serve expects the authenticated user id under the "user_id" context
// key set by the identity middleware.
func (h *Handler) Serve(c *gin.Context) {
	rawUserID, ok := c.Get("user_id")
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	userID := rawUserID.(snowflake.ID)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := newConn(ws)
	h.registry.Add(userID, conn)
	h.log.Info("channel connected",
		zap.Int64("user_id", int64(userID)),
		zap.String("conn_id", conn.ID()),
	)

	go conn.writePump()
	go conn.readPump(func() {
		h.registry.RemoveChannel(conn)
		h.log.Info("channel disconnected",
			zap.Int64("user_id", int64(userID)),
			zap.String("conn_id", conn.ID()),
		)
	})
}

var Module = fx.Module("realtime",
	fx.Provide(NewHandler),
)
