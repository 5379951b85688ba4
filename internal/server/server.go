package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/courier/internal/billing"
	"github.com/smallbiznis/courier/internal/config"
	"github.com/smallbiznis/courier/internal/entitlement"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	"github.com/smallbiznis/courier/internal/group"
	groupdomain "github.com/smallbiznis/courier/internal/group/domain"
	"github.com/smallbiznis/courier/internal/message"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	"github.com/smallbiznis/courier/internal/notification"
	"github.com/smallbiznis/courier/internal/presence"
	"github.com/smallbiznis/courier/internal/providers/email"
	"github.com/smallbiznis/courier/internal/realtime"
	"github.com/smallbiznis/courier/internal/user"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	user.Module,
	entitlement.Module,
	group.Module,
	message.Module,
	billing.Module,
	presence.Module,
	email.Module,
	notification.Module,
	realtime.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
	}),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	entSvc     entitlementdomain.Service
	billingSvc *billing.Service
	groupSvc   groupdomain.Service
	msgSvc     messagedomain.Service
	rtHandler  *realtime.Handler
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	EntSvc     entitlementdomain.Service
	BillingSvc *billing.Service
	GroupSvc   groupdomain.Service
	MsgSvc     messagedomain.Service
	RTHandler  *realtime.Handler
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		entSvc:     p.EntSvc,
		billingSvc: p.BillingSvc,
		groupSvc:   p.GroupSvc,
		msgSvc:     p.MsgSvc,
		rtHandler:  p.RTHandler,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(IdentityMiddleware())

	// -------- Entitlements --------
	api.GET("/entitlements", s.ListEntitlements)
	api.POST("/entitlements", s.GrantEntitlement)
	api.POST("/entitlements/purchase", s.PurchaseFeature)
	api.DELETE("/entitlements/:feature", s.RevokeEntitlement)

	// -------- Groups --------
	api.GET("/groups", s.ListGroups)
	api.POST("/groups", s.CreateGroup)
	api.GET("/groups/:id", s.GetGroup)
	api.DELETE("/groups/:id", s.DeleteGroup)
	api.POST("/groups/:id/members", s.AddGroupMember)
	api.DELETE("/groups/:id/members/:userId", s.RemoveGroupMember)
	api.GET("/groups/:id/messages", s.GetGroupMessages)

	// -------- Messages --------
	api.POST("/messages", s.SendMessage)
	api.GET("/messages/inbox", s.GetInbox)
	api.POST("/messages/:id/read", s.MarkMessageRead)

	// -------- Realtime --------
	api.GET("/ws", s.rtHandler.Serve)
}
