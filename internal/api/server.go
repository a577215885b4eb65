package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"MatchingPool/internal/ledger"
	"MatchingPool/internal/notifier"
	"MatchingPool/internal/pool"
)

// Server exposes the pool operations over HTTP. It is the hosting
// environment for the core: it supplies caller identity (X-Caller
// header) and the monotonic sequence counter.
type Server struct {
	pool     *pool.Pool
	ledger   ledger.Ledger
	notifier *notifier.WebhookNotifier // nil when unconfigured
	router   *gin.Engine
	seq      atomic.Int64
	httpSrv  *http.Server
}

// NewServer creates the API server and wires its routes.
func NewServer(p *pool.Pool, l ledger.Ledger, wn *notifier.WebhookNotifier) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		pool:     p,
		ledger:   l,
		notifier: wn,
		router:   router,
	}
	s.seq.Store(p.LastSeq())

	api := router.Group("/api")
	{
		api.POST("/authority", s.handleBindAuthority)
		api.POST("/admin/fee", s.handleSetAdminFee)
		api.POST("/admin/ratio", s.handleUpdateRatio)
		api.POST("/admin/cap", s.handleUpdateCap)
		api.POST("/pool/fund", s.handleFund)
		api.POST("/pool/withdraw", s.handleWithdraw)
		api.POST("/campaigns", s.handleRegisterCampaign)
		api.POST("/campaigns/:id/match", s.handleMatchDonation)
		api.POST("/campaigns/:id/deactivate", s.handleDeactivate)
		api.GET("/pool", s.handlePoolStatus)
		api.GET("/campaigns/count", s.handlePoolCount)
		api.GET("/campaigns/exists", s.handleCampaignExists)
		api.GET("/campaigns/:id", s.handleCampaign)
	}

	return s
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}
	log.Printf("[INFO] API listening on %s", addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler { return s.router }

// nextSeq advances the host sequence counter for a mutating call.
func (s *Server) nextSeq() int64 { return s.seq.Add(1) }
