// Package server wires the stores, services and handlers into one HTTP
// server.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/cesta/internal/app"
	"github.com/dukerupert/cesta/internal/backup"
	"github.com/dukerupert/cesta/internal/classify"
	"github.com/dukerupert/cesta/internal/config"
	"github.com/dukerupert/cesta/internal/gemini"
	"github.com/dukerupert/cesta/internal/handler"
	"github.com/dukerupert/cesta/internal/insight"
	"github.com/dukerupert/cesta/internal/middleware"
	"github.com/dukerupert/cesta/internal/push"
	"github.com/dukerupert/cesta/internal/shopping"
	"github.com/dukerupert/cesta/internal/store"
	ws "github.com/dukerupert/cesta/internal/websocket"
)

const rateWindow = time.Minute

type Server struct {
	db                *sql.DB
	hub               *ws.Hub
	controller        *app.Controller
	shoppingH         *handler.ShoppingHandler
	pushH             *handler.PushHandler
	backupH           *handler.BackupHandler
	rateLimiter       *middleware.RateLimiter
	insightsPerMinute int
	itemsPerMinute    int
	backupMgr         *backup.Manager
	dispatcher        *push.Dispatcher
	logger            *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(ctx context.Context, db *sql.DB, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	hub := ws.NewHub(logger)

	itemStore := store.NewItemStore(db)
	listStore := store.NewListStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)
	pushStore := store.NewPushStore(db)

	ai, err := gemini.New(ctx, cfg.Gemini, logger)
	if err != nil {
		return nil, err
	}

	// Without an API key items are classified offline and narratives fall
	// back to their fixed messages.
	var classifier classify.Classifier = classify.Keywords{}
	var narrator insight.Narrator
	if ai.Enabled() {
		classifier = ai
		narrator = ai
		logger.Info("gemini enabled", "model", ai.Model())
	} else {
		logger.Info("gemini disabled, classifying items offline")
	}

	generator, err := insight.NewGenerator(narrator, logger)
	if err != nil {
		return nil, err
	}

	pushSvc := push.NewService(cfg.Push, pushStore, logger)
	dispatcher := push.NewDispatcher(pushSvc, logger)

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, settingsStore, logger)
	backupMgr.OnStatus(func(s backup.Status) {
		hub.Broadcast(ws.NewMessage(ws.EntityBackup, string(s.State), "", map[string]any{
			"in_progress": s.InProgress,
			"error":       s.Error,
		}))
	})

	shop := shopping.NewService(itemStore, listStore, classifier, logger)
	ctrl := app.New(shop, generator, hub, dispatcher, logger)

	return &Server{
		db:                db,
		hub:               hub,
		controller:        ctrl,
		shoppingH:         handler.NewShoppingHandler(ctrl, logger.With("component", "shopping_handler")),
		pushH:             handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:           handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		rateLimiter:       middleware.NewRateLimiter(),
		insightsPerMinute: cfg.InsightsPerMinute,
		itemsPerMinute:    cfg.ItemsPerMinute,
		backupMgr:         backupMgr,
		dispatcher:        dispatcher,
		logger:            logger,
	}, nil
}

// Start launches the background workers: push delivery, scheduled backups
// and rate limiter cleanup.
func (s *Server) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.dispatcher.Start(ctx)
	s.backupMgr.Start(ctx)
	go func() {
		defer close(s.done)
		s.rateLimiter.Run(ctx, 5*time.Minute)
	}()
}

// Stop halts the background workers and waits for them to exit.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.backupMgr.Stop()
	s.dispatcher.Stop()
}

func (s *Server) Controller() *app.Controller {
	return s.controller
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	h := s.shoppingH
	mux.HandleFunc("GET /api/categories", h.Categories)
	mux.HandleFunc("GET /api/items", h.Items)
	mux.HandleFunc("GET /api/lists", h.ListLists)
	mux.HandleFunc("POST /api/lists", h.CreateList)
	mux.HandleFunc("GET /api/lists/{id}", h.GetList)
	mux.HandleFunc("DELETE /api/lists/{id}", h.DeleteList)
	mux.HandleFunc("POST /api/lists/{id}/items", s.limited("items", s.itemsPerMinute, h.AddItem))
	mux.HandleFunc("DELETE /api/lists/{id}/items/{item_id}", h.RemoveItem)
	mux.HandleFunc("POST /api/lists/{id}/complete", h.Complete)
	mux.HandleFunc("POST /api/lists/{id}/insights", s.limited("insights", s.insightsPerMinute, h.ListInsights))
	mux.HandleFunc("GET /api/dashboard", h.Dashboard)
	mux.HandleFunc("POST /api/dashboard/insights", s.limited("insights", s.insightsPerMinute, h.DashboardInsights))
	mux.HandleFunc("GET /api/screens/{view}", h.Screen)

	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
	mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)

	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("GET /api/backups", s.backupH.List)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "database unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":     status,
		"ws_clients": s.hub.ClientCount(),
	})
}

// limited rate-limits a route per client IP. Routes sharing a bucket name
// share one budget.
func (s *Server) limited(bucket string, perMinute int, h http.HandlerFunc) http.HandlerFunc {
	key := func(r *http.Request) string { return bucket + ":" + middleware.RealIP(r) }
	return middleware.RateLimit(s.rateLimiter, key, perMinute, rateWindow)(h).ServeHTTP
}
