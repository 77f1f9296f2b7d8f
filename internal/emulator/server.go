// Package emulator serves an in-process stand-in for the virtual network
// controller REST API. It keeps state in SQLite and enforces the same
// parent and reference constraints the controller does, so that deleting a
// resource that still has children fails with 409.
package emulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/models"
)

// Server is the emulated controller.
type Server struct {
	cfg      Config
	store    *Store
	validate *validator.Validate
	logger   *zap.Logger
	engine   *gin.Engine
	limiter  *clientLimiter

	mu      sync.Mutex
	creates map[models.Kind]int
}

// New opens the store, seeds it and builds the HTTP handler.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid emulator config: %w", err)
	}

	store, err := OpenStore(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	for _, t := range cfg.Tenants {
		if err := store.AddTenant(ctx, t); err != nil {
			store.Close()
			return nil, err
		}
	}
	for _, h := range cfg.Hosts {
		if err := store.AddHost(ctx, h); err != nil {
			store.Close()
			return nil, err
		}
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		validate: validator.New(),
		logger:   cfg.Logger.With(zap.String(logging.FieldComponent, "emulator")),
		creates:  make(map[models.Kind]int),
	}
	if cfg.RequestsPerSecond > 0 {
		s.limiter = newClientLimiter(cfg.RequestsPerSecond, cfg.Burst, time.Minute)
	}
	s.engine = s.setupRouter()

	s.logger.Info("Emulator ready",
		zap.String("prefix", cfg.Prefix),
		zap.Int("tenants", len(cfg.Tenants)),
		zap.Int("hosts", len(cfg.Hosts)),
		zap.Int("faults", len(cfg.Faults)))

	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// Close stops the rate limiter and releases the store.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.close()
	}
	return s.store.Close()
}

func (s *Server) setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(RequestLogger(s.logger))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := router.Group(s.cfg.Prefix)
	api.GET("/health", s.health)

	if s.limiter != nil {
		api.Use(RateLimitByClient(s.limiter))
	}

	if s.cfg.Username != "" {
		api.Use(RequireBasicAuth(s.cfg.Username, []byte(s.cfg.PasswordHash)))
	}

	api.GET("/tenants", s.listTenants)
	api.GET("/hosts/:id", s.getHost)
	api.GET("/resources", s.listResources)

	api.POST("/tunnel_zones", s.create(func() models.Resource { return &models.TunnelZone{} }))
	api.POST("/tunnel_zones/:id/hosts", s.create(func() models.Resource { return &models.TunnelZoneHost{} }))
	api.POST("/bridges", s.create(func() models.Resource { return &models.Bridge{} }))
	api.POST("/bridges/:id/ports", s.create(func() models.Resource { return &models.BridgePort{} }))
	api.POST("/hosts/:id/ports", s.create(func() models.Resource { return &models.HostBinding{} }))
	api.POST("/chains", s.create(func() models.Resource { return &models.Chain{} }))
	api.POST("/chains/:id/rules", s.create(func() models.Resource { return &models.Rule{} }))
	api.POST("/routers", s.create(func() models.Resource { return &models.Router{} }))
	api.POST("/routers/:id/ports", s.create(func() models.Resource { return &models.RouterPort{} }))
	api.POST("/ports/:id/link", s.create(func() models.Resource { return &models.PortLink{} }))
	api.POST("/ports/:id/bgps", s.create(func() models.Resource { return &models.BGP{} }))
	api.POST("/bgps/:id/ad_routes", s.create(func() models.Resource { return &models.AdRoute{} }))

	api.DELETE("/*path", s.delete)

	return router
}

// create handles POST to a collection. The payload must be valid and
// addressed to its own collection path.
func (s *Server) create(newPayload func() models.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload := newPayload()
		kind := payload.Kind()

		if err := c.ShouldBindJSON(payload); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
			return
		}
		if err := s.validate.Struct(payload); err != nil {
			respondError(c, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}

		want, err := payload.CollectionPath()
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if got := strings.TrimPrefix(c.Request.URL.Path, s.cfg.Prefix); got != want {
			respondError(c, http.StatusBadRequest, "path_mismatch",
				fmt.Sprintf("%s belongs under %s", kind, want))
			return
		}

		if status, injected := s.fault(kind); injected {
			metrics.InjectedFaults.WithLabelValues(string(kind)).Inc()
			GetLogger(c).Warn("Injecting fault", zap.String(logging.FieldKind, string(kind)))
			respondError(c, status, "injected_fault", fmt.Sprintf("injected failure for %s", kind))
			return
		}

		parent, refs, hostID := dependencies(payload)
		if hostID != "" {
			if _, err := s.store.Host(c.Request.Context(), hostID); err != nil {
				s.respondStoreError(c, err)
				return
			}
		}

		body, err := json.Marshal(payload)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "internal_error", "Failed to encode payload")
			return
		}

		id := identifier(payload)
		rec := Record{
			Path:       payload.ResourcePath(id),
			Kind:       kind,
			ID:         id,
			ParentPath: parent,
			Refs:       refs,
			Payload:    string(body),
		}
		if err := s.store.Insert(c.Request.Context(), rec); err != nil {
			s.respondStoreError(c, err)
			return
		}

		GetLogger(c).Debug("Stored resource",
			zap.String(logging.FieldKind, string(kind)),
			zap.String(logging.FieldResourceID, id))

		c.JSON(http.StatusCreated, models.CreatedResponse{ID: id})
	}
}

// delete handles DELETE on any canonical resource path.
func (s *Server) delete(c *gin.Context) {
	path := c.Param("path")
	if err := s.store.Delete(c.Request.Context(), path); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listTenants(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		respondError(c, http.StatusBadRequest, "invalid_request", "Query parameter name is required")
		return
	}

	tenants, err := s.store.TenantsByName(c.Request.Context(), name)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.TenantListResponse{Tenants: tenants})
}

func (s *Server) getHost(c *gin.Context) {
	host, err := s.store.Host(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, host)
}

func (s *Server) listResources(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "unhealthy", "Store unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fault counts a create of kind and reports whether it must fail.
func (s *Server) fault(kind models.Kind) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates[kind]++
	for _, f := range s.cfg.Faults {
		if f.Kind == kind && f.Nth == s.creates[kind] {
			return f.Status, true
		}
	}
	return 0, false
}

func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrHostNotFound), errors.Is(err, models.ErrTenantNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "Store failure")
	}
}

// dependencies returns the owning resource, the referenced resources and
// the referenced host of a payload, as canonical paths.
func dependencies(r models.Resource) (parent string, refs []string, hostID string) {
	port := func(id string) string { return models.RouterPort{}.ResourcePath(id) }
	chain := func(id string) string { return models.Chain{}.ResourcePath(id) }

	switch p := r.(type) {
	case *models.TunnelZoneHost:
		return models.TunnelZone{}.ResourcePath(p.TunnelZoneID), nil, p.HostID
	case *models.Bridge:
		return "", filterRefs(chain, p.InboundFilterID, p.OutboundFilterID), ""
	case *models.BridgePort:
		return models.Bridge{}.ResourcePath(p.BridgeID), nil, ""
	case *models.HostBinding:
		return "", []string{port(p.PortID)}, p.HostID
	case *models.Rule:
		for _, id := range append(append([]string{}, p.InPorts...), p.OutPorts...) {
			refs = append(refs, port(id))
		}
		return models.Chain{}.ResourcePath(p.ChainID), refs, ""
	case *models.Router:
		return "", filterRefs(chain, p.InboundFilterID, p.OutboundFilterID), ""
	case *models.RouterPort:
		return models.Router{}.ResourcePath(p.RouterID), nil, ""
	case *models.PortLink:
		return port(p.PortID), []string{port(p.PeerID)}, ""
	case *models.BGP:
		return port(p.PortID), nil, ""
	case *models.AdRoute:
		return models.BGP{}.ResourcePath(p.BGPID), nil, ""
	}
	return "", nil, ""
}

func filterRefs(path func(string) string, ids ...string) []string {
	var refs []string
	for _, id := range ids {
		if id != "" {
			refs = append(refs, path(id))
		}
	}
	return refs
}

// identifier assigns the id of a new resource. Memberships, bindings and
// links are identified by the host or port they attach.
func identifier(r models.Resource) string {
	switch p := r.(type) {
	case *models.TunnelZoneHost:
		return p.HostID
	case *models.HostBinding:
		return p.PortID
	case *models.PortLink:
		return p.PortID
	}
	return uuid.New().String()
}
