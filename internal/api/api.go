// Package api wires the lookup service to its HTTP surface.
//
// The routes mirror the service's operations one to one: liveness and
// readiness probes, an explicit reload trigger, and the single-point and
// bulk score queries. All handlers are thin; every decision of consequence
// lives in the geoscore library.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geoscore"
	"geoscore/internal/metrics"
	"geoscore/internal/middleware"
)

// Config carries the daemon-level knobs the router needs.
type Config struct {
	// RateLimitRPS limits query routes per client IP. <= 0 disables.
	RateLimitRPS float64
	// RateLimitBurst is the token bucket size. Defaults to 2*RPS.
	RateLimitBurst int
}

// NewRouter builds the gin engine for the daemon.
func NewRouter(svc *geoscore.Service, cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handlers{svc: svc}

	r.GET("/healthz", h.healthz)
	r.GET("/readyz", h.readyz)
	r.POST("/reload", h.reload)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	burst := cfg.RateLimitBurst
	if burst == 0 {
		burst = int(2 * cfg.RateLimitRPS)
	}
	query := r.Group("/", middleware.RateLimit(cfg.RateLimitRPS, burst))
	{
		query.GET("/score", h.score)
		query.POST("/score_bulk", h.scoreBulk)
	}

	return r
}

type handlers struct {
	svc *geoscore.Service
}

func (h *handlers) healthz(c *gin.Context) {
	metrics.RequestsTotal.WithLabelValues("healthz").Inc()
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) readyz(c *gin.Context) {
	metrics.RequestsTotal.WithLabelValues("readyz").Inc()
	src := h.svc.Source()
	st := h.svc.Stats()
	c.JSON(http.StatusOK, gin.H{
		"ready":       h.svc.Ready(),
		"state":       st.State.String(),
		"generation":  st.Generation,
		"regions":     st.Regions,
		"geom_path":   src.PolygonsName,
		"scores_path": src.ScoresName,
	})
}

func (h *handlers) reload(c *gin.Context) {
	metrics.RequestsTotal.WithLabelValues("reload").Inc()
	if err := h.svc.Load(c.Request.Context()); err != nil {
		// The previous catalog, if any, keeps serving.
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handlers) score(c *gin.Context) {
	metrics.RequestsTotal.WithLabelValues("score").Inc()

	lat, err := parseCoord(c.Query("lat"), -90, 90)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid lat: " + err.Error()})
		return
	}
	lon, err := parseCoord(c.Query("lon"), -180, 180)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid lon: " + err.Error()})
		return
	}

	m, err := h.svc.Locate(c.Request.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, geoscore.ErrNotReady) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if m.RegionID == "" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "point not inside any region"})
		return
	}
	c.JSON(http.StatusOK, m)
}

type bulkRequest struct {
	// Points is a list of [lat, lon] pairs.
	Points [][]float64 `json:"points" binding:"required"`
}

func (h *handlers) scoreBulk(c *gin.Context) {
	metrics.RequestsTotal.WithLabelValues("score_bulk").Inc()

	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	// Malformed pairs stay in the batch as per-point failures so the
	// response always has exactly len(points) entries.
	queries := make([]geoscore.PointQuery, 0, len(req.Points))
	malformed := make(map[int]bool)
	for i, p := range req.Points {
		if len(p) != 2 {
			malformed[i] = true
			queries = append(queries, geoscore.PointQuery{})
			continue
		}
		queries = append(queries, geoscore.PointQuery{Lat: p[0], Lon: p[1]})
	}

	results := h.svc.LocateBatch(c.Request.Context(), queries)
	for i := range results {
		if malformed[i] {
			results[i] = geoscore.BatchResult{Err: "malformed point: want [lat, lon]"}
		}
	}
	c.JSON(http.StatusOK, results)
}

func parseCoord(s string, min, max float64) (float64, error) {
	if s == "" {
		return 0, errors.New("missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if v < min || v > max {
		return 0, errors.New("out of range")
	}
	return v, nil
}
