// Package server exposes the timetabler over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/limaJavier/timetableplus/internal/app"
	"github.com/limaJavier/timetableplus/internal/store"
	"github.com/limaJavier/timetableplus/pkg/config"
	"github.com/limaJavier/timetableplus/pkg/input"
	"github.com/limaJavier/timetableplus/pkg/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxBodyBytes = 4 << 20
	maxCount     = 50
)

var (
	errBadRequest = errors.New("bad request")
	errNoHistory  = errors.New("run history is not configured")
)

type Server struct {
	cfg     *config.Config
	store   *store.Store
	cache   Cache
	metrics *Metrics
	logger  *zap.Logger
}

// New builds a server; history and cache are optional
func New(cfg *config.Config, history *store.Store, cache Cache, metrics *Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{cfg: cfg, store: history, cache: cache, metrics: metrics, logger: logger}
}

func (server *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), server.requestLogger(), server.metrics.Middleware())

	router.GET("/healthz", server.health)
	router.GET("/metrics", gin.WrapH(server.metrics.Handler()))

	v1 := router.Group("/v1")
	v1.POST("/timetables", server.createTimetables)
	v1.GET("/timetables/:id", server.getTimetable)
	v1.GET("/runs", server.listRuns)

	return router
}

// Run serves until ctx is cancelled and then shuts down gracefully
func (server *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              server.cfg.HTTP.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		server.logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.logger.Info("http server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	}
}

func (server *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		server.logger.Info("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

func (server *Server) health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok"}, nil)
}

type solveResponse struct {
	RunID      string            `json:"runId,omitempty"`
	Timetables []model.Timetable `json:"timetables"`
	Grids      []model.Grid      `json:"grids"`
	Stats      store.RunStats    `json:"stats"`
}

func (server *Server) createTimetables(c *gin.Context) {
	//** Read request
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	count, err := queryInt(c, "count", 1)
	if err != nil || count < 1 || count > maxCount {
		respondError(c, fmt.Errorf("%w: count must be between 1 and %d", errBadRequest, maxCount))
		return
	}

	modelConfig := server.cfg.Model
	if raw, ok := c.GetQuery("includeTeachers"); ok {
		includeTeachers, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, fmt.Errorf("%w: includeTeachers must be a boolean", errBadRequest))
			return
		}
		modelConfig.IncludeTeachers = includeTeachers
	}

	defaults := model.GridShape{PeriodsPerWeek: server.cfg.Grid.PeriodsPerWeek, PeriodsPerDay: server.cfg.Grid.PeriodsPerDay}
	modelInput, err := input.FromJSON(bytes.NewReader(body), defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	options, err := app.BuildOptions(modelConfig, server.logger)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	//** Serve from cache
	solverName := server.cfg.Solver.Name
	digest, err := store.InputDigest(modelInput, solverName, strconv.FormatBool(options.IncludeTeachers), string(options.SubjectPolicy), strconv.Itoa(count))
	if err != nil {
		respondError(c, err)
		return
	}
	cacheKey := "timetable:" + digest
	if server.cache != nil {
		var cached solveResponse
		err := server.cache.Get(c.Request.Context(), cacheKey, &cached)
		server.metrics.ObserveCache(err == nil)
		if err == nil {
			respond(c, http.StatusOK, cached, map[string]any{"cached": true})
			return
		} else if !errors.Is(err, ErrCacheMiss) {
			server.logger.Warn("cache lookup failed", zap.Error(err))
		}
	}

	//** Solve
	timetabler, err := app.NewTimetabler(server.cfg.Solver, server.logger)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if server.cfg.Solver.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, server.cfg.Solver.Timeout)
		defer cancel()
	}

	outcome, solveErr := app.Solve(ctx, timetabler, modelInput, options, count)
	server.metrics.ObserveSolve(solverName, string(outcome.Status), outcome.Duration)

	var conflict *model.DomainConflictError
	var unknownSubject *model.UnknownSubjectError
	if errors.As(solveErr, &conflict) || errors.As(solveErr, &unknownSubject) {
		respondError(c, solveErr)
		return
	}

	//** Record run
	run, timetable, err := outcome.Run(digest, solverName, modelInput.Shape)
	if err != nil {
		respondError(c, err)
		return
	}
	if server.store != nil {
		if err := server.store.SaveRun(c.Request.Context(), run, timetable); err != nil {
			server.logger.Error("cannot save run", zap.Error(err))
			run.ID = ""
		}
	}

	if solveErr != nil {
		respondError(c, solveErr)
		return
	}

	response := solveResponse{RunID: run.ID, Timetables: outcome.Timetables, Grids: make([]model.Grid, 0, len(outcome.Timetables))}
	response.Stats, _ = run.DecodeStats()
	for _, timetable := range outcome.Timetables {
		grid, err := timetable.Grid(modelInput.Shape)
		if err != nil {
			respondError(c, err)
			return
		}
		response.Grids = append(response.Grids, grid)
	}

	if server.cache != nil {
		if err := server.cache.Set(c.Request.Context(), cacheKey, response, server.cfg.Cache.TTL); err != nil {
			server.logger.Warn("cache store failed", zap.Error(err))
		}
	}
	respond(c, http.StatusCreated, response, nil)
}

type runResponse struct {
	Run       *store.Run      `json:"run"`
	Timetable model.Timetable `json:"timetable,omitempty"`
	Grid      model.Grid      `json:"grid,omitempty"`
}

func (server *Server) getTimetable(c *gin.Context) {
	if server.store == nil {
		respondError(c, errNoHistory)
		return
	}

	run, timetable, err := server.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := runResponse{Run: run, Timetable: timetable}
	if timetable != nil {
		if response.Grid, err = timetable.Grid(run.Shape()); err != nil {
			respondError(c, err)
			return
		}
	}
	respond(c, http.StatusOK, response, nil)
}

func (server *Server) listRuns(c *gin.Context) {
	if server.store == nil {
		respondError(c, errNoHistory)
		return
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		respondError(c, fmt.Errorf("%w: limit must be a whole number", errBadRequest))
		return
	}

	runs, err := server.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, runs, map[string]any{"count": len(runs)})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
