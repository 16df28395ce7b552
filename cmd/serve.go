package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/crop-advisor/internal/config"
	"github.com/sells-group/crop-advisor/internal/matcher"
	"github.com/sells-group/crop-advisor/internal/model"
)

const (
	maxRequestBody  = 1 << 20
	shutdownTimeout = 10 * time.Second
	requestIDHeader = "X-Request-Id"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the crop recommendation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := resolvePort(servePort, cfg.Server.Port)
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		m, err := newMatcher(cfg.Matcher)
		if err != nil {
			return err
		}

		table, source, err := loadTable(ctx, cfg, "")
		if err != nil {
			return err
		}
		zap.L().Info("serve: reference table ready",
			zap.String("source", source),
			zap.Int("records", len(table)),
		)

		return startServer(ctx, buildMux(table, m, cfg.Server), port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort returns the flag port when set, otherwise the config port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// server serves recommendations over one read-only table.
type server struct {
	table   []model.CropTolerance
	matcher *matcher.Matcher
}

// buildMux wires routes and middleware. The table is shared read-only across
// requests.
func buildMux(table []model.CropTolerance, m *matcher.Matcher, sc config.ServerConfig) http.Handler {
	if m == nil {
		m = matcher.New(matcher.DefaultConfig())
	}
	s := &server{table: table, matcher: m}

	origins := sc.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		if sc.RateLimit > 0 {
			r.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(sc.RateLimit), sc.RateBurst)))
		}
		r.Get("/crops", s.handleCrops)
		r.Post("/recommend", s.handleRecommend)
	})

	return r
}

func (s *server) handleCrops(w http.ResponseWriter, _ *http.Request) {
	table := s.table
	if table == nil {
		table = []model.CropTolerance{}
	}
	writeJSON(w, http.StatusOK, table)
}

func (s *server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	q, err := parseRecommendRequest(r, s.matcher.Config().Threshold)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := s.matcher.FindMatches(q, s.table)
	writeJSON(w, http.StatusOK, newRecommendation(res, q.SoilType))
}

// recommendRequest mirrors the HTML form field names.
type recommendRequest struct {
	SoilType   string       `json:"soil-type"`
	PH         json.Number  `json:"ph-level"`
	Nitrogen   json.Number  `json:"nitrogen"`
	Phosphorus json.Number  `json:"phosphorus"`
	Potassium  json.Number  `json:"potassium"`
	Threshold  *json.Number `json:"threshold,omitempty"`
}

// parseRecommendRequest reads readings from a JSON body or a form post.
func parseRecommendRequest(r *http.Request, defaultThreshold float64) (model.SoilQuery, error) {
	var req recommendRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return model.SoilQuery{}, eris.New("invalid request body")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return model.SoilQuery{}, eris.New("invalid form body")
		}
		req.SoilType = r.PostFormValue("soil-type")
		req.PH = json.Number(r.PostFormValue("ph-level"))
		req.Nitrogen = json.Number(r.PostFormValue("nitrogen"))
		req.Phosphorus = json.Number(r.PostFormValue("phosphorus"))
		req.Potassium = json.Number(r.PostFormValue("potassium"))
		if t := r.PostFormValue("threshold"); t != "" {
			n := json.Number(t)
			req.Threshold = &n
		}
	}

	var (
		values = make([]float64, 4)
		errs   []string
	)
	for i, f := range []struct {
		name string
		raw  json.Number
	}{
		{"ph-level", req.PH},
		{"nitrogen", req.Nitrogen},
		{"phosphorus", req.Phosphorus},
		{"potassium", req.Potassium},
	} {
		v, err := parseReading(f.name, string(f.raw))
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		values[i] = v
	}
	req.SoilType = strings.TrimSpace(req.SoilType)
	if req.SoilType == "" {
		errs = append(errs, "soil-type is required")
	}
	if len(errs) > 0 {
		return model.SoilQuery{}, eris.New(strings.Join(errs, "; "))
	}

	q := model.NewSoilQuery(values[0], values[1], values[2], values[3], req.SoilType)
	q.Threshold = defaultThreshold
	if req.Threshold != nil {
		t, err := parseReading("threshold", string(*req.Threshold))
		if err != nil {
			return model.SoilQuery{}, err
		}
		q.Threshold = t
	}
	if err := checkFinite(q); err != nil {
		return model.SoilQuery{}, err
	}
	return q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}

// requestIDMiddleware keeps a valid incoming request ID or assigns a new one.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("serve: request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// startServer serves h on port until ctx is cancelled, then shuts down
// gracefully.
func startServer(ctx context.Context, h http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
	})

	return g.Wait()
}
