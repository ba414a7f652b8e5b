package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"estate-recommender/models"
	"estate-recommender/services"
	"estate-recommender/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Reloader produces a freshly labeled dataset.
type Reloader interface {
	Load() (*models.Dataset, error)
}

// Server is the web dashboard over one labeled dataset. The dataset is
// replaced as a whole on reload; handlers only ever read a snapshot.
type Server struct {
	logger   *utils.Logger
	loader   Reloader
	insights *services.InsightService
	engine   *gin.Engine

	mu      sync.RWMutex
	dataset *models.Dataset
}

// Options configures a Server.
type Options struct {
	CORSOrigins []string
}

// NewServer builds the router around an already labeled dataset.
func NewServer(logger *utils.Logger, loader Reloader, ds *models.Dataset, o Options) (*Server, error) {
	if ds == nil {
		return nil, errors.New("dashboard: dataset is required")
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse templates: %w", err)
	}

	s := &Server{
		logger:   logger,
		loader:   loader,
		insights: services.NewInsightService(logger),
		dataset:  ds,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.datasetSnapshot())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/charts/distribution", s.distributionChart)
	r.GET("/charts/scatter", s.scatterChart)
	r.GET("/export.csv", s.exportCSV)

	api := r.Group("/api")
	if len(o.CORSOrigins) > 0 {
		api.Use(cors.New(cors.Config{
			AllowOrigins:  o.CORSOrigins,
			AllowMethods:  []string{"GET", "POST"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{datasetHeaderName},
			MaxAge:        12 * time.Hour,
		}))
	}
	{
		api.GET("/listings", s.listListings)
		api.GET("/summary", s.summary)
		api.GET("/filters", s.filterOptions)
		api.POST("/reload", s.reload)
	}

	s.engine = r
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Dataset returns the current snapshot.
func (s *Server) Dataset() *models.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Reload relabels from the source. On failure the previous dataset stays.
func (s *Server) Reload() (*models.Dataset, error) {
	if s.loader == nil {
		return nil, errors.New("dashboard: no loader configured")
	}
	ds, err := s.loader.Load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()

	s.logger.Info("[dashboard] Reloaded dataset %s (%d listings)", ds.ID, len(ds.Listings))
	return ds, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[dashboard] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("[dashboard] Shutting down")
	return srv.Shutdown(shutdownCtx)
}

const (
	datasetHeaderName = "X-Dataset-ID"
	datasetKey        = "dataset"
)

// datasetSnapshot pins the current dataset for the whole request, so the
// X-Dataset-ID header and the body always describe the same snapshot.
func (s *Server) datasetSnapshot() gin.HandlerFunc {
	return func(c *gin.Context) {
		ds := s.Dataset()
		c.Set(datasetKey, ds)
		c.Header(datasetHeaderName, ds.ID)
		c.Next()
	}
}

// requestDataset returns the snapshot pinned by datasetSnapshot.
func (s *Server) requestDataset(c *gin.Context) *models.Dataset {
	if v, ok := c.Get(datasetKey); ok {
		if ds, ok := v.(*models.Dataset); ok {
			return ds
		}
	}
	return s.Dataset()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[http] %s %s → %d (%v)",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), time.Since(start))
	}
}

var templateFuncs = template.FuncMap{
	"money": func(f float64) string { return humanize.Commaf(f) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("2006-01-02")
	},
	"hasGrade": func(list []float64, g float64) bool {
		for _, v := range list {
			if v == g {
				return true
			}
		}
		return false
	},
	"hasRec": func(list []models.Recommendation, r models.Recommendation) bool {
		for _, v := range list {
			if v == r {
				return true
			}
		}
		return false
	},
	"color": func(r models.Recommendation) string { return LabelColors[r] },
}
