package dashboard

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"estate-recommender/models"
	"estate-recommender/services"
	"estate-recommender/storage"
)

const previewRows = 5

// filtered resolves the request's filter against the current snapshot.
func (s *Server) filtered(c *gin.Context) (*models.Dataset, services.Filter, []*models.Listing, bool) {
	ds := s.requestDataset(c)
	f, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return nil, f, nil, false
	}
	listings, err := f.Apply(ds.Listings)
	if err != nil {
		respondError(c, err)
		return nil, f, nil, false
	}
	return ds, f, listings, true
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidFilter):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrEmptyInput),
		errors.Is(err, services.ErrDivision),
		errors.Is(err, services.ErrInvalidData),
		errors.Is(err, services.ErrMissingColumns):
		status = http.StatusUnprocessableEntity
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

type pageData struct {
	Dataset  *models.Dataset
	Filter   services.Filter
	MinPrice float64
	MaxPrice float64
	Options  services.FilterOptions
	Report   *models.InsightReport
	Rows     []*models.Listing
	Labels   []models.Recommendation

	DistributionURL template.URL
	ScatterURL      template.URL
	ExportURL       template.URL
}

// GET /
func (s *Server) index(c *gin.Context) {
	ds, f, listings, ok := s.filtered(c)
	if !ok {
		return
	}

	o := services.Options(ds.Listings)
	data := pageData{
		Dataset:  ds,
		Filter:   f,
		MinPrice: float64(o.MinPrice),
		MaxPrice: float64(o.MaxPrice),
		Options:  o,
		Report:   s.insights.Generate(ds, listings),
		Rows:     head(listings, previewRows),
		Labels:   models.Recommendations,
	}
	q := c.Request.URL.Query().Encode()
	data.DistributionURL = withQuery("/charts/distribution", q)
	data.ScatterURL = withQuery("/charts/scatter", q)
	data.ExportURL = withQuery("/export.csv", q)
	if f.MinPrice != nil {
		data.MinPrice = *f.MinPrice
	}
	if f.MaxPrice != nil {
		data.MaxPrice = *f.MaxPrice
	}
	if f.Kind == services.FilterGrade && len(f.Grades) == 0 && !f.Explicit {
		data.Filter.Grades = o.Grades
	}
	if f.Kind == services.FilterRecommendation && len(f.Recommendations) == 0 && !f.Explicit {
		data.Filter.Recommendations = o.Recommendations
	}

	c.HTML(http.StatusOK, "dashboard.html", data)
}

// GET /charts/distribution
func (s *Server) distributionChart(c *gin.Context) {
	_, _, listings, ok := s.filtered(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := RenderDistribution(&buf, listings); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GET /charts/scatter
func (s *Server) scatterChart(c *gin.Context) {
	_, _, listings, ok := s.filtered(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := RenderScatter(&buf, listings); err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GET /export.csv
func (s *Server) exportCSV(c *gin.Context) {
	_, _, listings, ok := s.filtered(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := storage.EncodeCSV(&buf, listings); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+storage.ExportFileName+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GET /api/listings
func (s *Server) listListings(c *gin.Context) {
	ds, _, listings, ok := s.filtered(c)
	if !ok {
		return
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		listings = head(listings, n)
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset_id": ds.ID,
		"count":      len(listings),
		"listings":   listings,
	})
}

// GET /api/summary
func (s *Server) summary(c *gin.Context) {
	ds, _, listings, ok := s.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dataset": ds,
		"report":  s.insights.Generate(ds, listings),
	})
}

// GET /api/filters
func (s *Server) filterOptions(c *gin.Context) {
	c.JSON(http.StatusOK, services.Options(s.requestDataset(c).Listings))
}

// POST /api/reload
func (s *Server) reload(c *gin.Context) {
	ds, err := s.Reload()
	if err != nil {
		s.logger.Error("[dashboard] Reload failed: %v", err)
		respondError(c, err)
		return
	}
	c.Header(datasetHeaderName, ds.ID)
	c.JSON(http.StatusOK, ds)
}

func withQuery(path, q string) template.URL {
	if q == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + q)
}

func head(listings []*models.Listing, n int) []*models.Listing {
	if len(listings) > n {
		return listings[:n]
	}
	return listings
}
