package dashboard

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-recommender/models"
	"estate-recommender/services"
	"estate-recommender/utils"
)

type stubLoader struct {
	ds  *models.Dataset
	err error
}

func (s *stubLoader) Load() (*models.Dataset, error) { return s.ds, s.err }

func testDataset(t *testing.T, id string) *models.Dataset {
	t.Helper()
	in := []*models.Listing{
		{Index: 0, Price: 100, Grade: 5, Bedrooms: 1},
		{Index: 1, Price: 200, Grade: 3, Bedrooms: 2},
		{Index: 2, Price: 150, Grade: 8, Bedrooms: 3},
		{Index: 3, Price: 300, Grade: 9, Bedrooms: 4},
	}
	res, err := services.NewLabeler(utils.NewNopLogger()).Label(in)
	require.NoError(t, err)
	return &models.Dataset{
		ID:          id,
		Source:      "test",
		Listings:    res.Listings,
		PriceMedian: res.PriceMedian,
		GradeMedian: res.GradeMedian,
	}
}

func newTestServer(t *testing.T, loader Reloader) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := NewServer(utils.NewNopLogger(), loader, testDataset(t, "ds-1"), Options{
		CORSOrigins: []string{"http://localhost:3000"},
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	w := do(newTestServer(t, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ds-1", w.Header().Get("X-Dataset-ID"))
}

func TestIndexRendersDashboard(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/", "/?type=grade&grade=8", "/?type=recommendation&rec=Best", "/?type=price&min_price=120"} {
		w := do(s, http.MethodGet, target)
		require.Equal(t, http.StatusOK, w.Code, target)
		body := w.Body.String()
		assert.Contains(t, body, "Retail Recommendation App", target)
		assert.Contains(t, body, "Download Filtered CSV", target)
		assert.Contains(t, body, "/charts/distribution", target)
	}
}

func TestIndexRejectsUnknownFilter(t *testing.T) {
	w := do(newTestServer(t, nil), http.MethodGet, "/?type=bedrooms")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListListingsFilters(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/listings", 4},
		{"/api/listings?type=price&min_price=150&max_price=200", 2},
		{"/api/listings?type=grade&grade=8&grade=9", 2},
		{"/api/listings?type=recommendation&rec=Best", 1},
		{"/api/listings?type=recommendation&rec=Decent&limit=1", 1},
	}
	for _, tt := range tests {
		w := do(s, http.MethodGet, tt.target)
		require.Equal(t, http.StatusOK, w.Code, tt.target)

		var body struct {
			DatasetID string            `json:"dataset_id"`
			Count     int               `json:"count"`
			Listings  []*models.Listing `json:"listings"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ds-1", body.DatasetID)
		assert.Equal(t, tt.want, body.Count, tt.target)
		assert.Len(t, body.Listings, tt.want, tt.target)
	}
}

func TestListListingsBadParams(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{
		"/api/listings?min_price=cheap",
		"/api/listings?type=grade&grade=high",
		"/api/listings?type=recommendation&rec=Great",
		"/api/listings?limit=-1",
	} {
		w := do(s, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestExportCSV(t *testing.T) {
	w := do(newTestServer(t, nil), http.MethodGet, "/export.csv?type=grade&grade=9")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "filtered_recommendations.csv")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Recommendation", rows[0][len(rows[0])-1])
	assert.Equal(t, []string{"300", "4"}, rows[1][1:3])
	assert.Equal(t, "75", rows[1][len(rows[1])-2])
	assert.Equal(t, "Decent", rows[1][len(rows[1])-1])
}

func TestCharts(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/charts/distribution")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Recommendation Distribution")

	w = do(s, http.MethodGet, "/charts/scatter?type=recommendation&rec=Best")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Price vs Grade by Recommendation")
}

func TestSummaryAndFilters(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Report models.InsightReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 4, summary.Report.TotalListings)
	assert.Equal(t, 175.0, summary.Report.PriceMedian)

	w = do(s, http.MethodGet, "/api/filters")
	require.Equal(t, http.StatusOK, w.Code)
	var opts services.FilterOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	assert.Equal(t, 100, opts.MinPrice)
	assert.Equal(t, []float64{3, 5, 8, 9}, opts.Grades)
}

func TestReloadSwapsDataset(t *testing.T) {
	loader := &stubLoader{ds: testDataset(t, "ds-2")}
	s := newTestServer(t, loader)

	w := do(s, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ds-2", w.Header().Get("X-Dataset-ID"))
	assert.Equal(t, "ds-2", s.Dataset().ID)

	w = do(s, http.MethodGet, "/health")
	assert.Equal(t, "ds-2", w.Header().Get("X-Dataset-ID"))
}

func TestReloadFailureKeepsDataset(t *testing.T) {
	loader := &stubLoader{err: errors.Join(errors.New("label archive.zip"), services.ErrEmptyInput)}
	s := newTestServer(t, loader)

	w := do(s, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ds-1", s.Dataset().ID)
}

func TestCORSOnAPI(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewServerRequiresDataset(t *testing.T) {
	_, err := NewServer(utils.NewNopLogger(), nil, nil, Options{})
	assert.Error(t, err)
}

func TestReloadHeaderOnlyFileIsUnprocessable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(path, []byte("price,grade,bedrooms\n"), 0o644))
	loader := services.NewLoader(utils.NewNopLogger(), nil, path, nil)
	s := newTestServer(t, loader)

	w := do(s, http.MethodPost, "/api/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), services.ErrEmptyInput.Error())
	assert.Equal(t, "ds-1", s.Dataset().ID)
}

func TestEmptyCheckboxSelection(t *testing.T) {
	s := newTestServer(t, nil)
	tests := []struct {
		target string
		want   int
	}{
		{"/api/listings?type=grade&sel=grade", 0},
		{"/api/listings?type=recommendation&sel=recommendation", 0},
		{"/api/listings?type=recommendation&sel=recommendation&rec=Best", 1},
		// switching filter type resubmits the previous group's marker
		{"/api/listings?type=recommendation&sel=grade&grade=9", 4},
		{"/api/listings?type=grade", 4},
	}
	for _, tt := range tests {
		w := do(s, http.MethodGet, tt.target)
		require.Equal(t, http.StatusOK, w.Code, tt.target)
		var body struct {
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tt.want, body.Count, tt.target)
	}

	w := do(s, http.MethodGet, "/?type=grade&sel=grade")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No listings match the current filter.")
	assert.NotContains(t, w.Body.String(), "checked")
}

func TestResponseUsesOneDatasetSnapshot(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/listings", nil)

	s.datasetSnapshot()(c)

	// A reload lands between the middleware and the handler.
	s.mu.Lock()
	s.dataset = testDataset(t, "ds-2")
	s.mu.Unlock()

	s.listListings(c)

	var body struct {
		DatasetID string `json:"dataset_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ds-1", w.Header().Get("X-Dataset-ID"))
	assert.Equal(t, "ds-1", body.DatasetID)
}
