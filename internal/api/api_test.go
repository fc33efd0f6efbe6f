package api

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ougirez/hvac-catalog/internal/domain"
	"github.com/ougirez/hvac-catalog/internal/pkg/config"
	"github.com/ougirez/hvac-catalog/internal/pkg/constants"
	"github.com/ougirez/hvac-catalog/internal/pkg/registry"
	"github.com/ougirez/hvac-catalog/internal/pkg/store"
)

type memStore struct {
	mu      sync.Mutex
	nextID  int64
	devices map[int64]*domain.Device
	pingErr error
	total   int64
	queries []string
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{nextID: 1, devices: make(map[int64]*domain.Device)}
}

func (s *memStore) CreateDevice(_ context.Context, d *domain.Device) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	d.ID = id
	s.devices[id] = d
	return id, nil
}

func (s *memStore) GetDevice(_ context.Context, id int64) (*domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, constants.ErrDBNotFound
	}
	return d, nil
}

func (s *memStore) UpsertObservation(context.Context, *domain.Observation) error {
	return nil
}

func (s *memStore) ListObservations(context.Context, int64) ([]*domain.Observation, error) {
	return nil, nil
}

func (s *memStore) Query(_ context.Context, q sq.Sqlizer) (*store.RowSet, error) {
	sql, _, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.queries = append(s.queries, sql)
	s.mu.Unlock()
	return &store.RowSet{}, nil
}

func (s *memStore) Count(context.Context, sq.Sqlizer) (int64, error) {
	return s.total, nil
}

func (s *memStore) Ping(context.Context) error {
	return s.pingErr
}

func newTestService(t *testing.T, st *memStore) http.Handler {
	t.Helper()
	require.NoError(t, config.Load(""))

	svc, err := NewAPIService(st, registry.MustDefault())
	require.NoError(t, err)
	return svc.Handler()
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	st := newMemStore()
	h := newTestService(t, st)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(constants.HeaderRequestID))

	st.pingErr = errors.New("connection refused")
	rec = do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body domain.ErrorResponse
	decode(t, rec, &body)
	assert.Equal(t, http.StatusServiceUnavailable, body.Code)
	assert.Contains(t, body.Message, "connection refused")
}

func TestRequestIDIsEchoed(t *testing.T) {
	h := newTestService(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(constants.HeaderRequestID, "abc-123")
	rec := do(h, req)
	assert.Equal(t, "abc-123", rec.Header().Get(constants.HeaderRequestID))
}

func TestGetFields(t *testing.T) {
	h := newTestService(t, newMemStore())

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/fields?capability=groupable", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cols []domain.Column
	decode(t, rec, &cols)
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "manufacturer")
	assert.Contains(t, names, "market_entry_year")

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/fields?capability=sortable", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/fields", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchDevices(t *testing.T) {
	st := newMemStore()
	st.total = 42
	h := newTestService(t, st)

	rec := do(h, httptest.NewRequest(http.MethodGet,
		"/api/v1/devices/search?device_family=air_conditioner&metric_name=nope&display_fields=seer,eer&page=2&page_size=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Columns     []domain.Column `json:"columns"`
		Diagnostics []string        `json:"diagnostics"`
		Pagination  struct {
			Page       int   `json:"page"`
			PageSize   int   `json:"page_size"`
			TotalRows  int64 `json:"total_rows"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	decode(t, rec, &res)
	require.Len(t, res.Columns, 3)
	assert.Equal(t, "id", res.Columns[0].Name)
	assert.Equal(t, "seer", res.Columns[1].Name)
	assert.Len(t, res.Diagnostics, 1)
	assert.Equal(t, 2, res.Pagination.Page)
	assert.Equal(t, int64(42), res.Pagination.TotalRows)
	assert.Equal(t, 5, res.Pagination.TotalPages)

	require.NotEmpty(t, st.queries)
	assert.Contains(t, st.queries[len(st.queries)-1], "LIMIT 10 OFFSET 10")

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/search?page=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportDevices(t *testing.T) {
	st := newMemStore()
	h := newTestService(t, st)

	rec := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/export?display_fields=manufacturer", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="devices.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "ID,Manufacturer\n", rec.Body.String())

	for _, q := range st.queries {
		assert.NotContains(t, q, "LIMIT")
	}

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAndGetDevice(t *testing.T) {
	st := newMemStore()
	h := newTestService(t, st)

	body := `{"device_family":"air_conditioner","fields":{"manufacturer":"Daikin","model":"FTXM25R","seer":"8.5","eer":"fast"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := do(h, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID       int64    `json:"id"`
		Warnings []string `json:"warnings"`
	}
	decode(t, rec, &created)
	assert.Equal(t, int64(1), created.ID)
	assert.Len(t, created.Warnings, 1)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"manufacturer":"Daikin"`)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/devices/1/observations", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDevice_Rejected(t *testing.T) {
	h := newTestService(t, newMemStore())

	for name, tt := range map[string]struct {
		body string
		code int
	}{
		"missing family": {`{"fields":{"manufacturer":"Daikin","model":"X"}}`, http.StatusBadRequest},
		"unknown family": {`{"device_family":"boiler","fields":{"manufacturer":"Daikin","model":"X"}}`, http.StatusBadRequest},
		"blank model":    {`{"device_family":"air_conditioner","fields":{"manufacturer":"Daikin","model":" "}}`, http.StatusBadRequest},
		"missing model":  {`{"device_family":"air_conditioner","fields":{"manufacturer":"Daikin"}}`, http.StatusUnprocessableEntity},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/devices", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			assert.Equal(t, tt.code, do(h, req).Code)
		})
	}
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/import", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImportDevices(t *testing.T) {
	st := newMemStore()
	h := newTestService(t, st)

	req := multipartRequest(t,
		map[string]string{"family": "heat_pump"},
		map[string]string{
			"file":         "Manufacturer,Model,Refrigerant\nNibe,F2120,R410A\n,Broken,R32\n",
			"observations": "correlation_id,condition_name,metric_name,metric_value\n1,A7/W35,cop,4.6\n9,A7/W35,cop,4.1\n",
		},
	)
	rec := do(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Accepted     int      `json:"accepted"`
		Rejected     int      `json:"rejected"`
		Skipped      int      `json:"skipped"`
		Diagnostics  []string `json:"diagnostics"`
		Observations struct {
			Accepted int `json:"accepted"`
		} `json:"observations"`
	}
	decode(t, rec, &res)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Observations.Accepted)
	assert.Len(t, res.Diagnostics, 2)
	assert.Len(t, st.devices, 1)
}

func TestImportDevices_Failures(t *testing.T) {
	h := newTestService(t, newMemStore())

	rec := do(h, multipartRequest(t, map[string]string{"family": "air_conditioner"}, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, multipartRequest(t,
		map[string]string{"family": "air_conditioner"},
		map[string]string{"file": "Manufacturer,SEER\nDaikin,8.5\n"},
	))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "model_identifier")

	rec = do(h, multipartRequest(t,
		map[string]string{"family": "boiler"},
		map[string]string{"file": "Manufacturer,Model\nDaikin,X\n"},
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
