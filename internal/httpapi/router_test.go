package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/deferred"
	"github.com/unkn0wn-root/menucache/internal/coordinator"
	"github.com/unkn0wn-root/menucache/internal/model"
	"github.com/unkn0wn-root/menucache/internal/service"
	"github.com/unkn0wn-root/menucache/internal/store/memory"
	"github.com/unkn0wn-root/menucache/provider/bigcache"
)

type server struct {
	h     http.Handler
	queue *deferred.Queue
	ks    *menucache.Keyspace
}

func newServer(t *testing.T, ping func(context.Context) error) *server {
	t.Helper()
	p, err := bigcache.New(bigcache.Config{LifeWindow: time.Minute})
	require.NoError(t, err)
	ks, err := menucache.New(menucache.Options{Provider: p, Prefix: "test:"})
	require.NoError(t, err)
	q := deferred.New(deferred.Options{Workers: 1, Size: 64})
	t.Cleanup(func() {
		q.Close()
		_ = ks.Close(context.Background())
	})
	c, err := coordinator.New(ks, coordinator.Options{Queue: q})
	require.NoError(t, err)

	h := NewRouter(Config{
		Services: service.New(memory.New(), c, nil),
		Queue:    q,
		Ping:     ping,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		}),
	})
	return &server{h: h, queue: q, ks: ks}
}

// do serves one request and waits for the invalidations it deferred.
func (s *server) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)
	s.queue.Wait()
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *server) seed(t *testing.T) (model.Menu, model.Submenu, model.Dish) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/menus", map[string]string{"title": "Lunch", "description": "midday"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decodeAs[model.Menu](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/menus/"+m.ID.String()+"/submenus", map[string]string{"title": "Soups", "description": "hot"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sm := decodeAs[model.Submenu](t, rec)

	rec = s.do(t, http.MethodPost, "/api/v1/menus/"+m.ID.String()+"/submenus/"+sm.ID.String()+"/dishes",
		map[string]string{"title": "Borscht", "description": "beet", "price": "12.5"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	d := decodeAs[model.Dish](t, rec)
	return m, sm, d
}

func TestCRUDRoundTrip(t *testing.T) {
	s := newServer(t, nil)
	m, sm, d := s.seed(t)
	assert.Equal(t, "12.50", d.Price)

	rec := s.do(t, http.MethodGet, "/api/v1/menus/"+m.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeAs[model.Menu](t, rec)
	assert.Equal(t, 1, got.SubmenusCount)
	assert.Equal(t, 1, got.DishesCount)

	rec = s.do(t, http.MethodPatch, "/api/v1/menus/"+m.ID.String(), map[string]string{"title": "Dinner"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dinner", decodeAs[model.Menu](t, rec).Title)

	rec = s.do(t, http.MethodGet, "/api/v1/menus/"+m.ID.String(), nil)
	assert.Equal(t, "Dinner", decodeAs[model.Menu](t, rec).Title)

	rec = s.do(t, http.MethodGet, "/api/v1/menus/"+m.ID.String()+"/submenus/"+sm.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeAs[model.Submenu](t, rec).DishesCount)

	rec = s.do(t, http.MethodDelete, "/api/v1/menus/"+m.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":true,"message":"The menu has been deleted"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/menus/"+m.ID.String()+"/submenus/"+sm.ID.String()+"/dishes/"+d.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"dish not found"}`, rec.Body.String())
}

func TestListsInvalidatedAfterWrites(t *testing.T) {
	s := newServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/menus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	m, sm, _ := s.seed(t)

	rec = s.do(t, http.MethodGet, "/api/v1/menus/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	menus := decodeAs[[]model.Menu](t, rec)
	require.Len(t, menus, 1)
	assert.Equal(t, 1, menus[0].DishesCount)

	rec = s.do(t, http.MethodGet, "/api/v1/full_menus_submenus_dishes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	full := decodeAs[[]model.MenuTree](t, rec)
	require.Len(t, full, 1)
	require.Len(t, full[0].Submenus, 1)
	assert.Len(t, full[0].Submenus[0].Dishes, 1)

	base := "/api/v1/menus/" + m.ID.String() + "/submenus/" + sm.ID.String()
	rec = s.do(t, http.MethodPost, base+"/dishes", map[string]string{"title": "Okroshka", "description": "cold", "price": "7"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/menus", nil)
	assert.Equal(t, 2, decodeAs[[]model.Menu](t, rec)[0].DishesCount)

	rec = s.do(t, http.MethodGet, "/api/v1/full_menus_submenus_dishes", nil)
	assert.Len(t, decodeAs[[]model.MenuTree](t, rec)[0].Submenus[0].Dishes, 2)

	rec = s.do(t, http.MethodGet, base+"/dishes?limit=1", nil)
	assert.Len(t, decodeAs[[]model.Dish](t, rec), 1)
}

func TestScopeMismatchIsNotFound(t *testing.T) {
	s := newServer(t, nil)
	m, sm, _ := s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/v1/menus", map[string]string{"title": "Other", "description": "x"})
	other := decodeAs[model.Menu](t, rec)

	rec = s.do(t, http.MethodGet, "/api/v1/menus/"+m.ID.String()+"/submenus/"+sm.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/menus/"+other.ID.String()+"/submenus/"+sm.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"submenu not found"}`, rec.Body.String())
}

func TestValidationErrors(t *testing.T) {
	s := newServer(t, nil)
	m, _, _ := s.seed(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"bad uuid", http.MethodGet, "/api/v1/menus/not-a-uuid", nil},
		{"missing title", http.MethodPost, "/api/v1/menus", map[string]string{"description": "x"}},
		{"unknown field", http.MethodPost, "/api/v1/menus", map[string]string{"title": "x", "description": "x", "color": "red"}},
		{"empty patch", http.MethodPatch, "/api/v1/menus/" + m.ID.String(), map[string]string{}},
		{"negative offset", http.MethodGet, "/api/v1/menus?offset=-1", nil},
		{"limit not a number", http.MethodGet, "/api/v1/menus?limit=ten", nil},
		{"price not numeric", http.MethodPost, "/api/v1/menus/" + m.ID.String() + "/submenus/" + m.ID.String() + "/dishes",
			map[string]string{"title": "x", "description": "x", "price": "cheap"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decodeAs[detail](t, rec).Detail)
		})
	}
}

func TestPriceOutOfRange(t *testing.T) {
	s := newServer(t, nil)
	m, sm, d := s.seed(t)
	base := "/api/v1/menus/" + m.ID.String() + "/submenus/" + sm.ID.String() + "/dishes"

	rec := s.do(t, http.MethodPost, base, map[string]string{"title": "Caviar", "description": "x", "price": "100000000"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, decodeAs[detail](t, rec).Detail, "price")

	rec = s.do(t, http.MethodPatch, base+"/"+d.ID.String(), map[string]string{"price": "99999999.995"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, base+"/"+d.ID.String(), map[string]string{"price": "1.005"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1.01", decodeAs[model.Dish](t, rec).Price)
}

func TestNotFoundOnMissingParent(t *testing.T) {
	s := newServer(t, nil)
	m, _, _ := s.seed(t)

	rec := s.do(t, http.MethodPost, "/api/v1/menus/"+m.ID.String()+"/submenus/"+m.ID.String()+"/dishes",
		map[string]string{"title": "x", "description": "x", "price": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"submenu not found"}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newServer(t, func(context.Context) error { return errors.New("db down") })
	rec = down.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDeferredTasksRunInlineWithoutQueue(t *testing.T) {
	var ran []string
	h := deferTasks(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deferred.Defer(r.Context(), deferred.Task{Name: "a", Run: func(context.Context) error {
			ran = append(ran, "a")
			return nil
		}})
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"a"}, ran)
	assert.True(t, rec.Flushed)
}
