package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/modelhub/internal/domain/item"
	"github.com/geocoder89/modelhub/internal/http/handlers"
	"github.com/geocoder89/modelhub/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// Fake implementation of handlers.ItemAccessor

type fakeItems struct {
	createFn func(ctx context.Context, model string, attrs item.Attributes) (item.Item, error)
	listFn   func(ctx context.Context, model string) ([]item.Item, error)
	getFn    func(ctx context.Context, model, id string) (item.Item, error)
	updateFn func(ctx context.Context, model, id string, attrs item.Attributes) (item.Item, error)
	deleteFn func(ctx context.Context, model, id string) error
}

func (f *fakeItems) Create(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
	if f.createFn != nil {
		return f.createFn(ctx, model, attrs)
	}
	return item.Item{}, nil
}

func (f *fakeItems) List(ctx context.Context, model string) ([]item.Item, error) {
	if f.listFn != nil {
		return f.listFn(ctx, model)
	}
	return []item.Item{}, nil
}

func (f *fakeItems) Get(ctx context.Context, model, id string) (item.Item, error) {
	if f.getFn != nil {
		return f.getFn(ctx, model, id)
	}
	return item.Item{}, nil
}

func (f *fakeItems) Update(ctx context.Context, model, id string, attrs item.Attributes) (item.Item, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, model, id, attrs)
	}
	return item.Item{}, nil
}

func (f *fakeItems) Delete(ctx context.Context, model, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, model, id)
	}
	return nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func echoCreate(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
	now := time.Now().UTC()
	return item.Item{ID: uuid.NewString(), Attributes: attrs, CreatedAt: now, UpdatedAt: now}, nil
}

func TestCreateItemHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setup          func(*fakeItems)
		wantStatusCode int
	}{
		{
			name:           "success",
			body:           `{"name":"pizza","calories":"300","type":"fat"}`,
			setup:          func(f *fakeItems) { f.createFn = echoCreate },
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "not_an_object",
			body:           `["pizza"]`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_json",
			body:           `{"name":`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "validation_error",
			body: `{"name":"pizza"}`,
			setup: func(f *fakeItems) {
				f.createFn = func(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
					return item.Item{}, &schema.ValidationError{Model: model, Fields: []schema.FieldError{{Field: "type", Rule: "required"}}}
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "unknown_model",
			body: `{"name":"x"}`,
			setup: func(f *fakeItems) {
				f.createFn = func(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
					return item.Item{}, item.ErrInvalidModel
				}
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			name: "storage_error",
			body: `{"name":"pizza","calories":"300","type":"fat"}`,
			setup: func(f *fakeItems) {
				f.createFn = func(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
					return item.Item{}, errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeItems{}
			if tt.setup != nil {
				tt.setup(f)
			}

			h := handlers.NewItemsHandler(f, discardLog)
			r := setupRouter(http.MethodPost, "/api/v1/:model", h.Create)

			w := do(r, http.MethodPost, "/api/v1/food", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCreateItemHandler_ResponseIsFlattened(t *testing.T) {
	var gotModel string
	f := &fakeItems{createFn: func(ctx context.Context, model string, attrs item.Attributes) (item.Item, error) {
		gotModel = model
		return echoCreate(ctx, model, attrs)
	}}

	h := handlers.NewItemsHandler(f, discardLog)
	r := setupRouter(http.MethodPost, "/api/v1/:model", h.Create)

	w := do(r, http.MethodPost, "/api/v1/food", `{"name":"pizza","calories":"300","type":"fat"}`)

	if gotModel != "food" {
		t.Fatalf("model = %q, want food", gotModel)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	if body["name"] != "pizza" || body["calories"] != "300" || body["type"] != "fat" {
		t.Fatalf("unexpected body %v", body)
	}
	if id, _ := body["id"].(string); id == "" {
		t.Fatalf("missing id in %v", body)
	}
}

func TestGetItemHandler(t *testing.T) {
	tests := []struct {
		name           string
		getErr         error
		wantStatusCode int
		wantCode       string
	}{
		{"found", nil, http.StatusOK, ""},
		{"not_found", item.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown_model", item.ErrInvalidModel, http.StatusNotFound, "not_found"},
		{"storage_error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeItems{getFn: func(ctx context.Context, model, id string) (item.Item, error) {
				if tt.getErr != nil {
					return item.Item{}, tt.getErr
				}
				return item.Item{ID: id, Attributes: item.Attributes{"name": "pizza"}}, nil
			}}

			h := handlers.NewItemsHandler(f, discardLog)
			r := setupRouter(http.MethodGet, "/api/v1/:model/:id", h.Get)

			w := do(r, http.MethodGet, "/api/v1/food/123", "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				var resp struct {
					Error handlers.APIError `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshal: %v", err)
				}
				if resp.Error.Code != tt.wantCode {
					t.Fatalf("code = %q, want %q", resp.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestListItemsHandler_ReturnsArray(t *testing.T) {
	f := &fakeItems{listFn: func(ctx context.Context, model string) ([]item.Item, error) {
		return []item.Item{
			{ID: "1", Attributes: item.Attributes{"name": "pizza"}},
			{ID: "2", Attributes: item.Attributes{"name": "soup"}},
		}, nil
	}}

	h := handlers.NewItemsHandler(f, discardLog)
	r := setupRouter(http.MethodGet, "/api/v1/:model", h.List)

	w := do(r, http.MethodGet, "/api/v1/food", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}

	var body []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, w.Body.String())
	}
	if len(body) != 2 || body[1]["name"] != "soup" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestListItemsHandler_EmptyIsArray(t *testing.T) {
	h := handlers.NewItemsHandler(&fakeItems{}, discardLog)
	r := setupRouter(http.MethodGet, "/api/v1/:model", h.List)

	w := do(r, http.MethodGet, "/api/v1/food", "")
	if got := w.Body.String(); got != "[]" {
		t.Fatalf("body = %s, want []", got)
	}
}

func TestUpdateItemHandler(t *testing.T) {
	var gotID string
	var gotAttrs item.Attributes
	f := &fakeItems{updateFn: func(ctx context.Context, model, id string, attrs item.Attributes) (item.Item, error) {
		gotID, gotAttrs = id, attrs
		if id == "missing" {
			return item.Item{}, item.ErrNotFound
		}
		return item.Item{ID: id, Attributes: attrs}, nil
	}}

	h := handlers.NewItemsHandler(f, discardLog)
	r := setupRouter(http.MethodPut, "/api/v1/:model/:id", h.Update)

	w := do(r, http.MethodPut, "/api/v1/food/abc", `{"name":"burger","calories":"400","type":"meat"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if gotID != "abc" || gotAttrs["name"] != "burger" {
		t.Fatalf("accessor got id=%q attrs=%v", gotID, gotAttrs)
	}

	w = do(r, http.MethodPut, "/api/v1/food/missing", `{"name":"burger"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestDeleteItemHandler(t *testing.T) {
	calls := 0
	f := &fakeItems{deleteFn: func(ctx context.Context, model, id string) error {
		calls++
		return nil
	}}

	h := handlers.NewItemsHandler(f, discardLog)
	r := setupRouter(http.MethodDelete, "/api/v1/:model/:id", h.Delete)

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodDelete, "/api/v1/food/abc", "")
		if w.Code != http.StatusOK {
			t.Fatalf("delete #%d: got status %d", i+1, w.Code)
		}
		if w.Body.String() != "{}" {
			t.Fatalf("delete #%d: body = %s, want {}", i+1, w.Body.String())
		}
	}

	if calls != 2 {
		t.Fatalf("accessor called %d times, want 2", calls)
	}
}
