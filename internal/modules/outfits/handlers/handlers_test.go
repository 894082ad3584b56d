package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/monetization"
	"github.com/aristath/outfitter/internal/modules/outfits"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Generate(ctx context.Context, caller outfits.Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*outfits.Generated, error) {
	args := m.Called(ctx, caller, req)
	if progress != nil {
		progress("input-analyzer")
		progress("outfit-composer")
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outfits.Generated), args.Error(1)
}

func (m *mockService) Regenerate(ctx context.Context, caller outfits.Caller, req domain.OutfitRequest, _ domain.ProgressFunc) (*outfits.Generated, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outfits.Generated), args.Error(1)
}

func (m *mockService) History(ctx context.Context, userID string) ([]domain.GenerationLog, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.GenerationLog), args.Error(1)
}

func (m *mockService) Save(ctx context.Context, userID string, req outfits.SaveRequest) (*domain.SavedOutfit, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SavedOutfit), args.Error(1)
}

func (m *mockService) Saved(ctx context.Context, userID string) ([]domain.SavedOutfit, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SavedOutfit), args.Error(1)
}

func (m *mockService) Feedback(ctx context.Context, userID string, req outfits.FeedbackRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *mockService) StyleProfile(ctx context.Context, userID string) outfits.ProfileView {
	return m.Called(ctx, userID).Get(0).(outfits.ProfileView)
}

func setupRouter(service *mockService) (*chi.Mux, *Handler) {
	handler := NewHandler(service, []string{"*"}, zerolog.Nop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, handler
}

func sampleGenerated() *outfits.Generated {
	return &outfits.Generated{
		ID: "gen-1",
		Outfit: &domain.OutfitResult{
			Top:        domain.OutfitPiece{Brand: "Nike", Item: "Tee", Category: domain.CategoryTop, Price: 60, Tier: 1},
			TotalPrice: 420,
			Style:      "streetwear",
		},
	}
}

func postJSON(path, body string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestHandleGenerate(t *testing.T) {
	service := &mockService{}
	caller := outfits.Caller{UserID: "u1", Tier: monetization.TierPremium}
	service.On("Generate", mock.Anything, caller, domain.OutfitRequest{Style: "streetwear"}).Return(sampleGenerated(), nil)
	router, _ := setupRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/outfits/generate", `{"style":"streetwear"}`,
		map[string]string{HeaderUserID: "u1", HeaderTier: "Premium"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gen-1", w.Header().Get(HeaderGenerationID))
	var outfit domain.OutfitResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&outfit))
	assert.Equal(t, 420, outfit.TotalPrice)
	service.AssertExpectations(t)
}

func TestHandleGenerate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		reasons []string
	}{
		{"validation", domain.NewValidationError("style", "Style is required"), http.StatusBadRequest, "Style is required", nil},
		{
			"composition",
			&domain.CompositionError{Message: "Could not compose a valid branded outfit", Reasons: []string{"Budget constraints violated"}},
			http.StatusUnprocessableEntity, "Could not compose a valid branded outfit", []string{"Budget constraints violated"},
		},
		{"entitlement", monetization.ErrLuxuryRequiresPremium, http.StatusForbidden, "luxury-only mode requires premium subscription", nil},
		{"internal", assert.AnError, http.StatusInternalServerError, "internal error", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockService{}
			service.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)
			router, _ := setupRouter(service)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, postJSON("/outfits/generate", `{"style":"goth"}`, nil))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Error   string   `json:"error"`
				Reasons []string `json:"reasons"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.reasons, body.Reasons)
		})
	}
}

func TestHandleGenerate_BadBody(t *testing.T) {
	router, _ := setupRouter(&mockService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/outfits/generate", `{"style":`, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRegenerate_RateLimited(t *testing.T) {
	service := &mockService{}
	service.On("Regenerate", mock.Anything, mock.Anything, mock.Anything).Return(sampleGenerated(), nil)
	router, _ := setupRouter(service)

	headers := map[string]string{HeaderUserID: "u1"}
	for i := 0; i < RegenerateLimit; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, postJSON("/outfits/regenerate", `{"style":"goth"}`, headers))
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/outfits/regenerate", `{"style":"goth"}`, headers))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	service.AssertNumberOfCalls(t, "Regenerate", RegenerateLimit)
}

func TestHistoryRoutes_RequireUser(t *testing.T) {
	router, _ := setupRouter(&mockService{})

	for _, path := range []string{"/outfits/history", "/outfits/saved", "/outfits/style-profile"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHandleHistory(t *testing.T) {
	service := &mockService{}
	service.On("History", mock.Anything, "u1").Return([]domain.GenerationLog{{ID: "g1", Style: "goth"}}, nil)
	router, _ := setupRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/outfits/history", nil)
	req.Header.Set(HeaderUserID, "u1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		History []domain.GenerationLog `json:"history"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.History, 1)
	assert.Equal(t, "goth", body.History[0].Style)
}

func TestHandleSaveAndFeedback(t *testing.T) {
	service := &mockService{}
	service.On("Save", mock.Anything, "u1", outfits.SaveRequest{GenerationID: "g1", Name: "Friday"}).
		Return(&domain.SavedOutfit{ID: "s1", Name: "Friday"}, nil)
	service.On("Feedback", mock.Anything, "u1", outfits.FeedbackRequest{Rating: 9}).
		Return(domain.NewValidationError("rating", "rating must be between 1 and 5"))
	router, _ := setupRouter(service)
	headers := map[string]string{HeaderUserID: "u1"}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/outfits/save", `{"generationId":"g1","name":"Friday"}`, headers))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, postJSON("/outfits/feedback", `{"rating":9}`, headers))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "rating must be between 1 and 5")
}

func TestHandleStyleProfile(t *testing.T) {
	service := &mockService{}
	service.On("StyleProfile", mock.Anything, "u1").Return(outfits.ProfileView{
		StyleProfile: &domain.StyleProfile{UserID: "u1", GenerationCount: 4},
		Adaptive:     domain.PersonalizationSignals{AdaptiveIndex: 58},
	})
	router, _ := setupRouter(service)

	req := httptest.NewRequest(http.MethodGet, "/outfits/style-profile", nil)
	req.Header.Set(HeaderUserID, "u1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, float64(4), body["generation_count"])
	assert.Equal(t, float64(58), body["adaptive"].(map[string]interface{})["adaptiveIndex"])
}

func dialStream(t *testing.T, router http.Handler, userID string) (*websocket.Conn, context.Context) {
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	header := http.Header{}
	if userID != "" {
		header.Set(HeaderUserID, userID)
	}
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/outfits/stream"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn, ctx
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func TestHandleStream(t *testing.T) {
	service := &mockService{}
	service.On("Generate", mock.Anything, mock.Anything, domain.OutfitRequest{Style: "streetwear"}).Return(sampleGenerated(), nil)
	router, _ := setupRouter(service)
	conn, ctx := dialStream(t, router, "u1")

	var msg received
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, EventStatus, msg.Event)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{
		"event": "generate",
		"data":  map[string]string{"style": "streetwear"},
	}))

	var events []string
	for {
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		events = append(events, msg.Event)
		if msg.Event == EventResult {
			break
		}
	}
	assert.Equal(t, []string{EventPipeline, EventPipeline, EventResult}, events)

	var result struct {
		GenerationID string              `json:"generationId"`
		Outfit       domain.OutfitResult `json:"outfit"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &result))
	assert.Equal(t, "gen-1", result.GenerationID)
	assert.Equal(t, 420, result.Outfit.TotalPrice)
}

func TestHandleStream_CompositionError(t *testing.T) {
	service := &mockService{}
	service.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &domain.CompositionError{Message: "Could not compose a valid branded outfit", Reasons: []string{"Budget constraints violated"}})
	router, _ := setupRouter(service)
	conn, ctx := dialStream(t, router, "u1")

	var msg received
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.NoError(t, wsjson.Write(ctx, conn, map[string]interface{}{"event": "generate", "data": map[string]string{"style": "goth"}}))

	for msg.Event != EventError {
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
	}
	var body struct {
		Message string   `json:"message"`
		Reasons []string `json:"reasons"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "Could not compose a valid branded outfit", body.Message)
	assert.Equal(t, []string{"Budget constraints violated"}, body.Reasons)
}

func TestHandleStream_Unauthorized(t *testing.T) {
	router, _ := setupRouter(&mockService{})
	conn, ctx := dialStream(t, router, "")

	var msg received
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, EventError, msg.Event)
	assert.True(t, bytes.Contains(msg.Data, []byte("Unauthorized")))

	_, _, err := conn.Read(ctx)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}
