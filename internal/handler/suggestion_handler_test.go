package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/careerlink/internal/model"
	"github.com/hitoshi/careerlink/internal/suggestion"
)

type mockSuggestionService struct {
	suggestFunc func(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error)
}

func (m *mockSuggestionService) Suggest(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error) {
	if m.suggestFunc != nil {
		return m.suggestFunc(ctx, userID, limit)
	}
	return nil, nil
}

var _ SuggestionServiceInterface = (*mockSuggestionService)(nil)

func suggestionTestRouter(service SuggestionServiceInterface) http.Handler {
	return suggestionTestRouterWithDefault(service, 0)
}

func suggestionTestRouterWithDefault(service SuggestionServiceInterface, defaultLimit int) http.Handler {
	r := chi.NewRouter()
	h := NewSuggestionHandler(service, defaultLimit)
	r.Get("/api/connections/suggestions", h.ListSuggestions)
	return r
}

func TestListSuggestions_ReturnsRankedCandidates(t *testing.T) {
	service := &mockSuggestionService{
		suggestFunc: func(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error) {
			return []*suggestion.Candidate{
				{Profile: model.ProfileSnapshot{ID: "user-b", FullName: "User B"}, MutualConnections: 4},
				{Profile: model.ProfileSnapshot{ID: "user-c", FullName: "User C"}, MutualConnections: 1},
			}, nil
		},
	}
	router := suggestionTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/connections/suggestions", "", "user-a"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body struct {
		Suggestions []suggestionResponse `json:"suggestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("レスポンスの解析に失敗しました: %v", err)
	}
	if len(body.Suggestions) != 2 {
		t.Fatalf("候補数が不正です: got %d", len(body.Suggestions))
	}
	if body.Suggestions[0].Profile.ID != "user-b" || body.Suggestions[0].MutualConnections != 4 {
		t.Errorf("先頭候補が不正です: %+v", body.Suggestions[0])
	}
}

func TestListSuggestions_LimitClamped(t *testing.T) {
	var gotLimit int
	service := &mockSuggestionService{
		suggestFunc: func(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	router := suggestionTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/connections/suggestions?limit=1000", "", "user-a"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotLimit != maxSuggestionLimit {
		t.Errorf("limit = %d, want %d", gotLimit, maxSuggestionLimit)
	}
}

func TestListSuggestions_DefaultLimit(t *testing.T) {
	var gotLimit int
	service := &mockSuggestionService{
		suggestFunc: func(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	router := suggestionTestRouter(service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/connections/suggestions", "", "user-a"))

	if gotLimit != defaultSuggestionLimit {
		t.Errorf("limit = %d, want %d", gotLimit, defaultSuggestionLimit)
	}
}

func TestListSuggestions_ConfiguredDefaultLimit(t *testing.T) {
	var gotLimit int
	service := &mockSuggestionService{
		suggestFunc: func(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	router := suggestionTestRouterWithDefault(service, 25)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/connections/suggestions", "", "user-a"))

	if gotLimit != 25 {
		t.Errorf("limit = %d, want 25", gotLimit)
	}
}

func TestListSuggestions_Unauthenticated(t *testing.T) {
	router := suggestionTestRouter(&mockSuggestionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/connections/suggestions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
