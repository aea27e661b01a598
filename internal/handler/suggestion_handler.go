package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hitoshi/careerlink/internal/suggestion"
)

// limit未指定時のデフォルト件数と上限
const (
	defaultSuggestionLimit = 10
	maxSuggestionLimit     = 50
)

// SuggestionServiceInterface はサジェストハンドラーが必要とするサービスインターフェース。
type SuggestionServiceInterface interface {
	// Suggest は相互コネクション数の多い順にコネクション候補を返す。
	Suggest(ctx context.Context, userID string, limit int) ([]*suggestion.Candidate, error)
}

// SuggestionHandler はコネクション候補サジェストのHTTPハンドラー。
type SuggestionHandler struct {
	service      SuggestionServiceInterface
	defaultLimit int
}

// NewSuggestionHandler はSuggestionHandlerを生成する。
// defaultLimitが0以下の場合はdefaultSuggestionLimitを使う。
func NewSuggestionHandler(service SuggestionServiceInterface, defaultLimit int) *SuggestionHandler {
	if defaultLimit <= 0 {
		defaultLimit = defaultSuggestionLimit
	}
	return &SuggestionHandler{service: service, defaultLimit: defaultLimit}
}

// suggestionResponse はサジェスト候補1件のAPIレスポンス。
type suggestionResponse struct {
	Profile           profileResponse `json:"profile"`
	MutualConnections int             `json:"mutual_connections"`
}

// ListSuggestions はコネクション候補を取得する。
// GET /api/connections/suggestions?limit=N
func (h *SuggestionHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxSuggestionLimit {
		limit = maxSuggestionLimit
	}

	candidates, err := h.service.Suggest(r.Context(), userID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]suggestionResponse, len(candidates))
	for i, c := range candidates {
		items[i] = suggestionResponse{
			Profile:           toProfileResponse(c.Profile),
			MutualConnections: c.MutualConnections,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"suggestions": items,
	})
}
