// Package handler はHTTP APIのハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/careerlink/internal/connection"
	"github.com/hitoshi/careerlink/internal/middleware"
	"github.com/hitoshi/careerlink/internal/model"
)

// ページネーションのデフォルト値と上限
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ConnectionServiceInterface はコネクションハンドラーが必要とするサービスインターフェース。
type ConnectionServiceInterface interface {
	// Request はコネクション申請を作成する。対象はID解決を通してから扱われる。
	Request(ctx context.Context, actingUserID, targetIdentifier, message string) (*connection.View, error)
	// Respond は回答待ちのリクエストを承認または辞退する。
	Respond(ctx context.Context, actingUserID, connectionID, action string) (*model.Connection, error)
	// Remove はコネクションを削除する。
	Remove(ctx context.Context, actingUserID, connectionID string) error
	// Status は自分と相手の関係を問い合わせる。
	Status(ctx context.Context, actingUserID, otherIdentifier string) (*connection.StatusResult, error)
	// ListConnections は承認済みコネクションを取得する。
	ListConnections(ctx context.Context, actingUserID string, offset, limit int) (*connection.ListResult, error)
	// ListPending は回答待ちのリクエストを取得する。
	ListPending(ctx context.Context, actingUserID, direction string, offset, limit int) ([]*connection.View, error)
}

// ConnectionHandler はコネクション管理のHTTPハンドラー。
type ConnectionHandler struct {
	service ConnectionServiceInterface
}

// NewConnectionHandler はConnectionHandlerを生成する。
func NewConnectionHandler(service ConnectionServiceInterface) *ConnectionHandler {
	return &ConnectionHandler{service: service}
}

// requestConnectionRequest はコネクション申請リクエストのボディ。
type requestConnectionRequest struct {
	TargetID string `json:"target_id"`
	Message  string `json:"message"`
}

// respondConnectionRequest は回答リクエストのボディ。
type respondConnectionRequest struct {
	Action string `json:"action"`
}

// profileResponse は相手側プロフィールのAPIレスポンス。
type profileResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
	Headline     string `json:"headline,omitempty"`
	CompanyName  string `json:"company_name,omitempty"`
	Location     string `json:"location,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// connectionResponse はコネクション1件のAPIレスポンス。
type connectionResponse struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Message     string          `json:"message,omitempty"`
	IsInitiator bool            `json:"is_initiator"`
	Peer        profileResponse `json:"peer"`
	CreatedAt   time.Time       `json:"created_at"`
	AcceptedAt  *time.Time      `json:"accepted_at,omitempty"`
}

// connectionListResponse はコネクション一覧のAPIレスポンス。
type connectionListResponse struct {
	Connections []connectionResponse `json:"connections"`
	Total       int                  `json:"total"`
	Offset      int                  `json:"offset"`
	Limit       int                  `json:"limit"`
}

// statusResponse は関係問い合わせのAPIレスポンス。
type statusResponse struct {
	Status       string `json:"status"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// RequestConnection はコネクション申請を処理する。
// POST /api/connections/request
func (h *ConnectionHandler) RequestConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req requestConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.TargetID == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "target_idが空です。",
			Category: "validation",
			Action:   "対象ユーザーのIDを指定してください。",
		})
		return
	}

	view, err := h.service.Request(r.Context(), userID, req.TargetID, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toConnectionResponse(view))
}

// RespondConnection は回答待ちリクエストへの回答を処理する。
// POST /api/connections/:id/respond
func (h *ConnectionHandler) RespondConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	connectionID := chi.URLParam(r, "id")

	var req respondConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	conn, err := h.service.Respond(r.Context(), userID, connectionID, req.Action)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":          conn.ID,
		"status":      string(conn.Status),
		"accepted_at": conn.AcceptedAt,
	})
}

// RemoveConnection はコネクションの削除を処理する。
// DELETE /api/connections/:id
func (h *ConnectionHandler) RemoveConnection(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	connectionID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, connectionID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatus は相手との関係を問い合わせる。
// GET /api/connections/status/:userId
func (h *ConnectionHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	otherID := chi.URLParam(r, "userId")

	result, err := h.service.Status(r.Context(), userID, otherID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := statusResponse{Status: string(result.Status)}
	if result.Connection != nil {
		resp.ConnectionID = result.Connection.ID
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListConnections は承認済みコネクション一覧を取得する。
// GET /api/connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	offset, limit := parsePagination(r)

	result, err := h.service.ListConnections(r.Context(), userID, offset, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := connectionListResponse{
		Connections: make([]connectionResponse, len(result.Items)),
		Total:       result.Total,
		Offset:      offset,
		Limit:       limit,
	}
	for i, view := range result.Items {
		resp.Connections[i] = toConnectionResponse(view)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListPending は回答待ちリクエスト一覧を取得する。
// GET /api/connections/pending?direction=received|sent
func (h *ConnectionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	direction := r.URL.Query().Get("direction")
	if direction == "" {
		direction = connection.DirectionReceived
	}
	offset, limit := parsePagination(r)

	views, err := h.service.ListPending(r.Context(), userID, direction, offset, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]connectionResponse, len(views))
	for i, view := range views {
		items[i] = toConnectionResponse(view)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"requests":  items,
		"direction": direction,
	})
}

// --- ヘルパー関数 ---

// toConnectionResponse はconnection.ViewからAPIレスポンスに変換する。
func toConnectionResponse(view *connection.View) connectionResponse {
	return connectionResponse{
		ID:          view.Connection.ID,
		Status:      string(view.Connection.Status),
		Message:     view.Connection.Message,
		IsInitiator: view.IsInitiator,
		Peer:        toProfileResponse(view.Peer),
		CreatedAt:   view.Connection.CreatedAt,
		AcceptedAt:  view.Connection.AcceptedAt,
	}
}

// toProfileResponse はmodel.ProfileSnapshotからAPIレスポンスに変換する。
func toProfileResponse(p model.ProfileSnapshot) profileResponse {
	return profileResponse{
		ID:           p.ID,
		FullName:     p.FullName,
		Role:         string(p.Role),
		Headline:     p.Headline,
		CompanyName:  p.CompanyName,
		Location:     p.Location,
		ProfileImage: p.ProfileImage,
	}
}

// requireUserID はコンテキストから認証済みユーザーIDを取り出す。
// 取り出せない場合は401を書き込んでfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "認証が必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return "", false
	}
	return userID, true
}

// parsePagination はoffset/limitクエリパラメータを解析する。
// 不正な値や範囲外の値はデフォルトに丸める。
func parsePagination(r *http.Request) (offset, limit int) {
	offset = 0
	limit = defaultPageSize

	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return offset, limit
}

// writeInvalidRequestBody はボディ解析失敗の400レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はエラーコードをHTTPステータスコードへ対応付ける。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeIdentityNotFound, model.ErrCodeConnectionNotFound, model.ErrCodeNotificationNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidTarget, model.ErrCodeInvalidDirection, model.ErrCodeInvalidAction:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeAlreadyRelated, model.ErrCodeAlreadyResolved:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
