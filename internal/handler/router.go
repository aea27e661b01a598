package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/careerlink/internal/middleware"
)

// HealthChecker は/healthエンドポイントの死活確認インターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 死活確認。nilの場合は常にokを返す。
	HealthChecker HealthChecker

	// Prometheusスクレイプ用ハンドラー。nilの場合は/metricsを公開しない。
	MetricsHandler http.Handler

	// サービス
	ConnectionService   ConnectionServiceInterface
	SuggestionService   SuggestionServiceInterface
	NotificationService NotificationServiceInterface

	// limit未指定時のサジェスト件数。0以下の場合はハンドラーのデフォルトを使う。
	SuggestionDefaultLimit int
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → SessionMiddleware → RateLimit(General)
//
// /health は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	connHandler := NewConnectionHandler(deps.ConnectionService)
	suggHandler := NewSuggestionHandler(deps.SuggestionService, deps.SuggestionDefaultLimit)
	notifHandler := NewNotificationHandler(deps.NotificationService)

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// コネクション管理
		r.Route("/api/connections", func(r chi.Router) {
			r.Get("/", connHandler.ListConnections)
			r.Get("/pending", connHandler.ListPending)
			r.Get("/suggestions", suggHandler.ListSuggestions)
			r.Get("/status/{userId}", connHandler.GetStatus)

			// POST /api/connections/request - 申請（専用レート制限を追加）
			r.With(deps.RateLimiter.ConnectionRequestMiddleware()).Post("/request", connHandler.RequestConnection)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/respond", connHandler.RespondConnection)
				r.Delete("/", connHandler.RemoveConnection)
			})
		})

		// 通知受信トレイ
		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", notifHandler.ListNotifications)
			r.Post("/read-all", notifHandler.MarkAllNotificationsRead)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/read", notifHandler.MarkNotificationRead)
				r.Delete("/", notifHandler.DeleteNotification)
			})
		})
	})

	return r
}
