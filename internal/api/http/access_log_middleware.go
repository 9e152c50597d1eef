package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	ilog "github.com/amakane-hakari/clist/internal/log"
)

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// accessInfo はハンドラがアクセスログに残す情報です。
type accessInfo struct {
	items int    // バルク操作の件数
	code  string // AppError のコード
	cause error  // AppError に変換する前のエラー
}

type accessInfoKey struct{}

func accessInfoFrom(ctx context.Context) *accessInfo {
	ai, _ := ctx.Value(accessInfoKey{}).(*accessInfo)
	return ai
}

// noteItems はバルク操作の件数をアクセスログに記録します。
func noteItems(r *http.Request, n int) {
	if ai := accessInfoFrom(r.Context()); ai != nil {
		ai.items = n
	}
}

// noteError はエラーコードと元のエラーをアクセスログに記録します。
func noteError(r *http.Request, app *AppError, cause error) {
	if ai := accessInfoFrom(r.Context()); ai != nil {
		ai.code = app.Code
		if cause != app {
			ai.cause = cause
		}
	}
}

// AccessLog はリクエストのアクセスログを記録するミドルウェアです。
// 5xx(ノード確保失敗の 507 を含む)は Error レベル、それ以外は Info レベルで記録します。
func AccessLog(l ilog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			ai := &accessInfo{}

			next.ServeHTTP(lrw, r.WithContext(context.WithValue(r.Context(), accessInfoKey{}, ai)))

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", lrw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", lrw.size,
				"remote", remoteIP(r),
				"request_id", GetRequestID(r.Context()),
			}
			if ai.items > 0 {
				args = append(args, "items", ai.items)
			}
			if ai.code != "" {
				args = append(args, "code", ai.code)
			}
			if ai.cause != nil {
				args = append(args, "err", ai.cause.Error())
			}
			if lrw.status >= http.StatusInternalServerError {
				l.Error("access.log", args...)
				return
			}
			l.Info("access.log", args...)
		})
	}
}

// remoteIP は X-Forwarded-For の先頭(元のクライアント)か RemoteAddr を返します。
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}
