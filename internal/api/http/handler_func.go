package http

import "net/http"

// HandlerFunc はエラーを返す HTTP ハンドラです。
// 返されたエラーは AppError に変換して書き出し、コードと元のエラーをアクセスログに渡します。
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h(w, r)
	if err == nil {
		return
	}
	app := FromStdError(err)
	noteError(r, app, err)
	writeJSON(w, app.Status, errorEnvelope{Err: app})
}
