package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ilog "github.com/amakane-hakari/clist/internal/log"
)

// RouterOption はルーターのオプションを設定する関数です。
type RouterOption func(*routerConfig)

type routerConfig struct {
	logger   ilog.Logger
	gatherer prometheus.Gatherer
	health   *Health
	maxBody  int64
}

// WithRouterLogger はアクセスログと panic 記録に使うロガーを設定するオプションです。
func WithRouterLogger(l ilog.Logger) RouterOption {
	return func(c *routerConfig) { c.logger = l }
}

// WithMetricsGatherer は /metrics で公開する Gatherer を設定するオプションです。
func WithMetricsGatherer(g prometheus.Gatherer) RouterOption {
	return func(c *routerConfig) { c.gatherer = g }
}

// WithHealth は /health が参照する Health を設定するオプションです。
// 未指定ならルーター専用の Health を作ります(ドレインは切り替えられません)。
func WithHealth(h *Health) RouterOption {
	return func(c *routerConfig) { c.health = h }
}

// WithMaxBodyBytes はリクエストボディの上限を設定するオプションです。
func WithMaxBodyBytes(n int64) RouterOption {
	return func(c *routerConfig) { c.maxBody = n }
}

// NewRouter は st を公開する HTTP ハンドラを作成します。
func NewRouter(st *Store, opts ...RouterOption) http.Handler {
	cfg := routerConfig{maxBody: DefaultMaxBodyBytes}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealth()
	}
	if cfg.maxBody <= 0 {
		cfg.maxBody = DefaultMaxBodyBytes
	}
	h := &kvHandler{st: st, maxBody: cfg.maxBody}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware())
	r.Use(RecoverMiddleware(cfg.logger))
	r.Use(AccessLog(cfg.logger))

	r.Get("/health", cfg.health.handler(h))
	if cfg.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	h.mount(r)
	return r
}
