package list

import (
	"github.com/amakane-hakari/clist/internal/metrics"
)

type logLike interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config はリストの設定を表します。
type Config struct {
	NodeSize     int // ノードの目標バイト数。0/未指定なら DefaultNodeSize
	PairsPerNode int // 0 でなければ NodeSize からの算出より優先
	Workers      int // バルク操作の並列度。0/未指定なら GOMAXPROCS(MaxWorkers で頭打ち)
	MaxWorkers   int // Workers と SetWorkers の上限。0/未指定なら DefaultMaxWorkers
	ChunkSize    int // 0 でなければバルク操作をチャンクサイズ固定で分割する
	Logger       logLike
	Metrics      metrics.Interface
}

// Option はリストのオプションを設定する関数です。
type Option func(*Config)

// WithNodeSize はノードの目標バイト数を設定するオプションです。
func WithNodeSize(n int) Option {
	return func(c *Config) { c.NodeSize = n }
}

// WithPairsPerNode はノードあたりのペア数を直接設定するオプションです。
func WithPairsPerNode(n int) Option {
	return func(c *Config) { c.PairsPerNode = n }
}

// WithWorkers はバルク操作のワーカー数を設定するオプションです。
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithMaxWorkers はワーカー数の上限を設定するオプションです。
func WithMaxWorkers(n int) Option {
	return func(c *Config) { c.MaxWorkers = n }
}

// WithChunkSize はバルク操作をチャンクサイズ固定で分割するオプションです。
// チャンク数が MaxWorkers を超える場合はチャンクサイズを広げます。
func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// WithLogger はリストのロガーを設定するオプションです。
func WithLogger(l logLike) Option {
	return func(c *Config) { c.Logger = l }
}

// WithMetrics はリストのメトリクスを設定するオプションです。
func WithMetrics(m metrics.Interface) Option {
	return func(c *Config) { c.Metrics = m }
}
