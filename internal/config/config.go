package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアドライバ
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreSupabase = "supabase"
)

// セル方式
const (
	CellSchemeH3       = "h3"
	CellSchemeQuadtile = "quadtile"
)

// Config アプリケーション設定。Load後は変更しない
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Supabase SupabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	Cluster  ClusterConfig
}

// DatabaseConfig PostgreSQL接続設定
type DatabaseConfig struct {
	URL           string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxRetries    int
	RetryInterval time.Duration
}

// ServerConfig HTTPサーバー設定
type ServerConfig struct {
	Host            string
	Port            int
	GinMode         string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// SupabaseConfig Supabase接続設定（IMAGE_STORE=supabase 時のみ使用）
type SupabaseConfig struct {
	URL     string
	AnonKey string
}

// AuthConfig JWT検証設定（空ならトークン検証を行わない）
type AuthConfig struct {
	JWTSecret string
}

// LogConfig ログ出力設定
type LogConfig struct {
	Level  string
	Format string
}

// ClusterConfig クラスタリングエンジン設定
type ClusterConfig struct {
	MarkerStore    string
	ImageStore     string // 未指定ならMarkerStoreと同じ
	MemorySeedFile string // メモリストアに読み込むJSON
	CellScheme     string
	Workers        int
	ImageFetchCap  int // 0なら並行数の上限なし
	DefaultLimit   int
	MaxLimit       int
}

// UsesStore マーカーか画像のどちらかが指定ストアを使うか
func (c ClusterConfig) UsesStore(store string) bool {
	return c.MarkerStore == store || c.ImageStore == store
}

// Load env.local, .env, 環境変数の順に設定を読み込む
func Load() (*Config, error) {
	// どちらのファイルも無くてよい
	_ = godotenv.Load("env.local")
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			Host:          getString("DB_HOST", "localhost"),
			Port:          getInt("DB_PORT", 5432),
			User:          getString("DB_USER", "postgres"),
			Password:      getString("DB_PASSWORD", "123"),
			Name:          getString("DB_NAME", "bigpicture"),
			SSLMode:       getString("DB_SSLMODE", "disable"),
			MaxOpenConns:  getInt("DB_MAX_OPEN_CONNS", 5),
			MaxRetries:    getInt("DB_CONNECT_RETRIES", 5),
			RetryInterval: getDuration("DB_RETRY_INTERVAL", time.Second),
		},
		Server: ServerConfig{
			Host:            getString("SERVER_HOST", "0.0.0.0"),
			Port:            getInt("SERVER_PORT", 5500),
			GinMode:         getString("GIN_MODE", "release"),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Supabase: SupabaseConfig{
			URL:     os.Getenv("SUPABASE_URL"),
			AnonKey: os.Getenv("SUPABASE_ANON_KEY"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
		},
		Log: LogConfig{
			Level:  getString("LOG_LEVEL", "info"),
			Format: getString("LOG_FORMAT", "json"),
		},
		Cluster: ClusterConfig{
			MarkerStore:    strings.ToLower(getString("MARKER_STORE", StorePostgres)),
			ImageStore:     strings.ToLower(getString("IMAGE_STORE", "")),
			MemorySeedFile: os.Getenv("MEMORY_SEED_FILE"),
			CellScheme:     strings.ToLower(getString("CLUSTER_CELL_SCHEME", CellSchemeH3)),
			Workers:        getInt("CLUSTER_WORKERS", runtime.GOMAXPROCS(0)),
			ImageFetchCap:  getInt("IMAGE_FETCH_CONCURRENCY", 0),
			DefaultLimit:   getInt("MARKER_DEFAULT_LIMIT", 1000),
			MaxLimit:       getInt("MARKER_MAX_LIMIT", 5000),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("設定の検証失敗: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cluster.MarkerStore {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("MARKER_STORE が不正です: %q", c.Cluster.MarkerStore)
	}
	if c.Cluster.ImageStore == "" {
		c.Cluster.ImageStore = c.Cluster.MarkerStore
	}
	switch c.Cluster.ImageStore {
	case StorePostgres, StoreSupabase, StoreMemory:
	default:
		return fmt.Errorf("IMAGE_STORE が不正です: %q", c.Cluster.ImageStore)
	}
	if c.Cluster.ImageStore == StoreSupabase && (c.Supabase.URL == "" || c.Supabase.AnonKey == "") {
		return fmt.Errorf("IMAGE_STORE=supabase には SUPABASE_URL と SUPABASE_ANON_KEY が必要です")
	}
	if c.Cluster.MemorySeedFile != "" && !c.Cluster.UsesStore(StoreMemory) {
		return fmt.Errorf("MEMORY_SEED_FILE は MARKER_STORE か IMAGE_STORE が memory の時のみ指定できます")
	}
	switch c.Cluster.CellScheme {
	case CellSchemeH3, CellSchemeQuadtile:
	default:
		return fmt.Errorf("CLUSTER_CELL_SCHEME が不正です: %q", c.Cluster.CellScheme)
	}
	if c.Cluster.Workers <= 0 {
		c.Cluster.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Cluster.ImageFetchCap < 0 {
		c.Cluster.ImageFetchCap = 0
	}
	return nil
}

// ServerAddress listen用アドレス
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN PostgreSQL接続文字列（DATABASE_URL優先）
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func getString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
