// 包 config：集中读取 .env 与环境变量，生成进程级配置；未设置或解析失败即回退默认值
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb"
)

// DatasetSource：一个分类数据集（类别 + 文件路径），按配置顺序处理
type DatasetSource struct {
	Category string
	Path     string
}

// Config：服务运行所需的全部参数
type Config struct {
	Addr    string
	APIBase string
	UIDir   string

	Datasets       []DatasetSource
	DatasetFromPG  bool
	GeometryPath   string
	ReloadInterval time.Duration

	DefaultCenter     orb.Point
	DefaultZoom       float64
	SelectZoom        float64
	MinZoom           float64
	MaxZoom           float64
	AnimationDuration time.Duration
	FrameInterval     time.Duration
	ViewWidth         int
	ViewHeight        int

	Locale string

	CountryInfoBase    string
	CountryInfoTimeout time.Duration
	CountryInfoTTL     time.Duration
	CountryInfoRetries int

	SessionMax     int
	SessionIdleTTL time.Duration

	RedisEnabled bool
	GeoIPPath    string

	RateLimitEnabled bool
	RateLimitQPS     int

	TLSEnabled bool
	TLSCert    string
	TLSKey     string

	AdminToken string
	AdminAllow string
}

// DefaultDatasets：未配置 PASSMAP_DATASETS 时的三类数据集（优先级高者在前）
func DefaultDatasets() []DatasetSource {
	return []DatasetSource{
		{Category: "diplomat", Path: filepath.Join("data", "diplomat.json")},
		{Category: "normal", Path: filepath.Join("data", "normal.json")},
		{Category: "special", Path: filepath.Join("data", "special.json")},
	}
}

// Load：加载 .env 后读取环境变量
// 约束：数值解析失败时回退到默认值，不中断启动；只有结构性错误（如数据集列表格式）返回 error
func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	return FromEnv()
}

// FromEnv：仅读取环境变量（测试中可直接使用）
func FromEnv() (*Config, error) {
	c := &Config{
		Addr:               str("ADDR", ":8080"),
		APIBase:            str("API_BASE", "/api"),
		UIDir:              str("UI_DIST", filepath.Join("ui", "dist")),
		DatasetFromPG:      boolean("DATASET_FROM_PG", false),
		GeometryPath:       str("PASSMAP_GEOMETRY_PATH", filepath.Join("data", "world.geojson")),
		ReloadInterval:     seconds("PASSMAP_RELOAD_INTERVAL_S", 0),
		DefaultZoom:        float("PASSMAP_DEFAULT_ZOOM", 1),
		SelectZoom:         float("PASSMAP_SELECT_ZOOM", 4),
		MinZoom:            float("PASSMAP_MIN_ZOOM", 1),
		MaxZoom:            float("PASSMAP_MAX_ZOOM", 8),
		AnimationDuration:  millis("PASSMAP_ANIMATION_MS", 800),
		FrameInterval:      millis("PASSMAP_FRAME_MS", 16),
		ViewWidth:          integer("PASSMAP_VIEW_WIDTH", 960),
		ViewHeight:         integer("PASSMAP_VIEW_HEIGHT", 540),
		Locale:             str("PASSMAP_LOCALE", ""),
		CountryInfoBase:    strings.TrimRight(str("COUNTRY_INFO_BASE", "https://restcountries.com/v3.1"), "/"),
		CountryInfoTimeout: millis("COUNTRY_INFO_TIMEOUT_MS", 5000),
		CountryInfoTTL:     seconds("COUNTRY_INFO_CACHE_TTL_S", 24*3600),
		CountryInfoRetries: integer("COUNTRY_INFO_RETRIES", 2),
		SessionMax:         integer("PASSMAP_SESSION_MAX", 1000),
		SessionIdleTTL:     seconds("PASSMAP_SESSION_IDLE_S", 1800),
		RedisEnabled:       boolean("REDIS_ENABLED", false),
		GeoIPPath:          os.Getenv("GEOIP_PATH"),
		RateLimitEnabled:   boolean("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:       integer("RATE_LIMIT_QPS", 200),
		TLSEnabled:         boolean("TLS_ENABLE", false),
		TLSCert:            str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKey:             str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		AdminAllow:         os.Getenv("ADMIN_ALLOW"),
	}
	center, err := parsePoint(str("PASSMAP_DEFAULT_CENTER", "0,20"))
	if err != nil {
		return nil, fmt.Errorf("PASSMAP_DEFAULT_CENTER: %w", err)
	}
	c.DefaultCenter = center
	if s := os.Getenv("PASSMAP_DATASETS"); s != "" {
		ds, err := ParseDatasets(s)
		if err != nil {
			return nil, fmt.Errorf("PASSMAP_DATASETS: %w", err)
		}
		c.Datasets = ds
	} else {
		c.Datasets = DefaultDatasets()
	}
	if c.MinZoom <= 0 {
		c.MinZoom = 1
	}
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	return c, nil
}

// ParseDatasets：解析 "diplomat=a.json,normal=b.json" 为有序数据集列表
func ParseDatasets(s string) ([]DatasetSource, error) {
	var out []DatasetSource
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cat, path, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(cat) == "" || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bad dataset entry %q", part)
		}
		out = append(out, DatasetSource{Category: strings.TrimSpace(cat), Path: strings.TrimSpace(path)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no datasets")
	}
	return out, nil
}

func parsePoint(s string) (orb.Point, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("want lon,lat, got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return orb.Point{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{lon, lat}, nil
}

func str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func float(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func millis(key string, def int) time.Duration {
	return time.Duration(integer(key, def)) * time.Millisecond
}

func seconds(key string, def int) time.Duration {
	return time.Duration(integer(key, def)) * time.Second
}
