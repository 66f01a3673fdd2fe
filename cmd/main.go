// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"passport-map/internal/api"
	"passport-map/internal/camera"
	"passport-map/internal/catalog"
	"passport-map/internal/category"
	"passport-map/internal/config"
	"passport-map/internal/countryinfo"
	"passport-map/internal/dataset"
	"passport-map/internal/geoip"
	"passport-map/internal/logger"
	"passport-map/internal/mapview"
	"passport-map/internal/metrics"
	"passport-map/internal/middleware"
	"passport-map/internal/screen"
	"passport-map/internal/search"
	"passport-map/internal/session"
	"passport-map/internal/utils"
	"passport-map/internal/version"
)

func main() {
	cfg, err := config.Load()
	// 日志初始化
	l := logger.Setup()
	l.Debug("log_init_ok")
	if err != nil {
		l.Error("config_error", "err", err)
		os.Exit(1)
	}
	l.Debug("config_api_base", "base", cfg.APIBase)
	l.Debug("config_ui_dir", "dir", cfg.UIDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DatasetFromPG {
		db = openDatasetDB()
		if db != nil {
			defer db.Close()
		}
	} else {
		l.Info("db_disabled")
	}

	loader := &catalog.Loader{
		Sources:      sources(cfg.Datasets),
		GeometryPath: cfg.GeometryPath,
		DB:           db,
		Collator:     search.NewCollator(cfg.Locale),
	}
	cat, err := loader.Load(ctx)
	if err != nil {
		l.Error("catalog_error", "err", err)
		os.Exit(1)
	}
	cat.Search.LogSummary(l)
	holder := catalog.NewHolder(cat)

	// 背景：详情缓存两级；Redis 不可用时只用进程内 LRU
	var cache countryinfo.Cache = countryinfo.NewMemoryCache(512, cfg.CountryInfoTTL)
	if cfg.RedisEnabled {
		if rc := utils.OpenRedisFromEnv(ctx); rc != nil {
			defer rc.Close()
			cache = countryinfo.Tiered{Local: cache, Remote: countryinfo.NewRedisCache(rc, cfg.CountryInfoTTL)}
		}
	} else {
		l.Info("redis_disabled")
	}
	facts := countryinfo.NewClient(cfg.CountryInfoBase, cfg.CountryInfoTimeout, cfg.CountryInfoRetries, cache)

	locator, err := geoip.Open(cfg.GeoIPPath)
	switch {
	case errors.Is(err, geoip.ErrDisabled):
		l.Info("geoip_disabled")
	case err != nil:
		l.Error("geoip_open_error", "path", cfg.GeoIPPath, "err", err)
	default:
		defer locator.Close()
	}

	opts := screen.Options{
		View: mapview.View{
			Width:   cfg.ViewWidth,
			Height:  cfg.ViewHeight,
			MinZoom: cfg.MinZoom,
			MaxZoom: cfg.MaxZoom,
		},
		DefaultView:       camera.State{Center: cfg.DefaultCenter, Zoom: cfg.DefaultZoom},
		SelectZoom:        cfg.SelectZoom,
		AnimationDuration: cfg.AnimationDuration,
		FrameInterval:     cfg.FrameInterval,
		PanelTimeout:      cfg.CountryInfoTimeout,
		VisibleResults:    search.DefaultVisible,
	}
	sessions := session.NewManager(holder, facts, opts, cfg.SessionMax, cfg.SessionIdleTTL)
	sessions.StartJanitor(ctx, time.Minute)
	defer sessions.CloseAll()

	reload := func() error { return loader.Reload(ctx, holder) }
	dataset.NewWatcher(loader.Paths(), cfg.ReloadInterval, reload).Start(ctx)

	// 文档注释：构建路由
	// 背景：管理接口额外受来源白名单约束；其余接口对外开放
	apiMux := api.BuildRoutes(api.Deps{
		Sessions:   sessions,
		Catalog:    holder,
		Locator:    locator,
		Reload:     reload,
		AdminToken: cfg.AdminToken,
	})
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/admin/", middleware.ParseAllowlist(cfg.AdminAllow).Wrap(http.StripPrefix(cfg.APIBase, apiMux)))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))

	// NOTE: 向前端暴露 API 基础路径与图例，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		for _, c := range []category.Category{category.Diplomat, category.Normal, category.Special, category.Other} {
			_, _ = w.Write([]byte("window.__FILL_" + strings.ToUpper(c.String()) + "__='" + mapview.Palette[c] + "'\n"))
		}
		_, _ = w.Write([]byte("window.__FILL_SELECTED__='" + mapview.SelectedFill + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.RateLimit(handler, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		l.Info("shutdown_begin")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if cfg.TLSEnabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLSCert, cfg.TLSKey, "passport-map.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCert)
		err = s.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
	}
}

// openDatasetDB：连接失败时退回文件数据集
func openDatasetDB() *sql.DB {
	l := logger.L()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
		_ = db.Close()
		return nil
	}
	l.Info("db_ping_ok")
	if err := dataset.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		_ = db.Close()
		return nil
	}
	return db
}

func sources(in []config.DatasetSource) []dataset.Source {
	out := make([]dataset.Source, 0, len(in))
	for _, d := range in {
		out = append(out, dataset.Source{Category: category.ParseCategory(d.Category), Path: d.Path})
	}
	return out
}
