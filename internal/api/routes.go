// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"errors"
	"net/http"
	"strings"

	"passport-map/internal/catalog"
	"passport-map/internal/category"
	"passport-map/internal/countrycode"
	"passport-map/internal/geoip"
	"passport-map/internal/logger"
	"passport-map/internal/session"
	"passport-map/internal/version"
)

// Deps：路由依赖；Locator 与 Reload 可为空
type Deps struct {
	Sessions   *session.Manager
	Catalog    *catalog.Holder
	Locator    *geoip.Locator
	Reload     func() error
	AdminToken string
}

type server struct {
	Deps
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	s := &server{Deps: d}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sessions", instrument("session_create", s.createSession))
	mux.HandleFunc("GET /sessions/{id}", instrument("session_get", s.getSession))
	mux.HandleFunc("DELETE /sessions/{id}", instrument("session_delete", s.deleteSession))
	mux.HandleFunc("POST /sessions/{id}/select", instrument("select", s.selectCountry))
	mux.HandleFunc("POST /sessions/{id}/click", instrument("click", s.click))
	mux.HandleFunc("POST /sessions/{id}/pan", instrument("pan", s.pan))
	mux.HandleFunc("POST /sessions/{id}/zoom", instrument("zoom", s.zoom))
	mux.HandleFunc("POST /sessions/{id}/search", instrument("search", s.search))
	mux.HandleFunc("POST /sessions/{id}/search/key", instrument("search_key", s.searchKey))
	mux.HandleFunc("POST /sessions/{id}/search/hover", instrument("search_hover", s.searchHover))
	mux.HandleFunc("POST /sessions/{id}/search/pick", instrument("search_pick", s.searchPick))
	mux.HandleFunc("GET /sessions/{id}/map.svg", instrument("map_svg", s.mapSVG))
	mux.HandleFunc("GET /sessions/{id}/map.png", instrument("map_png", s.mapPNG))
	mux.HandleFunc("GET /sessions/{id}/ws", s.stream)

	mux.HandleFunc("GET /countries", instrument("countries", s.countries))
	mux.HandleFunc("GET /countries/{code}", instrument("country", s.country))
	mux.HandleFunc("GET /locate", instrument("locate", s.locate))
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("POST /admin/reload", instrument("reload", s.reload))
	return mux
}

type countriesResponse struct {
	Counts    map[string]int    `json:"counts"`
	Countries []category.Record `json:"countries"`
}

// countries：?category= 过滤单一类别
func (s *server) countries(w http.ResponseWriter, r *http.Request) {
	c := s.Catalog.Load()
	recs := c.Listing()
	if q := r.URL.Query().Get("category"); q != "" {
		want := category.ParseCategory(q)
		kept := recs[:0:0]
		for _, rec := range recs {
			if rec.Category == want {
				kept = append(kept, rec)
			}
		}
		recs = kept
	}
	counts := map[string]int{}
	for k, n := range c.Counts() {
		counts[k.String()] = n
	}
	writeJSON(w, http.StatusOK, countriesResponse{Counts: counts, Countries: recs})
}

type countryResponse struct {
	category.Record
	Tooltip string `json:"tooltip"`
	Flag    string `json:"flag,omitempty"`
}

func (s *server) country(w http.ResponseWriter, r *http.Request) {
	code3, ok := normalizeCode(r.PathValue("code"))
	c := s.Catalog.Load()
	rec, found := c.Record(code3)
	if !ok || !found {
		writeError(w, http.StatusNotFound, "unknown country")
		return
	}
	writeJSON(w, http.StatusOK, countryResponse{Record: rec, Tooltip: c.Tooltip(code3), Flag: rec.FlagURL()})
}

func (s *server) locate(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	loc, err := s.Locator.Country(ip)
	switch {
	case errors.Is(err, geoip.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "geoip disabled")
		return
	case errors.Is(err, geoip.ErrBadIP):
		writeError(w, http.StatusBadRequest, "invalid ip")
		return
	case err != nil:
		logger.L().Debug("geoip_lookup_miss", "ip", ip, "err", err)
		writeError(w, http.StatusNotFound, "country not found")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	c := s.Catalog.Load()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"countries": len(c.Records),
		"built_at":  c.BuiltAt,
		"sessions":  s.Sessions.Len(),
		"commit":    version.Commit,
	})
}

// reload：管理口令校验后重建目录；未配置口令时一律拒绝
func (s *server) reload(w http.ResponseWriter, r *http.Request) {
	t := r.Header.Get("x-admin-token")
	if s.AdminToken == "" || t != s.AdminToken {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if s.Reload == nil {
		writeError(w, http.StatusNotImplemented, "reload not configured")
		return
	}
	if err := s.Reload(); err != nil {
		logger.L().Error("catalog_reload_error", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizeCode：接受 alpha-2 或 alpha-3，统一为大写 alpha-3
func normalizeCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch len(s) {
	case 3:
		return s, true
	case 2:
		return countrycode.Alpha3(s)
	}
	return "", false
}
