package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"passport-map/internal/mapview"
	"passport-map/internal/metrics"
	"passport-map/internal/screen"
	"passport-map/internal/search"
	"passport-map/internal/session"
)

type createResponse struct {
	ID       string          `json:"id"`
	Snapshot screen.Snapshot `json:"snapshot"`
}

type selectRequest struct {
	Code3 string `json:"code3"`
}

type selectResponse struct {
	Changed  bool   `json:"changed"`
	Selected string `json:"selected"`
}

type clickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type clickResponse struct {
	Code3 string `json:"code3,omitempty"`
	Hit   bool   `json:"hit"`
}

type panRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type zoomRequest struct {
	Factor float64 `json:"factor"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type indexRequest struct {
	Index int `json:"index"`
}

type searchResponse struct {
	Search   screen.SearchState `json:"search"`
	Selected bool               `json:"selected"`
}

// lookup：未知会话统一 404
func (s *server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return sess, true
}

// fail：会话在处理中被关闭时按 404 处理
func fail(w http.ResponseWriter, err error) {
	if errors.Is(err, screen.ErrClosed) {
		writeError(w, http.StatusNotFound, session.ErrUnknownSession.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Create()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: sess.ID, Snapshot: sess.Screen.Snapshot()})
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Screen.Snapshot())
}

func (s *server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.PathValue("id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectCountry：code3 为空表示清除选择
func (s *server) selectCountry(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "select", err)
		return
	}
	code3 := ""
	if strings.TrimSpace(req.Code3) != "" {
		c, ok := normalizeCode(req.Code3)
		if !ok {
			badRequest(w, "select", fmt.Errorf("bad country code %q", req.Code3))
			return
		}
		code3 = c
	}
	changed, err := sess.Screen.Select(code3, "api")
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Changed: changed, Selected: sess.Screen.Selected()})
}

func (s *server) click(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req clickRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "click", err)
		return
	}
	code3, hit, err := sess.Screen.Click(req.X, req.Y)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{Code3: code3, Hit: hit})
}

func (s *server) pan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req panRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "pan", err)
		return
	}
	st, err := sess.Screen.Pan(req.DX, req.DY)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) zoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req zoomRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "zoom", err)
		return
	}
	if req.Factor <= 0 {
		badRequest(w, "zoom", errors.New("factor must be positive"))
		return
	}
	st, err := sess.Screen.Zoom(req.Factor, req.X, req.Y)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *server) search(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "search", err)
		return
	}
	st, err := sess.Screen.SetQuery(req.Query)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Search: st})
}

func (s *server) searchKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req keyRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "search_key", err)
		return
	}
	k := search.Key(req.Key)
	switch k {
	case search.KeyDown, search.KeyUp, search.KeyEnter:
	default:
		badRequest(w, "search_key", fmt.Errorf("unsupported key %q", req.Key))
		return
	}
	st, selected, err := sess.Screen.Key(k)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Search: st, Selected: selected})
}

func (s *server) searchHover(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req indexRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "search_hover", err)
		return
	}
	st, err := sess.Screen.Hover(req.Index)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Search: st})
}

func (s *server) searchPick(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req indexRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "search_pick", err)
		return
	}
	st, selected, err := sess.Screen.Pick(req.Index)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Search: st, Selected: selected})
}

func (s *server) mapSVG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start := time.Now()
	shapes, view := sess.Screen.Render()
	w.Header().Set("content-type", "image/svg+xml")
	w.Header().Set("cache-control", "no-store")
	if err := mapview.WriteSVG(w, shapes, view); err != nil {
		return
	}
	metrics.RenderDurationMs.WithLabelValues("svg").Observe(float64(time.Since(start).Milliseconds()))
}

// mapPNG：?legend=0 关闭图例
func (s *server) mapPNG(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	start := time.Now()
	shapes, view := sess.Screen.Render()
	var legend []mapview.LegendItem
	if r.URL.Query().Get("legend") != "0" {
		legend = mapview.DefaultLegend()
	}
	w.Header().Set("content-type", "image/png")
	w.Header().Set("cache-control", "no-store")
	if err := mapview.WritePNG(w, shapes, view, legend); err != nil {
		return
	}
	metrics.RenderDurationMs.WithLabelValues("png").Observe(float64(time.Since(start).Milliseconds()))
}

// stream：websocket 推送；首条消息为完整快照
func (s *server) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	metrics.RequestsTotal.WithLabelValues("ws").Inc()
	sess.Hub.Serve(w, r, screen.Event{Type: "snapshot", Data: sess.Screen.Snapshot()})
}
