// 包 screen：一个地图界面的状态所有者
// 选择状态只在这里写入；地图点击与搜索回车都只是“请求”，由 Screen 提交后驱动相机与详情面板
package screen

import (
	"errors"
	"sync"
	"time"

	"passport-map/internal/camera"
	"passport-map/internal/catalog"
	"passport-map/internal/logger"
	"passport-map/internal/mapview"
	"passport-map/internal/metrics"
	"passport-map/internal/panel"
	"passport-map/internal/search"
)

var ErrClosed = errors.New("screen closed")

// Options：视图与动画参数
type Options struct {
	View              mapview.View
	DefaultView       camera.State
	SelectZoom        float64
	AnimationDuration time.Duration
	FrameInterval     time.Duration
	PanelTimeout      time.Duration
	VisibleResults    int
	Now               func() time.Time
}

// Event：推送给客户端的状态变化
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	EventCamera    = "camera"
	EventSelection = "selection"
	EventPanel     = "panel"
	EventSearch    = "search"
)

// CameraFrame：相机事件负载
type CameraFrame struct {
	camera.State
	Animating bool `json:"animating"`
}

// SearchState：搜索框快照
type SearchState struct {
	Query       string         `json:"query"`
	Results     []search.Entry `json:"results"`
	Active      int            `json:"active"`
	WindowStart int            `json:"window_start"`
	WindowEnd   int            `json:"window_end"`
	Suggestions []search.Entry `json:"suggestions,omitempty"`
}

// Snapshot：整体状态
type Snapshot struct {
	Selected  string       `json:"selected"`
	Camera    camera.State `json:"camera"`
	Target    camera.State `json:"target"`
	Animating bool         `json:"animating"`
	Panel     panel.State  `json:"panel"`
	Search    SearchState  `json:"search"`
}

// Screen：并发安全；所有操作在同一把锁内串行执行
// 锁顺序：Screen → Controller / Panel；发布回调不得回到 Screen
type Screen struct {
	mu      sync.Mutex
	opts    Options
	holder  *catalog.Holder
	cat     *catalog.Catalog
	publish func(Event)

	selected string
	cam      *camera.Controller
	driver   *camera.Driver
	panel    *panel.Panel
	nav      *search.Navigator
	closed   bool
}

// New：holder 必须已持有目录；publish 可为空
func New(holder *catalog.Holder, fetcher panel.Fetcher, opts Options, publish func(Event)) *Screen {
	if publish == nil {
		publish = func(Event) {}
	}
	s := &Screen{opts: opts, holder: holder, cat: holder.Load(), publish: publish}
	s.opts.DefaultView = opts.View.Clamp(opts.DefaultView)
	s.cam = camera.NewController(s.opts.DefaultView, opts.Now)
	s.driver = camera.NewDriver(s.cam, opts.FrameInterval, func(st camera.State, animating bool) {
		publish(Event{Type: EventCamera, Data: CameraFrame{State: st, Animating: animating}})
	})
	s.panel = panel.New(fetcher, opts.PanelTimeout, func(ps panel.State) {
		publish(Event{Type: EventPanel, Data: ps})
	})
	s.nav = search.NewNavigator(s.cat.Search, opts.VisibleResults)
	return s
}

// Select：提交选择；code3 为空表示清除。未变化时不做任何事并返回 false
func (s *Screen) Select(code3, source string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	s.refreshLocked()
	return s.selectLocked(code3, source), nil
}

func (s *Screen) selectLocked(code3, source string) bool {
	if code3 == s.selected {
		return false
	}
	s.selected = code3
	if code3 == "" {
		source = "clear"
	}
	metrics.SelectionsTotal.WithLabelValues(source).Inc()

	target, ok := s.opts.DefaultView, true
	if code3 != "" {
		var c camera.State
		c.Center, ok = s.cat.Geometry.CentroidOf(code3)
		c.Zoom = s.opts.SelectZoom
		target = s.opts.View.Clamp(c)
	}
	animated := false
	if ok && s.cam.AnimateTo(target, s.opts.AnimationDuration) {
		animated = true
		s.driver.Kick()
	}
	s.panel.Load(code3)
	logger.L().Debug("selection_change", "code3", code3, "source", source, "animated", animated)
	s.publish(Event{Type: EventSelection, Data: map[string]any{"code3": code3, "source": source}})
	return true
}

// Click：地图点击；只有可交互要素会改变选择
func (s *Screen) Click(x, y float64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	s.refreshLocked()
	code3, ok := s.opts.View.Click(x, y, s.cam.Current(), s.cat.Geometry, s.cat.Categories)
	if !ok {
		return "", false, nil
	}
	s.selectLocked(code3, "click")
	return code3, true, nil
}

// Pan：手动拖拽直接写相机并终止选择动画
func (s *Screen) Pan(dx, dy float64) (camera.State, error) {
	return s.manual(func(cur camera.State) camera.State { return s.opts.View.Pan(cur, dx, dy) })
}

// Zoom：以 (x, y) 为锚的手动缩放
func (s *Screen) Zoom(factor, x, y float64) (camera.State, error) {
	return s.manual(func(cur camera.State) camera.State { return s.opts.View.ZoomAt(cur, factor, x, y) })
}

func (s *Screen) manual(f func(camera.State) camera.State) (camera.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return camera.State{}, ErrClosed
	}
	next := f(s.cam.Current())
	s.cam.Jump(next)
	s.publish(Event{Type: EventCamera, Data: CameraFrame{State: next}})
	return next, nil
}

// SetQuery：更新搜索词，高亮回到首项
func (s *Screen) SetQuery(q string) (SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SearchState{}, ErrClosed
	}
	s.refreshLocked()
	s.nav.SetQuery(q)
	return s.publishSearchLocked(), nil
}

// Key：方向键移动高亮；回车提交高亮项为选择
func (s *Screen) Key(k search.Key) (SearchState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SearchState{}, false, ErrClosed
	}
	s.refreshLocked()
	e, ok := s.nav.Key(k)
	if ok {
		s.selectLocked(e.Code3, "search")
	}
	return s.publishSearchLocked(), ok, nil
}

// Hover：鼠标悬停列表项
func (s *Screen) Hover(i int) (SearchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SearchState{}, ErrClosed
	}
	s.nav.Hover(i)
	return s.publishSearchLocked(), nil
}

// Pick：点击列表项
func (s *Screen) Pick(i int) (SearchState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SearchState{}, false, ErrClosed
	}
	e, ok := s.nav.Pick(i)
	if ok {
		s.selectLocked(e.Code3, "search")
	}
	return s.publishSearchLocked(), ok, nil
}

func (s *Screen) publishSearchLocked() SearchState {
	st := s.searchLocked()
	s.publish(Event{Type: EventSearch, Data: st})
	return st
}

func (s *Screen) searchLocked() SearchState {
	start, end := s.nav.Window()
	st := SearchState{
		Query:       s.nav.Query(),
		Results:     s.nav.Results(),
		Active:      s.nav.Active(),
		WindowStart: start,
		WindowEnd:   end,
	}
	if len(st.Results) == 0 && st.Query != "" {
		st.Suggestions = s.cat.Search.Suggest(st.Query, 3)
	}
	return st
}

// Selected：当前选择（无选择为空串）
func (s *Screen) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Camera：相机当前状态
func (s *Screen) Camera() camera.State { return s.cam.Current() }

func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	cur, animating := s.cam.Step()
	return Snapshot{
		Selected:  s.selected,
		Camera:    cur,
		Target:    s.cam.Target(),
		Animating: animating,
		Panel:     s.panel.State(),
		Search:    s.searchLocked(),
	}
}

// Render：按当前相机投影并附上悬停文案
func (s *Screen) Render() ([]mapview.Shape, mapview.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()
	shapes := s.opts.View.Render(s.cat.Geometry.Features(), s.cat.Categories, s.selected, s.cam.Current())
	mapview.Annotate(shapes, s.cat.Tooltip)
	return shapes, s.opts.View
}

// Close：停止帧调度并放弃在途查询；可重复调用
func (s *Screen) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.driver.Stop()
	s.panel.Close()
}

// refreshLocked：目录热更新后换用新索引，保留当前选择与查询
func (s *Screen) refreshLocked() {
	c := s.holder.Load()
	if c == nil || c == s.cat {
		return
	}
	s.cat = c
	s.nav.Rebind(c.Search)
}
