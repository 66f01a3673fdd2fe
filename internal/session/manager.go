package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"passport-map/internal/catalog"
	"passport-map/internal/logger"
	"passport-map/internal/metrics"
	"passport-map/internal/panel"
	"passport-map/internal/screen"
)

var (
	ErrUnknownSession  = errors.New("unknown session")
	ErrTooManySessions = errors.New("too many sessions")
)

// Session：一个浏览器视图（屏幕状态 + 推送通道）
type Session struct {
	ID      string
	Screen  *screen.Screen
	Hub     *Hub
	Created time.Time

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen：最近一次 API 访问时间
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Manager：会话注册表；会话只存在内存中，进程重启即丢失
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	holder  *catalog.Holder
	fetcher panel.Fetcher
	opts    screen.Options
	max     int
	idleTTL time.Duration
	now     func() time.Time
}

// NewManager：max<=0 不限数量；idleTTL<=0 不回收
func NewManager(holder *catalog.Holder, fetcher panel.Fetcher, opts screen.Options, max int, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		holder:   holder,
		fetcher:  fetcher,
		opts:     opts,
		max:      max,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create：新建会话，相机位于默认视图且无选择
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, ErrTooManySessions
	}
	hub := NewHub()
	s := &Session{
		ID:      uuid.NewString(),
		Hub:     hub,
		Screen:  screen.New(m.holder, m.fetcher, m.opts, hub.Publish),
		Created: m.now(),
	}
	s.touch(s.Created)
	m.sessions[s.ID] = s
	metrics.SessionsActive.Inc()
	logger.L().Debug("session_create", "id", s.ID)
	return s, nil
}

// Get：查找并刷新活跃时间
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	s.touch(m.now())
	return s, nil
}

// Delete：关闭屏幕与推送通道
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}
	m.teardown(s)
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep：回收超过 idleTTL 未访问且没有 websocket 连接的会话
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)
	var idle []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.Hub.Len() == 0 && s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, s := range idle {
		m.teardown(s)
	}
	if len(idle) > 0 {
		logger.L().Info("session_sweep", "removed", len(idle))
	}
	return len(idle)
}

// StartJanitor：后台定期 Sweep，ctx 取消后退出
func (m *Manager) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 || m.idleTTL <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Sweep()
			}
		}
	}()
}

// CloseAll：进程退出时关闭全部会话
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range all {
		m.teardown(s)
	}
}

func (m *Manager) teardown(s *Session) {
	s.Screen.Close()
	s.Hub.Close()
	metrics.SessionsActive.Dec()
	logger.L().Debug("session_close", "id", s.ID)
}
