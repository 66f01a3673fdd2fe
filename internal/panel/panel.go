// 包 panel：详情面板；每次选择变化发起一次查询，过期结果直接丢弃
package panel

import (
	"context"
	"sync"
	"time"

	"passport-map/internal/countryinfo"
	"passport-map/internal/logger"
	"passport-map/internal/metrics"
)

// Fetcher：资料来源（countryinfo.Client 或测试桩）
type Fetcher interface {
	Fetch(ctx context.Context, code3 string) (countryinfo.Facts, error)
}

// State：面板快照；Code3 为空表示未选择
type State struct {
	Code3   string             `json:"code3,omitempty"`
	Loading bool               `json:"loading"`
	Err     string             `json:"error,omitempty"`
	Facts   *countryinfo.Facts `json:"facts,omitempty"`
}

// Panel：以代号（generation）区分每次加载；回调在内部锁内执行，不得回调 Panel 自身
type Panel struct {
	mu       sync.Mutex
	fetcher  Fetcher
	timeout  time.Duration
	onChange func(State)

	gen    uint64
	cancel context.CancelFunc
	st     State
	closed bool
	wg     sync.WaitGroup
}

// New：timeout<=0 时不额外限时
func New(f Fetcher, timeout time.Duration, onChange func(State)) *Panel {
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Panel{fetcher: f, timeout: timeout, onChange: onChange}
}

// Load：放弃在途查询并为 code3 发起新查询；空代码等同 Clear
func (p *Panel) Load(code3 string) {
	if code3 == "" {
		p.Clear()
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.abandonLocked()
	g := p.gen
	var ctx context.Context
	var cancel context.CancelFunc
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), p.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	p.cancel = cancel
	p.st = State{Code3: code3, Loading: true}
	p.onChange(p.st)
	p.wg.Add(1)
	go p.run(ctx, g, code3)
}

// Clear：放弃在途查询并清空面板
func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.abandonLocked()
	if p.st.Code3 == "" && !p.st.Loading {
		return
	}
	p.st = State{}
	p.onChange(p.st)
}

func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.st
}

// Close：放弃在途查询并等待后台协程退出
func (p *Panel) Close() {
	p.mu.Lock()
	p.closed = true
	p.abandonLocked()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Panel) abandonLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Panel) run(ctx context.Context, g uint64, code3 string) {
	defer p.wg.Done()
	facts, err := p.fetcher.Fetch(ctx, code3)
	p.mu.Lock()
	defer p.mu.Unlock()
	if g != p.gen {
		metrics.PanelStaleTotal.Inc()
		logger.L().Debug("panel_stale_result", "code3", code3)
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if err != nil {
		logger.L().Info("panel_fetch_error", "code3", code3, "err", err)
		p.st = State{Code3: code3, Err: err.Error()}
	} else {
		p.st = State{Code3: code3, Facts: &facts}
	}
	p.onChange(p.st)
}
