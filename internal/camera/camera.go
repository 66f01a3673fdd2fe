// 包 camera：相机状态（中心 + 缩放）与缓动动画状态机
// 约束：Idle / Animating 两态；动画是经过时间的纯函数，t=1 时精确落在目标上；后一次 AnimateTo 覆盖前一次
package camera

import (
	"sync"
	"time"

	"github.com/paulmach/orb"

	"passport-map/internal/metrics"
)

// State：相机状态；Center 为经纬度
type State struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

func (s State) Equal(o State) bool {
	return s.Center.Equal(o.Center) && s.Zoom == o.Zoom
}

// Ease：先加速后减速的二次缓动，t 截断到 [0,1]
func Ease(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// Lerp：中心经度、纬度与缩放各自线性插值
func Lerp(a, b State, k float64) State {
	return State{
		Center: orb.Point{
			a.Center[0] + (b.Center[0]-a.Center[0])*k,
			a.Center[1] + (b.Center[1]-a.Center[1])*k,
		},
		Zoom: a.Zoom + (b.Zoom-a.Zoom)*k,
	}
}

// Controller：唯一可写相机状态的组件；Current 随时可读，不会读到半写入的值
type Controller struct {
	mu  sync.Mutex
	now func() time.Time

	rest      State
	from      State
	to        State
	start     time.Time
	dur       time.Duration
	animating bool
}

// NewController：now 为空时使用 time.Now
func NewController(initial State, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{rest: initial, now: now}
}

// AnimateTo：以当前（可能在途）状态为起点开始新一轮插值
// 约束：静止且目标等于当前状态，或正在前往同一目标时返回 false（不重启）；d<=0 时直接落位
func (c *Controller) AnimateTo(target State, d time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	cur, running := c.evalLocked(now)
	if !running && cur.Equal(target) {
		return false
	}
	if running && c.to.Equal(target) {
		return false
	}
	if running {
		metrics.CameraSupersededTotal.Inc()
	}
	metrics.CameraAnimationsTotal.Inc()
	if d <= 0 {
		c.rest = target
		c.animating = false
		return true
	}
	c.from = cur
	c.to = target
	c.start = now
	c.dur = d
	c.animating = true
	return true
}

// StateAt：不改变内部状态，仅按给定时刻求值
func (c *Controller) StateAt(now time.Time) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.animating {
		return c.rest, false
	}
	t := float64(now.Sub(c.start)) / float64(c.dur)
	if t >= 1 {
		return c.to, false
	}
	return Lerp(c.from, c.to, Ease(t)), true
}

// Step：按当前时钟推进一帧；到达终点时切回 Idle 并返回 false
func (c *Controller) Step() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evalLocked(c.now())
}

// Current：读取当前状态（动画中为插值结果）
func (c *Controller) Current() State {
	s, _ := c.Step()
	return s
}

// Animating：是否处于动画态
func (c *Controller) Animating() bool {
	_, running := c.Step()
	return running
}

// Target：动画中返回目标，静止时返回当前状态
func (c *Controller) Target() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.animating {
		return c.to
	}
	return c.rest
}

// Jump：手动平移/缩放直接写入状态并终止动画
func (c *Controller) Jump(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rest = s
	c.animating = false
}

func (c *Controller) evalLocked(now time.Time) (State, bool) {
	if !c.animating {
		return c.rest, false
	}
	t := float64(now.Sub(c.start)) / float64(c.dur)
	if t >= 1 {
		c.rest = c.to
		c.animating = false
		return c.rest, false
	}
	s := Lerp(c.from, c.to, Ease(t))
	return s, true
}
