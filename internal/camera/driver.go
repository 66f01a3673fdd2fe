package camera

import (
	"sync"
	"time"

	"github.com/tevino/abool"

	"passport-map/internal/metrics"
)

// FrameFunc：每帧回调；animating=false 表示本帧为终帧
type FrameFunc func(s State, animating bool)

// 文档注释：帧驱动器
// 背景：只在动画进行中以固定间隔调度帧；动画结束即退出循环，下次 Kick 再启动
// 约束：Stop 之后不再调度任何帧；回调在驱动协程中同步执行，不应阻塞
type Driver struct {
	ctl      *Controller
	interval time.Duration
	onFrame  FrameFunc

	running abool.AtomicBool
	stopped abool.AtomicBool
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func NewDriver(ctl *Controller, interval time.Duration, onFrame FrameFunc) *Driver {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	if onFrame == nil {
		onFrame = func(State, bool) {}
	}
	return &Driver{ctl: ctl, interval: interval, onFrame: onFrame, stop: make(chan struct{})}
}

// Kick：AnimateTo 之后调用；循环已在运行时无操作
func (d *Driver) Kick() {
	if d.stopped.IsSet() {
		return
	}
	if !d.running.SetToIf(false, true) {
		return
	}
	d.wg.Add(1)
	go d.loop()
}

// Running：帧循环是否在调度
func (d *Driver) Running() bool { return d.running.IsSet() }

// Stop：停止调度并等待循环退出
func (d *Driver) Stop() {
	d.once.Do(func() {
		d.stopped.Set()
		close(d.stop)
	})
	d.wg.Wait()
}

func (d *Driver) loop() {
	defer d.wg.Done()
	t := time.NewTicker(d.interval)
	defer t.Stop()
	for {
		select {
		case <-d.stop:
			d.running.UnSet()
			return
		case <-t.C:
		}
		s, animating := d.ctl.Step()
		metrics.CameraFramesTotal.Inc()
		d.onFrame(s, animating)
		if animating {
			continue
		}
		d.running.UnSet()
		// AnimateTo may have landed between Step and UnSet; its Kick saw running=true
		if d.stopped.IsSet() || !d.ctl.Animating() || !d.running.SetToIf(false, true) {
			return
		}
	}
}
