package dataset

import (
	"context"
	"os"
	"time"

	"passport-map/internal/logger"
)

// 文档注释：文件变化轮询
// 背景：数据集与边界文件由运维直接替换；按固定间隔比较修改时间，变化后调用 rebuild
// 约束：interval<=0 时不启动；rebuild 失败只记日志，保留旧目录继续服务；ctx 取消后退出
type Watcher struct {
	paths    []string
	interval time.Duration
	rebuild  func() error
	stamps   map[string]time.Time
}

func NewWatcher(paths []string, interval time.Duration, rebuild func() error) *Watcher {
	w := &Watcher{paths: paths, interval: interval, rebuild: rebuild, stamps: map[string]time.Time{}}
	w.changed()
	return w
}

// Start：后台协程轮询
func (w *Watcher) Start(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	l := logger.L()
	go func() {
		t := time.NewTicker(w.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			if !w.changed() {
				continue
			}
			l.Info("dataset_reload_start")
			if err := w.rebuild(); err != nil {
				l.Error("dataset_reload_error", "err", err)
			} else {
				l.Info("dataset_reload_done")
			}
		}
	}()
}

// changed：记录最新修改时间，任一文件变化（含出现/消失）返回 true
func (w *Watcher) changed() bool {
	diff := false
	for _, p := range w.paths {
		var mt time.Time
		if fi, err := os.Stat(p); err == nil {
			mt = fi.ModTime()
		}
		if old, ok := w.stamps[p]; !ok || !old.Equal(mt) {
			diff = diff || ok
			w.stamps[p] = mt
		}
	}
	return diff
}
