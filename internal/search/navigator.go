package search

import "passport-map/internal/metrics"

// Key：导航按键
type Key string

const (
	KeyDown  Key = "ArrowDown"
	KeyUp    Key = "ArrowUp"
	KeyEnter Key = "Enter"
)

// DefaultVisible：下拉列表可见行数
const DefaultVisible = 6

// Navigator：搜索框状态（查询、当前结果、高亮项、滚动窗口）
// 约束：非并发安全，由持有者串行调用；Active 始终在 [0, len-1] 内，空列表时为 0
type Navigator struct {
	idx     *Index
	query   string
	results []Entry
	active  int
	offset  int
	visible int
}

func NewNavigator(idx *Index, visible int) *Navigator {
	if visible <= 0 {
		visible = DefaultVisible
	}
	n := &Navigator{idx: idx, visible: visible}
	n.results = idx.Filter("")
	return n
}

// SetQuery：任何查询变化都把高亮重置到首项
func (n *Navigator) SetQuery(q string) {
	n.query = q
	n.results = n.idx.Filter(q)
	n.active = 0
	n.offset = 0
	metrics.SearchQueriesTotal.Inc()
	if len(n.results) == 0 {
		metrics.SearchEmptyTotal.Inc()
	}
}

// Rebind：目录重建后换用新索引并按原查询重新过滤
func (n *Navigator) Rebind(idx *Index) {
	n.idx = idx
	n.results = idx.Filter(n.query)
	n.active = 0
	n.offset = 0
}

func (n *Navigator) Query() string    { return n.query }
func (n *Navigator) Results() []Entry { return n.results }
func (n *Navigator) Active() int      { return n.active }

// Key：上下移动高亮或回车选中；只有回车命中条目时返回 true
func (n *Navigator) Key(k Key) (Entry, bool) {
	switch k {
	case KeyDown:
		n.move(n.active + 1)
	case KeyUp:
		n.move(n.active - 1)
	case KeyEnter:
		if n.active >= 0 && n.active < len(n.results) {
			return n.results[n.active], true
		}
	}
	return Entry{}, false
}

// Hover：鼠标悬停同步高亮
func (n *Navigator) Hover(i int) bool {
	if i < 0 || i >= len(n.results) {
		return false
	}
	n.move(i)
	return true
}

// Pick：点击列表项
func (n *Navigator) Pick(i int) (Entry, bool) {
	if i < 0 || i >= len(n.results) {
		return Entry{}, false
	}
	n.move(i)
	return n.results[i], true
}

// Window：当前可见区间 [start, end)；高亮项始终在区间内
func (n *Navigator) Window() (start, end int) {
	end = n.offset + n.visible
	if end > len(n.results) {
		end = len(n.results)
	}
	return n.offset, end
}

func (n *Navigator) move(i int) {
	if len(n.results) == 0 {
		n.active = 0
		n.offset = 0
		return
	}
	if i > len(n.results)-1 {
		i = len(n.results) - 1
	}
	if i < 0 {
		i = 0
	}
	n.active = i
	// 最近边滚动：只滚到刚好露出高亮项
	if n.active < n.offset {
		n.offset = n.active
	} else if n.active >= n.offset+n.visible {
		n.offset = n.active - n.visible + 1
	}
}
