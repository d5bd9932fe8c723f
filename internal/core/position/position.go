// Package position 保存定位模块上报的最新位置
package position

import "sync"

// Snapshot 某一时刻的位置，无定位时 Lat 与 Lon 均为空
type Snapshot struct {
	Raw string   `json:"raw"`
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// HasFix 是否已定位
func (s Snapshot) HasFix() bool {
	return s.Lat != nil && s.Lon != nil
}

// Reader 位置只读访问
type Reader interface {
	Snapshot() Snapshot
}

// Feed 线程安全的位置记录，写入方整体替换，读取方得到一致的副本
type Feed struct {
	mu   sync.RWMutex
	last Snapshot
}

var _ Reader = (*Feed)(nil)

func NewFeed() *Feed {
	return &Feed{}
}

// Update 整体替换当前位置，lat 与 lon 必须同时存在或同时为空
func (f *Feed) Update(s Snapshot) {
	if !s.HasFix() {
		s.Lat, s.Lon = nil, nil
	}
	s.Lat = clone(s.Lat)
	s.Lon = clone(s.Lon)

	f.mu.Lock()
	f.last = s
	f.mu.Unlock()
}

// Snapshot 返回当前位置副本，调用方修改副本不影响 Feed
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	s := f.last
	f.mu.RUnlock()
	s.Lat = clone(s.Lat)
	s.Lon = clone(s.Lon)
	return s
}

func clone(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
