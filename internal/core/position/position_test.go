package position

import (
	"sync"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func TestFeedUpdate(t *testing.T) {
	f := NewFeed()
	if s := f.Snapshot(); s.HasFix() || s.Raw != "" {
		t.Fatalf("zero feed should have no fix: %+v", s)
	}

	f.Update(Snapshot{Raw: "$GPGGA,1", Lat: ptr(37.5), Lon: ptr(127.0)})
	s := f.Snapshot()
	if !s.HasFix() || *s.Lat != 37.5 || *s.Lon != 127.0 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	// 修改副本不影响内部状态
	*s.Lat = 0
	if got := f.Snapshot(); *got.Lat != 37.5 {
		t.Fatalf("snapshot aliases internal state: %v", *got.Lat)
	}
}

func TestFeedPartialFixDropped(t *testing.T) {
	f := NewFeed()
	f.Update(Snapshot{Raw: "$GPRMC,V", Lat: ptr(1)})
	s := f.Snapshot()
	if s.Lat != nil || s.Lon != nil {
		t.Fatalf("half a fix must be cleared: %+v", s)
	}
	if s.Raw != "$GPRMC,V" {
		t.Fatalf("raw sentence lost: %q", s.Raw)
	}
}

func TestFeedConcurrent(t *testing.T) {
	f := NewFeed()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 200 {
				v := float64(i*1000 + j)
				f.Update(Snapshot{Lat: ptr(v), Lon: ptr(v)})
			}
		})
		wg.Go(func() {
			for range 200 {
				s := f.Snapshot()
				if s.HasFix() && *s.Lat != *s.Lon {
					t.Errorf("torn read: lat=%v lon=%v", *s.Lat, *s.Lon)
					return
				}
			}
		})
	}
	wg.Wait()
}
