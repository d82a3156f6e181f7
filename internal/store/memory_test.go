package store

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jpalmerr/starfield/internal/metrics"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore(0)
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	// should start empty
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if store.bufferSize != DefaultSubscriberBuffer {
		t.Errorf("bufferSize = %d, want %d", store.bufferSize, DefaultSubscriberBuffer)
	}
}

func TestMemoryStore_InsertAssignsIncreasingIDs(t *testing.T) {
	store := NewMemoryStore(0)

	var last int64
	for i := 0; i < 20; i++ {
		s := store.Insert(float64(i), float64(-i), "hello")
		if s.ID <= last {
			t.Fatalf("Insert() ID = %d, want > %d", s.ID, last)
		}
		last = s.ID
	}
}

func TestMemoryStore_InsertAcceptsAnyInput(t *testing.T) {
	store := NewMemoryStore(0)

	s := store.Insert(1e12, -1e12, "")
	if s.X != 1e12 || s.Y != -1e12 || s.Message != "" {
		t.Errorf("Insert() = %+v, want coordinates stored unchanged", s)
	}
}

func TestMemoryStore_IDsNotReusedAfterRemove(t *testing.T) {
	store := NewMemoryStore(0)

	a := store.Insert(0, 0, "a")
	b := store.Insert(0, 0, "b")
	store.Remove(b.ID)
	store.Remove(a.ID)

	c := store.Insert(0, 0, "c")
	if c.ID <= b.ID {
		t.Errorf("Insert() after Remove ID = %d, want > %d", c.ID, b.ID)
	}

	store.Clear()
	d := store.Insert(0, 0, "d")
	if d.ID <= c.ID {
		t.Errorf("Insert() after Clear ID = %d, want > %d", d.ID, c.ID)
	}
}

func TestMemoryStore_Query(t *testing.T) {
	store := NewMemoryStore(0)

	origin := store.Insert(0, 0, "origin")
	mid := store.Insert(0.5, 0.5, "mid")
	store.Insert(-1, -1, "outside")

	got := store.Query(Viewport{XMin: 0, XMax: 1, YMin: 0, YMax: 1})
	if len(got) != 2 {
		t.Fatalf("Query() = %d stars, want 2", len(got))
	}
	if got[0] != origin || got[1] != mid {
		t.Errorf("Query() = %+v, want [%+v %+v]", got, origin, mid)
	}
}

func TestMemoryStore_QueryBoundariesInclusive(t *testing.T) {
	store := NewMemoryStore(0)
	v := Viewport{XMin: -1, XMax: 1, YMin: -2, YMax: 2}

	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"x at min", -1, 0, true},
		{"x at max", 1, 0, true},
		{"y at min", 0, -2, true},
		{"y at max", 0, 2, true},
		{"corner", 1, 2, true},
		{"x just below min", -1.0000001, 0, false},
		{"y just above max", 0, 2.0000001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.Insert(tt.x, tt.y, tt.name)
			found := false
			for _, q := range store.Query(v) {
				if q.ID == s.ID {
					found = true
				}
			}
			if found != tt.want {
				t.Errorf("Query() includes (%v, %v) = %v, want %v", tt.x, tt.y, found, tt.want)
			}
		})
	}
}

func TestMemoryStore_QueryMatchesLinearFilter(t *testing.T) {
	store := NewMemoryStore(0)
	Seed(store, 500, rand.New(rand.NewPCG(1, 2)))

	v := Viewport{XMin: -0.25, XMax: 0.5, YMin: -0.75, YMax: 0.1}

	var want []Star
	for _, s := range store.All() {
		if s.X >= v.XMin && s.X <= v.XMax && s.Y >= v.YMin && s.Y <= v.YMax {
			want = append(want, s)
		}
	}

	got := store.Query(v)
	if len(got) != len(want) {
		t.Fatalf("Query() = %d stars, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("Query()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMemoryStore_QueryEmptyReturnsNonNil(t *testing.T) {
	store := NewMemoryStore(0)
	got := store.Query(Viewport{XMin: 0, XMax: 1, YMin: 0, YMax: 1})
	if got == nil {
		t.Error("Query() = nil, want empty slice")
	}
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore(0)

	for i := 0; i < 5; i++ {
		store.Insert(0.1, 0.1, "star")
	}

	removed, ok := store.Remove(3)
	if !ok {
		t.Fatal("Remove(3) ok = false, want true")
	}
	if removed.ID != 3 {
		t.Errorf("Remove(3) ID = %d, want 3", removed.ID)
	}
	if store.Len() != 4 {
		t.Errorf("Len() = %d, want 4", store.Len())
	}

	for _, s := range store.Query(Viewport{XMin: -1, XMax: 1, YMin: -1, YMax: 1}) {
		if s.ID == 3 {
			t.Error("Query() still includes removed star 3")
		}
	}
	if _, ok := store.Get(3); ok {
		t.Error("Get(3) ok = true after removal")
	}
}

func TestMemoryStore_RemoveUnknown(t *testing.T) {
	store := NewMemoryStore(0)
	store.Insert(0, 0, "only")

	sub := store.Subscribe()
	defer store.Unsubscribe(sub)

	if _, ok := store.Remove(42); ok {
		t.Error("Remove(42) ok = true, want false")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}

	select {
	case u := <-sub.Updates():
		t.Errorf("Remove of unknown ID published %+v", u)
	default:
	}
}

func TestMemoryStore_Get(t *testing.T) {
	store := NewMemoryStore(0)
	s := store.Insert(0.3, -0.3, "find me")

	got, ok := store.Get(s.ID)
	if !ok {
		t.Fatalf("Get(%d) ok = false", s.ID)
	}
	if got != s {
		t.Errorf("Get(%d) = %+v, want %+v", s.ID, got, s)
	}
}

func TestMemoryStore_ClearPublishesRemovals(t *testing.T) {
	store := NewMemoryStore(0)
	a := store.Insert(0, 0, "a")
	b := store.Insert(1, 1, "b")

	sub := store.Subscribe()
	defer store.Unsubscribe(sub)

	removed := store.Clear()
	if len(removed) != 2 {
		t.Fatalf("Clear() = %d stars, want 2", len(removed))
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", store.Len())
	}

	for _, want := range []Star{a, b} {
		select {
		case u := <-sub.Updates():
			if u.Event != EventRemove || u.Star != want {
				t.Errorf("update = %+v, want remove of %+v", u, want)
			}
		case <-time.After(time.Second):
			t.Fatal("Clear() did not publish removal")
		}
	}
}

func TestMemoryStore_AllReturnsCopy(t *testing.T) {
	store := NewMemoryStore(0)
	store.Insert(0, 0, "original")

	all := store.All()
	all[0].Message = "modified"

	if got := store.All()[0].Message; got != "original" {
		t.Errorf("All()[0].Message = %q, want %q", got, "original")
	}
}

func TestMemoryStore_SubscribeReceivesEvents(t *testing.T) {
	store := NewMemoryStore(0)

	sub := store.Subscribe()
	defer store.Unsubscribe(sub)

	s := store.Insert(0.1, 0.2, "hi")
	store.Remove(s.ID)

	want := []StarUpdate{
		{Event: EventAdd, Star: s},
		{Event: EventRemove, Star: s},
	}
	for _, w := range want {
		select {
		case got := <-sub.Updates():
			if got != w {
				t.Errorf("received %+v, want %+v", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("did not receive %+v", w)
		}
	}
}

func TestMemoryStore_MultipleSubscribersEachReceiveEveryEvent(t *testing.T) {
	store := NewMemoryStore(0)

	subs := []*Subscription{store.Subscribe(), store.Subscribe(), store.Subscribe()}
	defer func() {
		for _, s := range subs {
			store.Unsubscribe(s)
		}
	}()

	const n = 10
	for i := 0; i < n; i++ {
		store.Insert(float64(i), 0, "fan-out")
	}

	for i, sub := range subs {
		for j := 0; j < n; j++ {
			select {
			case u := <-sub.Updates():
				if u.Star.ID != int64(j+1) {
					t.Errorf("subscriber %d update %d ID = %d, want %d", i, j, u.Star.ID, j+1)
				}
			case <-time.After(time.Second):
				t.Fatalf("subscriber %d only received %d/%d updates", i, j, n)
			}
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore(0)

	sub := store.Subscribe()
	store.Unsubscribe(sub)

	// channel should be closed
	select {
	case _, ok := <-sub.Updates():
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}

	// second call is a no-op
	store.Unsubscribe(sub)
	store.Unsubscribe(nil)

	if store.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", store.Subscribers())
	}
}

func TestMemoryStore_SlowSubscriberEvicted(t *testing.T) {
	store := NewMemoryStore(4)

	slow := store.Subscribe()
	fast := store.Subscribe()
	defer store.Unsubscribe(fast)

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		// slow is never read; fast is drained after every insert
		for i := 0; i < 10; i++ {
			store.Insert(0, 0, "burst")
			<-fast.Updates()
		}
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Insert() blocked on slow subscriber")
	}

	if !slow.Dropped() {
		t.Error("slow subscriber Dropped() = false, want true")
	}
	if fast.Dropped() {
		t.Error("fast subscriber Dropped() = true, want false")
	}

	// evicted channel delivers its buffer then closes
	count := 0
	for range slow.Updates() {
		count++
	}
	if count != 4 {
		t.Errorf("slow subscriber received %d buffered updates, want 4", count)
	}

	if store.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", store.Subscribers())
	}

	// unsubscribing an evicted subscription is safe
	store.Unsubscribe(slow)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(0)

	var wg sync.WaitGroup
	numGoroutines := 10
	numOps := 100

	// concurrent inserts and removes
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				s := store.Insert(0, 0, "concurrent")
				if j%2 == 0 {
					store.Remove(s.ID)
				}
			}
		}()
	}

	// concurrent reads
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				_ = store.Query(Viewport{XMin: -1, XMax: 1, YMin: -1, YMax: 1})
			}
		}()
	}

	// concurrent subscribe/unsubscribe
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(sub)
		}()
	}

	wg.Wait()

	if got, want := store.Len(), numGoroutines*numOps/2; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

func TestMemoryStore_MutationsAreCounted(t *testing.T) {
	adds := metrics.StarMutations.WithLabelValues(string(EventAdd))
	removes := metrics.StarMutations.WithLabelValues(string(EventRemove))
	addsBefore, removesBefore := testutil.ToFloat64(adds), testutil.ToFloat64(removes)

	store := NewMemoryStore(0)
	Seed(store, 5, nil)
	s := store.Insert(0, 0, "direct")
	store.Remove(s.ID)
	store.Remove(s.ID) // unknown id is not a mutation
	store.Clear()

	if got := testutil.ToFloat64(adds) - addsBefore; got != 6 {
		t.Errorf("add mutations counted = %v, want 6", got)
	}
	if got := testutil.ToFloat64(removes) - removesBefore; got != 6 {
		t.Errorf("remove mutations counted = %v, want 6", got)
	}
}
