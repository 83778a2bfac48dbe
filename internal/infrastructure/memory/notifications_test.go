package memory

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/go-notifyd/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(summary string) domain.Notification {
	return domain.Notification{
		AppName:   "app",
		Summary:   summary,
		Body:      "body of " + summary,
		Actions:   []string{"default", "Open"},
		Urgency:   domain.UrgencyNormal,
		CreatedAt: time.Now(),
	}
}

func TestInsertNew_AssignsDistinctIDs(t *testing.T) {
	s := NewNotificationStore()

	seen := make(map[uint32]bool)
	for i := 0; i < 100; i++ {
		id := s.InsertNew(sample(fmt.Sprint(i)))
		require.NotZero(t, id)
		require.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
	}
	assert.Equal(t, 100, s.Len())
}

func TestInsertNew_FirstIDIsOne(t *testing.T) {
	s := NewNotificationStore()
	assert.Equal(t, uint32(1), s.InsertNew(sample("a")))
	assert.Equal(t, uint32(2), s.InsertNew(sample("b")))
}

func TestInsertNew_WrapsAndSkipsLiveIDs(t *testing.T) {
	s := NewNotificationStore()
	// occupy 1 and 2 so the wrapped counter has to step over them
	s.Replace(1, sample("one"))
	s.Replace(2, sample("two"))
	s.lastID = math.MaxUint32 - 1

	assert.Equal(t, uint32(math.MaxUint32), s.InsertNew(sample("top")))
	assert.Equal(t, uint32(3), s.InsertNew(sample("wrapped")))
	assert.Equal(t, 4, s.Len())
}

func TestInsertNew_ReusesFreedIDAfterWrap(t *testing.T) {
	s := NewNotificationStore()
	id := s.InsertNew(sample("a"))
	_, ok := s.Remove(id)
	require.True(t, ok)

	s.lastID = math.MaxUint32
	assert.Equal(t, id, s.InsertNew(sample("b")))
}

func TestReplace_OverwritesExisting(t *testing.T) {
	s := NewNotificationStore()
	id := s.InsertNew(sample("old"))

	got := s.Replace(id, sample("new"))
	require.Equal(t, id, got)

	n, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "new", n.Summary)
	assert.Equal(t, id, n.ID)
	assert.Equal(t, 1, s.Len())
}

func TestReplace_InsertsUnknownID(t *testing.T) {
	s := NewNotificationStore()

	got := s.Replace(42, sample("fresh"))
	assert.Equal(t, uint32(42), got)

	n, ok := s.Get(42)
	require.True(t, ok)
	assert.Equal(t, "fresh", n.Summary)
}

func TestReplace_ZeroAssignsNewID(t *testing.T) {
	s := NewNotificationStore()
	a := s.Replace(0, sample("a"))
	b := s.Replace(0, sample("b"))
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
}

func TestRemove_IsIdempotent(t *testing.T) {
	s := NewNotificationStore()
	id := s.InsertNew(sample("a"))

	n, ok := s.Remove(id)
	require.True(t, ok)
	assert.Equal(t, "a", n.Summary)

	_, ok = s.Remove(id)
	assert.False(t, ok)
	_, ok = s.Remove(9999)
	assert.False(t, ok)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	s := NewNotificationStore()
	want := make(map[uint32]domain.Notification)
	for i := 0; i < 10; i++ {
		n := sample(fmt.Sprint(i))
		id := s.InsertNew(n)
		n.ID = id
		want[id] = n
	}

	snap := s.Snapshot()
	require.Len(t, snap, len(want))
	for id, n := range want {
		assert.Equal(t, n, snap[id])
	}
}

func TestSnapshot_DoesNotAliasStore(t *testing.T) {
	s := NewNotificationStore()
	exp := time.Now().Add(time.Hour)
	n := sample("a")
	n.ExpiresAt = &exp
	id := s.InsertNew(n)

	snap := s.Snapshot()
	got := snap[id]
	got.Actions[0] = "mutated"
	*got.ExpiresAt = time.Time{}

	fromGet, _ := s.Get(id)
	fromGet.Actions[1] = "mutated too"

	again, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"default", "Open"}, again.Actions)
	assert.Equal(t, exp, *again.ExpiresAt)

	// the caller's original value is not retained either
	n.Actions[0] = "caller"
	again, _ = s.Get(id)
	assert.Equal(t, "default", again.Actions[0])
}

func TestExpiredIDs(t *testing.T) {
	s := NewNotificationStore()
	now := time.Now()
	past := now.Add(-time.Millisecond)
	future := now.Add(time.Minute)

	expired := sample("expired")
	expired.ExpiresAt = &past
	atNow := sample("at now")
	atNow.ExpiresAt = &now
	live := sample("live")
	live.ExpiresAt = &future
	forever := sample("forever")

	e1 := s.InsertNew(expired)
	e2 := s.InsertNew(atNow)
	s.InsertNew(live)
	s.InsertNew(forever)

	ids := s.ExpiredIDs(now)
	assert.ElementsMatch(t, []uint32{e1, e2}, ids)
	assert.Equal(t, 4, s.Len(), "ExpiredIDs must not remove")
}

func TestConcurrentNotifyAndRead(t *testing.T) {
	s := NewNotificationStore()
	const writers = 50
	const perWriter = 20
	const readers = 8
	const getsPerSnapshot = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan domain.Notification, 1)

	check := func(n domain.Notification) {
		if n.ID == 0 || n.AppName == "" || n.Summary == "" || n.Body != "body of "+n.Summary || len(n.Actions) != 2 {
			select {
			case torn <- n:
			default:
			}
		}
	}

	var rg sync.WaitGroup
	for r := 0; r < readers; r++ {
		rg.Add(1)
		go func() {
			defer rg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				looked := 0
				for id, n := range s.Snapshot() {
					check(n)
					if looked < getsPerSnapshot {
						looked++
						if got, ok := s.Get(id); ok {
							check(got)
						}
					}
				}
			}
		}()
	}

	ids := make(chan uint32, writers*perWriter)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				ids <- s.InsertNew(sample(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	rg.Wait()
	close(ids)

	unique := make(map[uint32]bool)
	for id := range ids {
		unique[id] = true
	}
	assert.Len(t, unique, writers*perWriter)
	assert.Equal(t, writers*perWriter, s.Len())

	select {
	case n := <-torn:
		t.Fatalf("reader observed incomplete record: %+v", n)
	default:
	}
}
