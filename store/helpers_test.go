package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/jacentio/podroom/internal/ddbtest"
	"github.com/jacentio/podroom/store"
)

var epoch = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)

// tickingClock returns a clock that advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Second)
		return now
	}
}

// sequentialIDs returns a generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// noSleep records requested waits without blocking.
type noSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (n *noSleep) sleep(ctx context.Context, d time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.waits = append(n.waits, d)
	return ctx.Err()
}

func newTestStore(t *testing.T, opts ...store.Option) (*store.Store, *ddbtest.Fake) {
	t.Helper()
	fake := ddbtest.New()
	base := []store.Option{
		store.WithLogger(zaptest.NewLogger(t)),
		store.WithClock(tickingClock(epoch)),
		store.WithIDGenerator(sequentialIDs()),
		store.WithSleeper((&noSleep{}).sleep),
	}
	return store.New(fake, store.DefaultConfig(), append(base, opts...)...), fake
}

func createRoom(t *testing.T, s *store.Store, uid string) store.Room {
	t.Helper()
	room, err := s.CreateRoom(context.Background(), store.Room{UID: uid, Title: "room " + uid})
	if err != nil {
		t.Fatalf("CreateRoom(%s): %v", uid, err)
	}
	return room
}

func createPlaylist(t *testing.T, s *store.Store, roomUID, uid string) store.Playlist {
	t.Helper()
	p, err := s.CreatePlaylist(context.Background(), roomUID, store.Playlist{UID: uid, Title: "playlist " + uid})
	if err != nil {
		t.Fatalf("CreatePlaylist(%s/%s): %v", roomUID, uid, err)
	}
	return p
}

func createEpisode(t *testing.T, s *store.Store, roomUID, playlistUID, uid string) store.Episode {
	t.Helper()
	ep, err := s.CreateEpisode(context.Background(), roomUID, playlistUID, store.Episode{
		UID:       uid,
		Title:     "episode " + uid,
		ImageFile: store.File{Key: "img/" + uid + ".png", ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("CreateEpisode(%s/%s/%s): %v", roomUID, playlistUID, uid, err)
	}
	return ep
}

func uids[T any](items []T, uid func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, uid(item))
	}
	return out
}

func playlistUIDs(ps []store.Playlist) []string {
	return uids(ps, func(p store.Playlist) string { return p.UID })
}

func episodeUIDs(es []store.Episode) []string {
	return uids(es, func(e store.Episode) string { return e.UID })
}

func roomUIDs(rs []store.Room) []string {
	return uids(rs, func(r store.Room) string { return r.UID })
}
