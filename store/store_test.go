package store_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/podroom/internal/ddbtest"
	"github.com/jacentio/podroom/internal/keys"
	"github.com/jacentio/podroom/store"
)

var _ store.Client = (*ddbtest.Fake)(nil)

func TestDefaultConfig(t *testing.T) {
	cfg := store.DefaultConfig()

	assert.Equal(t, "podroom", cfg.TableName)
	assert.Equal(t, time.Second, cfg.ReadyPollInterval)
	assert.Equal(t, 10, cfg.ReadyMaxAttempts)
}

func TestNew_AppliesDefaults(t *testing.T) {
	s := store.New(ddbtest.New(), store.Config{})
	assert.Equal(t, "podroom", s.TableName())
	assert.Equal(t, store.StateUnknown, s.State())

	s = store.New(ddbtest.New(), store.Config{TableName: "rooms-test"})
	assert.Equal(t, "rooms-test", s.TableName())
}

func TestCreateRoom_RoundTrip(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	in := store.Room{
		UID:       "r1",
		Title:     "Morning show",
		CoverFile: store.File{Key: "covers/r1.png", URL: "https://cdn.example.com/covers/r1.png", ContentType: "image/png"},
	}
	created, err := s.CreateRoom(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, "r1", created.UID)
	assert.Equal(t, in.Title, created.Title)
	assert.Equal(t, in.CoverFile, created.CoverFile)
	assert.True(t, created.CreatedOn.Equal(epoch), "created_on = %v", created.CreatedOn)
	assert.Nil(t, created.Playlists)

	got, err := s.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, created.UID, got.UID)
	assert.Equal(t, created.Title, got.Title)
	assert.True(t, created.CreatedOn.Equal(got.CreatedOn))

	raw := fake.Item(keys.PartitionKey("r1"), keys.RoomSortKey("r1"))
	require.NotNil(t, raw)
	assert.Contains(t, raw, "created_ts")
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1709631000000"}, raw["created_ts"])
}

func TestCreateRoom_GeneratesUID(t *testing.T) {
	s, _ := newTestStore(t)

	room, err := s.CreateRoom(context.Background(), store.Room{Title: "untitled"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", room.UID)
}

func TestCreateRoom_PreservesCreatedOn(t *testing.T) {
	s, _ := newTestStore(t)
	when := time.Date(2021, time.July, 1, 12, 0, 0, 0, time.UTC)

	room, err := s.CreateRoom(context.Background(), store.Room{UID: "r1", CreatedOn: when})
	require.NoError(t, err)
	assert.True(t, room.CreatedOn.Equal(when))
}

func TestCreateRoom_Duplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")

	_, err := s.CreateRoom(ctx, store.Room{UID: "r1", Title: "overwrite attempt"})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "room r1", got.Title)
}

func TestCreateRoom_RejectsUnsafeUID(t *testing.T) {
	tests := []string{"a#b", "a:b", "ROOM1", "xPLAYLISTx", "EPISODE"}

	for _, uid := range tests {
		t.Run(uid, func(t *testing.T) {
			s, fake := newTestStore(t)
			_, err := s.CreateRoom(context.Background(), store.Room{UID: uid})
			require.ErrorIs(t, err, store.ErrValidation)
			assert.Zero(t, fake.Calls("PutItem"))
		})
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetRoom(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreatePlaylist(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")

	p, err := s.CreatePlaylist(ctx, "r1", store.Playlist{UID: "p1", Title: "Season 1", Description: "pilot season"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.UID)
	assert.Equal(t, "pilot season", p.Description)

	_, err = s.CreatePlaylist(ctx, "r1", store.Playlist{UID: "p1"})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestCreatePlaylist_MissingRoom(t *testing.T) {
	s, fake := newTestStore(t)

	_, err := s.CreatePlaylist(context.Background(), "ghost", store.Playlist{UID: "p1"})
	require.ErrorIs(t, err, store.ErrDependencyMissing)
	assert.Zero(t, fake.Calls("PutItem"))
	assert.Zero(t, fake.Len())
}

func TestCreateEpisode(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")

	ep, err := s.CreateEpisode(ctx, "r1", "p1", store.Episode{UID: "e1", Title: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, store.StatusDraft, ep.Status)
	assert.Nil(t, ep.AudioFile)
	assert.Nil(t, ep.PublishedOn)

	_, err = s.CreateEpisode(ctx, "r1", "p1", store.Episode{UID: "e1"})
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestCreateEpisode_MissingPlaylist(t *testing.T) {
	s, fake := newTestStore(t)
	createRoom(t, s, "r1")
	before := fake.Calls("PutItem")

	_, err := s.CreateEpisode(context.Background(), "r1", "p-missing", store.Episode{UID: "e1"})
	require.ErrorIs(t, err, store.ErrDependencyMissing)
	assert.Equal(t, before, fake.Calls("PutItem"))
	assert.Nil(t, fake.Item(keys.PartitionKey("r1"), keys.EpisodeSortKey("p-missing", "e1")))
}

func TestCreateEpisode_InvalidStatus(t *testing.T) {
	s, _ := newTestStore(t)
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")

	_, err := s.CreateEpisode(context.Background(), "r1", "p1", store.Episode{UID: "e1", Status: "live"})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestCreateEpisode_AudioFileRequiresKey(t *testing.T) {
	s, _ := newTestStore(t)
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")

	_, err := s.CreateEpisode(context.Background(), "r1", "p1", store.Episode{
		UID:       "e1",
		AudioFile: &store.File{ContentType: "audio/mpeg"},
	})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestUpdateEpisode_OnlyTouchesPatchedFields(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")
	createEpisode(t, s, "r1", "p1", "e1")

	pk, sk := keys.PartitionKey("r1"), keys.EpisodeSortKey("p1", "e1")
	before := fake.Item(pk, sk)

	status := store.StatusPublished
	updated, err := s.UpdateEpisode(ctx, "r1", "p1", "e1", store.EpisodePatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, store.StatusPublished, updated.Status)

	after := fake.Item(pk, sk)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "published"}, after["status"])
	delete(before, "status")
	delete(after, "status")
	assert.Equal(t, before, after)
}

func TestUpdateEpisode_MultipleFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")
	createEpisode(t, s, "r1", "p1", "e1")

	title := "Renamed"
	audio := store.File{Key: "audio/e1.mp3", ContentType: "audio/mpeg"}
	updated, err := s.UpdateEpisode(ctx, "r1", "p1", "e1", store.EpisodePatch{Title: &title, AudioFile: &audio})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	require.NotNil(t, updated.AudioFile)
	assert.Equal(t, audio, *updated.AudioFile)
	assert.Equal(t, store.StatusDraft, updated.Status)
}

func TestUpdateEpisode_Missing(t *testing.T) {
	s, fake := newTestStore(t)
	title := "x"

	_, err := s.UpdateEpisode(context.Background(), "r1", "p1", "nope", store.EpisodePatch{Title: &title})
	require.ErrorIs(t, err, store.ErrConflict)
	assert.Zero(t, fake.Len())
}

func TestUpdateEpisode_EmptyPatch(t *testing.T) {
	s, fake := newTestStore(t)

	_, err := s.UpdateEpisode(context.Background(), "r1", "p1", "e1", store.EpisodePatch{})
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Zero(t, fake.Calls("UpdateItem"))
	assert.True(t, store.EpisodePatch{}.IsEmpty())
}

func TestPublishEpisode(t *testing.T) {
	fixed := time.Date(2024, time.April, 1, 8, 0, 0, 0, time.UTC)
	s, _ := newTestStore(t, store.WithClock(func() time.Time { return fixed }))
	createRoom(t, s, "r1")
	createPlaylist(t, s, "r1", "p1")
	createEpisode(t, s, "r1", "p1", "e1")

	ep, err := s.PublishEpisode(context.Background(), "r1", "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusPublished, ep.Status)
	require.NotNil(t, ep.PublishedOn)
	assert.True(t, ep.PublishedOn.Equal(fixed))
}

func TestDeleteEpisode_LeavesSiblings(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	createRoom(t, s, "r1")
	p1 := createPlaylist(t, s, "r1", "p1")
	createEpisode(t, s, "r1", "p1", "e1")
	e2 := createEpisode(t, s, "r1", "p1", "e2")

	require.NoError(t, s.DeleteEpisode(ctx, "r1", "p1", "e1"))

	_, err := s.GetEpisode(ctx, "r1", "p1", "e1")
	require.ErrorIs(t, err, store.ErrNotFound)

	room, err := s.GetRoomWithNested(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, room.Playlists, 1)
	got := room.Playlists[0]
	assert.Equal(t, p1.Title, got.Title)
	assert.True(t, p1.CreatedOn.Equal(got.CreatedOn))
	assert.Equal(t, []string{"e2"}, episodeUIDs(got.Episodes))
	assert.Equal(t, e2.ImageFile, got.Episodes[0].ImageFile)
}

func TestDeleteEpisode_MissingIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.DeleteEpisode(context.Background(), "r1", "p1", "never"))
}

func TestDecode_FallbackDefaults(t *testing.T) {
	s, fake := newTestStore(t)
	ctx := context.Background()

	fake.Seed(map[string]types.AttributeValue{
		"pk":         &types.AttributeValueMemberS{Value: keys.PartitionKey("old")},
		"sk":         &types.AttributeValueMemberS{Value: keys.RoomSortKey("old")},
		"uid":        &types.AttributeValueMemberS{Value: "old"},
		"created_on": &types.AttributeValueMemberS{Value: "2019-01-01T00:00:00Z"},
	})
	fake.Seed(map[string]types.AttributeValue{
		"pk":         &types.AttributeValueMemberS{Value: keys.PartitionKey("old")},
		"sk":         &types.AttributeValueMemberS{Value: keys.PlaylistSortKey("p")},
		"uid":        &types.AttributeValueMemberS{Value: "p"},
		"created_on": &types.AttributeValueMemberS{Value: "2019-01-02T00:00:00Z"},
		"title":      &types.AttributeValueMemberNULL{Value: true},
	})

	room, err := s.GetRoom(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "", room.Title)
	assert.Equal(t, store.File{}, room.CoverFile)

	p, err := s.GetPlaylist(ctx, "old", "p")
	require.NoError(t, err)
	assert.Equal(t, "", p.Title)
	assert.Equal(t, "", p.Description)
}

func TestDecode_MissingRequiredField(t *testing.T) {
	s, fake := newTestStore(t)

	fake.Seed(map[string]types.AttributeValue{
		"pk":  &types.AttributeValueMemberS{Value: keys.PartitionKey("bad")},
		"sk":  &types.AttributeValueMemberS{Value: keys.RoomSortKey("bad")},
		"uid": &types.AttributeValueMemberS{Value: "bad"},
	})

	_, err := s.GetRoom(context.Background(), "bad")
	require.ErrorIs(t, err, store.ErrValidation)
	assert.Equal(t, http.StatusBadRequest, store.StatusCode(err))
}

func TestDecodeEpisode_UnknownStatus(t *testing.T) {
	_, err := store.DecodeEpisode(map[string]types.AttributeValue{
		"uid":        &types.AttributeValueMemberS{Value: "e1"},
		"created_on": &types.AttributeValueMemberS{Value: "2024-01-01T00:00:00Z"},
		"status":     &types.AttributeValueMemberS{Value: "archived"},
	})
	require.ErrorIs(t, err, store.ErrValidation)
}

func TestGetRooms_MostRecentFirst(t *testing.T) {
	s, fake := newTestStore(t)
	fake.PageSize = 2
	createRoom(t, s, "r1")
	createRoom(t, s, "r2")
	createPlaylist(t, s, "r2", "p1")
	createRoom(t, s, "r3")

	rooms, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2", "r1"}, roomUIDs(rooms))
	for _, r := range rooms {
		assert.Nil(t, r.Playlists)
	}
}

func TestGetRooms_TiesBrokenBySortKey(t *testing.T) {
	s, _ := newTestStore(t, store.WithClock(func() time.Time { return epoch }))
	createRoom(t, s, "b")
	createRoom(t, s, "c")
	createRoom(t, s, "a")

	rooms, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, roomUIDs(rooms))
}

func TestGetRooms_SkipsUndecodable(t *testing.T) {
	s, fake := newTestStore(t)
	createRoom(t, s, "r1")
	fake.Seed(map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: keys.PartitionKey("broken")},
		"sk": &types.AttributeValueMemberS{Value: keys.RoomSortKey("broken")},
	})

	rooms, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, roomUIDs(rooms))
}

func TestGetRooms_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	rooms, err := s.GetRooms(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestTransportErrors(t *testing.T) {
	boom := errors.New("connection reset")
	s, fake := newTestStore(t)
	fake.Errors["GetItem"] = boom
	fake.Errors["Scan"] = boom

	_, err := s.GetRoom(context.Background(), "r1")
	require.ErrorIs(t, err, store.ErrTransport)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, http.StatusInternalServerError, store.StatusCode(err))

	_, err = s.CreatePlaylist(context.Background(), "r1", store.Playlist{UID: "p1"})
	require.ErrorIs(t, err, store.ErrTransport)

	_, err = s.GetRooms(context.Background())
	require.ErrorIs(t, err, store.ErrTransport)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{store.ErrValidation, http.StatusBadRequest},
		{store.ErrNotFound, http.StatusNotFound},
		{store.ErrConflict, http.StatusConflict},
		{store.ErrDependencyMissing, http.StatusUnprocessableEntity},
		{store.ErrTableNotReady, http.StatusServiceUnavailable},
		{store.ErrTransport, http.StatusInternalServerError},
		{store.ErrBackupFailed, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.StatusCode(tt.err))
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	all := []error{
		store.ErrValidation,
		store.ErrConflict,
		store.ErrNotFound,
		store.ErrDependencyMissing,
		store.ErrTransport,
		store.ErrBackupFailed,
		store.ErrTableNotReady,
	}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}
}
