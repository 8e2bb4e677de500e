package stream

import (
	"time"

	"github.com/jacentio/podroom/internal/keys"
	"github.com/jacentio/podroom/store"
)

// EventType is the kind of modification a stream record describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventModify EventType = "MODIFY"
	EventRemove EventType = "REMOVE"
)

// Change is a decoded stream record. Only the pointers matching Kind are
// set, and only for the images the stream carried: INSERT has a new image,
// REMOVE an old one, MODIFY both.
type Change struct {
	EventID string
	Event   EventType
	Kind    keys.Kind
	At      time.Time

	RoomUID     string
	PlaylistUID string
	EpisodeUID  string

	Room        *store.Room
	OldRoom     *store.Room
	Playlist    *store.Playlist
	OldPlaylist *store.Playlist
	Episode     *store.Episode
	OldEpisode  *store.Episode
}

// Published reports whether the change moved an Episode into the
// published status.
func (c Change) Published() bool {
	if c.Kind != keys.KindEpisode || c.Episode == nil {
		return false
	}
	if c.Episode.Status != store.StatusPublished {
		return false
	}
	return c.OldEpisode == nil || c.OldEpisode.Status != store.StatusPublished
}
