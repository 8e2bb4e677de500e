// Package keys encodes Room, Playlist and Episode identities into the
// partition and sort keys of the single podroom table.
//
// Every item belonging to a Room shares the Room's partition key, so one
// Query on the partition returns the whole Room subtree.
package keys

import "strings"

const (
	partitionPrefix = "ROOMPK#"
	roomPrefix      = "ROOM#"
	playlistPrefix  = "PLAYLIST#"
	episodeSep      = ":EPISODE#"

	playlistTag = "PLAYLIST"
	episodeTag  = "EPISODE"
	roomTag     = "ROOM"
)

// Kind identifies which entity an item's sort key belongs to.
type Kind string

const (
	KindRoom     Kind = "room"
	KindPlaylist Kind = "playlist"
	KindEpisode  Kind = "episode"
)

// PartitionKey returns the partition key shared by a Room and all its descendants.
func PartitionKey(roomUID string) string {
	return partitionPrefix + roomUID
}

// RoomSortKey returns the sort key of the Room item.
func RoomSortKey(roomUID string) string {
	return roomPrefix + roomUID
}

// RoomSortKeyPrefix is the prefix shared by every Room sort key.
func RoomSortKeyPrefix() string {
	return roomPrefix
}

// PlaylistSortKey returns the sort key of a Playlist item.
func PlaylistSortKey(playlistUID string) string {
	return playlistPrefix + playlistUID
}

// EpisodeSortKey returns the sort key of an Episode item. The owning
// Playlist's sort key is a prefix of it.
func EpisodeSortKey(playlistUID, episodeUID string) string {
	return PlaylistSortKey(playlistUID) + episodeSep + episodeUID
}

// Classify maps a raw sort key back to its entity kind.
func Classify(sortKey string) Kind {
	switch {
	case strings.Contains(sortKey, episodeTag):
		return KindEpisode
	case strings.Contains(sortKey, playlistTag):
		return KindPlaylist
	default:
		return KindRoom
	}
}

// EpisodePlaylistSortKey recovers the owning Playlist's sort key from an
// Episode sort key.
func EpisodePlaylistSortKey(episodeSortKey string) string {
	return strings.SplitN(episodeSortKey, episodeSep, 2)[0]
}

// RoomUID extracts the Room uid from a partition key. It returns "" when
// the key is not a podroom partition key.
func RoomUID(partitionKey string) string {
	uid, ok := strings.CutPrefix(partitionKey, partitionPrefix)
	if !ok {
		return ""
	}
	return uid
}

// PlaylistUID extracts the Playlist uid from a Playlist or Episode sort key.
func PlaylistUID(sortKey string) string {
	uid, ok := strings.CutPrefix(EpisodePlaylistSortKey(sortKey), playlistPrefix)
	if !ok {
		return ""
	}
	return uid
}

// EpisodeUID extracts the Episode uid from an Episode sort key.
func EpisodeUID(sortKey string) string {
	_, uid, ok := strings.Cut(sortKey, episodeSep)
	if !ok {
		return ""
	}
	return uid
}

// Safe reports whether uid can be embedded in a key without confusing
// Classify or the separator split. Separators and type tags are rejected
// instead of escaped.
func Safe(uid string) bool {
	if uid == "" {
		return false
	}
	if strings.ContainsAny(uid, "#:") {
		return false
	}
	for _, tag := range []string{roomTag, playlistTag, episodeTag} {
		if strings.Contains(uid, tag) {
			return false
		}
	}
	return true
}
