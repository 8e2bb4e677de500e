package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/keys"
)

// CreatePlaylist stores a new Playlist under an existing Room.
func (s *Store) CreatePlaylist(ctx context.Context, roomUID string, playlist Playlist) (Playlist, error) {
	if playlist.UID == "" {
		playlist.UID = s.newID()
	}
	if playlist.CreatedOn.IsZero() {
		playlist.CreatedOn = s.now()
	}
	playlist.Episodes = nil
	if err := validateEntity("playlist", playlist); err != nil {
		return Playlist{}, err
	}

	pk := keys.PartitionKey(roomUID)
	ok, err := s.exists(ctx, pk, keys.RoomSortKey(roomUID))
	if err != nil {
		return Playlist{}, err
	}
	if !ok {
		return Playlist{}, ErrDependencyMissing
	}

	item, err := encodeItem(playlist, pk, keys.PlaylistSortKey(playlist.UID), playlist.CreatedOn)
	if err != nil {
		return Playlist{}, err
	}
	if err := s.putNew(ctx, item, attrSK); err != nil {
		return Playlist{}, err
	}

	s.logger.Info("playlist created",
		zap.String("room", roomUID),
		zap.String("playlist", playlist.UID),
	)
	return s.GetPlaylist(ctx, roomUID, playlist.UID)
}

// GetPlaylist returns the Playlist item without its episodes.
func (s *Store) GetPlaylist(ctx context.Context, roomUID, playlistUID string) (Playlist, error) {
	raw, err := s.getRaw(ctx, keys.PartitionKey(roomUID), keys.PlaylistSortKey(playlistUID))
	if err != nil {
		return Playlist{}, err
	}
	return DecodePlaylist(raw)
}
