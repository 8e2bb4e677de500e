package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ImportReport summarises an Import run.
type ImportReport struct {
	Backup           string `json:"backup,omitempty"`
	BackupFailed     bool   `json:"backup_failed,omitempty"`
	RoomsCreated     int    `json:"rooms_created"`
	RoomsSkipped     int    `json:"rooms_skipped"`
	PlaylistsCreated int    `json:"playlists_created"`
	EpisodesCreated  int    `json:"episodes_created"`
}

// Import writes whole Room trees, taking a best-effort backup first.
// CreatedOn values on the input are preserved. Rooms, playlists and
// episodes that already exist are left as they are. Import stops at the
// first error other than a conflict.
func (s *Store) Import(ctx context.Context, rooms []Room) (ImportReport, error) {
	var report ImportReport

	name, err := s.Backup(ctx)
	report.Backup = name
	if err != nil {
		report.BackupFailed = true
		s.logger.Warn("continuing import without backup", zap.Error(err))
	}

	for _, room := range rooms {
		playlists := room.Playlists
		created, err := s.CreateRoom(ctx, room)
		switch {
		case errors.Is(err, ErrConflict):
			report.RoomsSkipped++
			created = room
		case err != nil:
			return report, fmt.Errorf("import room %s: %w", room.UID, err)
		default:
			report.RoomsCreated++
		}

		for _, playlist := range playlists {
			if err := s.importPlaylist(ctx, created.UID, playlist, &report); err != nil {
				return report, err
			}
		}
	}

	s.logger.Info("import finished",
		zap.Int("roomsCreated", report.RoomsCreated),
		zap.Int("roomsSkipped", report.RoomsSkipped),
		zap.Int("playlistsCreated", report.PlaylistsCreated),
		zap.Int("episodesCreated", report.EpisodesCreated),
	)
	return report, nil
}

func (s *Store) importPlaylist(ctx context.Context, roomUID string, playlist Playlist, report *ImportReport) error {
	episodes := playlist.Episodes
	created, err := s.CreatePlaylist(ctx, roomUID, playlist)
	switch {
	case errors.Is(err, ErrConflict):
		created = playlist
	case err != nil:
		return fmt.Errorf("import playlist %s/%s: %w", roomUID, playlist.UID, err)
	default:
		report.PlaylistsCreated++
	}

	for _, episode := range episodes {
		_, err := s.CreateEpisode(ctx, roomUID, created.UID, episode)
		switch {
		case errors.Is(err, ErrConflict):
		case err != nil:
			return fmt.Errorf("import episode %s/%s/%s: %w", roomUID, created.UID, episode.UID, err)
		default:
			report.EpisodesCreated++
		}
	}
	return nil
}
