// Package store persists podroom Rooms, Playlists and Episodes in a single
// DynamoDB table.
//
// Every item of a Room subtree shares the partition key ROOMPK#{room}, and
// sort keys are type tagged:
//
//	ROOM#{room}
//	PLAYLIST#{playlist}
//	PLAYLIST#{playlist}:EPISODE#{episode}
//
// so [Store.GetRoomWithNested] rebuilds the whole tree from one Query.
//
// # Key Features
//
//   - Lazy table creation with bounded readiness polling ([Store.Initiate])
//   - Best-effort on-demand backups ([Store.Backup])
//   - Create-only conditional puts; duplicates are rejected, never overwritten
//   - Parent existence checks before Playlist and Episode creation
//   - Typed partial Episode updates ([EpisodePatch])
//   - Tolerant decoding of old items through per-field fallback defaults
//
// # Configuration
//
// Use [DefaultConfig] and inject the DynamoDB client:
//
//	s := store.New(dynamodb.NewFromConfig(awsCfg), store.DefaultConfig(),
//	    store.WithLogger(logger))
//	if _, err := s.Initiate(ctx); err != nil {
//	    return err
//	}
//
// # Errors
//
// Operations return the decoded entity or one of:
//
//   - [ErrValidation] - schema violated on write or on decode
//   - [ErrConflict] - duplicate key on create, missing item on update
//   - [ErrNotFound] - lookup returned nothing
//   - [ErrDependencyMissing] - parent Room or Playlist absent
//   - [ErrTransport] - the DynamoDB call failed
//   - [ErrBackupFailed] - backup request failed (non-fatal)
//   - [ErrTableNotReady] - table never became ACTIVE
//
// [StatusCode] maps them to coarse HTTP statuses.
package store
