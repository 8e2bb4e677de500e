// Package stream turns DynamoDB Streams records of the podroom table into
// typed Room, Playlist and Episode changes.
package stream

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/keys"
	"github.com/jacentio/podroom/store"
)

// Notifier receives every decoded change. A returned error fails the batch.
type Notifier func(ctx context.Context, change Change) error

// Handler processes DynamoDB stream events.
type Handler struct {
	notify Notifier
	logger *zap.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(notify Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notify == nil {
		notify = func(context.Context, Change) error { return nil }
	}
	return &Handler{
		notify: notify,
		logger: logger,
	}
}

// HandleStream decodes each record and passes it to the notifier.
// This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleStream(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				zap.String("eventID", record.EventID),
				zap.Error(err),
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch EventType(record.EventName) {
	case EventInsert, EventModify, EventRemove:
	default:
		return nil
	}

	pk := getStringAttr(record.Change.Keys, "pk")
	sk := getStringAttr(record.Change.Keys, "sk")
	roomUID := keys.RoomUID(pk)
	if roomUID == "" || sk == "" {
		h.logger.Debug("ignoring foreign item", zap.String("pk", pk), zap.String("sk", sk))
		return nil
	}

	change, err := decodeChange(record, roomUID, sk)
	if err != nil {
		// Retrying cannot fix a malformed image.
		h.logger.Warn("skipping undecodable record",
			zap.String("eventID", record.EventID),
			zap.String("pk", pk),
			zap.String("sk", sk),
			zap.Error(err),
		)
		return nil
	}

	if err := h.notify(ctx, change); err != nil {
		return fmt.Errorf("notify %s %s: %w", change.Event, sk, err)
	}

	h.logger.Debug("change delivered",
		zap.String("event", string(change.Event)),
		zap.String("kind", string(change.Kind)),
		zap.String("room", change.RoomUID),
		zap.Bool("published", change.Published()),
	)
	return nil
}

func decodeChange(record events.DynamoDBEventRecord, roomUID, sk string) (Change, error) {
	change := Change{
		EventID: record.EventID,
		Event:   EventType(record.EventName),
		Kind:    keys.Classify(sk),
		At:      record.Change.ApproximateCreationDateTime.Time,
		RoomUID: roomUID,
	}
	if change.Kind != keys.KindRoom {
		change.PlaylistUID = keys.PlaylistUID(sk)
	}
	if change.Kind == keys.KindEpisode {
		change.EpisodeUID = keys.EpisodeUID(sk)
	}

	newImage := ConvertStreamImage(record.Change.NewImage)
	oldImage := ConvertStreamImage(record.Change.OldImage)

	var err error
	switch change.Kind {
	case keys.KindRoom:
		change.Room, err = decodeImage(newImage, store.DecodeRoom)
		if err == nil {
			change.OldRoom, err = decodeImage(oldImage, store.DecodeRoom)
		}
	case keys.KindPlaylist:
		change.Playlist, err = decodeImage(newImage, store.DecodePlaylist)
		if err == nil {
			change.OldPlaylist, err = decodeImage(oldImage, store.DecodePlaylist)
		}
	case keys.KindEpisode:
		change.Episode, err = decodeImage(newImage, store.DecodeEpisode)
		if err == nil {
			change.OldEpisode, err = decodeImage(oldImage, store.DecodeEpisode)
		}
	}
	if err != nil {
		return Change{}, err
	}
	return change, nil
}

// decodeImage returns nil when the stream did not carry the image.
func decodeImage[T any](image map[string]types.AttributeValue, decode func(map[string]types.AttributeValue) (T, error)) (*T, error) {
	if len(image) == 0 {
		return nil, nil
	}
	v, err := decode(image)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// LogNotifier returns a Notifier that logs each change. Episodes entering
// the published status are logged at info level so feed regeneration can be
// triggered from them.
func LogNotifier(logger *zap.Logger) Notifier {
	return func(_ context.Context, change Change) error {
		fields := []zap.Field{
			zap.String("event", string(change.Event)),
			zap.String("kind", string(change.Kind)),
			zap.String("room", change.RoomUID),
			zap.String("playlist", change.PlaylistUID),
			zap.String("episode", change.EpisodeUID),
		}
		if change.Published() {
			logger.Info("episode published", fields...)
			return nil
		}
		logger.Debug("change", fields...)
		return nil
	}
}
