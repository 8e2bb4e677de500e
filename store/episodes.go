package store

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/keys"
)

// CreateEpisode stores a new Episode under an existing Playlist. An empty
// status defaults to draft.
func (s *Store) CreateEpisode(ctx context.Context, roomUID, playlistUID string, episode Episode) (Episode, error) {
	if episode.UID == "" {
		episode.UID = s.newID()
	}
	if episode.CreatedOn.IsZero() {
		episode.CreatedOn = s.now()
	}
	if episode.Status == "" {
		episode.Status = StatusDraft
	}
	if err := validateEntity("episode", episode); err != nil {
		return Episode{}, err
	}

	pk := keys.PartitionKey(roomUID)
	ok, err := s.exists(ctx, pk, keys.PlaylistSortKey(playlistUID))
	if err != nil {
		return Episode{}, err
	}
	if !ok {
		return Episode{}, ErrDependencyMissing
	}

	item, err := encodeItem(episode, pk, keys.EpisodeSortKey(playlistUID, episode.UID), episode.CreatedOn)
	if err != nil {
		return Episode{}, err
	}
	if err := s.putNew(ctx, item, attrSK); err != nil {
		return Episode{}, err
	}

	s.logger.Info("episode created",
		zap.String("room", roomUID),
		zap.String("playlist", playlistUID),
		zap.String("episode", episode.UID),
	)
	return s.GetEpisode(ctx, roomUID, playlistUID, episode.UID)
}

// GetEpisode returns a single Episode.
func (s *Store) GetEpisode(ctx context.Context, roomUID, playlistUID, episodeUID string) (Episode, error) {
	raw, err := s.getRaw(ctx, keys.PartitionKey(roomUID), keys.EpisodeSortKey(playlistUID, episodeUID))
	if err != nil {
		return Episode{}, err
	}
	return DecodeEpisode(raw)
}

// UpdateEpisode sets exactly the fields present in patch on an existing
// Episode and returns the result. Updating a missing Episode returns
// ErrConflict.
func (s *Store) UpdateEpisode(ctx context.Context, roomUID, playlistUID, episodeUID string, patch EpisodePatch) (Episode, error) {
	fields := patch.fields()
	if len(fields) == 0 {
		return Episode{}, validationError("episode patch", errors.New("no fields to update"))
	}
	if err := validateEntity("episode patch", patch); err != nil {
		return Episode{}, err
	}

	update := expression.Set(expression.Name(fields[0].name), expression.Value(fields[0].value))
	for _, f := range fields[1:] {
		update = update.Set(expression.Name(f.name), expression.Value(f.value))
	}
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return Episode{}, validationError("build update", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       itemKey(keys.PartitionKey(roomUID), keys.EpisodeSortKey(playlistUID, episodeUID)),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return Episode{}, ErrConflict
		}
		return Episode{}, s.transport("UpdateItem", err)
	}

	s.logger.Info("episode updated",
		zap.String("room", roomUID),
		zap.String("playlist", playlistUID),
		zap.String("episode", episodeUID),
		zap.Int("fields", len(fields)),
	)
	return s.GetEpisode(ctx, roomUID, playlistUID, episodeUID)
}

// PublishEpisode marks an Episode published and stamps PublishedOn.
func (s *Store) PublishEpisode(ctx context.Context, roomUID, playlistUID, episodeUID string) (Episode, error) {
	status := StatusPublished
	now := s.now()
	return s.UpdateEpisode(ctx, roomUID, playlistUID, episodeUID, EpisodePatch{
		Status:      &status,
		PublishedOn: &now,
	})
}

// DeleteEpisode removes an Episode. Deleting a missing Episode succeeds.
func (s *Store) DeleteEpisode(ctx context.Context, roomUID, playlistUID, episodeUID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       itemKey(keys.PartitionKey(roomUID), keys.EpisodeSortKey(playlistUID, episodeUID)),
	})
	if err != nil {
		return s.transport("DeleteItem", err)
	}

	s.logger.Info("episode deleted",
		zap.String("room", roomUID),
		zap.String("playlist", playlistUID),
		zap.String("episode", episodeUID),
	)
	return nil
}
