package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/keys"
)

// GetRoomWithNested loads a Room with its Playlists and their Episodes in
// one partition query. Siblings are ordered most recent first. Episodes
// whose Playlist is missing are dropped. A decode failure on any item fails
// the whole call; a partial tree is never returned.
func (s *Store) GetRoomWithNested(ctx context.Context, roomUID string) (Room, error) {
	items, err := s.queryPartition(ctx, keys.PartitionKey(roomUID))
	if err != nil {
		return Room{}, err
	}
	room, err := reconstruct(items)
	if err != nil {
		s.logger.Warn("room reconstruction failed",
			zap.String("room", roomUID),
			zap.Int("items", len(items)),
			zap.Error(err),
		)
		return Room{}, err
	}
	return room, nil
}

func (s *Store) queryPartition(ctx context.Context, pk string) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key(attrPK).Equal(expression.Value(pk))).
		Build()
	if err != nil {
		return nil, validationError("build key condition", err)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.transport("Query", err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// sortByCreated orders raw items by created_ts descending. Equal timestamps
// fall back to ascending sort key so the output is deterministic.
func sortByCreated(items []map[string]types.AttributeValue) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := createdTS(items[i]), createdTS(items[j])
		if ti != tj {
			return ti > tj
		}
		return stringAttr(items[i], attrSK) < stringAttr(items[j], attrSK)
	})
}

// reconstruct builds the Room tree from the unordered items of one partition.
func reconstruct(items []map[string]types.AttributeValue) (Room, error) {
	sorted := make([]map[string]types.AttributeValue, len(items))
	copy(sorted, items)
	sortByCreated(sorted)

	var roomItems, playlistItems, episodeItems []map[string]types.AttributeValue
	for _, item := range sorted {
		switch keys.Classify(stringAttr(item, attrSK)) {
		case keys.KindEpisode:
			episodeItems = append(episodeItems, item)
		case keys.KindPlaylist:
			playlistItems = append(playlistItems, item)
		default:
			roomItems = append(roomItems, item)
		}
	}

	if len(roomItems) != 1 {
		return Room{}, fmt.Errorf("%w: expected one room item, found %d", ErrNotFound, len(roomItems))
	}

	room, err := DecodeRoom(roomItems[0])
	if err != nil {
		return Room{}, err
	}

	// Sort key order of the playlists, already most recent first.
	order := make([]string, 0, len(playlistItems))
	playlists := make(map[string]*Playlist, len(playlistItems))
	for _, item := range playlistItems {
		p, err := DecodePlaylist(item)
		if err != nil {
			return Room{}, err
		}
		p.Episodes = []Episode{}
		sk := stringAttr(item, attrSK)
		order = append(order, sk)
		playlists[sk] = &p
	}

	for _, item := range episodeItems {
		ep, err := DecodeEpisode(item)
		if err != nil {
			return Room{}, err
		}
		parent, ok := playlists[keys.EpisodePlaylistSortKey(stringAttr(item, attrSK))]
		if !ok {
			continue
		}
		parent.Episodes = append(parent.Episodes, ep)
	}

	room.Playlists = make([]Playlist, 0, len(order))
	for _, sk := range order {
		room.Playlists = append(room.Playlists, *playlists[sk])
	}
	return room, nil
}
