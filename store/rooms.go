package store

import (
	"context"
	"errors"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/jacentio/podroom/internal/keys"
)

// CreateRoom stores a new Room and returns it as read back from the table.
// An empty UID is generated and a zero CreatedOn is stamped with the
// current time. Playlists on the argument are ignored.
func (s *Store) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if room.UID == "" {
		room.UID = s.newID()
	}
	if room.CreatedOn.IsZero() {
		room.CreatedOn = s.now()
	}
	room.Playlists = nil
	if err := validateEntity("room", room); err != nil {
		return Room{}, err
	}

	item, err := encodeItem(room, keys.PartitionKey(room.UID), keys.RoomSortKey(room.UID), room.CreatedOn)
	if err != nil {
		return Room{}, err
	}
	if err := s.putNew(ctx, item, attrPK); err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Info("room already exists", zap.String("room", room.UID))
		}
		return Room{}, err
	}

	s.logger.Info("room created", zap.String("room", room.UID))
	return s.GetRoom(ctx, room.UID)
}

// GetRoom returns the Room item without its playlists.
func (s *Store) GetRoom(ctx context.Context, roomUID string) (Room, error) {
	raw, err := s.getRaw(ctx, keys.PartitionKey(roomUID), keys.RoomSortKey(roomUID))
	if err != nil {
		return Room{}, err
	}
	return DecodeRoom(raw)
}

// GetRooms scans the table for Room items and returns them most recent
// first. Items that fail to decode are logged and skipped.
func (s *Store) GetRooms(ctx context.Context) ([]Room, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name(attrSK).BeginsWith(keys.RoomSortKeyPrefix())).
		Build()
	if err != nil {
		return nil, validationError("build filter", err)
	}

	type decoded struct {
		room Room
		ts   int64
		sk   string
	}
	var rooms []decoded

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.config.TableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, s.transport("Scan", err)
		}
		for _, raw := range page.Items {
			room, err := DecodeRoom(raw)
			if err != nil {
				s.logger.Warn("skipping undecodable room",
					zap.String("pk", stringAttr(raw, attrPK)),
					zap.Error(err),
				)
				continue
			}
			rooms = append(rooms, decoded{room: room, ts: createdTS(raw), sk: stringAttr(raw, attrSK)})
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].ts != rooms[j].ts {
			return rooms[i].ts > rooms[j].ts
		}
		return rooms[i].sk < rooms[j].sk
	})

	out := make([]Room, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.room)
	}
	return out, nil
}
