package store

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-playground/validator/v10"

	"github.com/jacentio/podroom/internal/keys"
	"github.com/jacentio/podroom/internal/schema"
)

// Internal attribute names. They address and order items and are never
// returned to callers.
const (
	attrPK        = "pk"
	attrSK        = "sk"
	attrCreatedTS = "created_ts"
)

var internalAttrs = []string{attrPK, attrSK, attrCreatedTS}

var (
	emptyString = &types.AttributeValueMemberS{Value: ""}
	emptyMap    = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
)

var roomSchema = schema.Schema{
	Name: "room",
	Fields: []schema.Field{
		schema.Req("uid", schema.String),
		schema.Req("created_on", schema.String),
		schema.WithDefault("title", schema.String, emptyString),
		schema.WithDefault("cover_file", schema.Map, emptyMap),
	},
	Internal: internalAttrs,
}

var playlistSchema = schema.Schema{
	Name: "playlist",
	Fields: []schema.Field{
		schema.Req("uid", schema.String),
		schema.Req("created_on", schema.String),
		schema.WithDefault("title", schema.String, emptyString),
		schema.WithDefault("description", schema.String, emptyString),
		schema.WithDefault("cover_file", schema.Map, emptyMap),
	},
	Internal: internalAttrs,
}

var episodeSchema = schema.Schema{
	Name: "episode",
	Fields: []schema.Field{
		schema.Req("uid", schema.String),
		schema.Req("created_on", schema.String),
		schema.WithDefault("title", schema.String, emptyString),
		schema.Req("status", schema.String),
		schema.WithDefault("image_file", schema.Map, emptyMap),
		schema.Opt("audio_file", schema.Map),
		schema.Opt("published_on", schema.String),
	},
	Internal: internalAttrs,
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("keysafe", func(fl validator.FieldLevel) bool {
			return keys.Safe(fl.Field().String())
		})
	})
	return validate
}

// validateEntity runs the struct-tag rules of an entity or patch.
func validateEntity(kind string, v any) error {
	if err := entityValidator().Struct(v); err != nil {
		return validationError(kind, err)
	}
	return nil
}

// encodeItem marshals an entity and adds the internal key attributes.
func encodeItem(v any, pk, sk string, createdOn time.Time) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, validationError("encode", err)
	}
	item[attrPK] = &types.AttributeValueMemberS{Value: pk}
	item[attrSK] = &types.AttributeValueMemberS{Value: sk}
	item[attrCreatedTS] = &types.AttributeValueMemberN{Value: strconv.FormatInt(createdOn.UnixMilli(), 10)}
	return item, nil
}

func decodeItem[T any](s schema.Schema, raw map[string]types.AttributeValue) (T, error) {
	var out T
	clean, err := s.Normalize(raw)
	if err != nil {
		return out, validationError("decode "+s.Name, err)
	}
	if err := attributevalue.UnmarshalMap(clean, &out); err != nil {
		return out, validationError("decode "+s.Name, err)
	}
	return out, nil
}

// DecodeRoom decodes a raw Room item.
func DecodeRoom(raw map[string]types.AttributeValue) (Room, error) {
	return decodeItem[Room](roomSchema, raw)
}

// DecodePlaylist decodes a raw Playlist item.
func DecodePlaylist(raw map[string]types.AttributeValue) (Playlist, error) {
	return decodeItem[Playlist](playlistSchema, raw)
}

// DecodeEpisode decodes a raw Episode item. The status must be one of the
// known values.
func DecodeEpisode(raw map[string]types.AttributeValue) (Episode, error) {
	ep, err := decodeItem[Episode](episodeSchema, raw)
	if err != nil {
		return ep, err
	}
	switch ep.Status {
	case StatusDraft, StatusPublished, StatusDeleted:
		return ep, nil
	default:
		return Episode{}, validationError("decode episode", fmt.Errorf("unknown status %q", ep.Status))
	}
}

// createdTS returns the numeric creation timestamp of a raw item, or 0.
func createdTS(raw map[string]types.AttributeValue) int64 {
	v, ok := raw[attrCreatedTS].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	ts, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

func stringAttr(raw map[string]types.AttributeValue, name string) string {
	if v, ok := raw[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
