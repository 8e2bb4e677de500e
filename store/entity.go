package store

import "time"

// EpisodeStatus is the publication state of an Episode.
type EpisodeStatus string

const (
	StatusDraft     EpisodeStatus = "draft"
	StatusPublished EpisodeStatus = "published"
	StatusDeleted   EpisodeStatus = "deleted"
)

// File references an uploaded object such as a cover image or audio track.
type File struct {
	Key         string `dynamodbav:"key" json:"key" validate:"required"`
	URL         string `dynamodbav:"url,omitempty" json:"url,omitempty" validate:"omitempty,url"`
	ContentType string `dynamodbav:"content_type,omitempty" json:"content_type,omitempty"`
}

// Room is the root of a hierarchy. Playlists are never stored on the Room
// item; they are filled in by GetRoomWithNested.
type Room struct {
	UID       string     `dynamodbav:"uid" json:"uid" validate:"required,keysafe"`
	CreatedOn time.Time  `dynamodbav:"created_on" json:"created_on"`
	Title     string     `dynamodbav:"title" json:"title" validate:"max=512"`
	CoverFile File       `dynamodbav:"cover_file" json:"cover_file" validate:"-"`
	Playlists []Playlist `dynamodbav:"-" json:"playlists,omitempty" validate:"-"`
}

// Playlist belongs to exactly one Room.
type Playlist struct {
	UID         string    `dynamodbav:"uid" json:"uid" validate:"required,keysafe"`
	CreatedOn   time.Time `dynamodbav:"created_on" json:"created_on"`
	Title       string    `dynamodbav:"title" json:"title" validate:"max=512"`
	Description string    `dynamodbav:"description" json:"description" validate:"max=4096"`
	CoverFile   File      `dynamodbav:"cover_file" json:"cover_file" validate:"-"`
	Episodes    []Episode `dynamodbav:"-" json:"episodes,omitempty" validate:"-"`
}

// Episode belongs to exactly one Playlist.
type Episode struct {
	UID         string        `dynamodbav:"uid" json:"uid" validate:"required,keysafe"`
	CreatedOn   time.Time     `dynamodbav:"created_on" json:"created_on"`
	Title       string        `dynamodbav:"title" json:"title" validate:"max=512"`
	Status      EpisodeStatus `dynamodbav:"status" json:"status" validate:"required,oneof=draft published deleted"`
	ImageFile   File          `dynamodbav:"image_file" json:"image_file" validate:"-"`
	AudioFile   *File         `dynamodbav:"audio_file,omitempty" json:"audio_file,omitempty" validate:"omitempty"`
	PublishedOn *time.Time    `dynamodbav:"published_on,omitempty" json:"published_on,omitempty"`
}

// EpisodePatch lists the Episode fields that may change after creation.
// Nil fields are left untouched.
type EpisodePatch struct {
	Title       *string        `validate:"omitempty,max=512"`
	Status      *EpisodeStatus `validate:"omitempty,oneof=draft published deleted"`
	ImageFile   *File          `validate:"omitempty"`
	AudioFile   *File          `validate:"omitempty"`
	PublishedOn *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p EpisodePatch) IsEmpty() bool {
	return len(p.fields()) == 0
}

// fields returns the stored attribute name and value of every set field,
// in a fixed order.
func (p EpisodePatch) fields() []patchField {
	var out []patchField
	if p.Title != nil {
		out = append(out, patchField{"title", *p.Title})
	}
	if p.Status != nil {
		out = append(out, patchField{"status", *p.Status})
	}
	if p.ImageFile != nil {
		out = append(out, patchField{"image_file", *p.ImageFile})
	}
	if p.AudioFile != nil {
		out = append(out, patchField{"audio_file", *p.AudioFile})
	}
	if p.PublishedOn != nil {
		out = append(out, patchField{"published_on", *p.PublishedOn})
	}
	return out
}

type patchField struct {
	name  string
	value any
}
