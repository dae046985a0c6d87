package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type ItemID string

// NewItemID generates a new unique ItemID
func NewItemID() ItemID {
	return ItemID(uuid.New().String())
}

type ItemType string

const (
	ItemTypeIdea        ItemType = "idea"
	ItemTypeImage       ItemType = "image"
	ItemTypeThumbnail   ItemType = "thumbnail"
	ItemTypeVideoScript ItemType = "video_script"
)

// ItemTypes lists every valid item type in display order
func ItemTypes() []ItemType {
	return []ItemType{ItemTypeIdea, ItemTypeImage, ItemTypeThumbnail, ItemTypeVideoScript}
}

// Validate checks if the item type is valid
func (t ItemType) Validate() error {
	switch t {
	case ItemTypeIdea, ItemTypeImage, ItemTypeThumbnail, ItemTypeVideoScript:
		return nil
	default:
		return goerr.Wrap(ErrInvalidItemType, "unknown item type", goerr.V("type", t))
	}
}

// IsBinary reports whether content of this type holds an embedded binary string
func (t ItemType) IsBinary() bool {
	return t == ItemTypeImage || t == ItemTypeThumbnail
}

// SavedItem is the only persisted entity. It is never mutated after creation.
type SavedItem struct {
	ID      ItemID   `json:"id"`
	Type    ItemType `json:"type"`
	Content string   `json:"content"`
	Meta    ItemMeta `json:"meta"`
}

type ItemMeta struct {
	Title    string `json:"title,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Date     string `json:"date"`
	Platform string `json:"platform,omitempty"`
}

// NewItem is a SavedItem before an ID is assigned
type NewItem struct {
	Type    ItemType
	Content string
	Meta    ItemMeta
}

// Validate checks if the item can be stored
func (x *NewItem) Validate() error {
	if err := x.Type.Validate(); err != nil {
		return err
	}
	if x.Content == "" {
		return goerr.New("item content is empty", goerr.T(TagValidation), goerr.V("type", x.Type))
	}
	return nil
}

// Timestamp formats t the way item dates are stored
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// CreatedAt parses Meta.Date. A zero time is returned for unparsable dates.
func (x *SavedItem) CreatedAt() time.Time {
	t, err := time.Parse(time.RFC3339Nano, x.Meta.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}
