package model

import "strings"

// Well-known tag names.
const (
	TagWishlist = "Wishlist"
	TagFavorite = "Favorite"
)

// Tag is a short label on a UserGame. Tags are stored as an embedded list of
// names, so the ID is only set when a caller assigns one.
type Tag struct {
	id   *int64
	name string
}

func NewTag(name string) Tag {
	return Tag{name: name}
}

func NewTagWithID(id int64, name string) Tag {
	return Tag{id: &id, name: name}
}

// ID returns the storage id, or nil when none was assigned.
func (t Tag) ID() *int64 { return t.id }

func (t Tag) Name() string { return t.name }

// Matches reports whether the tag's name equals name, ignoring case.
func (t Tag) Matches(name string) bool {
	return strings.EqualFold(t.name, name)
}

// TagsFromNames wraps each name in a Tag.
func TagsFromNames(names []string) []Tag {
	tags := make([]Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, NewTag(n))
	}
	return tags
}
