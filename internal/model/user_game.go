package model

import (
	"math"
	"time"

	"github.com/sakif/hostcart/internal/apperror"
)

// UserGameOptions carries the optional, user-owned fields of a UserGame.
// Zero values pick the defaults: status not_played, zero played time,
// date added = now.
type UserGameOptions struct {
	ID            *int64
	Status        GameStatus
	UserRating    *int
	UserReview    *string
	PlayedTime    int // minutes
	DateAdded     time.Time
	DateStarted   *time.Time
	DateCompleted *time.Time
	LastPlayed    *time.Time
	Notes         *string
}

// UserGame is one game in the user's collection and the unit the repository
// persists. It owns its Game and its tag list.
//
// The non-empty tag list and non-negative played time are checked by
// NewUserGame only. ClearTags and UpdatePlaytime can break them afterwards;
// the repository rejects an empty tag list when writing.
type UserGame struct {
	id   *int64
	game Game
	tags []Tag

	Status        GameStatus
	UserRating    *int
	UserReview    *string
	PlayedTime    int // minutes
	DateAdded     time.Time
	DateStarted   *time.Time
	DateCompleted *time.Time
	LastPlayed    *time.Time
	Notes         *string
}

// NewUserGame validates and builds a UserGame.
func NewUserGame(game Game, tags []Tag, opts UserGameOptions) (*UserGame, error) {
	if game.ID() == "" || game.Name() == "" {
		return nil, apperror.ValidationFailed("game", "game must be built with NewGame")
	}
	if len(tags) == 0 {
		return nil, apperror.ValidationFailed("tags", "tags must not be empty")
	}
	if opts.PlayedTime < 0 {
		return nil, apperror.ValidationFailed("played_time", "played_time must not be negative")
	}

	status := opts.Status
	if status == "" {
		status = StatusNotPlayed
	}
	if !status.Valid() {
		return nil, apperror.ValidationFailed("status", "unknown game status "+string(status))
	}

	dateAdded := opts.DateAdded
	if dateAdded.IsZero() {
		dateAdded = time.Now()
	}

	owned := make([]Tag, len(tags))
	copy(owned, tags)

	return &UserGame{
		id:            opts.ID,
		game:          game,
		tags:          owned,
		Status:        status,
		UserRating:    opts.UserRating,
		UserReview:    opts.UserReview,
		PlayedTime:    opts.PlayedTime,
		DateAdded:     dateAdded,
		DateStarted:   opts.DateStarted,
		DateCompleted: opts.DateCompleted,
		LastPlayed:    opts.LastPlayed,
		Notes:         opts.Notes,
	}, nil
}

// ID returns the storage-assigned row id, or nil before the first insert.
func (ug *UserGame) ID() *int64 { return ug.id }

// WithID returns a copy of ug carrying the given storage id.
func (ug *UserGame) WithID(id int64) *UserGame {
	cp := *ug
	cp.id = &id
	cp.tags = ug.Tags()
	return &cp
}

func (ug *UserGame) Game() Game { return ug.game }

// Tags returns a copy of the tag list.
func (ug *UserGame) Tags() []Tag {
	out := make([]Tag, len(ug.tags))
	copy(out, ug.tags)
	return out
}

func (ug *UserGame) TagNames() []string {
	names := make([]string, 0, len(ug.tags))
	for _, t := range ug.tags {
		names = append(names, t.Name())
	}
	return names
}

// HasTag reports whether a tag with this name is present, ignoring case.
func (ug *UserGame) HasTag(name string) bool {
	for _, t := range ug.tags {
		if t.Matches(name) {
			return true
		}
	}
	return false
}

// AddTag appends tag unless one with the same name is already present.
func (ug *UserGame) AddTag(tag Tag) bool {
	if ug.HasTag(tag.Name()) {
		return false
	}
	ug.tags = append(ug.tags, tag)
	return true
}

// AddTags returns how many of tags were actually added.
func (ug *UserGame) AddTags(tags []Tag) int {
	added := 0
	for _, t := range tags {
		if ug.AddTag(t) {
			added++
		}
	}
	return added
}

func (ug *UserGame) RemoveTag(tag Tag) bool {
	return ug.RemoveTagByName(tag.Name())
}

// RemoveTagByName removes the first tag matching name, ignoring case.
func (ug *UserGame) RemoveTagByName(name string) bool {
	for i, t := range ug.tags {
		if t.Matches(name) {
			ug.tags = append(ug.tags[:i], ug.tags[i+1:]...)
			return true
		}
	}
	return false
}

func (ug *UserGame) RemoveTags(tags []Tag) int {
	removed := 0
	for _, t := range tags {
		if ug.RemoveTag(t) {
			removed++
		}
	}
	return removed
}

// ClearTags drops every tag and returns how many there were.
func (ug *UserGame) ClearTags() int {
	n := len(ug.tags)
	ug.tags = nil
	return n
}

func (ug *UserGame) IsWishlisted() bool { return ug.HasTag(TagWishlist) }

func (ug *UserGame) IsFavorite() bool { return ug.HasTag(TagFavorite) }

func (ug *UserGame) AddToWishlist(tag Tag) bool {
	if ug.IsWishlisted() {
		return false
	}
	return ug.AddTag(tag)
}

func (ug *UserGame) RemoveFromWishlist() bool { return ug.RemoveTagByName(TagWishlist) }

func (ug *UserGame) AddToFavorites(tag Tag) bool {
	if ug.IsFavorite() {
		return false
	}
	return ug.AddTag(tag)
}

func (ug *UserGame) RemoveFromFavorites() bool { return ug.RemoveTagByName(TagFavorite) }

// UpdatePlaytime adds minutes to the played time and stamps LastPlayed.
func (ug *UserGame) UpdatePlaytime(minutes int) {
	ug.PlayedTime += minutes
	now := time.Now()
	ug.LastPlayed = &now
}

// MarkAsCompleted sets the completed status and stamps DateCompleted.
func (ug *UserGame) MarkAsCompleted() {
	ug.Status = StatusCompleted
	now := time.Now()
	ug.DateCompleted = &now
}

// PlaytimeHours returns the played time in hours, rounded to two decimals.
func (ug *UserGame) PlaytimeHours() float64 {
	return math.Round(float64(ug.PlayedTime)/60*100) / 100
}
