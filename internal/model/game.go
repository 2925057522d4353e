// Package model defines the data structures used throughout the application.
//
// Game, Tag and UserGame are plain in-memory values. Nothing here touches
// storage: mutating a UserGame (AddTag, MarkAsCompleted, ...) only changes
// the value until the caller hands it back to the repository.
package model

import (
	"strings"
	"time"

	"github.com/sakif/hostcart/internal/apperror"
)

// GameDetails holds the optional catalog fields of a Game.
// Nil pointers and nil slices mean "unknown".
type GameDetails struct {
	Summary         *string
	ReleaseDate     *time.Time
	Genres          []string
	Platforms       []string
	CoverURL        *string
	Screenshots     []string
	Developer       *string
	Publisher       *string
	Rating          *float64
	MetacriticScore *int
	CreatedAt       *time.Time
	UpdatedAt       *time.Time
}

// Game is a catalog record. Its identity is the external game ID (an IGDB
// ID or a custom one), which together with the name is fixed at
// construction: both live in unexported fields with read-only accessors.
type Game struct {
	id   string
	name string
	GameDetails
}

// NewGame builds a Game. The ID and name must be non-empty.
func NewGame(id, name string, details GameDetails) (Game, error) {
	if strings.TrimSpace(id) == "" {
		return Game{}, apperror.ValidationFailed("game_id", "game_id must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return Game{}, apperror.ValidationFailed("name", "name must not be empty")
	}
	return Game{id: id, name: name, GameDetails: details}, nil
}

// ID returns the external game ID.
func (g Game) ID() string { return g.id }

// Name returns the display name.
func (g Game) Name() string { return g.name }
