// Package repository declares the storage interfaces the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/hostcart/internal/model"
)

// UserGameRepository is durable CRUD for the user's game collection.
//
// Missing keys are not errors: lookups return (nil, nil) and updates and
// deletes return false.
type UserGameRepository interface {
	AddUserGame(ctx context.Context, ug *model.UserGame) (int64, error)
	GetUserGameByID(ctx context.Context, id int64) (*model.UserGame, error)
	GetUserGameByGameID(ctx context.Context, gameID string) (*model.UserGame, error)
	UpdateUserGame(ctx context.Context, ug *model.UserGame) (bool, error)
	LoadAllUserGames(ctx context.Context) ([]*model.UserGame, error)
	GetUserGamesByStatus(ctx context.Context, status model.GameStatus) ([]*model.UserGame, error)
	GetUserGamesByTag(ctx context.Context, tagName string) ([]*model.UserGame, error)
	DeleteUserGame(ctx context.Context, id int64) (bool, error)
	DeleteUserGameByGameID(ctx context.Context, gameID string) (bool, error)
}
