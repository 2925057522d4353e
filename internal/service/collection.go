// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The repository is deliberately forgiving: a missing game is (nil, nil) and
// an update of a row that is gone is false. This layer turns those outcomes
// into apperror.ErrNotFound so every caller sees the same error.
//
// DEPENDENCY INJECTION:
// CollectionService takes a repository.UserGameRepository (interface), not a
// *sqlite.DB, so tests run against an in-memory mock (see collection_test.go).
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
	"github.com/sakif/hostcart/internal/repository"
)

// Validation limits.
const (
	MaxUserRating   = 10
	MaxTagLength    = 50
	MaxNotesLength  = 10000
	MaxReviewLength = 10000
)

// CollectionService handles the use cases of the game collection.
type CollectionService struct {
	repo   repository.UserGameRepository
	logger *slog.Logger
}

// NewCollectionService creates a new CollectionService.
func NewCollectionService(repo repository.UserGameRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		repo:   repo,
		logger: logger,
	}
}

// AddInput is everything needed to put a game into the collection.
// Empty Status means not_played.
type AddInput struct {
	GameID     string
	Name       string
	Details    model.GameDetails
	Tags       []string
	Status     string
	UserRating *int
	UserReview *string
	PlayedTime int
	Notes      *string
}

// Add validates and stores a new game, returning it with its storage id.
// Adding a game that is already in the collection is apperror.ErrConflict.
// The game id is trimmed the same way Get trims it.
func (s *CollectionService) Add(ctx context.Context, in AddInput) (*model.UserGame, error) {
	game, err := model.NewGame(strings.TrimSpace(in.GameID), in.Name, in.Details)
	if err != nil {
		return nil, err
	}

	tags, err := cleanTags(in.Tags)
	if err != nil {
		return nil, err
	}

	var status model.GameStatus
	if strings.TrimSpace(in.Status) != "" {
		if status, err = model.ParseGameStatus(in.Status); err != nil {
			return nil, err
		}
	}

	if err := validateUserFields(in.UserRating, in.UserReview, in.Notes); err != nil {
		return nil, err
	}

	ug, err := model.NewUserGame(game, model.TagsFromNames(tags), model.UserGameOptions{
		Status:     status,
		UserRating: in.UserRating,
		UserReview: in.UserReview,
		PlayedTime: in.PlayedTime,
		Notes:      in.Notes,
	})
	if err != nil {
		return nil, err
	}

	id, err := s.repo.AddUserGame(ctx, ug)
	if err != nil {
		s.logger.Error("failed to add user game",
			slog.String("game_id", game.ID()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("adding game: %w", err)
	}

	s.logger.Info("user game added",
		slog.Int64("id", id),
		slog.String("game_id", game.ID()),
		slog.String("name", game.Name()),
	)

	return ug.WithID(id), nil
}

// Get returns the game with the given external id, or apperror.ErrNotFound.
func (s *CollectionService) Get(ctx context.Context, gameID string) (*model.UserGame, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return nil, apperror.ValidationFailed("game_id", "game ID is required")
	}

	ug, err := s.repo.GetUserGameByGameID(ctx, gameID)
	if err != nil {
		s.logger.Error("failed to get user game",
			slog.String("game_id", gameID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("getting game: %w", err)
	}
	if ug == nil {
		return nil, apperror.NotFound("game", gameID)
	}
	return ug, nil
}

// ListFilter narrows List. Both fields are optional; when both are set a
// game must match both.
type ListFilter struct {
	Status string
	Tag    string
}

// List returns the collection, most recently added first.
func (s *CollectionService) List(ctx context.Context, filter ListFilter) ([]*model.UserGame, error) {
	var (
		games []*model.UserGame
		err   error
	)

	statusFilter := strings.TrimSpace(filter.Status)
	tagFilter := strings.TrimSpace(filter.Tag)

	var status model.GameStatus
	if statusFilter != "" {
		if status, err = model.ParseGameStatus(statusFilter); err != nil {
			return nil, err
		}
	}

	switch {
	case tagFilter != "":
		games, err = s.repo.GetUserGamesByTag(ctx, tagFilter)
	case statusFilter != "":
		games, err = s.repo.GetUserGamesByStatus(ctx, status)
	default:
		games, err = s.repo.LoadAllUserGames(ctx)
	}
	if err != nil {
		s.logger.Error("failed to list user games", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing games: %w", err)
	}

	if tagFilter != "" && statusFilter != "" {
		filtered := make([]*model.UserGame, 0, len(games))
		for _, g := range games {
			if g.Status == status {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	return games, nil
}

// UpdateInput lists the user-owned fields that can be edited. Nil fields
// are left unchanged.
type UpdateInput struct {
	Status        *string
	UserRating    *int
	UserReview    *string
	Notes         *string
	DateStarted   *time.Time
	DateCompleted *time.Time
}

// Update applies in to the game with the given external id.
//
// STRATEGY: fetch, modify, save. A game removed between the fetch and the
// save is reported as not found.
func (s *CollectionService) Update(ctx context.Context, gameID string, in UpdateInput) (*model.UserGame, error) {
	if err := validateUserFields(in.UserRating, in.UserReview, in.Notes); err != nil {
		return nil, err
	}

	var status model.GameStatus
	if in.Status != nil {
		var err error
		if status, err = model.ParseGameStatus(*in.Status); err != nil {
			return nil, err
		}
	}

	return s.modify(ctx, gameID, "updated", func(ug *model.UserGame) error {
		if in.Status != nil {
			ug.Status = status
		}
		if in.UserRating != nil {
			ug.UserRating = in.UserRating
		}
		if in.UserReview != nil {
			ug.UserReview = in.UserReview
		}
		if in.Notes != nil {
			ug.Notes = in.Notes
		}
		if in.DateStarted != nil {
			ug.DateStarted = in.DateStarted
		}
		if in.DateCompleted != nil {
			ug.DateCompleted = in.DateCompleted
		}
		return nil
	})
}

// Delete removes a game by external id, or returns apperror.ErrNotFound.
func (s *CollectionService) Delete(ctx context.Context, gameID string) error {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return apperror.ValidationFailed("game_id", "game ID is required")
	}

	deleted, err := s.repo.DeleteUserGameByGameID(ctx, gameID)
	if err != nil {
		s.logger.Error("failed to delete user game",
			slog.String("game_id", gameID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting game: %w", err)
	}
	if !deleted {
		return apperror.NotFound("game", gameID)
	}

	s.logger.Info("user game deleted", slog.String("game_id", gameID))
	return nil
}

// AddTag tags a game. Adding a tag the game already has (ignoring case) is
// not an error and leaves the game unchanged.
func (s *CollectionService) AddTag(ctx context.Context, gameID, tag string) (*model.UserGame, error) {
	tags, err := cleanTags([]string{tag})
	if err != nil {
		return nil, err
	}

	return s.modify(ctx, gameID, "tagged", func(ug *model.UserGame) error {
		ug.AddTag(model.NewTag(tags[0]))
		return nil
	})
}

// RemoveTag untags a game. A game must keep at least one tag, so removing
// the last one is a validation error; removing a tag the game does not have
// is apperror.ErrNotFound.
func (s *CollectionService) RemoveTag(ctx context.Context, gameID, tag string) (*model.UserGame, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, apperror.ValidationFailed("tag", "tag is required")
	}

	return s.modify(ctx, gameID, "untagged", func(ug *model.UserGame) error {
		if !ug.HasTag(tag) {
			return apperror.NotFound("tag", tag)
		}
		if len(ug.Tags()) == 1 {
			return apperror.ValidationFailed("tags", "a game must keep at least one tag")
		}
		ug.RemoveTagByName(tag)
		return nil
	})
}

// RecordPlaytime adds a play session of the given length in minutes.
func (s *CollectionService) RecordPlaytime(ctx context.Context, gameID string, minutes int) (*model.UserGame, error) {
	if minutes <= 0 {
		return nil, apperror.ValidationFailed("minutes", "minutes must be positive")
	}

	return s.modify(ctx, gameID, "playtime recorded", func(ug *model.UserGame) error {
		ug.UpdatePlaytime(minutes)
		return nil
	})
}

// MarkCompleted sets the completed status and completion date.
func (s *CollectionService) MarkCompleted(ctx context.Context, gameID string) (*model.UserGame, error) {
	return s.modify(ctx, gameID, "completed", func(ug *model.UserGame) error {
		ug.MarkAsCompleted()
		return nil
	})
}

// modify is the shared fetch → change → save path. change may reject the
// edit by returning an error, in which case nothing is written.
func (s *CollectionService) modify(ctx context.Context, gameID, event string, change func(*model.UserGame) error) (*model.UserGame, error) {
	ug, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if err := change(ug); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateUserGame(ctx, ug)
	if err != nil {
		s.logger.Error("failed to update user game",
			slog.String("game_id", ug.Game().ID()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating game: %w", err)
	}
	if !updated {
		return nil, apperror.NotFound("game", ug.Game().ID())
	}

	s.logger.Info("user game "+event,
		slog.String("game_id", ug.Game().ID()),
		slog.String("status", ug.Status.String()),
		slog.Int("played_time", ug.PlayedTime),
	)
	return ug, nil
}

// cleanTags trims, drops blanks and case-insensitive duplicates, and checks
// lengths. The result is never empty.
func cleanTags(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if len(name) > MaxTagLength {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tag must be %d characters or less", MaxTagLength))
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, apperror.ValidationFailed("tags", "at least one tag is required")
	}
	return out, nil
}

func validateUserFields(rating *int, review, notes *string) error {
	if rating != nil && (*rating < 0 || *rating > MaxUserRating) {
		return apperror.ValidationFailed("user_rating",
			fmt.Sprintf("user rating must be between 0 and %d", MaxUserRating))
	}
	if review != nil && len(*review) > MaxReviewLength {
		return apperror.ValidationFailed("user_review",
			fmt.Sprintf("review must be %d characters or less", MaxReviewLength))
	}
	if notes != nil && len(*notes) > MaxNotesLength {
		return apperror.ValidationFailed("notes",
			fmt.Sprintf("notes must be %d characters or less", MaxNotesLength))
	}
	return nil
}
