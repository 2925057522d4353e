package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
	"github.com/sakif/hostcart/internal/repository"
)

// compile-time check that *DB implements repository.UserGameRepository
var _ repository.UserGameRepository = (*DB)(nil)

// AddUserGame inserts ug and returns the row id SQLite assigned.
//
// game_id is UNIQUE: inserting a game that is already in the collection
// fails with apperror.ErrConflict. ug itself is not modified; use
// ug.WithID(id) to get a copy carrying the new id.
func (db *DB) AddUserGame(ctx context.Context, ug *model.UserGame) (int64, error) {
	args, err := userGameArgs(ug)
	if err != nil {
		return 0, err
	}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_games (game_id, name, summary, release_date, genres, platforms,
			cover_url, screenshots, developer, publisher, rating, metacritic_score,
			created_at, updated_at, status, tags, user_rating, user_review, played_time,
			date_added, date_started, date_completed, last_played, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("sqlite: adding user game: %w", apperror.Conflict("user game", ug.Game().ID()))
		}
		return 0, fmt.Errorf("sqlite: adding user game %s: %w", ug.Game().ID(), err)
	}

	id, err := result.LastInsertId()
	if err != nil || id <= 0 {
		return 0, apperror.Internal(fmt.Sprintf("failed to insert user game %s: no row id returned", ug.Game().ID()))
	}

	return id, nil
}

// GetUserGameByGameID looks a game up by its external id. A missing game is
// (nil, nil).
func (db *DB) GetUserGameByGameID(ctx context.Context, gameID string) (*model.UserGame, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userGameColumns+` FROM user_games WHERE game_id = ?`,
		gameID,
	)

	ug, err := scanUserGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting user game %s: %w", gameID, err)
	}
	return ug, nil
}

// GetUserGameByID is the internal-id twin of GetUserGameByGameID.
func (db *DB) GetUserGameByID(ctx context.Context, id int64) (*model.UserGame, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userGameColumns+` FROM user_games WHERE id = ?`,
		id,
	)

	ug, err := scanUserGame(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("sqlite: getting user game #%d: %w", id, err)
	}
	return ug, nil
}

// UpdateUserGame overwrites every column of the row with ug's internal id.
//
// A UserGame that was never stored (nil ID) is a no-op returning false, as
// is an id that matches no row.
func (db *DB) UpdateUserGame(ctx context.Context, ug *model.UserGame) (bool, error) {
	if ug.ID() == nil {
		return false, nil
	}

	args, err := userGameArgs(ug)
	if err != nil {
		return false, err
	}
	args = append(args, *ug.ID())

	result, err := db.conn.ExecContext(ctx,
		`UPDATE user_games SET
			game_id = ?, name = ?, summary = ?, release_date = ?, genres = ?, platforms = ?,
			cover_url = ?, screenshots = ?, developer = ?, publisher = ?, rating = ?, metacritic_score = ?,
			created_at = ?, updated_at = ?, status = ?, tags = ?, user_rating = ?, user_review = ?,
			played_time = ?, date_added = ?, date_started = ?, date_completed = ?, last_played = ?, notes = ?
		 WHERE id = ?`,
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, fmt.Errorf("sqlite: updating user game: %w", apperror.Conflict("user game", ug.Game().ID()))
		}
		return false, fmt.Errorf("sqlite: updating user game #%d: %w", *ug.ID(), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// LoadAllUserGames returns the whole collection, most recently added first.
func (db *DB) LoadAllUserGames(ctx context.Context) ([]*model.UserGame, error) {
	return db.queryUserGames(ctx, "loading user games",
		`SELECT `+userGameColumns+` FROM user_games
		 ORDER BY date_added DESC, id DESC`,
	)
}

// GetUserGamesByStatus returns the games with the given status, most
// recently added first.
func (db *DB) GetUserGamesByStatus(ctx context.Context, status model.GameStatus) ([]*model.UserGame, error) {
	return db.queryUserGames(ctx, "listing user games by status",
		`SELECT `+userGameColumns+` FROM user_games
		 WHERE status = ?
		 ORDER BY date_added DESC, id DESC`,
		string(status),
	)
}

// GetUserGamesByTag returns the games carrying a tag named tagName, compared
// case-insensitively.
//
// The LIKE on the serialized array only narrows the scan. Every candidate is
// re-checked with HasTag, so "Fav" never matches a game tagged "Favorite".
// SQLite's LIKE folds case for ASCII only, so a name with any other letter
// skips the pre-filter and every row is checked.
func (db *DB) GetUserGamesByTag(ctx context.Context, tagName string) ([]*model.UserGame, error) {
	var (
		candidates []*model.UserGame
		err        error
	)
	if isASCII(tagName) {
		candidates, err = db.queryUserGames(ctx, "listing user games by tag",
			`SELECT `+userGameColumns+` FROM user_games
			 WHERE tags LIKE ? ESCAPE '\'
			 ORDER BY date_added DESC, id DESC`,
			likeTagPattern(tagName),
		)
	} else {
		candidates, err = db.LoadAllUserGames(ctx)
	}
	if err != nil {
		return nil, err
	}

	matches := make([]*model.UserGame, 0, len(candidates))
	for _, ug := range candidates {
		if ug.HasTag(tagName) {
			matches = append(matches, ug)
		}
	}
	return matches, nil
}

// DeleteUserGame removes a game by internal id and reports whether a row
// was removed.
func (db *DB) DeleteUserGame(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM user_games WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting user game #%d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteUserGameByGameID removes a game by external id and reports whether
// a row was removed.
func (db *DB) DeleteUserGameByGameID(ctx context.Context, gameID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM user_games WHERE game_id = ?`, gameID)
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting user game %s: %w", gameID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// queryUserGames runs a multi-row SELECT of userGameColumns and converts
// every row. The rows are always closed before returning.
func (db *DB) queryUserGames(ctx context.Context, op, query string, args ...any) ([]*model.UserGame, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	games := make([]*model.UserGame, 0)
	for rows.Next() {
		ug, err := scanUserGame(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %s: %w", op, err)
		}
		games = append(games, ug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}

	return games, nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// Primary code only, when extended result codes are off.
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
