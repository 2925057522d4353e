package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
)

// userGameColumns is the SELECT list shared by every read. Its order must
// match scanUserGame.
const userGameColumns = `id, game_id, name, summary, release_date, genres, platforms,
	cover_url, screenshots, developer, publisher, rating, metacritic_score,
	created_at, updated_at, status, tags, user_rating, user_review, played_time,
	date_added, date_started, date_completed, last_played, notes`

// timeLayout is fixed width and always UTC so that ORDER BY on the text
// column sorts chronologically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Layouts accepted on read, newest format first. The naive forms are what
// older collections wrote.
var readLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// userGameRow is one user_games row exactly as stored.
type userGameRow struct {
	ID              int64
	GameID          sql.NullString
	Name            sql.NullString
	Summary         sql.NullString
	ReleaseDate     sql.NullString
	Genres          sql.NullString
	Platforms       sql.NullString
	CoverURL        sql.NullString
	Screenshots     sql.NullString
	Developer       sql.NullString
	Publisher       sql.NullString
	Rating          sql.NullFloat64
	MetacriticScore sql.NullInt64
	CreatedAt       sql.NullString
	UpdatedAt       sql.NullString
	Status          sql.NullString
	Tags            sql.NullString
	UserRating      sql.NullInt64
	UserReview      sql.NullString
	PlayedTime      sql.NullInt64
	DateAdded       sql.NullString
	DateStarted     sql.NullString
	DateCompleted   sql.NullString
	LastPlayed      sql.NullString
	Notes           sql.NullString
}

func scanUserGame(s rowScanner) (*model.UserGame, error) {
	var r userGameRow
	if err := s.Scan(
		&r.ID, &r.GameID, &r.Name, &r.Summary, &r.ReleaseDate, &r.Genres, &r.Platforms,
		&r.CoverURL, &r.Screenshots, &r.Developer, &r.Publisher, &r.Rating, &r.MetacriticScore,
		&r.CreatedAt, &r.UpdatedAt, &r.Status, &r.Tags, &r.UserRating, &r.UserReview, &r.PlayedTime,
		&r.DateAdded, &r.DateStarted, &r.DateCompleted, &r.LastPlayed, &r.Notes,
	); err != nil {
		return nil, err
	}
	return r.toUserGame()
}

// toUserGame converts a stored row to a UserGame.
//
// Required columns that are NULL (or an empty tag array) mean the file was
// written by something other than this package: that is a hard
// apperror.Corrupted failure. Optional JSON arrays that fail to decode are
// read as absent instead.
func (r userGameRow) toUserGame() (*model.UserGame, error) {
	if !r.GameID.Valid {
		return nil, apperror.Corrupted("game_id", "cannot be NULL")
	}
	if !r.Name.Valid {
		return nil, apperror.Corrupted("name", "cannot be NULL")
	}

	releaseDate, err := parseOptionalTime("release_date", r.ReleaseDate)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseOptionalTime("created_at", r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseOptionalTime("updated_at", r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	game, err := model.NewGame(r.GameID.String, r.Name.String, model.GameDetails{
		Summary:         nullString(r.Summary),
		ReleaseDate:     releaseDate,
		Genres:          parseJSONList(r.Genres),
		Platforms:       parseJSONList(r.Platforms),
		CoverURL:        nullString(r.CoverURL),
		Screenshots:     parseJSONList(r.Screenshots),
		Developer:       nullString(r.Developer),
		Publisher:       nullString(r.Publisher),
		Rating:          nullFloat(r.Rating),
		MetacriticScore: nullInt(r.MetacriticScore),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	})
	if err != nil {
		return nil, corruptedFrom(err)
	}

	tagNames := parseJSONList(r.Tags)
	if len(tagNames) == 0 {
		return nil, apperror.Corrupted("tags", "cannot be NULL or empty")
	}

	if !r.DateAdded.Valid {
		return nil, apperror.Corrupted("date_added", "cannot be NULL")
	}
	dateAdded, err := parseTime(r.DateAdded.String)
	if err != nil {
		return nil, apperror.Corrupted("date_added", fmt.Sprintf("has unreadable value %q", r.DateAdded.String))
	}

	if !r.Status.Valid {
		return nil, apperror.Corrupted("status", "cannot be NULL")
	}
	status, err := model.ParseGameStatus(r.Status.String)
	if err != nil {
		return nil, apperror.Corrupted("status", fmt.Sprintf("has unknown value %q", r.Status.String))
	}

	if !r.PlayedTime.Valid {
		return nil, apperror.Corrupted("played_time", "cannot be NULL")
	}

	dateStarted, err := parseOptionalTime("date_started", r.DateStarted)
	if err != nil {
		return nil, err
	}
	dateCompleted, err := parseOptionalTime("date_completed", r.DateCompleted)
	if err != nil {
		return nil, err
	}
	lastPlayed, err := parseOptionalTime("last_played", r.LastPlayed)
	if err != nil {
		return nil, err
	}

	id := r.ID
	ug, err := model.NewUserGame(game, model.TagsFromNames(tagNames), model.UserGameOptions{
		ID:            &id,
		Status:        status,
		UserRating:    nullInt(r.UserRating),
		UserReview:    nullString(r.UserReview),
		PlayedTime:    int(r.PlayedTime.Int64),
		DateAdded:     dateAdded,
		DateStarted:   dateStarted,
		DateCompleted: dateCompleted,
		LastPlayed:    lastPlayed,
		Notes:         nullString(r.Notes),
	})
	if err != nil {
		return nil, corruptedFrom(err)
	}
	return ug, nil
}

// userGameArgs returns the 24 writable column values, in userGameColumns
// order minus the leading id.
func userGameArgs(ug *model.UserGame) ([]any, error) {
	tags := ug.TagNames()
	if len(tags) == 0 {
		return nil, apperror.ValidationFailed("tags", "tags must not be empty")
	}
	if ug.PlayedTime < 0 {
		return nil, apperror.ValidationFailed("played_time", "played_time must not be negative")
	}
	if !ug.Status.Valid() {
		return nil, apperror.ValidationFailed("status", "unknown game status "+string(ug.Status))
	}

	g := ug.Game()
	return []any{
		g.ID(),
		g.Name(),
		optString(g.Summary),
		optString(formatOptionalTime(g.ReleaseDate)),
		optString(serializeJSONList(g.Genres)),
		optString(serializeJSONList(g.Platforms)),
		optString(g.CoverURL),
		optString(serializeJSONList(g.Screenshots)),
		optString(g.Developer),
		optString(g.Publisher),
		optFloat(g.Rating),
		optInt(g.MetacriticScore),
		optString(formatOptionalTime(g.CreatedAt)),
		optString(formatOptionalTime(g.UpdatedAt)),
		string(ug.Status),
		optString(serializeJSONList(tags)),
		optInt(ug.UserRating),
		optString(ug.UserReview),
		int64(ug.PlayedTime),
		formatTime(ug.DateAdded),
		optString(formatOptionalTime(ug.DateStarted)),
		optString(formatOptionalTime(ug.DateCompleted)),
		optString(formatOptionalTime(ug.LastPlayed)),
		optString(ug.Notes),
	}, nil
}

// parseJSONList decodes a JSON string array. NULL, empty text, and anything
// that is not a JSON string array all come back as nil.
func parseJSONList(ns sql.NullString) []string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(ns.String), &out); err != nil {
		return nil
	}
	return out
}

// serializeJSONList encodes a list as a JSON array; empty lists are stored
// as NULL.
func serializeJSONList(values []string) *string {
	if len(values) == 0 {
		return nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		// []string always marshals.
		return nil
	}
	s := string(b)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range readLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseOptionalTime(column string, ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, apperror.Corrupted(column, fmt.Sprintf("has unreadable value %q", ns.String))
	}
	return &t, nil
}

// optString, optInt and optFloat turn optional fields into driver values:
// nil becomes NULL.
func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}

// corruptedFrom relabels a model validation failure found while reading a
// row as corruption of the offending column.
func corruptedFrom(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Field != "" {
		return apperror.Corrupted(appErr.Field, "is invalid: "+appErr.Message)
	}
	return apperror.Corrupted("row", "is invalid: "+err.Error())
}

// isASCII reports whether s has only ASCII characters, the only ones SQLite's
// LIKE compares case-insensitively.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// likeTagPattern builds the LIKE pattern matching a tag name inside the
// serialized tag array. The name is JSON-encoded the same way the array is,
// and LIKE wildcards are escaped with '\'.
func likeTagPattern(tagName string) string {
	encoded, err := json.Marshal(tagName)
	if err != nil {
		encoded = []byte(`"` + tagName + `"`)
	}
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(string(encoded)) + "%"
}
