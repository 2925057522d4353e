package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
)

// newTestDB opens a fresh database file under t.TempDir(). A file rather
// than ":memory:" so WAL mode and the connection pool behave as they do in
// production.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func newUserGame(t *testing.T, gameID, name string, tags []string, opts model.UserGameOptions) *model.UserGame {
	t.Helper()
	game, err := model.NewGame(gameID, name, model.GameDetails{})
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	ug, err := model.NewUserGame(game, model.TagsFromNames(tags), opts)
	if err != nil {
		t.Fatalf("NewUserGame() error = %v", err)
	}
	return ug
}

// addTestGame inserts a game and returns it carrying its new id.
func addTestGame(t *testing.T, db *DB, ug *model.UserGame) *model.UserGame {
	t.Helper()
	id, err := db.AddUserGame(context.Background(), ug)
	if err != nil {
		t.Fatalf("AddUserGame() error = %v", err)
	}
	return ug.WithID(id)
}

func gameIDs(games []*model.UserGame) []string {
	ids := make([]string, 0, len(games))
	for _, g := range games {
		ids = append(ids, g.Game().ID())
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// insertRaw writes a row bypassing the codec, to simulate a file written by
// something else.
func insertRaw(t *testing.T, db *DB, gameID, tags, status, dateAdded, genres string) {
	t.Helper()
	_, err := db.conn.Exec(
		`INSERT INTO user_games (game_id, name, genres, status, tags, played_time, date_added)
		 VALUES (?, 'Raw', ?, ?, ?, 0, ?)`,
		gameID, genres, status, tags, dateAdded,
	)
	if err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}
}

// =========================================================================
// ADD / GET
// =========================================================================

func TestAddAndGetByGameID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ug := newUserGame(t, "g1", "Test", []string{"Favorite", "Wishlist"}, model.UserGameOptions{
		Status:     model.StatusPlaying,
		PlayedTime: 120,
	})

	id, err := db.AddUserGame(ctx, ug)
	if err != nil {
		t.Fatalf("AddUserGame() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("AddUserGame() id = %d, want > 0", id)
	}
	if ug.ID() != nil {
		t.Error("AddUserGame() must not modify its argument")
	}

	got, err := db.GetUserGameByGameID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetUserGameByGameID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetUserGameByGameID() returned nil")
	}
	if got.ID() == nil || *got.ID() != id {
		t.Errorf("ID = %v, want %d", got.ID(), id)
	}
	if got.Status != model.StatusPlaying {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusPlaying)
	}
	if got.PlayedTime != 120 {
		t.Errorf("PlayedTime = %d, want 120", got.PlayedTime)
	}
	if got.PlaytimeHours() != 2.0 {
		t.Errorf("PlaytimeHours() = %v, want 2.0", got.PlaytimeHours())
	}
	if !got.IsFavorite() || !got.IsWishlisted() {
		t.Errorf("tags = %v, want Favorite and Wishlist", got.TagNames())
	}
}

func TestAddAndGet_RoundTripsEveryField(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	release := time.Date(2022, 2, 25, 0, 0, 0, 0, time.UTC)
	created := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)
	added := time.Date(2024, 3, 1, 12, 30, 45, 123456000, time.UTC)
	started := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	completed := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	played := time.Date(2024, 4, 1, 22, 0, 0, 0, time.UTC)
	rating := 96.5

	game, err := model.NewGame("1942", "Elden Ring", model.GameDetails{
		Summary:         strPtr("Rise, Tarnished"),
		ReleaseDate:     &release,
		Genres:          []string{"RPG", "Adventure"},
		Platforms:       []string{"pc", "playstation"},
		CoverURL:        strPtr("https://example.com/cover.jpg"),
		Screenshots:     []string{"https://example.com/1.jpg"},
		Developer:       strPtr("FromSoftware"),
		Publisher:       strPtr("Bandai Namco"),
		Rating:          &rating,
		MetacriticScore: intPtr(96),
		CreatedAt:       &created,
		UpdatedAt:       &updated,
	})
	if err != nil {
		t.Fatalf("NewGame() error = %v", err)
	}
	ug, err := model.NewUserGame(game, model.TagsFromNames([]string{"Favorite", "Souls"}), model.UserGameOptions{
		Status:        model.StatusCompleted,
		UserRating:    intPtr(10),
		UserReview:    strPtr("masterpiece"),
		PlayedTime:    6000,
		DateAdded:     added,
		DateStarted:   &started,
		DateCompleted: &completed,
		LastPlayed:    &played,
		Notes:         strPtr("NG+ next"),
	})
	if err != nil {
		t.Fatalf("NewUserGame() error = %v", err)
	}

	stored := addTestGame(t, db, ug)

	got, err := db.GetUserGameByID(ctx, *stored.ID())
	if err != nil {
		t.Fatalf("GetUserGameByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetUserGameByID() returned nil")
	}

	g := got.Game()
	if g.ID() != "1942" || g.Name() != "Elden Ring" {
		t.Errorf("game = %s/%s, want 1942/Elden Ring", g.ID(), g.Name())
	}
	if g.Summary == nil || *g.Summary != "Rise, Tarnished" {
		t.Errorf("Summary = %v", g.Summary)
	}
	if g.ReleaseDate == nil || !g.ReleaseDate.Equal(release) {
		t.Errorf("ReleaseDate = %v, want %v", g.ReleaseDate, release)
	}
	if !equalStrings(g.Genres, []string{"RPG", "Adventure"}) {
		t.Errorf("Genres = %v", g.Genres)
	}
	if !equalStrings(g.Platforms, []string{"pc", "playstation"}) {
		t.Errorf("Platforms = %v", g.Platforms)
	}
	if !equalStrings(g.Screenshots, []string{"https://example.com/1.jpg"}) {
		t.Errorf("Screenshots = %v", g.Screenshots)
	}
	if g.CoverURL == nil || g.Developer == nil || g.Publisher == nil {
		t.Error("CoverURL, Developer and Publisher must round-trip")
	}
	if g.Rating == nil || *g.Rating != 96.5 {
		t.Errorf("Rating = %v, want 96.5", g.Rating)
	}
	if g.MetacriticScore == nil || *g.MetacriticScore != 96 {
		t.Errorf("MetacriticScore = %v, want 96", g.MetacriticScore)
	}
	if g.CreatedAt == nil || !g.CreatedAt.Equal(created) || g.UpdatedAt == nil || !g.UpdatedAt.Equal(updated) {
		t.Errorf("CreatedAt/UpdatedAt = %v/%v", g.CreatedAt, g.UpdatedAt)
	}

	if !equalStrings(got.TagNames(), []string{"Favorite", "Souls"}) {
		t.Errorf("tags = %v", got.TagNames())
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("Status = %q", got.Status)
	}
	if got.UserRating == nil || *got.UserRating != 10 {
		t.Errorf("UserRating = %v", got.UserRating)
	}
	if got.UserReview == nil || *got.UserReview != "masterpiece" {
		t.Errorf("UserReview = %v", got.UserReview)
	}
	if got.PlayedTime != 6000 {
		t.Errorf("PlayedTime = %d", got.PlayedTime)
	}
	if !got.DateAdded.Equal(added) {
		t.Errorf("DateAdded = %v, want %v", got.DateAdded, added)
	}
	if got.DateStarted == nil || !got.DateStarted.Equal(started) {
		t.Errorf("DateStarted = %v", got.DateStarted)
	}
	if got.DateCompleted == nil || !got.DateCompleted.Equal(completed) {
		t.Errorf("DateCompleted = %v", got.DateCompleted)
	}
	if got.LastPlayed == nil || !got.LastPlayed.Equal(played) {
		t.Errorf("LastPlayed = %v", got.LastPlayed)
	}
	if got.Notes == nil || *got.Notes != "NG+ next" {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestAdd_OptionalFieldsStayAbsent(t *testing.T) {
	db := newTestDB(t)

	stored := addTestGame(t, db, newUserGame(t, "g1", "Bare", []string{"Backlog"}, model.UserGameOptions{}))

	got, err := db.GetUserGameByID(context.Background(), *stored.ID())
	if err != nil {
		t.Fatalf("GetUserGameByID() error = %v", err)
	}
	g := got.Game()
	if g.Summary != nil || g.ReleaseDate != nil || g.Genres != nil || g.Rating != nil || g.MetacriticScore != nil {
		t.Error("absent optional game fields should read back as nil")
	}
	if got.UserRating != nil || got.DateStarted != nil || got.LastPlayed != nil || got.Notes != nil {
		t.Error("absent optional user fields should read back as nil")
	}
	if got.Status != model.StatusNotPlayed {
		t.Errorf("Status = %q, want %q", got.Status, model.StatusNotPlayed)
	}
}

func TestAdd_DuplicateGameID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	addTestGame(t, db, newUserGame(t, "g1", "First", []string{"Backlog"}, model.UserGameOptions{}))

	_, err := db.AddUserGame(ctx, newUserGame(t, "g1", "Second", []string{"Backlog"}, model.UserGameOptions{}))
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("AddUserGame() error = %v, want ErrConflict", err)
	}

	all, err := db.LoadAllUserGames(ctx)
	if err != nil {
		t.Fatalf("LoadAllUserGames() error = %v", err)
	}
	if len(all) != 1 || all[0].Game().Name() != "First" {
		t.Errorf("collection = %v, want only the first insert", gameIDs(all))
	}
}

func TestAdd_EmptyTagsRejected(t *testing.T) {
	db := newTestDB(t)

	ug := newUserGame(t, "g1", "Test", []string{"Backlog"}, model.UserGameOptions{})
	ug.ClearTags()

	_, err := db.AddUserGame(context.Background(), ug)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("AddUserGame() error = %v, want ErrValidation", err)
	}
}

func TestGet_Missing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.GetUserGameByGameID(ctx, "nope")
	if err != nil || got != nil {
		t.Errorf("GetUserGameByGameID() = %v, %v; want nil, nil", got, err)
	}

	got, err = db.GetUserGameByID(ctx, 999)
	if err != nil || got != nil {
		t.Errorf("GetUserGameByID() = %v, %v; want nil, nil", got, err)
	}
}

// =========================================================================
// UPDATE
// =========================================================================

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stored := addTestGame(t, db, newUserGame(t, "g1", "Test", []string{"Backlog"}, model.UserGameOptions{}))

	stored.Status = model.StatusPlaying
	stored.UpdatePlaytime(45)
	stored.AddToFavorites(model.NewTag(model.TagFavorite))
	stored.Notes = strPtr("act 2")

	ok, err := db.UpdateUserGame(ctx, stored)
	if err != nil {
		t.Fatalf("UpdateUserGame() error = %v", err)
	}
	if !ok {
		t.Fatal("UpdateUserGame() = false, want true")
	}

	got, err := db.GetUserGameByGameID(ctx, "g1")
	if err != nil {
		t.Fatalf("GetUserGameByGameID() error = %v", err)
	}
	if got.Status != model.StatusPlaying || got.PlayedTime != 45 {
		t.Errorf("Status/PlayedTime = %q/%d, want playing/45", got.Status, got.PlayedTime)
	}
	if got.LastPlayed == nil {
		t.Error("LastPlayed should be stored")
	}
	if !got.IsFavorite() {
		t.Errorf("tags = %v, want Favorite", got.TagNames())
	}
	if got.Notes == nil || *got.Notes != "act 2" {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestUpdate_NotStored(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ok, err := db.UpdateUserGame(ctx, newUserGame(t, "g1", "Test", []string{"Backlog"}, model.UserGameOptions{}))
	if err != nil || ok {
		t.Errorf("UpdateUserGame(no id) = %v, %v; want false, nil", ok, err)
	}

	stored := addTestGame(t, db, newUserGame(t, "g2", "Other", []string{"Backlog"}, model.UserGameOptions{}))
	if _, err := db.DeleteUserGame(ctx, *stored.ID()); err != nil {
		t.Fatalf("DeleteUserGame() error = %v", err)
	}

	ok, err = db.UpdateUserGame(ctx, stored)
	if err != nil || ok {
		t.Errorf("UpdateUserGame(stale id) = %v, %v; want false, nil", ok, err)
	}
}

func TestUpdate_GameIDConflict(t *testing.T) {
	db := newTestDB(t)

	addTestGame(t, db, newUserGame(t, "g1", "One", []string{"Backlog"}, model.UserGameOptions{}))
	second := addTestGame(t, db, newUserGame(t, "g2", "Two", []string{"Backlog"}, model.UserGameOptions{}))

	moved := newUserGame(t, "g1", "Two", []string{"Backlog"}, model.UserGameOptions{}).WithID(*second.ID())

	_, err := db.UpdateUserGame(context.Background(), moved)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("UpdateUserGame() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LIST / FILTER
// =========================================================================

func TestLoadAll_OrderedByDateAddedDesc(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	addTestGame(t, db, newUserGame(t, "old", "Old", []string{"Backlog"}, model.UserGameOptions{DateAdded: base}))
	addTestGame(t, db, newUserGame(t, "new", "New", []string{"Backlog"}, model.UserGameOptions{DateAdded: base.Add(48 * time.Hour)}))
	addTestGame(t, db, newUserGame(t, "mid", "Mid", []string{"Backlog"}, model.UserGameOptions{DateAdded: base.Add(time.Hour)}))
	// Same instant as "old": the later insert comes first.
	addTestGame(t, db, newUserGame(t, "old2", "Old 2", []string{"Backlog"}, model.UserGameOptions{DateAdded: base}))

	all, err := db.LoadAllUserGames(ctx)
	if err != nil {
		t.Fatalf("LoadAllUserGames() error = %v", err)
	}

	want := []string{"new", "mid", "old2", "old"}
	if got := gameIDs(all); !equalStrings(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestLoadAll_Empty(t *testing.T) {
	db := newTestDB(t)

	all, err := db.LoadAllUserGames(context.Background())
	if err != nil {
		t.Fatalf("LoadAllUserGames() error = %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("LoadAllUserGames() = %v, want empty non-nil slice", all)
	}
}

func TestGetByStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	addTestGame(t, db, newUserGame(t, "a", "A", []string{"Backlog"}, model.UserGameOptions{Status: model.StatusPlaying}))
	addTestGame(t, db, newUserGame(t, "b", "B", []string{"Backlog"}, model.UserGameOptions{Status: model.StatusBacklog}))
	addTestGame(t, db, newUserGame(t, "c", "C", []string{"Backlog"}, model.UserGameOptions{Status: model.StatusPlaying}))

	playing, err := db.GetUserGamesByStatus(ctx, model.StatusPlaying)
	if err != nil {
		t.Fatalf("GetUserGamesByStatus() error = %v", err)
	}
	if len(playing) != 2 {
		t.Fatalf("len = %d, want 2", len(playing))
	}
	for _, g := range playing {
		if g.Status != model.StatusPlaying {
			t.Errorf("%s has status %q", g.Game().ID(), g.Status)
		}
	}

	dropped, err := db.GetUserGamesByStatus(ctx, model.StatusDropped)
	if err != nil {
		t.Fatalf("GetUserGamesByStatus() error = %v", err)
	}
	if len(dropped) != 0 {
		t.Errorf("len = %d, want 0", len(dropped))
	}
}

func TestGetByTag_ExactNameOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	addTestGame(t, db, newUserGame(t, "fav", "Fav", []string{"Favorite"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "short", "Short", []string{"Fav"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "none", "None", []string{"Backlog"}, model.UserGameOptions{}))

	got, err := db.GetUserGamesByTag(ctx, "Fav")
	if err != nil {
		t.Fatalf("GetUserGamesByTag() error = %v", err)
	}
	if ids := gameIDs(got); !equalStrings(ids, []string{"short"}) {
		t.Errorf("GetUserGamesByTag(Fav) = %v, want [short]", ids)
	}

	got, err = db.GetUserGamesByTag(ctx, "favorite")
	if err != nil {
		t.Fatalf("GetUserGamesByTag() error = %v", err)
	}
	if ids := gameIDs(got); !equalStrings(ids, []string{"fav"}) {
		t.Errorf("GetUserGamesByTag(favorite) = %v, want [fav]", ids)
	}
}

func TestGetByTag_WildcardsAreLiteral(t *testing.T) {
	db := newTestDB(t)

	addTestGame(t, db, newUserGame(t, "pct", "Percent", []string{"100%"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "num", "Number", []string{"1000"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "under", "Under", []string{"a_b"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "axb", "Axb", []string{"axb"}, model.UserGameOptions{}))

	tests := []struct {
		tag  string
		want []string
	}{
		{tag: "100%", want: []string{"pct"}},
		{tag: "a_b", want: []string{"under"}},
		{tag: "%", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := db.GetUserGamesByTag(context.Background(), tt.tag)
			if err != nil {
				t.Fatalf("GetUserGamesByTag() error = %v", err)
			}
			if ids := gameIDs(got); !equalStrings(ids, tt.want) {
				t.Errorf("GetUserGamesByTag(%q) = %v, want %v", tt.tag, ids, tt.want)
			}
		})
	}
}

func TestGetByTag_NonASCIIIgnoresCase(t *testing.T) {
	db := newTestDB(t)

	addTestGame(t, db, newUserGame(t, "rd", "Lab", []string{"R&D"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "uni", "Accents", []string{"Ünïcode"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "plain", "Plain", []string{"Unicode"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "quote", "Quote", []string{`quo"te`}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "bs", "Backslash", []string{`a\b`}, model.UserGameOptions{}))

	tests := []struct {
		tag  string
		want []string
	}{
		{tag: "r&d", want: []string{"rd"}},
		{tag: "Ünïcode", want: []string{"uni"}},
		{tag: "ünïcode", want: []string{"uni"}},
		{tag: "ÜNÏCODE", want: []string{"uni"}},
		{tag: "unicode", want: []string{"plain"}},
		{tag: `QUO"TE`, want: []string{"quote"}},
		{tag: `A\B`, want: []string{"bs"}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := db.GetUserGamesByTag(context.Background(), tt.tag)
			if err != nil {
				t.Fatalf("GetUserGamesByTag() error = %v", err)
			}
			if ids := gameIDs(got); !equalStrings(ids, tt.want) {
				t.Errorf("GetUserGamesByTag(%q) = %v, want %v", tt.tag, ids, tt.want)
			}
		})
	}
}

// =========================================================================
// DELETE
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := addTestGame(t, db, newUserGame(t, "g1", "One", []string{"Backlog"}, model.UserGameOptions{}))
	addTestGame(t, db, newUserGame(t, "g2", "Two", []string{"Backlog"}, model.UserGameOptions{}))

	ok, err := db.DeleteUserGame(ctx, *first.ID())
	if err != nil || !ok {
		t.Fatalf("DeleteUserGame() = %v, %v; want true, nil", ok, err)
	}
	ok, err = db.DeleteUserGame(ctx, *first.ID())
	if err != nil || ok {
		t.Errorf("second DeleteUserGame() = %v, %v; want false, nil", ok, err)
	}

	ok, err = db.DeleteUserGameByGameID(ctx, "g2")
	if err != nil || !ok {
		t.Fatalf("DeleteUserGameByGameID() = %v, %v; want true, nil", ok, err)
	}
	ok, err = db.DeleteUserGameByGameID(ctx, "g2")
	if err != nil || ok {
		t.Errorf("second DeleteUserGameByGameID() = %v, %v; want false, nil", ok, err)
	}

	all, err := db.LoadAllUserGames(ctx)
	if err != nil {
		t.Fatalf("LoadAllUserGames() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("collection = %v, want empty", gameIDs(all))
	}
}

// =========================================================================
// CORRUPTION
// =========================================================================

func TestRead_CorruptedRows(t *testing.T) {
	tests := []struct {
		name      string
		gameID    string
		tags      string
		status    string
		dateAdded string
	}{
		{name: "empty tag array", gameID: "t1", tags: "[]", status: "playing", dateAdded: "2024-01-01T00:00:00Z"},
		{name: "tags not json", gameID: "t2", tags: "oops", status: "playing", dateAdded: "2024-01-01T00:00:00Z"},
		{name: "unknown status", gameID: "t3", tags: `["Backlog"]`, status: "bogus", dateAdded: "2024-01-01T00:00:00Z"},
		{name: "unreadable date_added", gameID: "t4", tags: `["Backlog"]`, status: "playing", dateAdded: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			insertRaw(t, db, tt.gameID, tt.tags, tt.status, tt.dateAdded, "")

			_, err := db.GetUserGameByGameID(context.Background(), tt.gameID)
			if !errors.Is(err, apperror.ErrCorrupted) {
				t.Fatalf("GetUserGameByGameID() error = %v, want ErrCorrupted", err)
			}

			_, err = db.LoadAllUserGames(context.Background())
			if !errors.Is(err, apperror.ErrCorrupted) {
				t.Errorf("LoadAllUserGames() error = %v, want ErrCorrupted", err)
			}
		})
	}
}

func TestRowConversion_NullRequiredColumns(t *testing.T) {
	valid := func() userGameRow {
		return userGameRow{
			ID:         1,
			GameID:     sql.NullString{String: "g1", Valid: true},
			Name:       sql.NullString{String: "Test", Valid: true},
			Status:     sql.NullString{String: "playing", Valid: true},
			Tags:       sql.NullString{String: `["Backlog"]`, Valid: true},
			PlayedTime: sql.NullInt64{Int64: 10, Valid: true},
			DateAdded:  sql.NullString{String: "2024-01-01T00:00:00.000000Z", Valid: true},
		}
	}

	if _, err := valid().toUserGame(); err != nil {
		t.Fatalf("toUserGame(valid) error = %v", err)
	}

	tests := []struct {
		name   string
		column string
		mutate func(r *userGameRow)
	}{
		{name: "game_id", column: "game_id", mutate: func(r *userGameRow) { r.GameID.Valid = false }},
		{name: "name", column: "name", mutate: func(r *userGameRow) { r.Name.Valid = false }},
		{name: "blank name", column: "name", mutate: func(r *userGameRow) { r.Name.String = "  " }},
		{name: "tags", column: "tags", mutate: func(r *userGameRow) { r.Tags.Valid = false }},
		{name: "status", column: "status", mutate: func(r *userGameRow) { r.Status.Valid = false }},
		{name: "played_time", column: "played_time", mutate: func(r *userGameRow) { r.PlayedTime.Valid = false }},
		{name: "negative played_time", column: "played_time", mutate: func(r *userGameRow) { r.PlayedTime.Int64 = -5 }},
		{name: "date_added", column: "date_added", mutate: func(r *userGameRow) { r.DateAdded.Valid = false }},
		{name: "bad release_date", column: "release_date", mutate: func(r *userGameRow) {
			r.ReleaseDate = sql.NullString{String: "not a date", Valid: true}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)

			_, err := r.toUserGame()
			if !errors.Is(err, apperror.ErrCorrupted) {
				t.Fatalf("toUserGame() error = %v, want ErrCorrupted", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || appErr.Field != tt.column {
				t.Errorf("corrupted column = %q, want %q", appErr.Field, tt.column)
			}
		})
	}
}

func TestRead_BadOptionalJSONIsAbsent(t *testing.T) {
	db := newTestDB(t)
	insertRaw(t, db, "g1", `["Backlog"]`, "playing", "2024-01-01T00:00:00Z", "{not json")

	got, err := db.GetUserGameByGameID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GetUserGameByGameID() error = %v", err)
	}
	if got.Game().Genres != nil {
		t.Errorf("Genres = %v, want nil", got.Game().Genres)
	}
}

func TestRead_NaiveTimestamps(t *testing.T) {
	db := newTestDB(t)
	insertRaw(t, db, "g1", `["Backlog"]`, "backlog", "2024-05-06T07:08:09.123456", "")

	got, err := db.GetUserGameByGameID(context.Background(), "g1")
	if err != nil {
		t.Fatalf("GetUserGameByGameID() error = %v", err)
	}
	want := time.Date(2024, 5, 6, 7, 8, 9, 123456000, time.UTC)
	if !got.DateAdded.Equal(want) {
		t.Errorf("DateAdded = %v, want %v", got.DateAdded, want)
	}
}
