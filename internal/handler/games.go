package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
	"github.com/sakif/hostcart/internal/service"
)

// CollectionService is the part of service.CollectionService the handler
// needs. *service.CollectionService satisfies it.
type CollectionService interface {
	Add(ctx context.Context, in service.AddInput) (*model.UserGame, error)
	Get(ctx context.Context, gameID string) (*model.UserGame, error)
	List(ctx context.Context, filter service.ListFilter) ([]*model.UserGame, error)
	Update(ctx context.Context, gameID string, in service.UpdateInput) (*model.UserGame, error)
	Delete(ctx context.Context, gameID string) error
	AddTag(ctx context.Context, gameID, tag string) (*model.UserGame, error)
	RemoveTag(ctx context.Context, gameID, tag string) (*model.UserGame, error)
	RecordPlaytime(ctx context.Context, gameID string, minutes int) (*model.UserGame, error)
	MarkCompleted(ctx context.Context, gameID string) (*model.UserGame, error)
}

// GameHandler serves the /api/games endpoints.
type GameHandler struct {
	service CollectionService
	logger  *slog.Logger
}

func NewGameHandler(svc CollectionService, logger *slog.Logger) *GameHandler {
	return &GameHandler{service: svc, logger: logger}
}

// GameResponse is the JSON shape of one game in the collection.
type GameResponse struct {
	ID              int64      `json:"id"`
	GameID          string     `json:"game_id"`
	Name            string     `json:"name"`
	Summary         *string    `json:"summary,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	Genres          []string   `json:"genres,omitempty"`
	Platforms       []string   `json:"platforms,omitempty"`
	CoverURL        *string    `json:"cover_url,omitempty"`
	Screenshots     []string   `json:"screenshots,omitempty"`
	Developer       *string    `json:"developer,omitempty"`
	Publisher       *string    `json:"publisher,omitempty"`
	Rating          *float64   `json:"rating,omitempty"`
	MetacriticScore *int       `json:"metacritic_score,omitempty"`

	Status        string     `json:"status"`
	Tags          []string   `json:"tags"`
	IsFavorite    bool       `json:"is_favorite"`
	IsWishlisted  bool       `json:"is_wishlisted"`
	UserRating    *int       `json:"user_rating,omitempty"`
	UserReview    *string    `json:"user_review,omitempty"`
	PlayedTime    int        `json:"played_time"`
	PlaytimeHours float64    `json:"playtime_hours"`
	DateAdded     time.Time  `json:"date_added"`
	DateStarted   *time.Time `json:"date_started,omitempty"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	LastPlayed    *time.Time `json:"last_played,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

func newGameResponse(ug *model.UserGame) GameResponse {
	g := ug.Game()
	resp := GameResponse{
		GameID:          g.ID(),
		Name:            g.Name(),
		Summary:         g.Summary,
		ReleaseDate:     g.ReleaseDate,
		Genres:          g.Genres,
		Platforms:       g.Platforms,
		CoverURL:        g.CoverURL,
		Screenshots:     g.Screenshots,
		Developer:       g.Developer,
		Publisher:       g.Publisher,
		Rating:          g.Rating,
		MetacriticScore: g.MetacriticScore,
		Status:          ug.Status.String(),
		Tags:            ug.TagNames(),
		IsFavorite:      ug.IsFavorite(),
		IsWishlisted:    ug.IsWishlisted(),
		UserRating:      ug.UserRating,
		UserReview:      ug.UserReview,
		PlayedTime:      ug.PlayedTime,
		PlaytimeHours:   ug.PlaytimeHours(),
		DateAdded:       ug.DateAdded,
		DateStarted:     ug.DateStarted,
		DateCompleted:   ug.DateCompleted,
		LastPlayed:      ug.LastPlayed,
		Notes:           ug.Notes,
	}
	if id := ug.ID(); id != nil {
		resp.ID = *id
	}
	return resp
}

// CreateGameRequest is the POST /api/games body.
type CreateGameRequest struct {
	GameID          string     `json:"game_id"`
	Name            string     `json:"name"`
	Summary         *string    `json:"summary"`
	ReleaseDate     *time.Time `json:"release_date"`
	Genres          []string   `json:"genres"`
	Platforms       []string   `json:"platforms"`
	CoverURL        *string    `json:"cover_url"`
	Screenshots     []string   `json:"screenshots"`
	Developer       *string    `json:"developer"`
	Publisher       *string    `json:"publisher"`
	Rating          *float64   `json:"rating"`
	MetacriticScore *int       `json:"metacritic_score"`

	Tags       []string `json:"tags"`
	Status     string   `json:"status"`
	UserRating *int     `json:"user_rating"`
	UserReview *string  `json:"user_review"`
	PlayedTime int      `json:"played_time"`
	Notes      *string  `json:"notes"`
}

// UpdateGameRequest is the PUT /api/games/{gameID} body. Omitted fields are
// left unchanged.
type UpdateGameRequest struct {
	Status        *string    `json:"status"`
	UserRating    *int       `json:"user_rating"`
	UserReview    *string    `json:"user_review"`
	Notes         *string    `json:"notes"`
	DateStarted   *time.Time `json:"date_started"`
	DateCompleted *time.Time `json:"date_completed"`
}

type tagRequest struct {
	Tag string `json:"tag"`
}

type playtimeRequest struct {
	Minutes int `json:"minutes"`
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}

func (h *GameHandler) respondGame(w http.ResponseWriter, status int, ug *model.UserGame, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, newGameResponse(ug))
}

// HandleList returns the collection, optionally filtered.
//
// HTTP: GET /api/games?status=playing&tag=Favorite
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.service.List(r.Context(), service.ListFilter{
		Status: r.URL.Query().Get("status"),
		Tag:    r.URL.Query().Get("tag"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]GameResponse, 0, len(games))
	for _, g := range games {
		resp = append(resp, newGameResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet returns one game.
//
// HTTP: GET /api/games/{gameID}
func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ug, err := h.service.Get(r.Context(), chi.URLParam(r, "gameID"))
	h.respondGame(w, http.StatusOK, ug, err)
}

// HandleCreate adds a game to the collection.
//
// HTTP: POST /api/games
// REQUEST BODY: {"game_id": "1942", "name": "Elden Ring", "tags": ["Favorite"]}
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid create game JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	ug, err := h.service.Add(r.Context(), service.AddInput{
		GameID: req.GameID,
		Name:   req.Name,
		Details: model.GameDetails{
			Summary:         req.Summary,
			ReleaseDate:     req.ReleaseDate,
			Genres:          req.Genres,
			Platforms:       req.Platforms,
			CoverURL:        req.CoverURL,
			Screenshots:     req.Screenshots,
			Developer:       req.Developer,
			Publisher:       req.Publisher,
			Rating:          req.Rating,
			MetacriticScore: req.MetacriticScore,
		},
		Tags:       req.Tags,
		Status:     req.Status,
		UserRating: req.UserRating,
		UserReview: req.UserReview,
		PlayedTime: req.PlayedTime,
		Notes:      req.Notes,
	})
	h.respondGame(w, http.StatusCreated, ug, err)
}

// HandleUpdate edits the user-owned fields of a game.
//
// HTTP: PUT /api/games/{gameID}
func (h *GameHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ug, err := h.service.Update(r.Context(), chi.URLParam(r, "gameID"), service.UpdateInput{
		Status:        req.Status,
		UserRating:    req.UserRating,
		UserReview:    req.UserReview,
		Notes:         req.Notes,
		DateStarted:   req.DateStarted,
		DateCompleted: req.DateCompleted,
	})
	h.respondGame(w, http.StatusOK, ug, err)
}

// HandleDelete removes a game.
//
// HTTP: DELETE /api/games/{gameID}
func (h *GameHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "gameID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddTag tags a game.
//
// HTTP: POST /api/games/{gameID}/tags
// REQUEST BODY: {"tag": "Favorite"}
func (h *GameHandler) HandleAddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ug, err := h.service.AddTag(r.Context(), chi.URLParam(r, "gameID"), req.Tag)
	h.respondGame(w, http.StatusOK, ug, err)
}

// HandleRemoveTag untags a game. The tag is path-escaped by the client.
//
// HTTP: DELETE /api/games/{gameID}/tags/{tag}
func (h *GameHandler) HandleRemoveTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	// chi matches on RawPath when the request has one (e.g. an escaped
	// "/"), and then the parameter is still escaped.
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(tag)
		if err != nil {
			writeError(w, apperror.ValidationFailed("tag", "tag is not a valid path segment"))
			return
		}
		tag = unescaped
	}

	ug, err := h.service.RemoveTag(r.Context(), chi.URLParam(r, "gameID"), tag)
	h.respondGame(w, http.StatusOK, ug, err)
}

// HandleRecordPlaytime adds a play session.
//
// HTTP: POST /api/games/{gameID}/playtime
// REQUEST BODY: {"minutes": 45}
func (h *GameHandler) HandleRecordPlaytime(w http.ResponseWriter, r *http.Request) {
	var req playtimeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ug, err := h.service.RecordPlaytime(r.Context(), chi.URLParam(r, "gameID"), req.Minutes)
	h.respondGame(w, http.StatusOK, ug, err)
}

// HandleComplete marks a game completed.
//
// HTTP: POST /api/games/{gameID}/complete
func (h *GameHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ug, err := h.service.MarkCompleted(r.Context(), chi.URLParam(r, "gameID"))
	h.respondGame(w, http.StatusOK, ug, err)
}
