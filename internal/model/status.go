package model

import (
	"fmt"
	"strings"

	"github.com/sakif/hostcart/internal/apperror"
)

// GameStatus is the play state of a UserGame. The string value is what gets
// stored in the status column.
type GameStatus string

const (
	StatusNotPlayed GameStatus = "not_played"
	StatusPlaying   GameStatus = "playing"
	StatusCompleted GameStatus = "completed"
	StatusOnHold    GameStatus = "on_hold"
	StatusDropped   GameStatus = "dropped"
	StatusBacklog   GameStatus = "backlog"
)

// AllStatuses lists every status in declaration order.
var AllStatuses = []GameStatus{
	StatusNotPlayed,
	StatusPlaying,
	StatusCompleted,
	StatusOnHold,
	StatusDropped,
	StatusBacklog,
}

func (s GameStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s GameStatus) String() string { return string(s) }

// ParseGameStatus converts a stored or user-supplied value to a GameStatus.
func ParseGameStatus(value string) (GameStatus, error) {
	s := GameStatus(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", apperror.ValidationFailed("status", fmt.Sprintf("unknown game status %q", value))
	}
	return s, nil
}

// Platform is a coarse hardware family a game can be owned on.
type Platform string

const (
	PlatformPC              Platform = "pc"
	PlatformPlayStation     Platform = "playstation"
	PlatformXbox            Platform = "xbox"
	PlatformNintendoDS      Platform = "nintendo ds"
	PlatformNintendo3DS     Platform = "nintendo 3ds"
	PlatformNintendoSwitch  Platform = "nintendo switch"
	PlatformNintendoSwitch2 Platform = "nintendo switch 2"
	PlatformMobile          Platform = "mobile"
	PlatformOther           Platform = "other"
)

var AllPlatforms = []Platform{
	PlatformPC,
	PlatformPlayStation,
	PlatformXbox,
	PlatformNintendoDS,
	PlatformNintendo3DS,
	PlatformNintendoSwitch,
	PlatformNintendoSwitch2,
	PlatformMobile,
	PlatformOther,
}

func (p Platform) Valid() bool {
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePlatform matches case-insensitively and ignores surrounding spaces.
func ParsePlatform(value string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", apperror.ValidationFailed("platform", fmt.Sprintf("unknown platform %q", value))
	}
	return p, nil
}
