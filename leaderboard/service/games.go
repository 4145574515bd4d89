// leaderboard/service/games.go
package service

import (
	"fmt"
	"strings"
)

// GameCatalog is the configured set of supported game tags plus the default
// tag adopted for absent or unrecognized submissions. The set is
// configuration, not code: adding a game is an env change, not a deploy.
type GameCatalog struct {
	tags       map[string]struct{}
	ordered    []string
	defaultTag string
}

// NewGameCatalog builds a catalog. Tags are lower-cased; the default must be
// one of them.
func NewGameCatalog(tags []string, defaultTag string) (*GameCatalog, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("at least one game tag is required")
	}
	catalog := &GameCatalog{
		tags:       make(map[string]struct{}, len(tags)),
		defaultTag: strings.ToLower(defaultTag),
	}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, seen := catalog.tags[tag]; seen {
			continue
		}
		catalog.tags[tag] = struct{}{}
		catalog.ordered = append(catalog.ordered, tag)
	}
	if _, ok := catalog.tags[catalog.defaultTag]; !ok {
		return nil, fmt.Errorf("default game %q is not a supported tag", defaultTag)
	}
	return catalog, nil
}

// Normalize lower-cases a submitted tag and falls back to the default when
// it is absent or unrecognized. Ingestion never rejects an unknown game:
// older game clients must keep working when new tags ship.
func (gc *GameCatalog) Normalize(tag string) string {
	if normalized, ok := gc.Resolve(tag); ok {
		return normalized
	}
	return gc.defaultTag
}

// Resolve reports whether a tag names a supported game, returning the
// canonical lower-case form. Used by the leaderboard to pick its scope.
func (gc *GameCatalog) Resolve(tag string) (string, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if _, ok := gc.tags[tag]; ok {
		return tag, true
	}
	return "", false
}

// Tags returns the supported tags in configured order.
func (gc *GameCatalog) Tags() []string {
	return gc.ordered
}
