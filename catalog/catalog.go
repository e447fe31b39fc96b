// Package catalog is the game catalog domain: champions, items, summoners
// and their mastery and match history, declared as lazily loaded entities
// over the resolution pipeline.
package catalog

import (
	"errors"

	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pipeline"
	"github.com/goliatone/go-catalog-cache/query"
)

// Register declares the record types and transformers and checks every
// entity kind against them.
func Register(registry *keys.Registry, transformers *pipeline.Transformers, d Defaults) error {
	if err := RegisterKeys(registry, d); err != nil {
		return err
	}
	if err := RegisterTransformers(transformers); err != nil {
		return err
	}
	return ValidateKinds(registry)
}

// ValidateKinds checks every entity kind declaration.
func ValidateKinds(registry *keys.Registry) error {
	return errors.Join(
		ChampionKind.Validate(registry),
		ChampionListKind.Validate(registry),
		ItemKind.Validate(registry),
		ItemListKind.Validate(registry),
		SummonerKind.Validate(registry),
		ChampionMasteryKind.Validate(registry),
	)
}

// Records returns a sample of every record type, for codecs that must know
// the concrete types they decode.
func Records() []any {
	return []any{
		ChampionData{},
		ChampionReleaseData{},
		ChampionListData{},
		ItemData{},
		ItemListData{},
		SummonerData{},
		ChampionMasteryData{},
		MatchListData{},
	}
}

// Catalog is the entry point for building entities.
type Catalog struct {
	loader *entity.Loader
}

// New returns a catalog fetching through loader.
func New(loader *entity.Loader) *Catalog {
	return &Catalog{loader: loader}
}

// Champion names a champion by id or name.
func (c *Catalog) Champion(q query.Query) (*Champion, error) {
	return entity.Resolve(c.loader, ChampionKind, q)
}

// Champions names the champion list of a platform and locale.
func (c *Catalog) Champions(q query.Query) (*ChampionList, error) {
	return entity.Resolve(c.loader, ChampionListKind, q)
}

// Item names an item by id or name.
func (c *Catalog) Item(q query.Query) (*Item, error) {
	return entity.Resolve(c.loader, ItemKind, q)
}

// Items names the item list of a platform and locale.
func (c *Catalog) Items(q query.Query) (*ItemList, error) {
	return entity.Resolve(c.loader, ItemListKind, q)
}

// Summoner names a player by id, account id, puuid or name.
func (c *Catalog) Summoner(q query.Query) (*Summoner, error) {
	return entity.Resolve(c.loader, SummonerKind, q)
}

// ChampionMastery names one player's mastery of one champion.
func (c *Catalog) ChampionMastery(q query.Query) (*ChampionMastery, error) {
	return entity.Resolve(c.loader, ChampionMasteryKind, q)
}
