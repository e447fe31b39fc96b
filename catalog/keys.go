package catalog

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/query"
)

// Registered record type names.
var (
	ChampionType        = keys.TypeOf(ChampionData{})
	ChampionReleaseType = keys.TypeOf(ChampionReleaseData{})
	ChampionListType    = keys.TypeOf(ChampionListData{})
	ItemType            = keys.TypeOf(ItemData{})
	ItemListType        = keys.TypeOf(ItemListData{})
	SummonerType        = keys.TypeOf(SummonerData{})
	MasteryType         = keys.TypeOf(ChampionMasteryData{})
	MatchListType       = keys.TypeOf(MatchListData{})
)

// Defaults are the request parameters filled in when a caller omits them.
type Defaults struct {
	Platform string
	Locale   string
}

// DefaultDefaults targets the North America platform in US English.
func DefaultDefaults() Defaults {
	return Defaults{Platform: "NA1", Locale: "en_US"}
}

// DefaultExpirations are the retention policies of player data. Static data
// declares none and is kept until explicitly expired; match pages are never
// cached.
func DefaultExpirations() map[string]time.Duration {
	return map[string]time.Duration{
		SummonerType:  10 * time.Minute,
		MasteryType:   5 * time.Minute,
		MatchListType: 0,
	}
}

// RegisterKeys declares every record type with the registry.
func RegisterKeys(r *keys.Registry, d Defaults) error {
	for _, e := range Entries(d) {
		if err := r.Register(e); err != nil {
			return err
		}
	}
	return nil
}

// Entries returns the key declarations of every record type.
func Entries(d Defaults) []keys.Entry {
	platform := query.Field{Name: "platform", Default: d.Platform, Rules: []validation.Rule{query.String}}
	locale := query.Field{Name: "locale", Default: d.Locale, Rules: []validation.Rule{query.String}}

	staticSchema := query.Schema{
		Fields: []query.Field{
			{Name: "id", Rules: []validation.Rule{query.Integer}},
			{Name: "name", Rules: []validation.Rule{query.String}},
			platform,
			locale,
		},
		AnyOf: [][]string{{"id", "name"}},
	}
	staticShapes := []keys.Shape{
		keys.NewShape("id", "platform", "locale"),
		keys.NewShape("name", "platform", "locale"),
	}
	listSchema := query.Schema{Fields: []query.Field{platform, locale}}

	return []keys.Entry{
		{
			Type:   ChampionType,
			Shapes: staticShapes,
			Schema: staticSchema,
			Many:   map[string]string{"ids": "id", "names": "name"},
		},
		{
			Type:   ChampionReleaseType,
			Shapes: []keys.Shape{keys.NewShape("name")},
			Schema: query.Schema{
				Fields: []query.Field{{Name: "name", Required: true, Rules: []validation.Rule{query.String}}},
			},
		},
		{
			Type:   ChampionListType,
			Shapes: []keys.Shape{keys.NewShape("platform", "locale")},
			Schema: listSchema,
			Cascade: &keys.Cascade{
				Type: ChampionType,
				Members: func(v any) []any {
					l := v.(ChampionListData)
					out := make([]any, len(l.Champions))
					for i, c := range l.Champions {
						out[i] = c
					}
					return out
				},
			},
		},
		{
			Type:   ItemType,
			Shapes: staticShapes,
			Schema: staticSchema,
			Many:   map[string]string{"ids": "id", "names": "name"},
		},
		{
			Type:   ItemListType,
			Shapes: []keys.Shape{keys.NewShape("platform", "locale")},
			Schema: listSchema,
			Cascade: &keys.Cascade{
				Type: ItemType,
				Members: func(v any) []any {
					l := v.(ItemListData)
					out := make([]any, len(l.Items))
					for i, item := range l.Items {
						out[i] = item
					}
					return out
				},
			},
		},
		{
			Type: SummonerType,
			Shapes: []keys.Shape{
				keys.NewShape("id", "platform"),
				keys.NewShape("account_id", "platform"),
				keys.NewShape("puuid", "platform"),
				keys.NewShape("name", "platform"),
			},
			Schema: query.Schema{
				Fields: []query.Field{
					{Name: "id", Rules: []validation.Rule{query.Integer}},
					{Name: "account_id", Rules: []validation.Rule{query.String}},
					{Name: "puuid", Rules: []validation.Rule{query.String}},
					{Name: "name", Rules: []validation.Rule{query.String}},
					platform,
				},
				AnyOf: [][]string{{"id", "account_id", "puuid", "name"}},
			},
			Many: map[string]string{"ids": "id", "names": "name"},
		},
		{
			Type:   MasteryType,
			Shapes: []keys.Shape{keys.NewShape("summoner_id", "champion_id", "platform")},
			Schema: query.Schema{
				Fields: []query.Field{
					{Name: "summoner_id", Required: true, Rules: []validation.Rule{query.Integer}},
					{Name: "champion_id", Required: true, Rules: []validation.Rule{query.Integer}},
					platform,
				},
			},
		},
		{
			Type:   MatchListType,
			Shapes: []keys.Shape{keys.NewShape("account_id", "platform", "begin_index")},
			Schema: query.Schema{
				Fields: []query.Field{
					{Name: "account_id", Required: true, Rules: []validation.Rule{query.String}},
					{Name: "begin_index", Default: int64(0), Rules: []validation.Rule{query.Integer}},
					platform,
				},
			},
		},
	}
}
