package catalog

import (
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/remote"
)

// Endpoints maps every wire type onto the catalog API.
func Endpoints() []remote.Endpoint {
	bulk := map[string]string{"ids": "id", "names": "name"}
	return []remote.Endpoint{
		{
			Type:   keys.TypeOf(ChampionWire{}),
			Paths:  []string{"/static/{platform}/champions/{id}", "/static/{platform}/champions/by-name/{name}"},
			Params: []string{"locale"},
			Many:   bulk,
			Wrap:   func(m map[string]any) any { return ChampionWire(m) },
		},
		{
			Type:   keys.TypeOf(ChampionListWire{}),
			Paths:  []string{"/static/{platform}/champions"},
			Params: []string{"locale"},
			Wrap:   func(m map[string]any) any { return ChampionListWire(m) },
		},
		{
			Type:   keys.TypeOf(ItemWire{}),
			Paths:  []string{"/static/{platform}/items/{id}", "/static/{platform}/items/by-name/{name}"},
			Params: []string{"locale"},
			Many:   bulk,
			Wrap:   func(m map[string]any) any { return ItemWire(m) },
		},
		{
			Type:   keys.TypeOf(ItemListWire{}),
			Paths:  []string{"/static/{platform}/items"},
			Params: []string{"locale"},
			Wrap:   func(m map[string]any) any { return ItemListWire(m) },
		},
		{
			Type: keys.TypeOf(SummonerWire{}),
			Paths: []string{
				"/{platform}/summoners/{id}",
				"/{platform}/summoners/by-account/{account_id}",
				"/{platform}/summoners/by-puuid/{puuid}",
				"/{platform}/summoners/by-name/{name}",
			},
			Many: bulk,
			Wrap: func(m map[string]any) any { return SummonerWire(m) },
		},
		{
			Type:  keys.TypeOf(MasteryWire{}),
			Paths: []string{"/{platform}/champion-masteries/by-summoner/{summoner_id}/by-champion/{champion_id}"},
			Wrap:  func(m map[string]any) any { return MasteryWire(m) },
		},
		{
			Type:   keys.TypeOf(MatchListWire{}),
			Paths:  []string{"/{platform}/matchlists/by-account/{account_id}"},
			Params: []string{"begin_index"},
			Wrap:   func(m map[string]any) any { return MatchListWire(m) },
		},
	}
}
