package catalog

import (
	"strconv"
	"strings"
	"testing"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/keys"
	"github.com/goliatone/go-catalog-cache/pipeline"
	"github.com/goliatone/go-catalog-cache/pkg/testsupport"
	"github.com/goliatone/go-catalog-cache/query"
)

var (
	championWireType     = keys.TypeOf(ChampionWire{})
	championListWireType = keys.TypeOf(ChampionListWire{})
	itemWireType         = keys.TypeOf(ItemWire{})
	itemListWireType     = keys.TypeOf(ItemListWire{})
	summonerWireType     = keys.TypeOf(SummonerWire{})
	masteryWireType      = keys.TypeOf(MasteryWire{})
	matchListWireType    = keys.TypeOf(MatchListWire{})
)

const matchPageSize = 2

// Champions outside the list fixture, reachable only one at a time.
var offListChampions = []map[string]any{
	{"id": "Lux", "key": "99", "name": "Lux", "title": "the Lady of Luminosity", "tags": []any{"Mage", "Support"}},
	{"id": "Foo", "key": "42", "name": "Foo", "title": "the Placeholder", "tags": []any{"Fighter"}},
}

type testStack struct {
	catalog  *Catalog
	registry *keys.Registry
	store    *cache.Store
	pipeline *pipeline.Pipeline
	remote   *testsupport.FixtureSource
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	registry := keys.NewRegistry()
	transformers := pipeline.NewTransformers()
	if err := Register(registry, transformers, DefaultDefaults()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	cfg := cache.DefaultConfig()
	cfg.Expirations = DefaultExpirations()
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		t.Fatalf("NewCacheService() error = %v", err)
	}
	store := cache.NewStore(service, registry, cache.WithConfig(cfg))

	remote := newFixtureRemote(t)
	p, err := pipeline.New(registry, transformers, pipeline.WithStages(
		pipeline.NewStage(0, store),
		pipeline.NewStage(10, NewReleaseSource(registry, DefaultReleases()...)),
		pipeline.NewStage(20, remote),
	))
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}

	return &testStack{
		catalog:  New(entity.NewLoader(p)),
		registry: registry,
		store:    store,
		pipeline: p,
		remote:   remote,
	}
}

func newFixtureRemote(t *testing.T) *testsupport.FixtureSource {
	t.Helper()

	champions := testsupport.Wire(t, "champions.json")
	items := testsupport.Wire(t, "items.json")
	summoner := testsupport.Wire(t, "summoner.json")
	mastery := testsupport.Wire(t, "mastery.json")
	matches := testsupport.WireList(t, "matches.json", "matches")

	allChampions := append(testsupport.WireMembers(t, "champions.json", "data"), offListChampions...)

	return testsupport.NewFixtureSource("remote").
		Handle(championWireType, func(q query.Query) (any, bool) {
			id, hasID := q.Int64("id")
			name := q.Str("name")
			for _, c := range allChampions {
				key, _ := strconv.ParseInt(c["key"].(string), 10, 64)
				if (hasID && key == id) || (name != "" && strings.EqualFold(c["name"].(string), name)) {
					return ChampionWire(c), true
				}
			}
			return nil, false
		}).
		HandleMany(championWireType, map[string]string{"ids": "id", "names": "name"}).
		Handle(championListWireType, func(query.Query) (any, bool) {
			return ChampionListWire(champions), true
		}).
		Handle(itemWireType, func(q query.Query) (any, bool) {
			id, hasID := q.Int64("id")
			for key, raw := range items["data"].(map[string]any) {
				m := raw.(map[string]any)
				if (hasID && key == strconv.FormatInt(id, 10)) || strings.EqualFold(m["name"].(string), q.Str("name")) {
					out := ItemWire{"id": key}
					for k, v := range m {
						out[k] = v
					}
					return out, true
				}
			}
			return nil, false
		}).
		Handle(itemListWireType, func(query.Query) (any, bool) {
			return ItemListWire(items), true
		}).
		Handle(summonerWireType, func(q query.Query) (any, bool) {
			id, _ := q.Int64("id")
			if id == 1001 || q.Str("name") == summoner["name"] || q.Str("account_id") == summoner["accountId"] {
				return SummonerWire(summoner), true
			}
			return nil, false
		}).
		Handle(masteryWireType, func(q query.Query) (any, bool) {
			summonerID, _ := q.Int64("summoner_id")
			championID, _ := q.Int64("champion_id")
			if summonerID == 1001 && championID == 7 {
				return MasteryWire(mastery), true
			}
			return nil, false
		}).
		Handle(matchListWireType, func(q query.Query) (any, bool) {
			if q.Str("account_id") != summoner["accountId"] {
				return nil, false
			}
			begin, _ := q.Int64("begin_index")
			end := min(begin+matchPageSize, int64(len(matches)))
			if begin > end {
				begin = end
			}
			return MatchListWire{
				"startIndex": begin,
				"endIndex":   end,
				"totalGames": len(matches),
				"matches":    matches[begin:end],
			}, true
		})
}

func keyQuery(k keys.AlternateKey) query.Query {
	q := query.Query{}
	for i, field := range strings.Split(k.Shape, "+") {
		q[field] = k.Values[i]
	}
	return q
}
