package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/errs"
	"github.com/goliatone/go-catalog-cache/pipeline"
	"github.com/goliatone/go-catalog-cache/query"
)

func TestRegister_RejectsDuplicateTransformers(t *testing.T) {
	s := newTestStack(t)
	if err := RegisterTransformers(s.pipeline.Transformers()); err == nil {
		t.Fatal("registering the wire transformers twice should fail")
	}
	if err := ValidateKinds(s.registry); err != nil {
		t.Fatalf("ValidateKinds() error = %v", err)
	}
}

func TestChampion_ReadsShareOneFetchPerGroup(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	champion, err := s.catalog.Champion(query.Query{"id": 99})
	if err != nil {
		t.Fatalf("Champion() error = %v", err)
	}
	if got := s.remote.Count(); got != 0 {
		t.Fatalf("building an entity fetched %d times", got)
	}

	name, err := champion.Name(ctx)
	if err != nil {
		t.Fatalf("Name() error = %v", err)
	}
	if name != "Lux" {
		t.Errorf("Name() = %q, want Lux", name)
	}
	if got := s.remote.Count(); got != 1 {
		t.Fatalf("first read fetched %d times, want 1", got)
	}

	if title, _ := champion.Title(ctx); title != "the Lady of Luminosity" {
		t.Errorf("Title() = %q", title)
	}
	if tags, _ := champion.Tags(ctx); len(tags) != 2 {
		t.Errorf("Tags() = %v", tags)
	}
	if _, err := champion.Stats(ctx); err != nil {
		t.Errorf("Stats() error = %v", err)
	}
	if got := s.remote.Count(); got != 1 {
		t.Errorf("reads in a loaded group fetched again: %d calls", got)
	}
	if !champion.Loaded(entity.Core) || champion.Loaded(ReleaseGroup) {
		t.Errorf("unexpected loaded groups: core=%v release=%v", champion.Loaded(entity.Core), champion.Loaded(ReleaseGroup))
	}

	if v, err := ChampionKind.Read(ctx, champion, "name"); err != nil || v != "Lux" {
		t.Errorf("Read(name) = %v, %v", v, err)
	}
	if err := champion.Load(ctx, entity.Core); !errs.IsAlreadyLoaded(err) {
		t.Errorf("Load() of a loaded group = %v, want AlreadyLoaded", err)
	}
}

func TestChampionList_MembersServedFromCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	list, err := s.catalog.Champions(query.Query{})
	if err != nil {
		t.Fatalf("Champions() error = %v", err)
	}
	members, err := list.Champions(ctx)
	if err != nil {
		t.Fatalf("list.Champions() error = %v", err)
	}
	if len(members) != 10 {
		t.Fatalf("list has %d champions, want 10", len(members))
	}
	if version, _ := list.Version(ctx); version != "9.1.1" {
		t.Errorf("Version() = %q", version)
	}
	for _, m := range members {
		if !m.Loaded(entity.Core) {
			t.Fatalf("list member %v is not loaded", m.Query())
		}
	}
	if got := s.remote.Count(); got != 1 {
		t.Fatalf("list fetch made %d calls, want 1", got)
	}

	for id := int64(1); id <= 10; id++ {
		champion, err := s.catalog.Champion(query.Query{"id": id})
		if err != nil {
			t.Fatalf("Champion(%d) error = %v", id, err)
		}
		if _, err := champion.Name(ctx); err != nil {
			t.Fatalf("Champion(%d).Name() error = %v", id, err)
		}
		if !entity.Equal(champion, members[id-1]) {
			t.Errorf("champion %d differs from its list member", id)
		}
	}

	leblanc, _ := s.catalog.Champion(query.Query{"id": 7})
	if name, _ := leblanc.Name(ctx); name != "LeBlanc" {
		t.Errorf("champion 7 is %q, want LeBlanc", name)
	}
	byName, _ := s.catalog.Champion(query.Query{"name": "LeBlanc"})
	if id, _ := byName.ID(ctx); id != 7 {
		t.Errorf("LeBlanc has id %d, want 7", id)
	}

	if got := s.remote.Count(); got != 1 {
		t.Errorf("members were fetched again: %d remote calls", got)
	}
}

func TestChampion_EqualAcrossIdentifiers(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	byName, err := s.catalog.Champion(query.Query{"name": "Foo"})
	if err != nil {
		t.Fatalf("Champion(name) error = %v", err)
	}
	byID, err := s.catalog.Champion(query.Query{"id": 42})
	if err != nil {
		t.Fatalf("Champion(id) error = %v", err)
	}
	if entity.Equal(byName, byID) {
		t.Fatal("entities without a shared key should not compare equal before loading")
	}

	if _, err := byID.Title(ctx); err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if entity.Equal(byName, byID) && entity.Hash(byName) != entity.Hash(byID) {
		t.Fatal("equal entities should hash alike while one is unloaded")
	}
	if entity.Equal(byName, byID) {
		t.Error("a name-only champion should not equal a loaded one before it knows its id")
	}

	if _, err := byName.Title(ctx); err != nil {
		t.Fatalf("Title() error = %v", err)
	}
	if got := s.remote.Count(); got != 1 {
		t.Errorf("second identifier fetched again: %d remote calls", got)
	}

	if !entity.Equal(byName, byID) || !byID.Equal(byName) {
		t.Fatal("entities should compare equal once loaded")
	}
	if entity.Hash(byName) != entity.Hash(byID) {
		t.Error("equal entities should hash alike")
	}

	want, _ := byName.Data(ctx)
	ks := byID.Keys()
	if len(ks) != 2 {
		t.Fatalf("Keys() = %v, want id and name keys", ks)
	}
	for _, k := range ks {
		got, err := s.store.Get(ctx, ChampionType, keyQuery(k))
		if err != nil {
			t.Fatalf("store.Get(%s) error = %v", k, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("store.Get(%s) = %#v, want %#v", k, got, want)
		}
	}
}

func TestChampion_ReleaseGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("named by id loads core first", func(t *testing.T) {
		s := newTestStack(t)
		champion, _ := s.catalog.Champion(query.Query{"id": 7})

		date, err := champion.ReleaseDate(ctx)
		if err != nil {
			t.Fatalf("ReleaseDate() error = %v", err)
		}
		if date != "2010-11-02" {
			t.Errorf("ReleaseDate() = %q", date)
		}
		if patch, _ := champion.Patch(ctx); patch != "V1.0.0.66" {
			t.Errorf("Patch() = %q", patch)
		}
		if got := s.remote.Count(championWireType); got != 1 {
			t.Errorf("core fetched %d times, want 1", got)
		}
		if got := s.remote.Count(); got != 1 {
			t.Errorf("release data reached the remote: %d calls", got)
		}
	})

	t.Run("named by name skips core", func(t *testing.T) {
		s := newTestStack(t)
		champion, _ := s.catalog.Champion(query.Query{"name": "annie"})

		patch, err := champion.Patch(ctx)
		if err != nil {
			t.Fatalf("Patch() error = %v", err)
		}
		if patch != "Alpha Week 2" {
			t.Errorf("Patch() = %q", patch)
		}
		if champion.Loaded(entity.Core) {
			t.Error("core should stay unloaded")
		}
		if got := s.remote.Count(); got != 0 {
			t.Errorf("remote called %d times", got)
		}
	})
}

func TestChampion_FailedLoads(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		s := newTestStack(t)
		champion, _ := s.catalog.Champion(query.Query{"id": 12345})
		if _, err := champion.Name(ctx); !errs.IsNotFound(err) {
			t.Fatalf("Name() error = %v, want NotFound", err)
		}
		if champion.Loaded(entity.Core) {
			t.Error("a failed load should leave the group unloaded")
		}
	})

	t.Run("invalid queries fail before fetching", func(t *testing.T) {
		s := newTestStack(t)
		for _, q := range []query.Query{
			{},
			{"platform": "EUW1"},
			{"id": 7, "colour": "red"},
			{"id": "seven"},
		} {
			if _, err := s.catalog.Champion(q); !errs.IsValidation(err) {
				t.Errorf("Champion(%v) error = %v, want validation error", q, err)
			}
		}
		if got := s.remote.Count(); got != 0 {
			t.Errorf("invalid queries reached the remote %d times", got)
		}
	})

	t.Run("remote failure propagates", func(t *testing.T) {
		s := newTestStack(t)
		boom := errors.New("upstream down")
		s.remote.FailWith(boom)

		champion, _ := s.catalog.Champion(query.Query{"id": 1})
		_, err := champion.Name(ctx)
		if !errors.Is(err, boom) || errs.IsNotFound(err) {
			t.Fatalf("Name() error = %v, want the remote failure", err)
		}

		s.remote.FailWith(nil)
		if name, err := champion.Name(ctx); err != nil || name != "Annie" {
			t.Errorf("retry after recovery = %q, %v", name, err)
		}
	})
}

func TestChampionMastery_DefaultsWhenUnplayed(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	summoner, err := s.catalog.Summoner(query.Query{"name": "Faker"})
	if err != nil {
		t.Fatalf("Summoner() error = %v", err)
	}

	played, err := summoner.ChampionMastery(ctx, 7)
	if err != nil {
		t.Fatalf("ChampionMastery(7) error = %v", err)
	}
	if level, _ := played.Level(ctx); level != 7 {
		t.Errorf("Level() = %d, want 7", level)
	}
	if points, _ := played.Points(ctx); points != 254000 {
		t.Errorf("Points() = %d", points)
	}

	unplayed, err := summoner.ChampionMastery(ctx, 99)
	if err != nil {
		t.Fatalf("ChampionMastery(99) error = %v", err)
	}
	data, err := unplayed.Data(ctx)
	if err != nil {
		t.Fatalf("Data() error = %v, want the declared default", err)
	}
	want := ChampionMasteryData{SummonerID: 1001, ChampionID: 99, Platform: "NA1"}
	if data != want {
		t.Errorf("Data() = %#v, want %#v", data, want)
	}
	if !unplayed.Loaded(entity.Core) {
		t.Error("a defaulted group should count as loaded")
	}

	direct, _ := s.catalog.ChampionMastery(query.Query{"summoner_id": 1001, "champion_id": 99})
	if !entity.Equal(direct, unplayed) {
		t.Error("defaulted mastery should equal one named directly")
	}
}

func TestSummoner_MatchHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("pages through every match", func(t *testing.T) {
		s := newTestStack(t)
		summoner, _ := s.catalog.Summoner(query.Query{"account_id": "acc-1001"})
		history := summoner.MatchHistory()

		matches, err := history.Collect(ctx)
		if err != nil {
			t.Fatalf("Collect() error = %v", err)
		}
		if len(matches) != 5 {
			t.Fatalf("got %d matches, want 5", len(matches))
		}
		for i, m := range matches {
			if m.GameID != int64(3000+i) {
				t.Errorf("match %d has game id %d", i, m.GameID)
			}
		}
		if matches[0].ChampionID != 7 || matches[0].Lane != "MID" {
			t.Errorf("first match = %#v", matches[0])
		}
		if got := s.remote.Count(matchListWireType); got != 3 {
			t.Errorf("fetched %d pages, want 3", got)
		}

		again, err := history.Collect(ctx)
		if err != nil || len(again) != 5 {
			t.Fatalf("second Collect() = %d matches, %v", len(again), err)
		}
		if got := s.remote.Count(matchListWireType); got != 3 {
			t.Errorf("a materialized history fetched again: %d pages", got)
		}
	})

	t.Run("single pass until read to the end", func(t *testing.T) {
		s := newTestStack(t)
		summoner, _ := s.catalog.Summoner(query.Query{"id": 1001})
		history := summoner.MatchHistory()

		for _, err := range history.All(ctx) {
			if err != nil {
				t.Fatalf("All() error = %v", err)
			}
			break
		}
		if got := s.remote.Count(matchListWireType); got != 1 {
			t.Errorf("an abandoned walk fetched %d pages, want 1", got)
		}
		if _, err := history.Collect(ctx); !errors.Is(err, entity.ErrSequenceConsumed) {
			t.Errorf("second pass error = %v, want ErrSequenceConsumed", err)
		}
	})
}

func TestItemList_ItemsServedFromCache(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	list, _ := s.catalog.Items(query.Query{"locale": "en_US"})
	items, err := list.Items(ctx)
	if err != nil {
		t.Fatalf("Items() error = %v", err)
	}
	if !items.Materialized() {
		t.Error("a loaded list should hold a materialized sequence")
	}
	all, err := items.Collect(ctx)
	if err != nil || len(all) != 3 {
		t.Fatalf("Collect() = %d items, %v", len(all), err)
	}
	if gold, _ := all[0].Gold(ctx); gold != 300 {
		t.Errorf("first item gold = %d, want 300", gold)
	}

	deathcap, _ := s.catalog.Item(query.Query{"id": 3089})
	if name, _ := deathcap.Name(ctx); name != "Rabadon's Deathcap" {
		t.Errorf("Name() = %q", name)
	}
	if got := s.remote.Count(); got != 1 {
		t.Errorf("items were fetched again: %d remote calls", got)
	}
}

func TestStore_ExpireRemovesOneType(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	list, _ := s.catalog.Champions(query.Query{})
	if _, err := list.Champions(ctx); err != nil {
		t.Fatalf("Champions() error = %v", err)
	}
	if err := s.store.Expire(ctx, ChampionType); err != nil {
		t.Fatalf("Expire() error = %v", err)
	}

	scope := query.Query{"platform": "NA1", "locale": "en_US"}
	for _, q := range []query.Query{scope.With("id", 7), scope.With("name", "LeBlanc")} {
		if _, err := s.store.Get(ctx, ChampionType, q); !errs.IsNotFound(err) {
			t.Errorf("store.Get(%v) after expire = %v, want NotFound", q, err)
		}
	}
	if _, err := s.store.Get(ctx, ChampionListType, scope); err != nil {
		t.Errorf("the list should survive expiring its members: %v", err)
	}

	champion, _ := s.catalog.Champion(query.Query{"id": 7})
	if _, err := champion.Name(ctx); err != nil {
		t.Fatalf("Name() error = %v", err)
	}
	if got := s.remote.Count(championWireType); got != 1 {
		t.Errorf("expired champion fetched %d times, want 1", got)
	}
}

func TestPipeline_StampsRequestScope(t *testing.T) {
	ctx := context.Background()
	s := newTestStack(t)

	v, err := s.pipeline.Get(ctx, ChampionType, query.Query{"id": 1, "platform": "EUW1", "locale": "fr_FR"})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	c := v.(ChampionData)
	if c.Platform != "EUW1" || c.Locale != "fr_FR" {
		t.Errorf("record scope = %s/%s", c.Platform, c.Locale)
	}
	if _, err := s.store.Get(ctx, ChampionType, query.Query{"id": 1}); !errs.IsNotFound(err) {
		t.Errorf("a EUW1 record should not answer the default platform: %v", err)
	}

	many, err := s.pipeline.GetMany(pipeline.WithRequestID(ctx, "req-1"), ChampionType, query.Query{"ids": []any{1, 7}})
	if err != nil {
		t.Fatalf("GetMany() error = %v", err)
	}
	if len(many) != 2 || many[1].(ChampionData).Name != "LeBlanc" {
		t.Errorf("GetMany() = %#v", many)
	}
}
