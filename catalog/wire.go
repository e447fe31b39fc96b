package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/goliatone/go-catalog-cache/fieldmap"
	"github.com/goliatone/go-catalog-cache/pipeline"
)

// Wire types are the decoded JSON bodies of the remote API. Each one is a
// distinct type so transformers can be selected by it.
type (
	ChampionWire     map[string]any
	ChampionListWire map[string]any
	ItemWire         map[string]any
	ItemListWire     map[string]any
	SummonerWire     map[string]any
	MasteryWire      map[string]any
	MatchListWire    map[string]any
)

type tables struct {
	champion *fieldmap.Table[ChampionData]
	stats    *fieldmap.Table[ChampionStats]
	item     *fieldmap.Table[ItemData]
	summoner *fieldmap.Table[SummonerData]
	mastery  *fieldmap.Table[ChampionMasteryData]
	match    *fieldmap.Table[MatchReference]
	page     *fieldmap.Table[MatchListData]
}

func newTables() (*tables, error) {
	var (
		t    tables
		errs []error
		err  error
	)
	collect := func(e error) {
		if e != nil {
			errs = append(errs, e)
		}
	}

	t.stats, err = fieldmap.New[ChampionStats](
		fieldmap.Field("HP", "hp"),
		fieldmap.Field("Armor", "armor"),
		fieldmap.Field("AttackDamage", "attackdamage"),
		fieldmap.Field("MoveSpeed", "movespeed"),
	)
	collect(err)

	t.champion, err = fieldmap.New[ChampionData](
		fieldmap.Field("ID", "key"),
		fieldmap.Field("Key", "id"),
		fieldmap.Field("Name", "name"),
		fieldmap.Field("Title", "title"),
		fieldmap.Field("Tags", "tags"),
		fieldmap.Computed("Stats", func(src map[string]any) (any, bool) {
			raw, ok := src["stats"].(map[string]any)
			if !ok || t.stats == nil {
				return nil, false
			}
			stats, err := t.stats.Decode(raw)
			return stats, err == nil
		}),
	)
	collect(err)

	t.item, err = fieldmap.New[ItemData](
		fieldmap.Field("ID", "id"),
		fieldmap.Field("Name", "name"),
		fieldmap.Field("Description", "plaintext"),
		fieldmap.Field("Gold", "gold.total"),
		fieldmap.Field("Tags", "tags"),
	)
	collect(err)

	t.summoner, err = fieldmap.New[SummonerData](
		fieldmap.Field("ID", "id"),
		fieldmap.Field("AccountID", "accountId"),
		fieldmap.Field("PUUID", "puuid"),
		fieldmap.Field("Name", "name"),
		fieldmap.Field("Level", "summonerLevel"),
		fieldmap.Field("IconID", "profileIconId"),
	)
	collect(err)

	t.mastery, err = fieldmap.New[ChampionMasteryData](
		fieldmap.Field("SummonerID", "summonerId"),
		fieldmap.Field("ChampionID", "championId"),
		fieldmap.Field("Level", "championLevel"),
		fieldmap.Field("Points", "championPoints"),
		fieldmap.Field("LastPlayTime", "lastPlayTime"),
		fieldmap.Field("ChestGranted", "chestGranted"),
		fieldmap.Field("TokensEarned", "tokensEarned"),
		fieldmap.Field("PointsToNextLv", "championPointsUntilNextLevel"),
	)
	collect(err)

	t.match, err = fieldmap.New[MatchReference](
		fieldmap.Field("GameID", "gameId"),
		fieldmap.Field("ChampionID", "champion"),
		fieldmap.Field("Queue", "queue"),
		fieldmap.Field("Season", "season"),
		fieldmap.Field("Timestamp", "timestamp"),
		fieldmap.Field("Role", "role"),
		fieldmap.Field("Lane", "lane"),
	)
	collect(err)

	t.page, err = fieldmap.New[MatchListData](
		fieldmap.Field("BeginIndex", "startIndex"),
		fieldmap.Field("EndIndex", "endIndex"),
		fieldmap.Field("TotalGames", "totalGames"),
	)
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &t, nil
}

// RegisterTransformers installs the wire to record conversions. Field tables
// are validated here, so a bad table fails at start-up.
func RegisterTransformers(t *pipeline.Transformers) error {
	tb, err := newTables()
	if err != nil {
		return err
	}

	return errors.Join(
		pipeline.Register(t, tb.championFromWire),
		pipeline.Register(t, tb.championListFromWire),
		pipeline.Register(t, tb.itemFromWire),
		pipeline.Register(t, tb.itemListFromWire),
		pipeline.Register(t, tb.summonerFromWire),
		pipeline.Register(t, tb.masteryFromWire),
		pipeline.Register(t, tb.matchListFromWire),
	)
}

// scope returns the platform and locale of the request being resolved.
func scope(ctx context.Context) (platform, locale string) {
	q := pipeline.QueryFrom(ctx)
	return q.Str("platform"), q.Str("locale")
}

func (tb *tables) championFromWire(ctx context.Context, w ChampionWire) (ChampionData, error) {
	c, err := tb.champion.Decode(w)
	if err != nil {
		return ChampionData{}, err
	}
	c.Platform, c.Locale = scope(ctx)
	return c, nil
}

func (tb *tables) championListFromWire(ctx context.Context, w ChampionListWire) (ChampionListData, error) {
	platform, locale := scope(ctx)
	out := ChampionListData{Platform: platform, Locale: locale}
	out.Version, _ = w["version"].(string)

	data, _ := w["data"].(map[string]any)
	for name, raw := range data {
		m, ok := raw.(map[string]any)
		if !ok {
			return ChampionListData{}, fmt.Errorf("champion %s: expected object, got %T", name, raw)
		}
		c, err := tb.champion.Decode(m)
		if err != nil {
			return ChampionListData{}, err
		}
		c.Platform, c.Locale = platform, locale
		out.Champions = append(out.Champions, c)
	}
	sort.Slice(out.Champions, func(i, j int) bool { return out.Champions[i].ID < out.Champions[j].ID })
	return out, nil
}

func (tb *tables) itemFromWire(ctx context.Context, w ItemWire) (ItemData, error) {
	i, err := tb.item.Decode(w)
	if err != nil {
		return ItemData{}, err
	}
	i.Platform, i.Locale = scope(ctx)
	return i, nil
}

func (tb *tables) itemListFromWire(ctx context.Context, w ItemListWire) (ItemListData, error) {
	platform, locale := scope(ctx)
	out := ItemListData{Platform: platform, Locale: locale}
	out.Version, _ = w["version"].(string)

	data, _ := w["data"].(map[string]any)
	for key, raw := range data {
		m, ok := raw.(map[string]any)
		if !ok {
			return ItemListData{}, fmt.Errorf("item %s: expected object, got %T", key, raw)
		}
		i, err := tb.item.Decode(m)
		if err != nil {
			return ItemListData{}, err
		}
		if i.ID == 0 {
			if i.ID, err = strconv.ParseInt(key, 10, 64); err != nil {
				return ItemListData{}, fmt.Errorf("item key %q: %w", key, err)
			}
		}
		i.Platform, i.Locale = platform, locale
		out.Items = append(out.Items, i)
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ID < out.Items[j].ID })
	return out, nil
}

func (tb *tables) summonerFromWire(ctx context.Context, w SummonerWire) (SummonerData, error) {
	s, err := tb.summoner.Decode(w)
	if err != nil {
		return SummonerData{}, err
	}
	s.Platform, _ = scope(ctx)
	return s, nil
}

func (tb *tables) masteryFromWire(ctx context.Context, w MasteryWire) (ChampionMasteryData, error) {
	m, err := tb.mastery.Decode(w)
	if err != nil {
		return ChampionMasteryData{}, err
	}
	m.Platform, _ = scope(ctx)
	return m, nil
}

func (tb *tables) matchListFromWire(ctx context.Context, w MatchListWire) (MatchListData, error) {
	page, err := tb.page.Decode(w)
	if err != nil {
		return MatchListData{}, err
	}
	raw, _ := w["matches"].([]any)
	if page.Matches, err = tb.match.DecodeAll(raw); err != nil {
		return MatchListData{}, err
	}

	q := pipeline.QueryFrom(ctx)
	page.AccountID = q.Str("account_id")
	page.Platform = q.Str("platform")
	if page.BeginIndex == 0 {
		page.BeginIndex, _ = q.Int64("begin_index")
	}
	return page, nil
}
