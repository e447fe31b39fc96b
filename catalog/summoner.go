package catalog

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/query"
)

// Summoner is a player account on one platform.
type Summoner struct {
	*entity.Base
	core    SummonerData
	hasCore bool
}

// SummonerKind declares the summoner entity.
var SummonerKind = &entity.Kind[*Summoner]{
	Name:     "summoner",
	Identity: SummonerType,
	Groups:   map[entity.Group]string{entity.Core: SummonerType},
	Fields: map[string]entity.Field[*Summoner]{
		"id":         {Group: entity.Core, Get: func(s *Summoner) any { return s.core.ID }},
		"account_id": {Group: entity.Core, Get: func(s *Summoner) any { return s.core.AccountID }},
		"puuid":      {Group: entity.Core, Get: func(s *Summoner) any { return s.core.PUUID }},
		"name":       {Group: entity.Core, Get: func(s *Summoner) any { return s.core.Name }},
		"level":      {Group: entity.Core, Get: func(s *Summoner) any { return s.core.Level }},
	},
	New: func(b *entity.Base) *Summoner { return &Summoner{Base: b} },
}

func (s *Summoner) Install(g entity.Group, record any) error {
	data, ok := record.(SummonerData)
	if !ok {
		return fmt.Errorf("summoner: %s record is %T", g, record)
	}
	s.core, s.hasCore = data, true
	return nil
}

func (s *Summoner) KeyFields() query.Query {
	if !s.hasCore {
		return nil
	}
	return s.core.KeyFields()
}

// Data returns the core record.
func (s *Summoner) Data(ctx context.Context) (SummonerData, error) {
	if err := s.Ensure(ctx, entity.Core); err != nil {
		return SummonerData{}, err
	}
	return s.core, nil
}

func (s *Summoner) Name(ctx context.Context) (string, error) {
	d, err := s.Data(ctx)
	return d.Name, err
}

func (s *Summoner) Level(ctx context.Context) (int64, error) {
	d, err := s.Data(ctx)
	return d.Level, err
}

// ChampionMastery returns the summoner's mastery of one champion. Nothing
// is fetched beyond what is needed to know the summoner id.
func (s *Summoner) ChampionMastery(ctx context.Context, championID int64) (*ChampionMastery, error) {
	d, err := s.Data(ctx)
	if err != nil {
		return nil, err
	}
	return entity.Resolve(s.Loader(), ChampionMasteryKind, query.Query{
		"summoner_id": d.ID,
		"champion_id": championID,
		"platform":    d.Platform,
	})
}

// MatchHistory walks the summoner's matches newest first, one page at a
// time. The sequence can be walked once until it has been read to the end.
func (s *Summoner) MatchHistory() *entity.Sequence[MatchReference] {
	return entity.NewSequence(func(ctx context.Context, yield func(MatchReference) bool) error {
		d, err := s.Data(ctx)
		if err != nil {
			return err
		}
		var begin int64
		for {
			v, err := s.Loader().Get(ctx, MatchListType, query.Query{
				"account_id":  d.AccountID,
				"platform":    d.Platform,
				"begin_index": begin,
			})
			if err != nil {
				return err
			}
			page, ok := v.(MatchListData)
			if !ok {
				return fmt.Errorf("summoner: match page is %T", v)
			}
			for _, m := range page.Matches {
				if !yield(m) {
					return nil
				}
			}
			if len(page.Matches) == 0 || page.EndIndex <= begin || page.EndIndex >= page.TotalGames {
				return nil
			}
			begin = page.EndIndex
		}
	})
}

// ChampionMastery is one summoner's progress on one champion.
type ChampionMastery struct {
	*entity.Base
	core    ChampionMasteryData
	hasCore bool
}

// ChampionMasteryKind declares the mastery entity. A summoner who never
// played the champion has no record upstream; that is served as a zeroed
// record rather than an error.
var ChampionMasteryKind = &entity.Kind[*ChampionMastery]{
	Name:     "champion_mastery",
	Identity: MasteryType,
	Groups:   map[entity.Group]string{entity.Core: MasteryType},
	Fields: map[string]entity.Field[*ChampionMastery]{
		"level":  {Group: entity.Core, Get: func(m *ChampionMastery) any { return m.core.Level }},
		"points": {Group: entity.Core, Get: func(m *ChampionMastery) any { return m.core.Points }},
	},
	Defaults: map[entity.Group]entity.DefaultFunc{
		entity.Core: func(q query.Query) any {
			summonerID, _ := q.Int64("summoner_id")
			championID, _ := q.Int64("champion_id")
			return ChampionMasteryData{SummonerID: summonerID, ChampionID: championID, Platform: q.Str("platform")}
		},
	},
	New: func(b *entity.Base) *ChampionMastery { return &ChampionMastery{Base: b} },
}

func (m *ChampionMastery) Install(g entity.Group, record any) error {
	data, ok := record.(ChampionMasteryData)
	if !ok {
		return fmt.Errorf("champion_mastery: %s record is %T", g, record)
	}
	m.core, m.hasCore = data, true
	return nil
}

func (m *ChampionMastery) KeyFields() query.Query {
	if !m.hasCore {
		return nil
	}
	return m.core.KeyFields()
}

// Data returns the mastery record.
func (m *ChampionMastery) Data(ctx context.Context) (ChampionMasteryData, error) {
	if err := m.Ensure(ctx, entity.Core); err != nil {
		return ChampionMasteryData{}, err
	}
	return m.core, nil
}

func (m *ChampionMastery) Level(ctx context.Context) (int64, error) {
	d, err := m.Data(ctx)
	return d.Level, err
}

func (m *ChampionMastery) Points(ctx context.Context) (int64, error) {
	d, err := m.Data(ctx)
	return d.Points, err
}
