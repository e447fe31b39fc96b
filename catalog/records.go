package catalog

import (
	"github.com/goliatone/go-catalog-cache/query"
)

// ChampionStats holds base combat statistics.
type ChampionStats struct {
	HP           float64 `msgpack:"hp"`
	Armor        float64 `msgpack:"armor"`
	AttackDamage float64 `msgpack:"attack_damage"`
	MoveSpeed    float64 `msgpack:"move_speed"`
}

// ChampionData is the normalized champion record.
type ChampionData struct {
	ID       int64         `msgpack:"id"`
	Key      string        `msgpack:"key"`
	Name     string        `msgpack:"name"`
	Title    string        `msgpack:"title"`
	Tags     []string      `msgpack:"tags"`
	Stats    ChampionStats `msgpack:"stats"`
	Platform string        `msgpack:"platform"`
	Locale   string        `msgpack:"locale"`
}

func (c ChampionData) KeyFields() query.Query {
	return known(query.Query{"id": c.ID, "name": c.Name, "platform": c.Platform, "locale": c.Locale})
}

// ChampionReleaseData is release metadata not served by the catalog API.
type ChampionReleaseData struct {
	Name        string `msgpack:"name"`
	ReleaseDate string `msgpack:"release_date"`
	Patch       string `msgpack:"patch"`
}

func (r ChampionReleaseData) KeyFields() query.Query {
	return known(query.Query{"name": r.Name})
}

// ChampionListData is every champion of one platform and locale.
type ChampionListData struct {
	Version   string         `msgpack:"version"`
	Platform  string         `msgpack:"platform"`
	Locale    string         `msgpack:"locale"`
	Champions []ChampionData `msgpack:"champions"`
}

func (l ChampionListData) KeyFields() query.Query {
	return known(query.Query{"platform": l.Platform, "locale": l.Locale})
}

// ItemData is the normalized item record.
type ItemData struct {
	ID          int64    `msgpack:"id"`
	Name        string   `msgpack:"name"`
	Description string   `msgpack:"description"`
	Gold        int64    `msgpack:"gold"`
	Tags        []string `msgpack:"tags"`
	Platform    string   `msgpack:"platform"`
	Locale      string   `msgpack:"locale"`
}

func (i ItemData) KeyFields() query.Query {
	return known(query.Query{"id": i.ID, "name": i.Name, "platform": i.Platform, "locale": i.Locale})
}

// ItemListData is every item of one platform and locale.
type ItemListData struct {
	Version  string     `msgpack:"version"`
	Platform string     `msgpack:"platform"`
	Locale   string     `msgpack:"locale"`
	Items    []ItemData `msgpack:"items"`
}

func (l ItemListData) KeyFields() query.Query {
	return known(query.Query{"platform": l.Platform, "locale": l.Locale})
}

// SummonerData is the normalized player record.
type SummonerData struct {
	ID        int64  `msgpack:"id"`
	AccountID string `msgpack:"account_id"`
	PUUID     string `msgpack:"puuid"`
	Name      string `msgpack:"name"`
	Level     int64  `msgpack:"level"`
	IconID    int64  `msgpack:"icon_id"`
	Platform  string `msgpack:"platform"`
}

func (s SummonerData) KeyFields() query.Query {
	return known(query.Query{
		"id":         s.ID,
		"account_id": s.AccountID,
		"puuid":      s.PUUID,
		"name":       s.Name,
		"platform":   s.Platform,
	})
}

// ChampionMasteryData is one player's progress on one champion. A player
// who never played the champion has a zeroed record.
type ChampionMasteryData struct {
	SummonerID     int64  `msgpack:"summoner_id"`
	ChampionID     int64  `msgpack:"champion_id"`
	Platform       string `msgpack:"platform"`
	Level          int64  `msgpack:"level"`
	Points         int64  `msgpack:"points"`
	LastPlayTime   int64  `msgpack:"last_play_time"`
	ChestGranted   bool   `msgpack:"chest_granted"`
	TokensEarned   int64  `msgpack:"tokens_earned"`
	PointsToNextLv int64  `msgpack:"points_to_next_level"`
}

func (m ChampionMasteryData) KeyFields() query.Query {
	return known(query.Query{"summoner_id": m.SummonerID, "champion_id": m.ChampionID, "platform": m.Platform})
}

// MatchReference is one entry of a match history page.
type MatchReference struct {
	GameID     int64  `msgpack:"game_id"`
	ChampionID int64  `msgpack:"champion_id"`
	Queue      int64  `msgpack:"queue"`
	Season     int64  `msgpack:"season"`
	Timestamp  int64  `msgpack:"timestamp"`
	Role       string `msgpack:"role"`
	Lane       string `msgpack:"lane"`
}

// MatchListData is one page of a player's match history.
type MatchListData struct {
	AccountID  string           `msgpack:"account_id"`
	Platform   string           `msgpack:"platform"`
	BeginIndex int64            `msgpack:"begin_index"`
	EndIndex   int64            `msgpack:"end_index"`
	TotalGames int64            `msgpack:"total_games"`
	Matches    []MatchReference `msgpack:"matches"`
}

func (m MatchListData) KeyFields() query.Query {
	q := known(query.Query{"account_id": m.AccountID, "platform": m.Platform})
	q["begin_index"] = m.BeginIndex
	return q
}

// known drops zero values so absent attributes yield no key.
func known(q query.Query) query.Query {
	for name, v := range q {
		switch x := v.(type) {
		case string:
			if x == "" {
				delete(q, name)
			}
		case int64:
			if x == 0 {
				delete(q, name)
			}
		}
	}
	return q
}
