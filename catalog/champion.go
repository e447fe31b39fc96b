package catalog

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/query"
)

// ReleaseGroup holds release metadata, served separately from core data.
const ReleaseGroup entity.Group = "release"

// Champion is a playable character.
type Champion struct {
	*entity.Base
	core    ChampionData
	release ChampionReleaseData
	hasCore bool
}

// ChampionKind declares the champion entity.
var ChampionKind = &entity.Kind[*Champion]{
	Name:     "champion",
	Identity: ChampionType,
	Groups: map[entity.Group]string{
		entity.Core:  ChampionType,
		ReleaseGroup: ChampionReleaseType,
	},
	Fields: map[string]entity.Field[*Champion]{
		"id":           {Group: entity.Core, Get: func(c *Champion) any { return c.core.ID }},
		"key":          {Group: entity.Core, Get: func(c *Champion) any { return c.core.Key }},
		"name":         {Group: entity.Core, Get: func(c *Champion) any { return c.core.Name }},
		"title":        {Group: entity.Core, Get: func(c *Champion) any { return c.core.Title }},
		"tags":         {Group: entity.Core, Get: func(c *Champion) any { return c.core.Tags }},
		"stats":        {Group: entity.Core, Get: func(c *Champion) any { return c.core.Stats }},
		"release_date": {Group: ReleaseGroup, Get: func(c *Champion) any { return c.release.ReleaseDate }},
		"patch":        {Group: ReleaseGroup, Get: func(c *Champion) any { return c.release.Patch }},
	},
	New: func(b *entity.Base) *Champion { return &Champion{Base: b} },
}

func (c *Champion) Install(g entity.Group, record any) error {
	switch g {
	case entity.Core:
		data, ok := record.(ChampionData)
		if !ok {
			return fmt.Errorf("champion: core record is %T", record)
		}
		c.core, c.hasCore = data, true
	case ReleaseGroup:
		data, ok := record.(ChampionReleaseData)
		if !ok {
			return fmt.Errorf("champion: release record is %T", record)
		}
		c.release = data
	}
	return nil
}

func (c *Champion) KeyFields() query.Query {
	if !c.hasCore {
		return nil
	}
	return c.core.KeyFields()
}

// Ensure loads g. Release metadata is keyed by name, so the core group is
// loaded first when the champion was named by id.
func (c *Champion) Ensure(ctx context.Context, g entity.Group) error {
	if g == ReleaseGroup && !c.Query().Has("name") {
		if err := c.Base.Ensure(ctx, entity.Core); err != nil {
			return err
		}
	}
	return c.Base.Ensure(ctx, g)
}

// Load fetches g, loading the core group first when release metadata needs
// the champion's name.
func (c *Champion) Load(ctx context.Context, g entity.Group) error {
	if g == ReleaseGroup && !c.Query().Has("name") {
		if err := c.Base.Ensure(ctx, entity.Core); err != nil {
			return err
		}
	}
	return c.Base.Load(ctx, g)
}

// Data returns the core record.
func (c *Champion) Data(ctx context.Context) (ChampionData, error) {
	if err := c.Ensure(ctx, entity.Core); err != nil {
		return ChampionData{}, err
	}
	return c.core, nil
}

func (c *Champion) ID(ctx context.Context) (int64, error) {
	d, err := c.Data(ctx)
	return d.ID, err
}

func (c *Champion) Name(ctx context.Context) (string, error) {
	d, err := c.Data(ctx)
	return d.Name, err
}

func (c *Champion) Title(ctx context.Context) (string, error) {
	d, err := c.Data(ctx)
	return d.Title, err
}

func (c *Champion) Tags(ctx context.Context) ([]string, error) {
	d, err := c.Data(ctx)
	return d.Tags, err
}

func (c *Champion) Stats(ctx context.Context) (ChampionStats, error) {
	d, err := c.Data(ctx)
	return d.Stats, err
}

// ReleaseDate returns the day the champion was released.
func (c *Champion) ReleaseDate(ctx context.Context) (string, error) {
	if err := c.Ensure(ctx, ReleaseGroup); err != nil {
		return "", err
	}
	return c.release.ReleaseDate, nil
}

// Patch returns the patch the champion was released in.
func (c *Champion) Patch(ctx context.Context) (string, error) {
	if err := c.Ensure(ctx, ReleaseGroup); err != nil {
		return "", err
	}
	return c.release.Patch, nil
}

// ChampionList is every champion of one platform and locale.
type ChampionList struct {
	*entity.Base
	data    ChampionListData
	members []*Champion
}

// ChampionListKind declares the champion list entity.
var ChampionListKind = &entity.Kind[*ChampionList]{
	Name:     "champion_list",
	Identity: ChampionListType,
	Groups:   map[entity.Group]string{entity.Core: ChampionListType},
	Fields: map[string]entity.Field[*ChampionList]{
		"version": {Group: entity.Core, Get: func(l *ChampionList) any { return l.data.Version }},
	},
	New: func(b *entity.Base) *ChampionList { return &ChampionList{Base: b} },
}

func (l *ChampionList) Install(g entity.Group, record any) error {
	data, ok := record.(ChampionListData)
	if !ok {
		return fmt.Errorf("champion_list: %s record is %T", g, record)
	}
	members := make([]*Champion, 0, len(data.Champions))
	for _, c := range data.Champions {
		champion, err := entity.FromRecord(l.Loader(), ChampionKind, c, entity.Core)
		if err != nil {
			return err
		}
		members = append(members, champion)
	}
	l.data, l.members = data, members
	return nil
}

func (l *ChampionList) KeyFields() query.Query {
	if l.data.Platform == "" {
		return nil
	}
	return l.data.KeyFields()
}

// Version returns the data version of the list.
func (l *ChampionList) Version(ctx context.Context) (string, error) {
	if err := l.Ensure(ctx, entity.Core); err != nil {
		return "", err
	}
	return l.data.Version, nil
}

// Champions returns every champion with its core group already loaded.
func (l *ChampionList) Champions(ctx context.Context) ([]*Champion, error) {
	if err := l.Ensure(ctx, entity.Core); err != nil {
		return nil, err
	}
	return l.members, nil
}
