package catalog

import (
	"context"
	"fmt"

	"github.com/goliatone/go-catalog-cache/entity"
	"github.com/goliatone/go-catalog-cache/query"
)

// Item is a purchasable item.
type Item struct {
	*entity.Base
	core    ItemData
	hasCore bool
}

// ItemKind declares the item entity.
var ItemKind = &entity.Kind[*Item]{
	Name:     "item",
	Identity: ItemType,
	Groups:   map[entity.Group]string{entity.Core: ItemType},
	Fields: map[string]entity.Field[*Item]{
		"id":          {Group: entity.Core, Get: func(i *Item) any { return i.core.ID }},
		"name":        {Group: entity.Core, Get: func(i *Item) any { return i.core.Name }},
		"description": {Group: entity.Core, Get: func(i *Item) any { return i.core.Description }},
		"gold":        {Group: entity.Core, Get: func(i *Item) any { return i.core.Gold }},
		"tags":        {Group: entity.Core, Get: func(i *Item) any { return i.core.Tags }},
	},
	New: func(b *entity.Base) *Item { return &Item{Base: b} },
}

func (i *Item) Install(g entity.Group, record any) error {
	data, ok := record.(ItemData)
	if !ok {
		return fmt.Errorf("item: %s record is %T", g, record)
	}
	i.core, i.hasCore = data, true
	return nil
}

func (i *Item) KeyFields() query.Query {
	if !i.hasCore {
		return nil
	}
	return i.core.KeyFields()
}

// Data returns the core record.
func (i *Item) Data(ctx context.Context) (ItemData, error) {
	if err := i.Ensure(ctx, entity.Core); err != nil {
		return ItemData{}, err
	}
	return i.core, nil
}

func (i *Item) Name(ctx context.Context) (string, error) {
	d, err := i.Data(ctx)
	return d.Name, err
}

func (i *Item) Gold(ctx context.Context) (int64, error) {
	d, err := i.Data(ctx)
	return d.Gold, err
}

// ItemList is every item of one platform and locale.
type ItemList struct {
	*entity.Base
	data  ItemListData
	items *entity.Sequence[*Item]
}

// ItemListKind declares the item list entity.
var ItemListKind = &entity.Kind[*ItemList]{
	Name:     "item_list",
	Identity: ItemListType,
	Groups:   map[entity.Group]string{entity.Core: ItemListType},
	New:      func(b *entity.Base) *ItemList { return &ItemList{Base: b} },
}

func (l *ItemList) Install(g entity.Group, record any) error {
	data, ok := record.(ItemListData)
	if !ok {
		return fmt.Errorf("item_list: %s record is %T", g, record)
	}
	items := make([]*Item, 0, len(data.Items))
	for _, d := range data.Items {
		item, err := entity.FromRecord(l.Loader(), ItemKind, d)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	l.data, l.items = data, entity.SequenceOf(items...)
	return nil
}

func (l *ItemList) KeyFields() query.Query {
	if l.data.Platform == "" {
		return nil
	}
	return l.data.KeyFields()
}

// Items returns the members as a materialized sequence.
func (l *ItemList) Items(ctx context.Context) (*entity.Sequence[*Item], error) {
	if err := l.Ensure(ctx, entity.Core); err != nil {
		return nil, err
	}
	return l.items, nil
}
