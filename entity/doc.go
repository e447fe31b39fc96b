// Package entity is the lazy partial-materialization model. An entity is
// built from whatever identifying data the caller has, and its attributes
// are fetched through the resolution pipeline one load group at a time, the
// first time an attribute of that group is read.
//
// Concrete types embed *Base, implement Installer and are declared with a
// Kind:
//
//	var GadgetKind = &entity.Kind[*Gadget]{
//	    Name:     "gadget",
//	    Identity: "gadget_record",
//	    Groups:   map[entity.Group]string{entity.Core: "gadget_record"},
//	    New:      func(b *entity.Base) *Gadget { return &Gadget{Base: b} },
//	}
//
//	g, err := entity.Resolve(loader, GadgetKind, query.Query{"id": 7})
//	name, err := g.Name(ctx) // loads the core group once
package entity
