// Package cache provides the multi-key cache store and the primitives it
// writes through.
//
// # Overview
//
// A logical value is usually reachable by more than one natural key: a
// champion by id or by name, a summoner by id, name, account id or puuid.
// Store asks the key registry for every alternate key a value supports and
// writes the value under each of them with the same retention, so a later
// lookup by any alias hits:
//
//	store := cache.NewStore(service, registry, cache.WithConfig(cfg))
//	_ = store.Put(ctx, "champion_data", champion)
//	v, err := store.Get(ctx, "champion_data", query.Query{"name": "Annie", "platform": "NA1"})
//
// Reads try each candidate key of the request in registry order and return
// the first hit. A primitive read failure counts as a miss.
//
// # Retention
//
// Retention is declared per type through Config.Expirations. Types without an
// entry use Config.TTL, which defaults to Forever. A zero duration turns the
// type into a pass-through: nothing is written and every read misses.
//
// Expire removes every alias of every value of one type at once because
// all aliases share the type's namespace prefix.
//
// # Cascade
//
// When the registry declares a cascade for a collection type, Put also stores
// each member under its own type and keys. Storing a champion list therefore
// satisfies later single champion lookups without another fetch.
//
// # Primitives
//
// CacheService is the TTL keyed primitive. NewCacheService returns the
// in-process implementation and NewRedisCacheService a shared Redis one.
//
// # Key Serialization
//
// The default KeySerializer renders namespaces and key parts into stable
// strings joined by KeySeparator:
//
//	champion_data::id+platform+locale::7::NA1::en_US
//
// Integral numbers render identically regardless of width so a key built
// from JSON input matches one built from typed fields.
package cache
