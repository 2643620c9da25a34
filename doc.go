// Package menucache is the cache layer of the menu service: a provider-agnostic
// keyspace with typed views per entity kind, read-through friendly CAS writes via
// per-key generations, retry with exponential backoff on transient backend errors,
// and a flush-everything operation for bulk reloads.
//
// Components:
//   - Provider: byte store with TTL (e.g. Redis, Ristretto, BigCache).
//   - Codec[V]: (de)serializes V <-> []byte. JSON by default.
//   - GenStore: generation counter per key. Local (in-process) by default,
//     optional Redis implementation for multi-replica / restart persistence.
//
// Values are framed in a tagged envelope (entity kind + schema version + generation),
// so an entry written for one kind is never decoded as another; mismatching or
// corrupt entries are deleted on read.
//
// Keys are stored as <prefix><key>, e.g. "menu_<uuid>" or "menu_list" with an
// empty prefix.
//
// CAS pattern for read-through fills:
//
//	obs := cache.SnapshotGen(k) // before DB read
//	v   := readFromDB(k)
//	_   = cache.SetWithGen(ctx, k, v, obs, 0) // write iff current gen == obs
//
// Invalidation bumps the generation before deleting, so a fill that raced with it
// is dropped instead of resurrecting the old value.
package menucache
