/*
Package dwarfdb gives in-process objects (entities) durable identity inside
an ordered key-value store (Bolt, or memory for tests).

We implement:

1. Raw tables, byte-keyed buckets exposed through the Table interface.

2. Converters and Adapters, which present a Table[K2, V2] as a Table[K1, V1].
Adapters hold no state, so they stack.

3. An entity store, keeping serialized entities under numeric ids.

4. A binding store, mapping names to entities. On disk a binding holds the
entity id only; the per-transaction identity map (Entities) turns ids into
live objects and back.

5. Recoverable sets, collections of entities that live entirely in the
binding store under a name prefix, and so survive restarts without any
state of their own.

# Technical Details

**Buckets.**
Two buckets exist in every database: “bindings” and “entities”. Bolt supports
buckets natively; a flat store could simulate them with key prefixes.

**Entity ids**
Ids are non-negative integers of arbitrary size, assigned from the persisted
sequence of the entities bucket. Assigned ids are never reused.

## Binary encoding

**Entity id**: big-endian, minimal-length magnitude, as returned by
big.Int.Bytes. Id 0 is the single byte 0x00, because Bolt rejects empty keys.

**Binding**: key is the name bytes, value is the entity id.

**Set member name**: prefix, “.”, then the member suffix as a 20-digit
zero-padded decimal, so name order matches insertion order.

**Entity blob**:
1. Flags (uvarint): format version, encoding.
2. Type name (uvarint length, bytes).
3. Data: msgpack (or JSON) of the entity.
4. xxhash64 of the above (8 bytes, big-endian).
*/
package dwarfdb
