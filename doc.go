// Package datrie provides a tail-compressed double-array trie: a
// compact, lookup-efficient map from sequences of small integer symbols
// to caller-chosen payload values.
//
// # Overview
//
// A double-array trie (DAT) encodes a trie as two parallel integer
// arrays, base and check, so that a state transition is a single array
// index computed as base[s]+code, gated by check[base[s]+code] == s.
// Long unshared key suffixes are split off into a separate tail pool
// instead of being threaded through the array one symbol at a time,
// which keeps the array small for dictionaries with many long, rarely
// shared keys.
//
// # When to Use datrie
//
// datrie is well suited to:
//   - Dictionary matching and tokenization over a bounded alphabet
//   - Morphological or gazetteer lookups keyed by short symbol runs
//   - Any workload that builds once (or incrementally) and then does
//     many point lookups
//
// # When NOT to Use datrie
//
// datrie is not suitable for:
//   - Ordered iteration or prefix enumeration (not implemented)
//   - Workloads needing key deletion (Remove is a stub, always false)
//   - Concurrent writers (the structure has no internal synchronization)
//
// # Basic Usage
//
//	trie := datrie.New[int32](datrie.Int32Codec{})
//	trie.AddCodeRange('a', 'z')
//	trie.StoreString("cat", 1)
//	trie.StoreString("car", 2)
//
//	v, ok := trie.RetrieveString("cat")
//	// v == 1, ok == true
//
//	if err := trie.Save("dict.dat"); err != nil {
//		// handle error
//	}
//
//	loaded := datrie.New[int32](datrie.Int32Codec{})
//	if err := loaded.Load("dict.dat"); err != nil {
//		// handle error
//	}
//
// # Performance Characteristics
//
// Store and Retrieve are O(key length) plus, on Store, the amortized
// cost of any base relocations triggered along the way. The array
// grows as needed during Store but never shrinks; a loaded trie
// occupies exactly as many cells as it did at save time.
package datrie
