// OpenActa/Strdict - structures and constants (in-memory state)
// Copyright (C) 2023 Arjen Lentz & Lentz Pty Ltd; All Rights Reserved
// <arjen (at) openacta (dot) dev>

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package strdict

import (
	"sync"

	"github.com/google/uuid"
)

// Ref SPEC_FULL.md Sec.1-9 (data model) and Sec.11.1 (mapped storage)

const (
	initial_bucket_count = 1024 // DefaultConfig's initial_capacity for a freshly created index
)

// Dictionary is a single string<->id mapping instance, backed either by
// a pair of memory-mapped files (persistent mode) or by process memory
// (temp mode), or delegated entirely to a RemoteClient (remote mode).
//
// One Dictionary serves any number of concurrent readers, but writers
// (GetOrAdd variants, scans that build/extend caches, Checkpoint) are
// serialized against everything else by mu, a single-writer-excludes-all
// model.
type Dictionary struct {
	id uuid.UUID

	mu sync.RWMutex

	cfg *Config

	// index is the open-addressed bucket array. Each slot holds a
	// String ID, or InvalidStrID for an empty slot. len(index) is
	// always a power of two.
	index []int32

	str_count int32 // number of live entries; also the next id to assign

	payload *mappedFile // DictPayload: concatenated string bytes
	offsets *mappedFile // DictOffsets: one offsetRecord per String ID

	// hashes is the optional materialized-hash array: hashes[id] is
	// rk_hash of the string stored at that id. Present only when
	// cfg.materialize_hash is set; nil otherwise. Never persisted to
	// disk, same as any other hash value — rebuilt on recovery.
	hashes []uint32

	temp bool // true if this Dictionary has no backing directory

	// sorted_cache holds String IDs in ascending string order, built
	// lazily on first ordered-comparison scan and merged incrementally
	// as new entries arrive. sorted_up_to is the String ID count the
	// cache reflects; entries [sorted_up_to, str_count) are unsorted tail.
	sorted_cache []int32
	sorted_up_to int32

	// compare_cache memoizes the result ids of prior GetCompare calls
	// for the four strictly-ordered operators (<,<=,>,>=), keyed by
	// (operator, value, generation). Evicted LRU-style when it grows
	// past compare_cache_limit.
	compare_cache map[compareCacheKey]compareCacheEntry
	compare_order []compareCacheKey

	// equal_cache memoizes the single matched id for a prior "=" lookup,
	// keyed by the literal pattern; "<>" reuses it to exclude that one
	// id from every other live id. Evicted LRU-style past
	// equal_cache_limit.
	equal_cache map[string]int32
	equal_order []string

	// like_cache/regex_cache memoize GetLike/GetRegexpLike results,
	// keyed on the pattern plus its match options. Evicted LRU-style
	// past like_cache_limit/regex_cache_limit (the original's caches
	// grow unbounded).
	like_cache  map[likeCacheKey][]int32
	like_order  []likeCacheKey
	regex_cache map[regexCacheKey][]int32
	regex_order []regexCacheKey

	remote RemoteClient // non-nil only in remote mode

	close_checkpoint chan struct{}
	checkpoint_wg    sync.WaitGroup
}

const (
	compare_cache_limit = 256
	equal_cache_limit   = 256
	like_cache_limit    = 256
	regex_cache_limit   = 256
)

type likeCacheKey struct {
	pattern   string
	icase     bool
	is_simple bool
	escape    byte
}

type regexCacheKey struct {
	pattern string
	escape  byte
}

type compareCacheKey struct {
	op  compareOp
	val string
	gen int32
}

type compareCacheEntry struct {
	ids []int32
}

// compareOp enumerates the ordered-comparison operators GetCompare
// supports.
type compareOp uint8

const (
	op_less compareOp = iota
	op_less_equal
	op_greater
	op_greater_equal
	op_equal
	op_not_equal
)

// EOF
