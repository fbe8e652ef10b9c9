// OpenActa/Strdict - lazily-built sorted cache for ordered comparisons
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
	"context"
	"fmt"
	"sort"
)

// GetCompare implements the six comparison operators (<, <=, >, >=,
// =, <>) against val, returning every matching String ID < generation,
// sorted ascending. Ref spec Sec.4.5.
//
// "=" and "<>" are probed via equal_cache (a single-id cache keyed by
// the literal pattern, spec Sec.4.5's equal_cache), since a unique
// string has at most one id; the four strictly-ordered operators use
// the lazily-built sorted cache and a binary search instead.
//
// <> with no match in the underlying data is defined (per spec's
// redesign of the original's suspect loop) as "all ids" rather than
// none: every string is, trivially, not-equal to a value that appears
// nowhere in the dictionary.
func (d *Dictionary) GetCompare(ctx context.Context, op compareOp, val string, generation int32) ([]int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if op == op_equal || op == op_not_equal {
		return d.eval_equality_locked(ctx, op, val, generation)
	}

	if err := d.merge_sorted_cache_locked(); err != nil {
		return nil, err
	}

	key := compareCacheKey{op: op, val: val, gen: generation}
	if entry, ok := d.compare_cache[key]; ok {
		for i, k := range d.compare_order {
			if k == key {
				d.compare_order = append(append(d.compare_order[:i], d.compare_order[i+1:]...), key)
				break
			}
		}
		return entry.ids, nil
	}

	ids, err := d.eval_ordered_compare_locked(op, val, generation)
	if err != nil {
		return nil, err
	}

	d.cache_compare_result_locked(key, ids)
	return ids, nil
}

func (d *Dictionary) eval_ordered_compare_locked(op compareOp, val string, generation int32) ([]int32, error) {
	n := len(d.sorted_cache)

	lower_bound := sort.Search(n, func(i int) bool {
		s, err := d.get_string_from_storage(d.sorted_cache[i])
		if err != nil {
			return true
		}
		return string(s) >= val
	})
	upper_bound := sort.Search(n, func(i int) bool {
		s, err := d.get_string_from_storage(d.sorted_cache[i])
		if err != nil {
			return true
		}
		return string(s) > val
	})

	var selected []int32
	switch op {
	case op_less:
		selected = append(selected, d.sorted_cache[:lower_bound]...)
	case op_less_equal:
		selected = append(selected, d.sorted_cache[:upper_bound]...)
	case op_greater:
		selected = append(selected, d.sorted_cache[upper_bound:]...)
	case op_greater_equal:
		selected = append(selected, d.sorted_cache[lower_bound:]...)
	default:
		return nil, fmt.Errorf("operator code %d: %w", op, ErrUnknownOperator)
	}

	out := make([]int32, 0, len(selected))
	for _, id := range selected {
		if id < generation {
			out = append(out, id)
		}
	}
	sort_int32s(out)
	return out, nil
}

// eval_equality_locked handles "=" and "<>" via equal_cache. Strings are
// deduplicated at insertion (get_or_add_locked), so a literal value has
// at most one matching id regardless of generation; a full-table scan
// to populate the cache is therefore safe to run once and reuse across
// every generation a caller asks about — only the returned ids are
// filtered by generation, not the scan that locates the match.
func (d *Dictionary) eval_equality_locked(ctx context.Context, op compareOp, val string, generation int32) ([]int32, error) {
	eq_id, found := d.equal_cache[val]

	if found {
		for i, k := range d.equal_order {
			if k == val {
				d.equal_order = append(append(d.equal_order[:i], d.equal_order[i+1:]...), val)
				break
			}
		}
	} else {
		matches, err := d.scan_strided_locked(ctx, d.str_count, func(s []byte) bool {
			return string(s) == val
		})
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			eq_id = matches[0]
			d.cache_equal_result_locked(val, eq_id)
			found = true
		}
	}

	visible := found && eq_id < generation

	if op == op_equal {
		if visible {
			return []int32{eq_id}, nil
		}
		return nil, nil
	}

	limit := generation
	if limit > d.str_count {
		limit = d.str_count
	}
	out := make([]int32, 0, limit)
	for id := int32(0); id < limit; id++ {
		if visible && id == eq_id {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (d *Dictionary) cache_compare_result_locked(key compareCacheKey, ids []int32) {
	if len(d.compare_cache) >= compare_cache_limit {
		oldest := d.compare_order[0]
		d.compare_order = d.compare_order[1:]
		delete(d.compare_cache, oldest)
	}
	d.compare_cache[key] = compareCacheEntry{ids: ids}
	d.compare_order = append(d.compare_order, key)
}

func (d *Dictionary) cache_equal_result_locked(val string, id int32) {
	if len(d.equal_cache) >= equal_cache_limit {
		oldest := d.equal_order[0]
		d.equal_order = d.equal_order[1:]
		delete(d.equal_cache, oldest)
	}
	d.equal_cache[val] = id
	d.equal_order = append(d.equal_order, val)
}

// merge_sorted_cache_locked brings sorted_cache up to str_count, building
// it from scratch the first time and two-pointer-merging in the
// unsorted tail (ids sorted_up_to..str_count) on every subsequent call.
// Ref spec Sec.4.5.
func (d *Dictionary) merge_sorted_cache_locked() error {
	if d.sorted_up_to == d.str_count {
		return nil
	}

	if d.sorted_cache == nil {
		ids := make([]int32, d.str_count)
		for i := range ids {
			ids[i] = int32(i)
		}
		if err := d.sort_ids_by_string(ids); err != nil {
			return err
		}
		d.sorted_cache = ids
		d.sorted_up_to = d.str_count
		return nil
	}

	tail := make([]int32, d.str_count-d.sorted_up_to)
	for i := range tail {
		tail[i] = d.sorted_up_to + int32(i)
	}
	if err := d.sort_ids_by_string(tail); err != nil {
		return err
	}

	d.sorted_cache = merge_sorted_id_lists(d.sorted_cache, tail, d)
	d.sorted_up_to = d.str_count
	return nil
}

func (d *Dictionary) sort_ids_by_string(ids []int32) error {
	var sort_err error
	sort.SliceStable(ids, func(i, j int) bool {
		a, err := d.get_string_from_storage(ids[i])
		if err != nil {
			sort_err = err
			return false
		}
		b, err := d.get_string_from_storage(ids[j])
		if err != nil {
			sort_err = err
			return false
		}
		return string(a) < string(b)
	})
	return sort_err
}

// merge_sorted_id_lists merges two id lists, each already sorted by the
// string each id refers to, into one sorted list.
func merge_sorted_id_lists(a, b []int32, d *Dictionary) []int32 {
	out := make([]int32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		sa, _ := d.get_string_from_storage(a[i])
		sb, _ := d.get_string_from_storage(b[j])
		if string(sa) <= string(sb) {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// EOF
