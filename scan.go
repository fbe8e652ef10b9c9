// OpenActa/Strdict - predicate scans
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
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Scans take the exclusive lock: they mutate the like/regex/sorted/
// compare caches, so they are writers for locking purposes even though
// they only read storage, per spec's concurrency model.

// GetLike returns every String ID < generation whose string matches
// the SQL-style LIKE pattern (% and _ wildcards), cached on the
// 4-tuple (pattern, icase, is_simple, escape). Ref spec Sec.4.5. The
// cache holds the matches among all live ids; every call, cached or
// not, filters them by generation.
//
// is_simple restricts % and _ to anchor position only (a single
// optional leading and/or trailing %); everywhere else they match
// literally. icase folds both pattern and candidate to lowercase
// with strings.ToLower before comparing.
func (d *Dictionary) GetLike(ctx context.Context, pattern string, icase, is_simple bool, escape byte, generation int32) ([]int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := likeCacheKey{pattern: pattern, icase: icase, is_simple: is_simple, escape: escape}
	ids, ok := d.like_cache[key]
	if ok {
		for i, k := range d.like_order {
			if k == key {
				d.like_order = append(append(d.like_order[:i], d.like_order[i+1:]...), key)
				break
			}
		}
	} else {
		var err error
		ids, err = d.scan_strided_locked(ctx, d.str_count, like_matcher(pattern, icase, is_simple, escape))
		if err != nil {
			return nil, err
		}
		d.cache_like_result_locked(key, ids)
	}

	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		if id < generation {
			out = append(out, id)
		}
	}
	return out, nil
}

// GetRegexpLike returns every String ID < generation whose string
// matches pattern, cached on the 2-tuple (pattern, escape). escape, if
// nonzero, forces the following pattern byte to be matched literally
// rather than as a regex metacharacter, mirroring GetLike's ESCAPE
// handling. Ref spec Sec.4.5/Sec.6. As in GetLike, the cache holds the
// matches among all live ids and every call filters them by generation.
func (d *Dictionary) GetRegexpLike(ctx context.Context, pattern string, escape byte, generation int32) ([]int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := regexCacheKey{pattern: pattern, escape: escape}
	ids, ok := d.regex_cache[key]
	if ok {
		for i, k := range d.regex_order {
			if k == key {
				d.regex_order = append(append(d.regex_order[:i], d.regex_order[i+1:]...), key)
				break
			}
		}
	} else {
		re, err := regexp.Compile(regex_escape_translate(pattern, escape))
		if err != nil {
			return nil, fmt.Errorf("compile regexp %q: %w", pattern, err)
		}
		ids, err = d.scan_strided_locked(ctx, d.str_count, re.Match)
		if err != nil {
			return nil, err
		}
		d.cache_regex_result_locked(key, ids)
	}

	out := make([]int32, 0, len(ids))
	for _, id := range ids {
		if id < generation {
			out = append(out, id)
		}
	}
	return out, nil
}

// scan_strided_locked fans a predicate out across worker goroutines, each
// visiting ids w, w+W, w+2W, ... (spec Sec.4.5's strided assignment),
// then merges each worker's (already ascending) matches back into one
// ascending slice. Grounded on SPEC_FULL.md Sec.11.3; unlike recovery's
// chunked fan-out, a contiguous-range executor can't express this
// access pattern, so it's implemented directly with errgroup. Callers
// hold d.mu already.
func (d *Dictionary) scan_strided_locked(ctx context.Context, generation int32, match func([]byte) bool) ([]int32, error) {
	limit := d.str_count
	if generation < limit {
		limit = generation
	}
	if limit <= 0 {
		return nil, nil
	}

	workers := int(d.cfg.scan_threads)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > int(limit) {
		workers = int(limit)
	}

	results := make([][]int32, workers)
	g, _ := errgroup.WithContext(ctx)

	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			var out []int32
			for id := int32(w); id < limit; id += int32(workers) {
				s, err := d.get_string_from_storage(id)
				if err != nil {
					return err
				}
				if match(s) {
					out = append(out, id)
				}
			}
			results[w] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge_strided_results(results), nil
}

// merge_strided_results merges per-worker ascending id lists (worker w
// produced ids congruent to w mod len(results)) back into one
// ascending slice via a simple k-way merge.
func merge_strided_results(results [][]int32) []int32 {
	total := 0
	for _, r := range results {
		total += len(r)
	}
	if total == 0 {
		return nil
	}

	out := make([]int32, 0, total)
	idx := make([]int, len(results))
	for {
		best := -1
		for w := range results {
			if idx[w] >= len(results[w]) {
				continue
			}
			if best == -1 || results[w][idx[w]] < results[best][idx[best]] {
				best = w
			}
		}
		if best == -1 {
			break
		}
		out = append(out, results[best][idx[best]])
		idx[best]++
	}
	return out
}

// like_matcher builds the []byte predicate GetLike scans with.
func like_matcher(pattern string, icase, is_simple bool, escape byte) func([]byte) bool {
	if is_simple {
		return like_matcher_simple(pattern, icase)
	}
	return like_matcher_full(pattern, icase, escape)
}

// like_matcher_full implements full LIKE semantics (% and _ wildcards
// anywhere, ESCAPE honored) via glob translation + filepath.Match.
func like_matcher_full(pattern string, icase bool, escape byte) func([]byte) bool {
	glob := like_to_glob(pattern, escape)
	if icase {
		glob = strings.ToLower(glob)
	}
	return func(s []byte) bool {
		cand := string(s)
		if icase {
			cand = strings.ToLower(cand)
		}
		ok, _ := filepath.Match(glob, cand)
		return ok
	}
}

// like_matcher_simple implements the "_simple" LIKE variant: % only acts
// as a wildcard in leading/trailing anchor position, _ is always
// literal, matching spec Sec.4.5's "treats %/_ literally except for
// the anchor semantics".
func like_matcher_simple(pattern string, icase bool) func([]byte) bool {
	prefix := strings.HasPrefix(pattern, "%")
	suffix := strings.HasSuffix(pattern, "%")
	core := pattern
	if prefix {
		core = core[1:]
	}
	if suffix && len(core) > 0 {
		core = core[:len(core)-1]
	}
	if icase {
		core = strings.ToLower(core)
	}
	return func(s []byte) bool {
		cand := string(s)
		if icase {
			cand = strings.ToLower(cand)
		}
		switch {
		case prefix && suffix:
			return strings.Contains(cand, core)
		case prefix:
			return strings.HasSuffix(cand, core)
		case suffix:
			return strings.HasPrefix(cand, core)
		default:
			return cand == core
		}
	}
}

// like_to_glob translates SQL LIKE wildcards (% and _) to filepath.Match
// glob syntax (* and ?), escaping any characters glob treats specially
// that LIKE does not. A byte preceded by escape (when nonzero) is
// passed through literally instead of being translated/treated as a
// wildcard, implementing LIKE's ESCAPE clause.
func like_to_glob(pattern string, escape byte) string {
	var out []byte
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if escape != 0 && c == escape && i+1 < len(pattern) {
			i++
			out = append(out, glob_literal(pattern[i])...)
			continue
		}
		switch c {
		case '%':
			out = append(out, '*')
		case '_':
			out = append(out, '?')
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func glob_literal(c byte) []byte {
	switch c {
	case '*', '?', '[', ']', '\\':
		return []byte{'\\', c}
	default:
		return []byte{c}
	}
}

// regex_escape_translate rewrites every escape-prefixed byte in pattern
// into its quoted (literal) regexp form, leaving the rest of pattern
// untouched for regexp.Compile.
func regex_escape_translate(pattern string, escape byte) string {
	if escape == 0 {
		return pattern
	}
	var out []byte
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == escape && i+1 < len(pattern) {
			i++
			out = append(out, []byte(regexp.QuoteMeta(string(pattern[i])))...)
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

func (d *Dictionary) cache_like_result_locked(key likeCacheKey, ids []int32) {
	if len(d.like_cache) >= like_cache_limit {
		oldest := d.like_order[0]
		d.like_order = d.like_order[1:]
		delete(d.like_cache, oldest)
	}
	d.like_cache[key] = ids
	d.like_order = append(d.like_order, key)
}

func (d *Dictionary) cache_regex_result_locked(key regexCacheKey, ids []int32) {
	if len(d.regex_cache) >= regex_cache_limit {
		oldest := d.regex_order[0]
		d.regex_order = d.regex_order[1:]
		delete(d.regex_cache, oldest)
	}
	d.regex_cache[key] = ids
	d.regex_order = append(d.regex_order, key)
}

// sort_int32s sorts ids in ascending numeric order.
func sort_int32s(ids []int32) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// EOF
