// OpenActa/Strdict - recovery (rebuild index from storage)
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
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	min_items_per_thread = 2000
	max_items_per_thread = 200000
)

// recover rebuilds str_count and the bucket index entirely from
// DictOffsets/DictPayload, since hashes are never persisted (spec
// Sec.4.7). Counting entries is sequential (each record's Size field
// must be inspected in order to find the canary boundary); hashing
// each recovered string into the fresh index is fanned out across
// chunked, contiguous ranges, adapted from matrixorigin/matrixone's
// pkg/common/concurrent/executor.go ThreadPoolExecutor shape
// (SPEC_FULL.md Sec.11.3).
func (d *Dictionary) recover() error {
	count, err := count_live_offset_records(d.offsets)
	if err != nil {
		return err
	}
	d.str_count = count
	d.offsets.size = int64(count) * offset_record_size

	if count > 0 {
		raw, err := d.offsets.read_at(int64(count-1)*offset_record_size, offset_record_size)
		if err != nil {
			return fmt.Errorf("read last offset record during recovery: %w", err)
		}
		last := get_offset_record(raw)
		d.payload.size = int64(last.PayloadOffset) + int64(last.Size)
	}

	size := round_up_p2(int(d.cfg.initial_capacity))
	for size < int(count)*2 {
		size *= 2
	}
	index := new_index(size)

	if err := d.rehash_range(index, 0, count); err != nil {
		return err
	}

	d.index = index
	return nil
}

// count_live_offset_records scans the mapped capacity (not mf.size, which
// is not yet known for a freshly reopened file) for the first canary
// record, per disk_structure.go's offset_canary_size sentinel.
func count_live_offset_records(offsets *mappedFile) (int32, error) {
	max_records := offsets.capacity() / offset_record_size
	var count int32
	buf := offsets.bytes()
	for i := int64(0); i < max_records; i++ {
		rec := get_offset_record(buf[i*offset_record_size : i*offset_record_size+offset_record_size])
		if rec.Size == offset_canary_size {
			break
		}
		count++
	}
	return count, nil
}

type rehashChunk struct {
	lo, hi int32
	hashes []uint32
}

// rehash_range hashes ids [start, start+count) from storage into index,
// fanning out across items_per_thread-sized contiguous chunks via an
// errgroup.Group (SPEC_FULL.md Sec.11.3). Hashing is the expensive,
// parallelizable part; placement into the shared index array happens
// afterwards, sequentially and in id order, so compute_unique_bucket's
// linear-probe wraparound stays deterministic regardless of how many
// workers ran.
func (d *Dictionary) rehash_range(index []int32, start, count int32) error {
	if count == 0 {
		return nil
	}

	workers := int(d.cfg.scan_threads)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items_per_thread := int(count) / workers
	if items_per_thread < min_items_per_thread {
		items_per_thread = min_items_per_thread
	}
	if items_per_thread > max_items_per_thread {
		items_per_thread = max_items_per_thread
	}

	var mu sync.Mutex
	var chunks []rehashChunk

	g, _ := errgroup.WithContext(context.Background())
	for lo := start; lo < start+count; lo += int32(items_per_thread) {
		hi := lo + int32(items_per_thread)
		if hi > start+count {
			hi = start + count
		}

		lo, hi := lo, hi
		g.Go(func() error {
			hashes := make([]uint32, hi-lo)
			for id := lo; id < hi; id++ {
				s, err := d.get_string_from_storage(id)
				if err != nil {
					return fmt.Errorf("rehash id %d: %w", id, err)
				}
				hashes[id-lo] = rk_hash(s)
			}

			mu.Lock()
			chunks = append(chunks, rehashChunk{lo: lo, hi: hi, hashes: hashes})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	placements := make([]uint32, count)
	for _, c := range chunks {
		for id := c.lo; id < c.hi; id++ {
			placements[id-start] = c.hashes[id-c.lo]
		}
	}
	for i := int32(0); i < count; i++ {
		slot := compute_unique_bucket(index, placements[i])
		index[slot] = start + i
	}

	if d.cfg.materialize_hash {
		hashes := make([]uint32, start+count)
		copy(hashes, d.hashes)
		for i := int32(0); i < count; i++ {
			hashes[start+i] = placements[i]
		}
		d.hashes = hashes
	}

	return nil
}

// EOF
