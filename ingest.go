// OpenActa/Strdict - bulk ingestion
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
	"log"
	"math"
)

// BulkID is the set of integer widths GetOrAddBulk can encode ids into.
type BulkID interface {
	uint8 | uint16 | int32
}

// GetOrAddBulk inserts/looks up every string in ss and encodes the
// resulting String IDs into T. A string that is new (not already in
// the dictionary) but whose id would overflow T's range is logged and
// encoded as the NULL sentinel *without* being inserted — str_count is
// left unchanged for it: the append itself is guarded rather than the
// id discarded after the fact.
func GetOrAddBulk[T BulkID](ctx context.Context, d *Dictionary, ss []string) ([]T, error) {
	if d.remote != nil {
		ids, err := d.remote.GetOrAddBulk(ctx, ss)
		if err != nil {
			return nil, err
		}
		return encode_bulk_ids[T](ids), nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	max_valid := max_valid_bulk_id[T]()

	ids := make([]int32, len(ss))
	for i, s := range ss {
		if len(s) == 0 {
			ids[i] = InvalidStrID
			continue
		}

		b := []byte(s)
		slot, id, found := d.compute_bucket(b)
		if found {
			ids[i] = id
			continue
		}

		if int64(d.str_count) > max_valid {
			log.Printf("strdict: new string %q would be assigned id %d, overflowing bulk encoding width, not inserting", s, d.str_count)
			ids[i] = InvalidStrID
			continue
		}

		new_id, err := d.insert_at_slot_locked(slot, b)
		if err != nil {
			return nil, err
		}
		ids[i] = new_id
	}

	return encode_bulk_ids[T](ids), nil
}

func encode_bulk_ids[T BulkID](ids []int32) []T {
	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = encode_bulk_id[T](id)
	}
	return out
}

func encode_bulk_id[T BulkID](id int32) T {
	if id == InvalidStrID {
		return null_sentinel[T]()
	}

	if int64(id) > max_valid_bulk_id[T]() {
		log.Printf("strdict: string id %d overflows bulk encoding width, returning null", id)
		return null_sentinel[T]()
	}

	return T(id)
}

// max_valid_bulk_id returns the largest String ID that fits in T once the
// NULL sentinel value is reserved.
func max_valid_bulk_id[T BulkID]() int64 {
	switch any(T(0)).(type) {
	case uint8:
		return math.MaxUint8 - 1 // reserve top value as null sentinel
	case uint16:
		return math.MaxUint16 - 1
	default: // int32
		return math.MaxInt32
	}
}

func null_sentinel[T BulkID]() T {
	switch any(T(0)).(type) {
	case uint8:
		return any(uint8(math.MaxUint8)).(T)
	case uint16:
		return any(uint16(math.MaxUint16)).(T)
	default: // int32
		return any(int32(NullStringID)).(T)
	}
}

// EOF
