// OpenActa/Strdict - bucket index management
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

// new_index allocates a fresh bucket array of the given power-of-two
// size, every slot InvalidStrID.
func new_index(size int) []int32 {
	idx := make([]int32, size)
	for i := range idx {
		idx[i] = InvalidStrID
	}
	return idx
}

// maybe_resize doubles the bucket array whenever live entries would
// exceed half its capacity, the fill-rate invariant of spec Sec.4.4
// (len(index) < str_count*2). When a materialized hash array is
// present, re-bucketing reuses it directly; otherwise every id is
// rehashed fresh from its stored bytes via compute_unique_bucket.
func (d *Dictionary) maybe_resize() error {
	for len(d.index) < int(d.str_count)*2 {
		new_size := len(d.index) * 2
		new_idx := new_index(new_size)
		for id := int32(0); id < d.str_count; id++ {
			var h uint32
			if d.hashes != nil {
				h = d.hashes[id]
			} else {
				s, err := d.get_string_from_storage(id)
				if err != nil {
					return err
				}
				h = rk_hash(s)
			}
			slot := compute_unique_bucket(new_idx, h)
			new_idx[slot] = id
		}
		d.index = new_idx
	}
	return nil
}

// EOF
