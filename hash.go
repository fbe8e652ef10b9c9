// OpenActa/Strdict - hashing and bucket probing
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

// rk_hash computes the Rabin-Karp-style rolling hash used to place a
// string into the bucket array. Never persisted to disk: on recovery
// every string is rehashed from storage. Ref spec Sec.4.4.
func rk_hash(s []byte) uint32 {
	h := uint32(1)
	for _, b := range s {
		h = h*997 + uint32(b)
	}
	return h
}

// round_up_p2 returns the smallest power of two >= n (n >= 1).
func round_up_p2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// compute_bucket probes the index starting at rk_hash(s) mod len(index),
// linearly with wraparound, stopping at the first slot that is either
// empty or holds a string equal to s. Used by lookups and inserts: the
// stopping slot is either s's existing bucket, or the slot it should be
// inserted into. When a materialized hash array is present, a hash
// mismatch at a slot skips the payload fetch entirely.
func (d *Dictionary) compute_bucket(s []byte) (slot int, id int32, found bool) {
	h := rk_hash(s)
	n := len(d.index)
	slot = int(h) & (n - 1)
	for {
		id = d.index[slot]
		if id == InvalidStrID {
			return slot, InvalidStrID, false
		}
		if d.hashes != nil && d.hashes[id] != h {
			slot = (slot + 1) & (n - 1)
			continue
		}
		stored, err := d.get_string_from_storage(id)
		if err == nil && string(stored) == string(s) {
			return slot, id, true
		}
		slot = (slot + 1) & (n - 1)
	}
}

// compute_unique_bucket probes for the first empty slot only, without
// ever comparing string contents. Used during resize and recovery
// rehashing, where every id being (re)placed is already known unique.
func compute_unique_bucket(index []int32, hash uint32) int {
	n := len(index)
	slot := int(hash) & (n - 1)
	for index[slot] != InvalidStrID {
		slot = (slot + 1) & (n - 1)
	}
	return slot
}

// EOF
