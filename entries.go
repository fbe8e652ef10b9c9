// OpenActa/Strdict - payload/offset record access
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

import "fmt"

// get_string_from_storage reads the bytes for String ID id back out of
// DictPayload, using its DictOffsets record. Ref spec Sec.4.2.
//
// An out-of-bounds id is a caller/internal bug, not a recoverable
// condition (every id reaching here should already have come from the
// index or a bounds-checked loop), so it panics rather than returning
// an error.
func (d *Dictionary) get_string_from_storage(id int32) ([]byte, error) {
	if id < 0 || id >= d.str_count {
		panic(fmt.Sprintf("strdict: string id %d out of range (str_count=%d)", id, d.str_count))
	}

	rec_off := int64(id) * offset_record_size
	raw, err := d.offsets.read_at(rec_off, offset_record_size)
	if err != nil {
		return nil, fmt.Errorf("read offset record %d: %w", id, err)
	}
	rec := get_offset_record(raw)
	if rec.Size == offset_canary_size {
		return nil, fmt.Errorf("string id %d has no offset record: %w", id, ErrPayloadUnavailable)
	}

	return d.payload.read_at(int64(rec.PayloadOffset), int(rec.Size))
}

// append_to_storage stores s as a new entry, appending its bytes to
// DictPayload and a matching record to DictOffsets, and returns the
// new String ID without touching the bucket index. Callers own index
// placement. Ref spec Sec.4.2/4.4.
func (d *Dictionary) append_to_storage(s []byte) (int32, error) {
	if len(s) > MaxStrLen {
		return InvalidStrID, fmt.Errorf("string of length %d: %w", len(s), ErrStringTooLong)
	}
	if d.str_count >= MaxStrCount {
		panic(fmt.Sprintf("strdict: capacity exhausted at %d entries", d.str_count))
	}

	payload_offset, err := d.payload.append(s)
	if err != nil {
		return InvalidStrID, fmt.Errorf("append payload: %w", err)
	}

	rec := offsetRecord{PayloadOffset: uint64(payload_offset), Size: uint16(len(s))}
	rec_bytes := make([]byte, offset_record_size)
	put_offset_record(rec_bytes, rec)
	if _, err := d.offsets.append(rec_bytes); err != nil {
		return InvalidStrID, fmt.Errorf("append offset record: %w", err)
	}

	id := d.str_count
	d.str_count++
	return id, nil
}

// EOF
