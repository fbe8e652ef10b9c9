// OpenActa/Strdict - memory-mapped payload/offset storage
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
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

var (
	ErrPayloadUnavailable = errors.New("strdict: string payload unavailable")
	ErrStringTooLong      = errors.New("strdict: string exceeds max length")
)

// mappedFile wraps one memory-mapped on-disk file (or an in-process
// byte slice in temp mode). size is the logical length currently in
// use; len(region) is the mapped capacity, always a multiple of the
// OS page size, filled with canary_byte beyond size.
//
// Grounded on cockroachdb/cockroach's pkg/col/colserde/file.go: mmap.MMap
// is itself a []byte, so growing never requires re-deriving raw
// pointers, just reassigning region.
type mappedFile struct {
	f      *os.File // nil in temp mode
	region mmap.MMap
	mem    []byte // used instead of region in temp mode
	size   int64
	temp   bool
}

// open_mapped_file opens and maps path, creating it (with one growth
// chunk) if absent. existed reports whether the file already held
// mapped content, so the caller knows whether to run recovery: the
// true logical size of existing content isn't derivable from the
// mapping alone (DictPayload bytes may legitimately contain any byte
// value, including the canary byte) and must be derived from
// DictOffsets' live-record count instead. See Dictionary.recover.
//
// recover_mode selects between spec Sec.6's two open modes: set, any
// existing content is kept (O_APPEND) and existed may come back true;
// clear, any existing content is discarded (O_TRUNC) and existed is
// always false, since there is nothing left to recover from.
func open_mapped_file(path string, recover_mode bool) (mf *mappedFile, existed bool, err error) {
	flags := os.O_RDWR | os.O_CREATE
	if recover_mode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, NewFilePermissions)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("stat %s: %w", path, err)
	}

	mf = &mappedFile{f: f}

	if info.Size() == 0 {
		if err := mf.grow(int64(growth_chunk_pages * os.Getpagesize())); err != nil {
			f.Close()
			return nil, false, err
		}
		return mf, false, nil
	}

	region, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("mmap %s: %w", path, err)
	}
	mf.region = region
	mf.advise_random()
	return mf, true, nil
}

func new_temp_mapped_file() *mappedFile {
	mem := make([]byte, growth_chunk_pages*os.Getpagesize())
	for i := range mem {
		mem[i] = canary_byte
	}
	return &mappedFile{
		temp: true,
		mem:  mem,
	}
}

func (mf *mappedFile) bytes() []byte {
	if mf.temp {
		return mf.mem
	}
	return mf.region
}

func (mf *mappedFile) capacity() int64 {
	return int64(len(mf.bytes()))
}

// grow extends the file (or in-process buffer) to at least new_cap
// bytes, canary-filling the new region. Persistent mode unmaps,
// truncates, and re-maps; per Sec.11.1 this is a slice reassignment,
// not raw-pointer bookkeeping.
func (mf *mappedFile) grow(new_cap int64) error {
	if mf.temp {
		if new_cap <= int64(len(mf.mem)) {
			return nil
		}
		grown := make([]byte, new_cap)
		copy(grown, mf.mem)
		for i := len(mf.mem); i < len(grown); i++ {
			grown[i] = canary_byte
		}
		mf.mem = grown
		return nil
	}

	old_cap := mf.capacity()
	if new_cap <= old_cap {
		return nil
	}

	if mf.region != nil {
		if err := mf.region.Unmap(); err != nil {
			return fmt.Errorf("unmap before grow: %w", err)
		}
		mf.region = nil
	}

	if err := mf.f.Truncate(new_cap); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	region, err := mmap.Map(mf.f, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("remap after grow: %w", err)
	}
	mf.region = region

	buf := mf.region
	for i := old_cap; i < int64(len(buf)); i++ {
		buf[i] = canary_byte
	}

	mf.advise_random()
	return nil
}

// ensure_capacity grows in growth_chunk_pages-sized increments until at
// least extra bytes beyond the current logical size are available.
func (mf *mappedFile) ensure_capacity(extra int64) error {
	need := mf.size + extra
	if need <= mf.capacity() {
		return nil
	}
	chunk := int64(growth_chunk_pages * os.Getpagesize())
	new_cap := mf.capacity()
	for new_cap < need {
		new_cap += chunk
	}
	return mf.grow(new_cap)
}

// append writes b at the current logical end and advances size,
// growing storage first if required.
func (mf *mappedFile) append(b []byte) (offset int64, err error) {
	if err := mf.ensure_capacity(int64(len(b))); err != nil {
		return 0, err
	}
	offset = mf.size
	copy(mf.bytes()[offset:], b)
	mf.size += int64(len(b))
	return offset, nil
}

func (mf *mappedFile) read_at(offset int64, length int) ([]byte, error) {
	if offset < 0 || offset+int64(length) > mf.size {
		return nil, ErrPayloadUnavailable
	}
	buf := mf.bytes()
	out := make([]byte, length)
	copy(out, buf[offset:offset+int64(length)])
	return out, nil
}

// flush performs msync(MS_SYNC) on the mapping plus fsync on the
// underlying fd, per spec Sec.4.8. Both must succeed.
func (mf *mappedFile) flush() error {
	if mf.temp {
		return nil
	}
	if mf.region != nil {
		if err := mf.region.Flush(); err != nil {
			return fmt.Errorf("msync: %w", err)
		}
	}
	if err := mf.f.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	return nil
}

func (mf *mappedFile) close() error {
	if mf.temp {
		return nil
	}
	var err error
	if mf.region != nil {
		err = mf.region.Unmap()
	}
	if cerr := mf.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// advise_random issues best-effort madvise hints over the mapping, per
// Sec.11.2. Grounded on matrixorigin/matrixone's
// pkg/common/malloc/mmap_linux.go; a failure here is logged, never
// fatal, since the mapping itself is the resource that matters.
func (mf *mappedFile) advise_random() {
	if mf.temp || mf.region == nil {
		return
	}
	flags := unix.MADV_RANDOM | unix.MADV_WILLNEED | unix.MADV_HUGEPAGE
	if err := unix.Madvise(mf.region, flags); err != nil {
		log.Printf("strdict: madvise failed (non-fatal): %v", err)
	}
}

// put_offset_record serializes rec to w in a fixed 12-byte little-endian
// layout matching offsetRecord.
func put_offset_record(w []byte, rec offsetRecord) {
	binary.LittleEndian.PutUint64(w[0:8], rec.PayloadOffset)
	binary.LittleEndian.PutUint16(w[8:10], rec.Size)
	binary.LittleEndian.PutUint16(w[10:12], rec._reserved)
}

func get_offset_record(r []byte) offsetRecord {
	return offsetRecord{
		PayloadOffset: binary.LittleEndian.Uint64(r[0:8]),
		Size:          binary.LittleEndian.Uint16(r[8:10]),
		_reserved:     binary.LittleEndian.Uint16(r[10:12]),
	}
}

// EOF
