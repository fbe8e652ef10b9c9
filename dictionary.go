// OpenActa/Strdict Dictionary - public API
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
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Open opens (or creates) a persistent Dictionary backed by
// cfg.datastore_dir. Ref spec Sec.4.2/4.7/Sec.6: with cfg.recover set,
// any existing DictPayload/DictOffsets content is kept and every entry
// rehashed from storage to rebuild the in-memory index (see
// recovery.go); with it clear, both files are truncated and the
// Dictionary starts empty regardless of what was on disk before.
func Open(cfg *Config) (*Dictionary, error) {
	if cfg.datastore_dir == "" {
		return nil, fmt.Errorf("strdict: datastore_dir not configured")
	}

	if err := os.MkdirAll(cfg.datastore_dir, NewDirPermissions); err != nil {
		return nil, fmt.Errorf("create datastore dir: %w", err)
	}

	payload, payload_existed, err := open_mapped_file(filepath.Join(cfg.datastore_dir, payload_file_name), cfg.recover)
	if err != nil {
		return nil, fmt.Errorf("open payload store: %w", err)
	}
	offsets, offsets_existed, err := open_mapped_file(filepath.Join(cfg.datastore_dir, offset_file_name), cfg.recover)
	if err != nil {
		payload.close()
		return nil, fmt.Errorf("open offsets store: %w", err)
	}

	d := &Dictionary{
		id:      uuid.New(),
		cfg:     cfg,
		payload: payload,
		offsets: offsets,
	}
	d.init_caches()

	if payload_existed || offsets_existed {
		if err := d.recover(); err != nil {
			payload.close()
			offsets.close()
			return nil, fmt.Errorf("recover dictionary: %w", err)
		}
	} else {
		d.index = new_index(round_up_p2(int(cfg.initial_capacity)))
	}

	d.start_checkpoint_routine()

	return d, nil
}

// OpenTemp creates a process-memory-only Dictionary: no backing
// directory, nothing survives process exit. Ref spec Sec.1 "temp mode".
func OpenTemp(cfg *Config) *Dictionary {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	d := &Dictionary{
		id:      uuid.New(),
		cfg:     cfg,
		payload: new_temp_mapped_file(),
		offsets: new_temp_mapped_file(),
		temp:    true,
		index:   new_index(round_up_p2(int(cfg.initial_capacity))),
	}
	d.init_caches()
	return d
}

// OpenRemote wires a RemoteClient into a Dictionary so that every
// public operation delegates over it instead of touching local
// storage. Ref spec Sec.1/4.3/6, SPEC_FULL.md Sec.11.7.
func OpenRemote(client RemoteClient) *Dictionary {
	return &Dictionary{
		id:     uuid.New(),
		remote: client,
	}
}

// ID returns this Dictionary's session identifier, assigned fresh at
// Open()/OpenTemp()/OpenRemote() time.
func (d *Dictionary) ID() uuid.UUID {
	return d.id
}

// Close stops the background checkpoint routine (if any), then unmaps
// and closes the underlying storage. It does not msync or fsync; only
// Checkpoint does.
func (d *Dictionary) Close() error {
	if d.remote != nil {
		return nil
	}

	d.stop_checkpoint_routine()

	d.mu.Lock()
	defer d.mu.Unlock()

	var first_err error
	if err := d.payload.close(); err != nil && first_err == nil {
		first_err = err
	}
	if err := d.offsets.close(); err != nil && first_err == nil {
		first_err = err
	}
	return first_err
}

// StorageEntryCount returns the number of live String IDs.
func (d *Dictionary) StorageEntryCount(ctx context.Context) (int32, error) {
	if d.remote != nil {
		return d.remote.StorageEntryCount(ctx)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.str_count, nil
}

// GetIDOfString returns the String ID for s if present, or
// (InvalidStrID, false). Does not add s. Ref spec Sec.4.4.
func (d *Dictionary) GetIDOfString(ctx context.Context, s string) (int32, bool, error) {
	if d.remote != nil {
		id, err := d.remote.GetIDOfString(ctx, s)
		if err != nil {
			return InvalidStrID, false, err
		}
		return id, id != InvalidStrID, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	_, id, found := d.compute_bucket([]byte(s))
	return id, found, nil
}

// GetString returns the bytes stored for id. Ref spec Sec.4.2.
func (d *Dictionary) GetString(ctx context.Context, id int32) (string, error) {
	if d.remote != nil {
		return d.remote.GetString(ctx, id)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	b, err := d.get_string_from_storage(id)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CopyStrings returns every live string, in String ID order. Remote
// mode explicitly does not support this operation (spec Sec.7,
// SPEC_FULL.md Sec.11.7).
func (d *Dictionary) CopyStrings(ctx context.Context) ([]string, error) {
	if d.remote != nil {
		return nil, ErrRemoteUnsupported
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, d.str_count)
	for id := int32(0); id < d.str_count; id++ {
		b, err := d.get_string_from_storage(id)
		if err != nil {
			return nil, err
		}
		out[id] = string(b)
	}
	return out, nil
}

// GetOrAdd returns the existing id for s, or inserts s and returns its
// new id. Empty strings are a no-op returning NullStringID, the
// minimum-signed-value NULL sentinel (spec Sec.3), distinct from
// InvalidStrID, this package's internal empty-slot marker.
// Ref spec Sec.4.4/4.6.
func (d *Dictionary) GetOrAdd(ctx context.Context, s string) (int32, error) {
	if d.remote != nil {
		ids, err := d.remote.GetOrAddBulk(ctx, []string{s})
		if err != nil {
			return InvalidStrID, err
		}
		return ids[0], nil
	}

	if len(s) == 0 {
		return NullStringID, nil
	}
	b := []byte(s)

	d.mu.RLock()
	_, id, found := d.compute_bucket(b)
	d.mu.RUnlock()
	if found {
		return id, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return d.get_or_add_locked(b)
}

// get_or_add_locked re-probes under the exclusive lock GetOrAdd just
// upgraded to, since another writer may have inserted s in the window
// between GetOrAdd's shared-lock miss and this call. Ref spec Sec.11.3
// lock discipline: shared fast path, exclusive only on miss.
func (d *Dictionary) get_or_add_locked(s []byte) (int32, error) {
	slot, id, found := d.compute_bucket(s)
	if found {
		return id, nil
	}

	return d.insert_at_slot_locked(slot, s)
}

// insert_at_slot_locked appends s to storage and installs it at slot,
// the empty-or-equal slot compute_bucket already found. Shared by
// get_or_add_locked and GetOrAddBulk's overflow-checked insert path.
func (d *Dictionary) insert_at_slot_locked(slot int, s []byte) (int32, error) {
	new_id, err := d.append_to_storage(s)
	if err != nil {
		return InvalidStrID, err
	}

	d.index[slot] = new_id
	if d.cfg.materialize_hash {
		d.hashes = append(d.hashes, rk_hash(s))
	}
	d.invalidate_caches_locked()

	if err := d.maybe_resize(); err != nil {
		return InvalidStrID, err
	}

	return new_id, nil
}

// init_caches allocates every cache map fresh. Called once at
// construction, before d is reachable by any other goroutine.
func (d *Dictionary) init_caches() {
	d.compare_cache = make(map[compareCacheKey]compareCacheEntry)
	d.equal_cache = make(map[string]int32)
	d.like_cache = make(map[likeCacheKey][]int32)
	d.regex_cache = make(map[regexCacheKey][]int32)
}

// invalidate_caches_locked drops every scan cache (spec Sec.4.4: inserts
// invalidate all scan caches, not just the one an op happened to use).
func (d *Dictionary) invalidate_caches_locked() {
	d.compare_cache = make(map[compareCacheKey]compareCacheEntry)
	d.compare_order = nil
	d.equal_cache = make(map[string]int32)
	d.equal_order = nil
	d.like_cache = make(map[likeCacheKey][]int32)
	d.like_order = nil
	d.regex_cache = make(map[regexCacheKey][]int32)
	d.regex_order = nil
}

// EOF
