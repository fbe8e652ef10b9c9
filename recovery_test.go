// OpenActa/Strdict - recovery tests
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
	"testing"
)

func TestPersistentRoundTripAndRecovery(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.datastore_dir = dir

	d1, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	inserted := make(map[string]int32)
	for _, w := range words {
		id, err := d1.GetOrAdd(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		inserted[w] = id
	}

	if err := d1.Checkpoint(); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}
	if err := d1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	d2, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer d2.Close()

	count, _ := d2.StorageEntryCount(ctx)
	if int(count) != len(words) {
		t.Fatalf("recovered entry count = %d, want %d", count, len(words))
	}

	for w, want_id := range inserted {
		got_id, found, err := d2.GetIDOfString(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		if !found {
			t.Errorf("recovery lost %q", w)
			continue
		}
		if got_id != want_id {
			t.Errorf("recovered id for %q = %d, want %d", w, got_id, want_id)
		}
	}
}

func TestRecoveryThenFurtherInsertsStayConsistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.datastore_dir = dir

	d1, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range words[:5] {
		if _, err := d1.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	if err := d1.Checkpoint(); err != nil {
		t.Fatal(err)
	}
	if err := d1.Close(); err != nil {
		t.Fatal(err)
	}

	d2, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Close()

	for _, w := range words[5:] {
		if _, err := d2.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	count, _ := d2.StorageEntryCount(ctx)
	if int(count) != len(words) {
		t.Fatalf("entry count after post-recovery inserts = %d, want %d", count, len(words))
	}

	for _, w := range words {
		if _, found, err := d2.GetIDOfString(ctx, w); err != nil {
			t.Fatal(err)
		} else if !found {
			t.Errorf("%q missing after post-recovery inserts", w)
		}
	}
}

func TestOpenWithoutRecoverDiscardsExistingData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.datastore_dir = dir

	d1, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range words {
		if _, err := d1.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	if err := d1.Checkpoint(); err != nil {
		t.Fatal(err)
	}
	if err := d1.Close(); err != nil {
		t.Fatal(err)
	}

	fresh := DefaultConfig()
	fresh.datastore_dir = dir
	fresh.recover = false

	d2, err := Open(fresh)
	if err != nil {
		t.Fatal(err)
	}
	defer d2.Close()

	count, _ := d2.StorageEntryCount(ctx)
	if count != 0 {
		t.Fatalf("entry count after non-recovering open = %d, want 0", count)
	}
	if _, found, err := d2.GetIDOfString(ctx, words[0]); err != nil {
		t.Fatal(err)
	} else if found {
		t.Errorf("%q survived a non-recovering open", words[0])
	}
}

// EOF
