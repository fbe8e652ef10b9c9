// OpenActa/Strdict Dictionary - tests
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

var words = []string{
	"apple", "banana", "cherry", "date", "elderberry",
	"fig", "grape", "honeydew", "kiwi", "lemon",
	"mango", "nectarine", "orange", "papaya", "quince",
}

func TestGetOrAddIdempotent(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words {
		id1, err := d.GetOrAdd(ctx, w)
		if err != nil {
			t.Fatalf("GetOrAdd(%q): %v", w, err)
		}
		id2, err := d.GetOrAdd(ctx, w)
		if err != nil {
			t.Fatalf("GetOrAdd(%q) again: %v", w, err)
		}
		if id1 != id2 {
			t.Errorf("GetOrAdd(%q) not idempotent: %d != %d", w, id1, id2)
		}
	}

	count, _ := d.StorageEntryCount(ctx)
	if int(count) != len(words) {
		t.Errorf("entry count = %d, want %d", count, len(words))
	}
}

func TestGetOrAddEmptyStringIsNull(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	id, err := d.GetOrAdd(ctx, "")
	if err != nil {
		t.Fatalf("GetOrAdd(\"\"): %v", err)
	}
	if id != NullStringID {
		t.Errorf("GetOrAdd(\"\") = %d, want %d", id, NullStringID)
	}

	count, _ := d.StorageEntryCount(ctx)
	if count != 0 {
		t.Errorf("empty string must not be added, entry count = %d", count)
	}
}

func TestGetStringRoundTrip(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	ids := make(map[string]int32)
	for _, w := range words {
		id, err := d.GetOrAdd(ctx, w)
		if err != nil {
			t.Fatalf("GetOrAdd(%q): %v", w, err)
		}
		ids[w] = id
	}

	for w, id := range ids {
		got, err := d.GetString(ctx, id)
		if err != nil {
			t.Fatalf("GetString(%d): %v", id, err)
		}
		if got != w {
			t.Errorf("GetString(%d) = %q, want %q", id, got, w)
		}
	}
}

func TestGetIDOfStringDoesNotInsert(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	if _, found, err := d.GetIDOfString(ctx, "nonexistent"); err != nil {
		t.Fatal(err)
	} else if found {
		t.Error("GetIDOfString found a string that was never added")
	}

	count, _ := d.StorageEntryCount(ctx)
	if count != 0 {
		t.Errorf("GetIDOfString must not insert, entry count = %d", count)
	}
}

func TestFillRateInvariantHoldsAfterManyInserts(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		s := randomish_string(i)
		if _, err := d.GetOrAdd(ctx, s); err != nil {
			t.Fatalf("GetOrAdd(%q): %v", s, err)
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.index) < int(d.str_count)*2 {
		t.Errorf("fill-rate invariant violated: len(index)=%d str_count=%d", len(d.index), d.str_count)
	}
}

// TestBulkInsertGrowsIndexToExpectedPowerOfTwo exercises spec's named
// large-insert scenario: starting from initial_capacity=1024, after n
// distinct inserts len(index) must land on the smallest power of two
// >= n*2. n is shrunk from the scenario's literal 1,000,000 for test
// speed; the growth arithmetic it checks doesn't depend on the size.
func TestBulkInsertGrowsIndexToExpectedPowerOfTwo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.initial_capacity = 1024
	d := OpenTemp(cfg)
	defer d.Close()
	ctx := context.Background()

	const n = 100000
	for i := 0; i < n; i++ {
		s := randomish_string(i)
		if _, err := d.GetOrAdd(ctx, s); err != nil {
			t.Fatalf("GetOrAdd(%q): %v", s, err)
		}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if int(d.str_count) != n {
		t.Fatalf("str_count = %d, want %d", d.str_count, n)
	}
	want := round_up_p2(n * 2)
	if len(d.index) != want {
		t.Errorf("len(index) = %d, want %d (smallest power of two >= %d)", len(d.index), want, n*2)
	}
}

func randomish_string(i int) string {
	b := make([]byte, 0, 16)
	for i > 0 {
		b = append(b, byte('a'+i%26))
		i /= 26
	}
	b = append(b, byte('a'+i))
	return string(b)
}

func TestCopyStringsOrderMatchesIDs(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	all, err := d.CopyStrings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for id, s := range all {
		got, err := d.GetString(ctx, int32(id))
		if err != nil {
			t.Fatal(err)
		}
		if got != s {
			t.Errorf("CopyStrings()[%d] = %q, GetString(%d) = %q", id, s, id, got)
		}
	}
}

// EOF
