// OpenActa/Strdict - ordered comparison tests
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

func TestGetCompareLessAndGreater(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	gen := int32(len(words))

	less, err := d.GetCompare(ctx, op_less, "mango", gen)
	if err != nil {
		t.Fatal(err)
	}
	greater, err := d.GetCompare(ctx, op_greater, "mango", gen)
	if err != nil {
		t.Fatal(err)
	}
	eq, err := d.GetCompare(ctx, op_equal, "mango", gen)
	if err != nil {
		t.Fatal(err)
	}

	if len(less)+len(greater)+len(eq) != len(words) {
		t.Errorf("less(%d)+greater(%d)+eq(%d) != total(%d)", len(less), len(greater), len(eq), len(words))
	}

	for _, id := range less {
		s, _ := d.GetString(ctx, id)
		if s >= "mango" {
			t.Errorf("op_less returned %q, not < mango", s)
		}
	}
	for _, id := range greater {
		s, _ := d.GetString(ctx, id)
		if s <= "mango" {
			t.Errorf("op_greater returned %q, not > mango", s)
		}
	}
}

func TestGetCompareNotEqualWithNoMatchIsAllIDs(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	gen := int32(len(words))

	ids, err := d.GetCompare(ctx, op_not_equal, "does-not-exist", gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(words) {
		t.Errorf("<> with no match returned %d ids, want all %d", len(ids), len(words))
	}
}

func TestGetCompareNotEqualExcludesMatch(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	gen := int32(len(words))

	ids, err := d.GetCompare(ctx, op_not_equal, "mango", gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(words)-1 {
		t.Errorf("<> mango returned %d ids, want %d", len(ids), len(words)-1)
	}
	for _, id := range ids {
		s, _ := d.GetString(ctx, id)
		if s == "mango" {
			t.Error("<> mango incorrectly included mango")
		}
	}
}

func TestGetCompareIncrementalMerge(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()
	ctx := context.Background()

	for _, w := range words[:5] {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := d.GetCompare(ctx, op_less_equal, "zzz", int32(5)); err != nil {
		t.Fatal(err)
	}

	for _, w := range words[5:] {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := d.GetCompare(ctx, op_less_equal, "zzz", int32(len(words)))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != len(words) {
		t.Errorf("after incremental merge, <= zzz returned %d ids, want %d", len(ids), len(words))
	}
}

// EOF
