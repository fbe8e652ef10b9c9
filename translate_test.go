// OpenActa/Strdict - cross-dictionary id translation tests
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

func TestTranslateStringIds(t *testing.T) {
	ctx := context.Background()
	src := OpenTemp(DefaultConfig())
	defer src.Close()
	dst := OpenTemp(DefaultConfig())
	defer dst.Close()

	src_ids := make([]int32, len(words))
	for i, w := range words {
		id, err := src.GetOrAdd(ctx, w)
		if err != nil {
			t.Fatal(err)
		}
		src_ids[i] = id
	}

	// Give dst some unrelated existing content first, so translated ids
	// don't trivially coincide with src_ids.
	if _, err := dst.GetOrAdd(ctx, "unrelated-existing-entry"); err != nil {
		t.Fatal(err)
	}

	dst_ids, err := TranslateStringIds(ctx, dst, src_ids, src)
	if err != nil {
		t.Fatal(err)
	}

	for i, id := range dst_ids {
		got, err := dst.GetString(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if got != words[i] {
			t.Errorf("translated id %d -> %q, want %q", id, got, words[i])
		}
	}
}

func TestTranslateStringIdsPassesThroughNull(t *testing.T) {
	ctx := context.Background()
	src := OpenTemp(DefaultConfig())
	defer src.Close()
	dst := OpenTemp(DefaultConfig())
	defer dst.Close()

	id, err := src.GetOrAdd(ctx, "apple")
	if err != nil {
		t.Fatal(err)
	}

	dst_ids, err := TranslateStringIds(ctx, dst, []int32{id, NullStringID}, src)
	if err != nil {
		t.Fatal(err)
	}
	if dst_ids[1] != NullStringID {
		t.Errorf("NullStringID did not pass through, got %d", dst_ids[1])
	}
}

func TestTranslateStringIdsPassesThroughRealEmptyStringID(t *testing.T) {
	ctx := context.Background()
	src := OpenTemp(DefaultConfig())
	defer src.Close()
	dst := OpenTemp(DefaultConfig())
	defer dst.Close()

	empty_id, err := src.GetOrAdd(ctx, "")
	if err != nil {
		t.Fatal(err)
	}

	dst_ids, err := TranslateStringIds(ctx, dst, []int32{empty_id}, src)
	if err != nil {
		t.Fatal(err)
	}
	if dst_ids[0] != NullStringID {
		t.Errorf("GetOrAdd(\"\")'s id did not pass through as NullStringID, got %d", dst_ids[0])
	}
}

func TestTranslateStringIdsRejectsNegativeNonNull(t *testing.T) {
	ctx := context.Background()
	src := OpenTemp(DefaultConfig())
	defer src.Close()
	dst := OpenTemp(DefaultConfig())
	defer dst.Close()

	_, err := TranslateStringIds(ctx, dst, []int32{-5}, src)
	if err == nil {
		t.Error("expected error for negative non-null id")
	}
}

// EOF
