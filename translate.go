// OpenActa/Strdict - cross-dictionary id translation
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
	"math"
)

// NullStringID is the caller-facing NULL sentinel accepted and
// returned by TranslateStringIds; it is distinct from InvalidStrID,
// which is this package's internal empty-slot marker.
const NullStringID = int32(math.MinInt32)

// TranslateStringIds recodes src_ids, each valid in src, into the
// equivalent ids in dst, adding strings to dst as needed. A NullStringID
// entry passes through unchanged. A negative id that isn't NullStringID
// is rejected with ErrOutOfRange.
//
// Recodes a column encoded against one dictionary into ids valid in
// another, for use during a merge or export (SPEC_FULL.md Sec.11.6).
// Implemented entirely via GetString/GetOrAddBulk, so it adds no new
// internal state to Dictionary.
func TranslateStringIds(ctx context.Context, dst *Dictionary, src_ids []int32, src *Dictionary) ([]int32, error) {
	strs := make([]string, len(src_ids))
	passthrough := make([]bool, len(src_ids))

	for i, id := range src_ids {
		if id == NullStringID {
			passthrough[i] = true
			continue
		}
		if id < 0 {
			return nil, fmt.Errorf("translate id %d: %w", id, ErrOutOfRange)
		}
		s, err := src.GetString(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("translate id %d from source: %w", id, err)
		}
		strs[i] = s
	}

	ids, err := GetOrAddBulk[int32](ctx, dst, strs)
	if err != nil {
		return nil, fmt.Errorf("translate into destination: %w", err)
	}

	for i := range ids {
		if passthrough[i] {
			ids[i] = NullStringID
		}
	}

	return ids, nil
}

// EOF
