// OpenActa/Strdict - checkpointing
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
)

// Checkpoint makes on-disk state durable: msync(MS_SYNC) on both
// mappings followed by fsync on both file descriptors, all of which
// must succeed (spec Sec.4.8). If Config.catalogue_dir is set, also
// writes an audit-trail catalogue snapshot (SPEC_FULL.md Sec.10.5).
func (d *Dictionary) Checkpoint() error {
	if d.remote != nil {
		return d.remote.Checkpoint(context.Background())
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.payload.flush(); err != nil {
		return fmt.Errorf("checkpoint payload: %w", err)
	}
	if err := d.offsets.flush(); err != nil {
		return fmt.Errorf("checkpoint offsets: %w", err)
	}

	if err := d.write_catalogue_snapshot(); err != nil {
		return fmt.Errorf("checkpoint catalogue snapshot: %w", err)
	}

	return nil
}

// EOF
