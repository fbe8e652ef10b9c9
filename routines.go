// OpenActa/Strdict - Go routines for runtime management
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

/*
	Background checkpoint routine: a goroutine that calls Checkpoint on
	every tick of a time.Ticker (Config.checkpoint_interval), started
	only when that interval is positive. Its close_checkpoint channel
	only requests shutdown; it does not trigger a checkpoint.
*/

package strdict

import (
	"log"
	"time"
)

// start_checkpoint_routine launches the background goroutine if
// checkpoint_interval > 0. Call after Open(); d.close_checkpoint is used
// by Close() to request shutdown and wait for it to finish.
func (d *Dictionary) start_checkpoint_routine() {
	if d.cfg.checkpoint_interval <= 0 {
		return
	}

	d.close_checkpoint = make(chan struct{})
	d.checkpoint_wg.Add(1)

	go d.checkpoint_routine()
}

func (d *Dictionary) checkpoint_routine() {
	defer d.checkpoint_wg.Done()

	ticker := time.NewTicker(d.cfg.checkpoint_interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := d.Checkpoint(); err != nil {
				log.Printf("strdict: background checkpoint failed: %v", err)
			}
		case <-d.close_checkpoint:
			return
		}
	}
}

// stop_checkpoint_routine requests the background goroutine exit and
// blocks until it has.
func (d *Dictionary) stop_checkpoint_routine() {
	if d.close_checkpoint == nil {
		return
	}
	close(d.close_checkpoint)
	d.checkpoint_wg.Wait()
}

// EOF
