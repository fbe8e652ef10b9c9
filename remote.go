// OpenActa/Strdict - remote delegation interface
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

import "context"

// RemoteClient lets a Dictionary delegate every operation to another
// process over some transport this package does not implement or
// choose (spec Sec.1: "specified only as an interface the core can
// delegate to"). CopyStrings has no remote equivalent and is rejected
// with ErrRemoteUnsupported by the caller in dictionary.go.
type RemoteClient interface {
	GetOrAddBulk(ctx context.Context, ss []string) ([]int32, error)
	GetIDOfString(ctx context.Context, s string) (int32, error)
	GetString(ctx context.Context, id int32) (string, error)
	StorageEntryCount(ctx context.Context) (int32, error)
	Checkpoint(ctx context.Context) error
}

// EOF
