// OpenActa/Strdict - sentinel errors
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

import "errors"

// Sentinel errors returned by the public API. ErrPayloadUnavailable and
// ErrStringTooLong live in storage.go, next to the code that raises
// them most often. Capacity exhaustion and out-of-range ids reaching
// internal storage access are unrecoverable and panic instead (see
// entries.go); ErrOutOfRange below guards only the recoverable,
// caller-input-facing id check in translate.go.
var (
	ErrOutOfRange        = errors.New("strdict: id out of range")
	ErrUnknownOperator   = errors.New("strdict: unknown comparison operator")
	ErrRemoteUnsupported = errors.New("strdict: operation unsupported against a remote dictionary")
)

// EOF
