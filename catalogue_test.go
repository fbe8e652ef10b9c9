// OpenActa/Strdict - catalogue snapshot tests
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
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/binary"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dsnet/compress/bzip2"
)

// decode_catalogue_snapshot is the inverse of write_catalogue_snapshot,
// kept local to the test since no consumer of a catalogue file exists
// yet within this package.
func decode_catalogue_snapshot(t *testing.T, raw []byte) []string {
	t.Helper()

	const magic_len = len("STRDICTCAT1")
	magic := string(raw[:magic_len])
	if magic != "STRDICTCAT1" {
		t.Fatalf("bad magic %q", magic)
	}
	rest := raw[magic_len:]

	content_len := binary.LittleEndian.Uint32(rest[0:4])
	want_crc := binary.LittleEndian.Uint32(rest[4:8])
	var want_sig [sha512.Size]byte
	copy(want_sig[:], rest[8:8+sha512.Size])
	compressed := rest[8+sha512.Size:]

	var cfg bzip2.ReaderConfig
	r, err := bzip2.NewReader(bytes.NewReader(compressed), &cfg)
	if err != nil {
		t.Fatalf("bzip2.NewReader: %v", err)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("bzip2 decompress: %v", err)
	}
	r.Close()

	if uint32(len(content)) != content_len {
		t.Fatalf("decompressed length %d, header says %d", len(content), content_len)
	}
	if got_crc := crc32.ChecksumIEEE(content); got_crc != want_crc {
		t.Errorf("CRC32 = %x, want %x", got_crc, want_crc)
	}
	if got_sig := sha512.Sum512(content); got_sig != want_sig {
		t.Errorf("SHA-512 signature mismatch")
	}

	var out []string
	for len(content) > 0 {
		if len(content) < 4 {
			t.Fatalf("truncated length prefix")
		}
		n := binary.LittleEndian.Uint32(content[:4])
		content = content[4:]
		if uint32(len(content)) < n {
			t.Fatalf("truncated string record")
		}
		out = append(out, string(content[:n]))
		content = content[n:]
	}
	return out
}

func TestCatalogueSnapshotRoundTrips(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.datastore_dir = filepath.Join(dir, "data")
	cfg.catalogue_dir = filepath.Join(dir, "catalogue")
	if err := os.MkdirAll(cfg.catalogue_dir, NewDirPermissions); err != nil {
		t.Fatal(err)
	}

	d, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	for _, w := range words {
		if _, err := d.GetOrAdd(ctx, w); err != nil {
			t.Fatal(err)
		}
	}

	if err := d.write_catalogue_snapshot(); err != nil {
		t.Fatalf("write_catalogue_snapshot: %v", err)
	}

	entries, err := os.ReadDir(cfg.catalogue_dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("catalogue dir has %d entries, want 1", len(entries))
	}

	raw, err := os.ReadFile(filepath.Join(cfg.catalogue_dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}

	got := decode_catalogue_snapshot(t, raw)
	if len(got) != len(words) {
		t.Fatalf("decoded %d strings, want %d", len(got), len(words))
	}
	for i, w := range words {
		if got[i] != w {
			t.Errorf("decoded[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func TestCatalogueSnapshotNoopWithoutCatalogueDir(t *testing.T) {
	d := OpenTemp(DefaultConfig())
	defer d.Close()

	if err := d.write_catalogue_snapshot(); err != nil {
		t.Fatalf("write_catalogue_snapshot with no catalogue_dir: %v", err)
	}
}

// EOF
