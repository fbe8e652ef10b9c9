// OpenActa/Strdict - catalogue snapshot handling
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
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"log"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/google/uuid"
)

// write_catalogue_snapshot writes a bzip2-compressed, CRC32-checked,
// SHA-512-signed copy of every live string to Config.catalogue_dir,
// named by a fresh uuid. This is an audit trail for offline corruption
// detection, separate from the recoverable on-disk format (Sec.4.2-4.7
// are unaffected). A no-op when catalogue_dir isn't configured.
//
// Uses the same bzip2/SHA-512 block shape as a full catalogue file,
// repurposed for plain string content instead of whole encrypted
// log-record files.
func (d *Dictionary) write_catalogue_snapshot() error {
	if d.cfg.catalogue_dir == "" {
		return nil
	}

	content, err := d.serialize_strings_for_catalogue()
	if err != nil {
		return fmt.Errorf("serialize catalogue content: %w", err)
	}

	compressed, err := bzip2_compress(content)
	if err != nil {
		return fmt.Errorf("bzip2 compress catalogue: %w", err)
	}

	crc := crc32.ChecksumIEEE(content)
	sig := sha512.Sum512(content)

	snapshot_id := uuid.New()

	var out bytes.Buffer
	out.WriteString("STRDICTCAT1") // informal magic, not parsed elsewhere
	binary.Write(&out, binary.LittleEndian, uint32(len(content)))
	binary.Write(&out, binary.LittleEndian, crc)
	out.Write(sig[:])
	out.Write(compressed)

	fname := filepath.Join(d.cfg.catalogue_dir, snapshot_id.String()+".sdc")
	if err := os.WriteFile(fname, out.Bytes(), NewFilePermissions); err != nil {
		log.Printf("strdict: error writing catalogue snapshot '%s': %v", fname, err)
		return fmt.Errorf("write catalogue snapshot: %w", err)
	}

	return nil
}

// serialize_strings_for_catalogue lays out every live string as a
// length-prefixed record, in String ID order.
func (d *Dictionary) serialize_strings_for_catalogue() ([]byte, error) {
	var buf bytes.Buffer
	for id := int32(0); id < d.str_count; id++ {
		s, err := d.get_string_from_storage(id)
		if err != nil {
			return nil, err
		}
		var len_buf [4]byte
		binary.LittleEndian.PutUint32(len_buf[:], uint32(len(s)))
		buf.Write(len_buf[:])
		buf.Write(s)
	}
	return buf.Bytes(), nil
}

func bzip2_compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EOF
