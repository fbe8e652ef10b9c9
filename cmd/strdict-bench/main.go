// OpenActa/Strdict - bulk JSON ingestion benchmark tool
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
	strdict-bench reads newline-delimited JSON, flattens each line the
	same way OpenActa/Haystack's json.go does (third-party flat.Flatten,
	"." delimiter), and pushes every resulting string-typed value
	through GetOrAddBulk, reporting throughput. A CLI/benchmark concern,
	not part of the importable package (SPEC_FULL.md Sec.11.4).
*/

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/nqd/flat"
	"github.com/spf13/viper"

	"openacta.dev/strdict"
)

func main() {
	var (
		config_file = flag.String("c", "/etc/openacta/openacta.conf", "config file")
		input_file  = flag.String("i", "", "newline-delimited JSON file to ingest")
	)
	flag.Parse()

	if *input_file == "" {
		log.Fatal("strdict-bench: -i <file> is required")
	}

	viper.SetConfigFile(*config_file)
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("strdict-bench: no config file read (%v), using defaults", err)
	}

	cfg, errs := strdict.LoadConfig()
	if errs > 0 {
		log.Fatalf("strdict-bench: %d configuration error(s)", errs)
	}

	d, err := strdict.Open(cfg)
	if err != nil {
		log.Fatalf("strdict-bench: open dictionary: %v", err)
	}
	defer d.Close()

	f, err := os.Open(*input_file)
	if err != nil {
		log.Fatalf("strdict-bench: %v", err)
	}
	defer f.Close()

	ctx := context.Background()
	start := time.Now()
	var lines, values int

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		kv, err := flatten_json_line(scanner.Bytes())
		if err != nil {
			continue // Realistically there's not much we can do with invalid lines. Ignore.
		}

		ss := make([]string, 0, len(kv))
		for _, v := range kv {
			if s, ok := v.(string); ok {
				ss = append(ss, s)
			}
		}
		if _, err := strdict.GetOrAddBulk[int32](ctx, d, ss); err != nil {
			log.Fatalf("strdict-bench: bulk insert: %v", err)
		}

		lines++
		values += len(ss)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("strdict-bench: scan: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Printf("%d lines, %d string values in %s (%.0f values/s)\n",
		lines, values, elapsed, float64(values)/elapsed.Seconds())

	count, _ := d.StorageEntryCount(ctx)
	fmt.Printf("dictionary now holds %d distinct strings\n", count)
}

// flatten_json_line unmarshals a JSON object and flattens nested
// structures/arrays into a single-level map with "." separators.
func flatten_json_line(b []byte) (map[string]interface{}, error) {
	var result map[string]interface{}
	if err := json.Unmarshal(b, &result); err != nil {
		return nil, err
	}

	return flat.Flatten(result, &flat.Options{
		Delimiter: ".",
		MaxDepth:  1000,
		Safe:      false,
	})
}

// EOF
