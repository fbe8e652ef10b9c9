// OpenActa/Strdict - dictionary inspection utility
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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"

	"openacta.dev/strdict"
)

func main() {
	fmt.Fprintln(os.Stderr, "Strdict - persistent string dictionary - utility")
	fmt.Fprintln(os.Stderr, "Copyright (C) 2023 Arjen Lentz & Lentz Pty Ltd; All Rights Reserved")
	fmt.Fprintln(os.Stderr, "Licenced under the Affero General Public Licence (AGPL) v3(+)")
	fmt.Fprintln(os.Stderr)

	var (
		config_file = flag.String("c", "/etc/openacta/openacta.conf", "config file")
		lookup     = flag.String("s", "", "look up this string's id (does not insert)")
		get        = flag.Int("g", -1, "look up the string for this id")
		checkpoint = flag.Bool("checkpoint", false, "force a checkpoint before exiting")
		dump       = flag.Bool("dump", false, "dump every string to stdout")
	)
	flag.Parse()

	viper.SetConfigFile(*config_file)
	if err := viper.ReadInConfig(); err != nil {
		log.Printf("strdict-util: no config file read (%v), using defaults", err)
	}

	cfg, errs := strdict.LoadConfig()
	if errs > 0 {
		log.Fatalf("strdict-util: %d configuration error(s)", errs)
	}

	d, err := strdict.Open(cfg)
	if err != nil {
		log.Fatalf("strdict-util: open dictionary: %v", err)
	}
	defer d.Close()

	ctx := context.Background()

	fmt.Printf("instance id: %s\n", d.ID())

	count, _ := d.StorageEntryCount(ctx)
	fmt.Printf("entries: %d\n", count)

	if *lookup != "" {
		id, found, err := d.GetIDOfString(ctx, *lookup)
		if err != nil {
			log.Fatalf("strdict-util: lookup: %v", err)
		}
		fmt.Printf("%q -> id=%d found=%v\n", *lookup, id, found)
	}

	if *get >= 0 {
		s, err := d.GetString(ctx, int32(*get))
		if err != nil {
			log.Fatalf("strdict-util: get: %v", err)
		}
		fmt.Printf("id=%d -> %q\n", *get, s)
	}

	if *dump {
		ss, err := d.CopyStrings(ctx)
		if err != nil {
			log.Fatalf("strdict-util: dump: %v", err)
		}
		for id, s := range ss {
			fmt.Printf("%d\t%s\n", id, s)
		}
	}

	if *checkpoint {
		if err := d.Checkpoint(); err != nil {
			log.Fatalf("strdict-util: checkpoint: %v", err)
		}
		fmt.Println("checkpoint complete")
	}
}

// EOF
