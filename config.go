// OpenActa/Strdict - Configuration
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
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

/*
	Configurable options for a dictionary instance go here.
	Everything else is set, or automatic/dynamic.

	From [strdict] section in /etc/openacta/openacta.conf, or supplied
	programmatically via DefaultConfig()+overrides for embedding.
*/

const (
	initial_capacity_lower = 1024
	initial_capacity_upper = 1 << 24

	scan_threads_lower = 1
	scan_threads_upper = 1024

	max_strlen_lower = 1
	max_strlen_upper = MaxStrLen

	max_strcount_lower = uint32(1024)
	max_strcount_upper = uint32(MaxStrCount)
)

// Config holds everything that governs one Dictionary's behaviour.
// Zero-value Config is not usable directly; call DefaultConfig() or
// LoadConfig().
type Config struct {
	datastore_dir string
	catalogue_dir string

	initial_capacity uint32
	materialize_hash bool
	recover          bool // if set, keep existing on-disk content and rebuild the index from it; if clear, truncate and start fresh

	max_strlen   uint32
	max_strcount uint32

	scan_threads uint32

	checkpoint_interval time.Duration
}

// DefaultConfig returns sane in-process defaults, suitable for a temp
// (non-persistent) Dictionary with no config file present.
func DefaultConfig() *Config {
	return &Config{
		initial_capacity:    initial_bucket_count,
		max_strlen:          MaxStrLen,
		max_strcount:        MaxStrCount,
		scan_threads:        0, // 0 means runtime.NumCPU()
		checkpoint_interval: 0, // 0 disables background checkpointing
		recover:             true,
	}
}

// LoadConfig reads the [strdict] section via viper (caller is
// responsible for viper.SetConfigFile/viper.ReadInConfig beforehand).
// Every field is validated independently and errors are accumulated
// rather than failing fast, so a misconfigured install reports every
// problem in one pass.
func LoadConfig() (*Config, int) {
	cfg := DefaultConfig()
	var errs int

	errs += config_parse_dirname(&cfg.datastore_dir, "strdict.datastore_dir")
	errs += config_parse_optional_dirname(&cfg.catalogue_dir, "strdict.catalogue_dir")

	errs += config_parse_size(&cfg.initial_capacity, "strdict.initial_capacity", initial_capacity_lower, initial_capacity_upper)
	cfg.materialize_hash = viper.GetBool("strdict.materialize_hashes")
	if viper.IsSet("strdict.recover") {
		cfg.recover = viper.GetBool("strdict.recover")
	}

	errs += config_parse_size(&cfg.max_strlen, "strdict.max_strlen", max_strlen_lower, max_strlen_upper)
	errs += config_parse_size(&cfg.max_strcount, "strdict.max_strcount", max_strcount_lower, max_strcount_upper)

	errs += config_parse_size(&cfg.scan_threads, "strdict.scan_threads", scan_threads_lower, scan_threads_upper)

	if s := viper.GetString("strdict.checkpoint_interval"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Printf("Cannot parse strdict.checkpoint_interval: '%s': %s", s, err)
			errs++
		} else {
			cfg.checkpoint_interval = d
		}
	}

	return cfg, errs
}

// ValidateConfiguration checks, via os.Stat, that each configured
// directory (datastore_dir, catalogue_dir) exists, is a directory, and
// has no world permission bits set. Unset directories are skipped;
// ownership is not checked.
func (c *Config) ValidateConfiguration() int {
	var errs int

	if c.datastore_dir != "" {
		errs += check_dir_attributes(c.datastore_dir)
	}
	if c.catalogue_dir != "" {
		errs += check_dir_attributes(c.catalogue_dir)
	}

	return errs
}

func check_dir_attributes(path string) int {
	var errs int

	st, err := os.Stat(path)
	if err != nil {
		log.Printf("Cannot stat '%s': %s", path, err)
		return 1
	}
	if !st.IsDir() {
		log.Printf("'%s' is not a directory", path)
		errs++
	}

	perm := st.Mode().Perm()
	if perm&0007 != 0 {
		log.Printf("Permissions for '%s' are %04o, world-accessible", path, perm)
		errs++
	}

	return errs
}

func config_parse_dirname(v *string, key string) int {
	dirpath := viper.GetString(key)
	if dirpath == "" {
		log.Printf("Configuration entry for '%s' missing or empty", key)
		return 1
	}
	*v = dirpath
	return 0
}

func config_parse_optional_dirname(v *string, key string) int {
	*v = viper.GetString(key)
	return 0
}

func config_parse_size(i *uint32, key string, lower, upper uint32) int {
	s := viper.GetString(key)
	if s == "" {
		return 0 // optional, default already in *i
	}

	multiplier := 1
	s = strings.ToUpper(s)
	switch {
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	}

	size, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Cannot parse variable %s: '%s'", key, s)
		return 1
	}

	*i = uint32(size) * uint32(multiplier)
	if *i < lower || *i > upper {
		log.Printf("Variable %s out of bounds (%d), must be between %d and %d", key, *i, lower, upper)
		return 1
	}

	return 0
}

// EOF
