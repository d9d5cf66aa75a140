// Package config holds the disassembler configuration record.
package config

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ErrConfig indicates a missing or invalid configuration field.
var ErrConfig = errors.New("config: invalid configuration")

// Config controls which passes run and what output is produced.
// Loaded once and passed by value to the top of the pipeline.
type Config struct {
	GameVersion                        int      `toml:"game_version"`
	DgoNames                           []string `toml:"dgo_names"`
	WriteDisassembly                   bool     `toml:"write_disassembly"`
	WriteHexdump                       bool     `toml:"write_hexdump"`
	WriteScripts                       bool     `toml:"write_scripts"`
	WriteHexdumpOnV3Only               bool     `toml:"write_hexdump_on_v3_only"`
	DisassembleObjectsWithoutFunctions bool     `toml:"disassemble_objects_without_functions"`
	FindBasicBlocks                    bool     `toml:"find_basic_blocks"`
	WriteHexNearInstructions           bool     `toml:"write_hex_near_instructions"`
}

// Load reads a TOML config file and validates required fields.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.GameVersion != 1 && c.GameVersion != 2 {
		return fmt.Errorf("%w: game_version must be 1 or 2, got %d", ErrConfig, c.GameVersion)
	}
	return nil
}
