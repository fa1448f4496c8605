// Package config loads the server's operational settings, layering an
// optional TOML file over a set of defaults matching the wire protocol's
// fixed limits.
package config

import "github.com/BurntSushi/toml"

// ServerConfig holds the operational knobs an operator may reasonably
// want to override (listen address, connection and message caps). The
// progressive-rehash constants (RehashWork, MaxLoad in the root package)
// are not here: they are invariants the rest of the system is tested
// against, not deployment tuning.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	MaxConns   int    `toml:"max_conns"`
	MaxMsg     int    `toml:"max_msg"`
	MaxArgs    int    `toml:"max_args"`
}

// DefaultServerConfig returns the settings matching the protocol's
// documented limits.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: "127.0.0.1:1234",
		MaxConns:   1024,
		MaxMsg:     32 << 20,
		MaxArgs:    200000,
	}
}

// LoadFile returns the default config, overridden by path's contents if
// path is non-empty.
func LoadFile(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}
