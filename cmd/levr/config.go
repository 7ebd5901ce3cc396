// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/levrprotocol/levr/levr"
)

// TokenConfig declares one token ledger known to the engine.
type TokenConfig struct {
	Address     string `yaml:"address"`
	Whitelisted bool   `yaml:"whitelisted"`
}

// Config is the engine bootstrap file. The underlying token is the asset
// users stake; every listed token gets a ledger, and whitelisted ones are
// registered as privileged reward tokens at startup.
type Config struct {
	Engine     string        `yaml:"engine"`
	Admin      string        `yaml:"admin"`
	Underlying string        `yaml:"underlying"`
	Tokens     []TokenConfig `yaml:"tokens"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	for name, field := range map[string]string{
		"engine":     c.Engine,
		"admin":      c.Admin,
		"underlying": c.Underlying,
	} {
		if _, err := levr.ParseAddress(field); err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
	}
	for i, tk := range c.Tokens {
		if _, err := levr.ParseAddress(tk.Address); err != nil {
			return fmt.Errorf("config tokens[%d]: %w", i, err)
		}
	}
	return nil
}

func (c *Config) engineAddress() levr.Address {
	return levr.MustParseAddress(c.Engine)
}

func (c *Config) adminAddress() levr.Address {
	return levr.MustParseAddress(c.Admin)
}

func (c *Config) underlyingAddress() levr.Address {
	return levr.MustParseAddress(c.Underlying)
}
