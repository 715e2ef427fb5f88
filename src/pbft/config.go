// MIT License
//
// Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package pbft

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config carries the runtime parameters the engine reads from the
// system-contract configuration channel (§6, §10).
type Config struct {
	ViewTimeout      time.Duration `mapstructure:"view_timeout"`
	OmitEmptyBlock   bool          `mapstructure:"omit_empty_block"`
	KMaxChangeCycle  uint32        `mapstructure:"k_max_change_cycle"`
	KCollectInterval time.Duration `mapstructure:"k_collect_interval"`
	DataDir          string        `mapstructure:"datadir"`
}

// DefaultConfig returns the in-process defaults used when no config
// file is present.
func DefaultConfig() Config {
	return Config{
		ViewTimeout:      3 * time.Second,
		OmitEmptyBlock:   false,
		KMaxChangeCycle:  8,
		KCollectInterval: 30 * time.Second,
		DataDir:          "./data",
	}
}

// Validate reports a non-nil error if the configuration is internally
// inconsistent. Per §7, an invalid configuration sets `cfg_err` and
// shouldSeal returns false until it is corrected.
func (c Config) Validate() error {
	if c.ViewTimeout <= 0 {
		return fmt.Errorf("%w: view_timeout must be positive", ErrConfigInvalid)
	}
	if c.KMaxChangeCycle == 0 {
		return fmt.Errorf("%w: k_max_change_cycle must be positive", ErrConfigInvalid)
	}
	if c.KCollectInterval <= 0 {
		return fmt.Errorf("%w: k_collect_interval must be positive", ErrConfigInvalid)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: datadir must be set", ErrConfigInvalid)
	}
	return nil
}

// staticConfigProvider is a ConfigProvider over a fixed Config, for
// demos and tests that have no config file to watch.
type staticConfigProvider struct {
	cfg       Config
	listeners []func(Config)
}

// NewStaticConfigProvider wraps a fixed Config as a ConfigProvider.
// Subscribe is accepted but never fires, since the configuration never
// changes.
func NewStaticConfigProvider(cfg Config) ConfigProvider {
	return &staticConfigProvider{cfg: cfg}
}

func (p *staticConfigProvider) Current() Config { return p.cfg }

func (p *staticConfigProvider) Subscribe(onChange func(Config)) {
	p.listeners = append(p.listeners, onChange)
}

// viperConfigProvider adapts a viper instance into a ConfigProvider,
// watching the backing file (when one was set) for live updates.
type viperConfigProvider struct {
	v         *viper.Viper
	listeners []func(Config)
}

// NewViperConfigProvider builds a ConfigProvider seeded with defaults,
// overridden by whatever v already has bound (flags, env, config file).
// If v was constructed with a config file, changes are watched and
// pushed to subscribers as resetConfig calls.
func NewViperConfigProvider(v *viper.Viper) ConfigProvider {
	d := DefaultConfig()
	v.SetDefault("view_timeout", d.ViewTimeout)
	v.SetDefault("omit_empty_block", d.OmitEmptyBlock)
	v.SetDefault("k_max_change_cycle", d.KMaxChangeCycle)
	v.SetDefault("k_collect_interval", d.KCollectInterval)
	v.SetDefault("datadir", d.DataDir)

	p := &viperConfigProvider{v: v}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := p.Current()
		for _, l := range p.listeners {
			l(cfg)
		}
	})
	v.WatchConfig()

	return p
}

func (p *viperConfigProvider) Current() Config {
	var cfg Config
	if err := p.v.Unmarshal(&cfg); err != nil {
		return DefaultConfig()
	}
	return cfg
}

func (p *viperConfigProvider) Subscribe(onChange func(Config)) {
	p.listeners = append(p.listeners, onChange)
}
