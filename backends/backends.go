// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package backends describes the accelerator targets the layer-group planner tiles for.
//
// A Backend is a plain value: the chip family (which selects the element-unit alignment policy),
// the fixed on-chip local memory capacity, the number of NPU lanes the channel axis is distributed
// over, the element-unit (EU) width used for alignment, and which operations can run locally inside
// a fusion group.
//
// Backends are not global state: the planner receives one explicitly. The functions New and
// NewWithConfig only help selecting one from the registered presets, following the configuration
// string format "<chip>[:key=value,...]".
package backends

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Family of chips sharing the same element-unit alignment rules.
type Family int

//go:generate go tool enumer -type=Family -trimprefix=Family -transform=lower -text -output=gen_family_enumer.go backends.go

const (
	// FamilyBM168x uses the common alignment rules (BM1684, BM1684X).
	FamilyBM168x Family = iota

	// FamilyBM1686 adds the per-axis requantization exemption to the common rules.
	FamilyBM1686

	// FamilyCV18xx has its own table of exemptions (lookup tables, depthwise/grouped convolutions).
	FamilyCV18xx
)

// Backend holds the hardware constants of one compilation target.
type Backend struct {
	// Chip is the short name of the target, e.g. "bm1684x".
	Chip string

	// Family selects the alignment policy.
	Family Family

	// LmemBytes is the total on-chip local memory capacity, in bytes.
	LmemBytes int64

	// LmemBanks is the number of banks the local memory is split into.
	LmemBanks int64

	// NPUNum is the number of lanes the channel axis is distributed over.
	NPUNum int64

	// EUBytes is the width in bytes of one element unit: rows aligned to the EU start at an EU boundary.
	EUBytes int64

	// Align4N is set for targets that store activations with 4 batch items packed in 32 bits.
	Align4N bool

	// Capabilities lists the operations and dtypes that can execute inside a fusion group.
	Capabilities Capabilities
}

// Name returns the chip name. It makes Backend more alike the GoMLX backends.
func (b *Backend) Name() string { return b.Chip }

// Description is a longer description of the Backend that can be used to pretty-print.
func (b *Backend) Description() string {
	return fmt.Sprintf("%s (%s): %s local memory in %d banks of %s, %d NPUs, %d bytes EU",
		b.Chip, b.Family, humanize.IBytes(uint64(b.LmemBytes)), b.LmemBanks, humanize.IBytes(uint64(b.LmemBankBytes())),
		b.NPUNum, b.EUBytes)
}

// LmemBankBytes returns the size of one local memory bank.
func (b *Backend) LmemBankBytes() int64 {
	if b.LmemBanks <= 0 {
		return b.LmemBytes
	}
	return b.LmemBytes / b.LmemBanks
}

// Clone returns a deep copy of the backend description.
func (b *Backend) Clone() *Backend {
	b2 := *b
	b2.Capabilities = b.Capabilities.Clone()
	return &b2
}

// Validate checks that the constants are usable by the planner.
func (b *Backend) Validate() error {
	if b.LmemBytes <= 0 {
		return errors.Errorf("backend %q: local memory size must be > 0, got %d", b.Chip, b.LmemBytes)
	}
	if b.NPUNum <= 0 {
		return errors.Errorf("backend %q: number of NPUs must be > 0, got %d", b.Chip, b.NPUNum)
	}
	if b.EUBytes <= 0 {
		return errors.Errorf("backend %q: EU bytes must be > 0, got %d", b.Chip, b.EUBytes)
	}
	if b.LmemBanks < 0 {
		return errors.Errorf("backend %q: number of banks must be >= 0, got %d", b.Chip, b.LmemBanks)
	}
	return nil
}

// Constructor returns a fresh description of a registered chip.
type Constructor func() *Backend

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a chip preset with the given name.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// List returns the names of the registered chips, sorted.
func List() []string {
	names := make([]string, 0, len(registeredConstructors))
	for name := range registeredConstructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultConfig is the default backend configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// LAYERGROUP_BACKEND is the environment variable with the default backend configuration to use.
//
// The format of config is "<chip>[:key=value,...]", see NewWithConfig.
const LAYERGROUP_BACKEND = "LAYERGROUP_BACKEND"

// New returns a new default Backend.
//
// The default is:
//
// 1. The environment LAYERGROUP_BACKEND is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered chip is used with an empty configuration.
func New() (*Backend, error) {
	config, found := os.LookupEnv(LAYERGROUP_BACKEND)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// MustNew calls New and panics on error.
func MustNew() *Backend {
	b, err := New()
	if err != nil {
		exceptions.Panicf("backends.MustNew(): %+v", err)
	}
	return b
}

// NewWithConfig takes a configuration string formatted as "<chip>[:key=value,...]".
//
// The "<chip>" is the name of a registered chip preset (see List). If empty, the first registered
// one is used. The optional key/values override the preset constants:
//
//   - lmem: local memory bytes.
//   - banks: number of local memory banks.
//   - npu: number of NPU lanes.
//   - eu: EU width in bytes.
//   - align4n: true/false.
//   - family: alignment policy, one of bm168x, bm1686 or cv18xx.
func NewWithConfig(config string) (*Backend, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.New("no chip presets registered")
	}
	chip := config
	var options string
	if idx := strings.Index(config, ":"); idx != -1 {
		chip = config[:idx]
		options = config[idx+1:]
	}
	if chip == "" {
		chip = firstRegistered
	}
	constructor, found := registeredConstructors[strings.ToLower(chip)]
	if !found {
		return nil, errors.Errorf("can't find chip %q for configuration %q given, known chips are %q", chip, config, List())
	}
	b := constructor()
	if options != "" {
		for _, option := range strings.Split(options, ",") {
			option = strings.TrimSpace(option)
			if option == "" {
				continue
			}
			if err := b.applyOption(option); err != nil {
				return nil, errors.WithMessagef(err, "backend configuration %q", config)
			}
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) applyOption(option string) error {
	key, value, ok := strings.Cut(option, "=")
	if !ok {
		return errors.Errorf("option %q is not formatted as key=value", option)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if key == "family" {
		family, err := FamilyString(value)
		if err != nil {
			return errors.WithMessagef(err, "parsing option %q", option)
		}
		b.Family = family
		return nil
	}
	if key == "align4n" {
		v, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Wrapf(err, "parsing option %q", option)
		}
		b.Align4N = v
		return nil
	}
	var target *int64
	switch key {
	case "lmem":
		target = &b.LmemBytes
	case "banks":
		target = &b.LmemBanks
	case "npu":
		target = &b.NPUNum
	case "eu":
		target = &b.EUBytes
	default:
		return errors.Errorf("unknown option %q", key)
	}
	v, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return errors.Wrapf(err, "parsing option %q", option)
	}
	*target = v
	return nil
}
