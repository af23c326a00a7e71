// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"maps"

	"github.com/gomlx/gopjrt/dtypes"
)

// Capabilities holds mappings of what a backend can execute locally, inside a fusion group.
type Capabilities struct {
	// Operations supported inside a group.
	// If not listed, it's assumed to be false, hence not supported.
	Operations map[OpType]bool

	// DTypes list the storage types supported in local memory.
	// If not listed, it's assumed to be false, hence not supported.
	DTypes map[dtypes.DType]bool
}

// Clone makes a deep copy of the Capabilities.
func (c Capabilities) Clone() Capabilities {
	var c2 Capabilities
	c2.Operations = make(map[OpType]bool, len(c.Operations))
	maps.Copy(c2.Operations, c.Operations)
	c2.DTypes = make(map[dtypes.DType]bool, len(c.DTypes))
	maps.Copy(c2.DTypes, c.DTypes)
	return c2
}

// SupportsOp returns whether the op type can execute locally.
func (c Capabilities) SupportsOp(opType OpType) bool {
	return c.Operations[opType]
}

// SupportsDType returns whether tensors of the dtype can be stored in local memory.
func (c Capabilities) SupportsDType(dtype dtypes.DType) bool {
	return c.DTypes[dtype]
}

// allOps returns Operations with every op type enabled, except the ones given.
func allOps(except ...OpType) map[OpType]bool {
	ops := make(map[OpType]bool, int(OpTypeLast))
	for _, opType := range OpTypeValues() {
		if opType.IsValid() {
			ops[opType] = true
		}
	}
	for _, opType := range except {
		delete(ops, opType)
	}
	return ops
}

func dtypeSet(list ...dtypes.DType) map[dtypes.DType]bool {
	set := make(map[dtypes.DType]bool, len(list))
	for _, dtype := range list {
		set[dtype] = true
	}
	return set
}
