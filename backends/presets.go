// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "github.com/gomlx/gopjrt/dtypes"

func init() {
	// bm1684x is registered first: it is the default chip.
	Register("bm1684x", newBM1684X)
	Register("bm1684", newBM1684)
	Register("bm1686", newBM1686)
	Register("cv183x", newCV183x)
	Register("cv182x", newCV182x)
}

var (
	bm168xDTypes = []dtypes.DType{dtypes.Float32, dtypes.Float16, dtypes.BFloat16,
		dtypes.Int8, dtypes.Uint8, dtypes.Int16, dtypes.Uint16, dtypes.Int32, dtypes.Uint32}
	cv18xxDTypes = []dtypes.DType{dtypes.BFloat16, dtypes.Int8, dtypes.Uint8, dtypes.Int16, dtypes.Uint16}
)

func newBM1684X() *Backend {
	return &Backend{
		Chip:      "bm1684x",
		Family:    FamilyBM168x,
		LmemBytes: 1 << 18,
		LmemBanks: 16,
		NPUNum:    64,
		EUBytes:   64,
		Capabilities: Capabilities{
			Operations: allOps(),
			DTypes:     dtypeSet(bm168xDTypes...),
		},
	}
}

func newBM1684() *Backend {
	return &Backend{
		Chip:      "bm1684",
		Family:    FamilyBM168x,
		LmemBytes: 1 << 19,
		LmemBanks: 8,
		NPUNum:    64,
		EUBytes:   128,
		Align4N:   true,
		Capabilities: Capabilities{
			Operations: allOps(OpTypeLayerNorm, OpTypeRequantIntAxis, OpTypeLutBF16),
			DTypes:     dtypeSet(dtypes.Float32, dtypes.Int8, dtypes.Uint8, dtypes.Int16, dtypes.Int32),
		},
	}
}

func newBM1686() *Backend {
	return &Backend{
		Chip:      "bm1686",
		Family:    FamilyBM1686,
		LmemBytes: 1 << 17,
		LmemBanks: 16,
		NPUNum:    32,
		EUBytes:   16,
		Capabilities: Capabilities{
			Operations: allOps(),
			DTypes:     dtypeSet(bm168xDTypes...),
		},
	}
}

// CV18xx chips have no local implementation of Reshape and PixelNorm.
func newCV183x() *Backend {
	return &Backend{
		Chip:      "cv183x",
		Family:    FamilyCV18xx,
		LmemBytes: 1 << 15,
		LmemBanks: 8,
		NPUNum:    32,
		EUBytes:   16,
		Capabilities: Capabilities{
			Operations: allOps(OpTypeReshape, OpTypePixelNorm, OpTypeRequantIntAxis, OpTypeMatMul),
			DTypes:     dtypeSet(cv18xxDTypes...),
		},
	}
}

func newCV182x() *Backend {
	b := newCV183x()
	b.Chip = "cv182x"
	b.NPUNum = 8
	return b
}
