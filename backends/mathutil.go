// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import "golang.org/x/exp/constraints"

// CeilDiv returns ceil(a / b) for non-negative a and positive b.
func CeilDiv[T constraints.Integer](a, b T) T {
	return (a + b - 1) / b
}

// AlignUp rounds a up to the next multiple of align. align <= 1 returns a unchanged.
func AlignUp[T constraints.Integer](a, align T) T {
	if align <= 1 {
		return a
	}
	return CeilDiv(a, align) * align
}
