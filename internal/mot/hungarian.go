package mot

import "math"

// hungarian solves the optimal-assignment form of the Hungarian
// (Kuhn-Munkres) algorithm using the Jonker-Volgenant shortest
// augmenting path formulation with row/column potentials, O(n³).
//
// The matrix arrives flattened row-major because callers build it that
// way from a metric's dense output; rectangular problems are squared
// internally by padding with a large finite cost so the potentials
// stay finite.

// Unassigned marks a row that received no column in an assignment.
const Unassigned = -1

// padCost fills the virtual rows and columns used to square a
// rectangular problem. Real costs are pre-clamped by callers, so any
// finite value far above the clamp keeps padding from ever beating a
// real entry.
const padCost = 1e12

// SolveAssignment computes a minimum-cost one-to-one assignment for a
// dense n×m cost matrix given in row-major order. The result has
// length n with result[row] = column or Unassigned. When n > m every
// column is used and n−m rows come back Unassigned; when n < m every
// row is assigned and the leftover columns belong to no row.
//
// Costs must be finite and non-negative. The solver never emits the
// same column for two rows; enforcing that invariant against any
// replacement solver is the caller's job (see dedupeColumns).
func SolveAssignment(cost []float64, n, m int) []int {
	if n <= 0 {
		return nil
	}
	result := make([]int, n)
	if m <= 0 {
		for i := range result {
			result[i] = Unassigned
		}
		return result
	}

	dim := n
	if m > dim {
		dim = m
	}

	// Padded square copy; virtual cells carry padCost.
	c := make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if i < n && j < m {
				c[i*dim+j] = cost[i*m+j]
			} else {
				c[i*dim+j] = padCost
			}
		}
	}

	// 1-indexed internals keep the augmenting-path bookkeeping clean.
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1)    // row potentials
	v := make([]float64, dim+1)    // column potentials
	rowFor := make([]int, dim+1)   // rowFor[j] = row assigned to column j
	way := make([]int, dim+1)      // way[j] = previous column on the path
	minv := make([]float64, dim+1) // tentative reduced costs
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		rowFor[0] = i
		j0 := 0 // virtual column anchoring the path

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := rowFor[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				reduced := c[(i0-1)*dim+(j-1)] - u[i0] - v[j]
				if reduced < minv[j] {
					minv[j] = reduced
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[rowFor[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if rowFor[j0] == 0 {
				break
			}
		}

		// Flip assignments along the augmenting path.
		for j0 != 0 {
			rowFor[j0] = rowFor[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := make([]int, dim)
	for i := range rowAssign {
		rowAssign[i] = Unassigned
	}
	for j := 1; j <= dim; j++ {
		if rowFor[j] > 0 && rowFor[j] <= dim {
			rowAssign[rowFor[j]-1] = j - 1
		}
	}

	// Trim to the original shape: virtual columns mean Unassigned.
	for i := 0; i < n; i++ {
		if col := rowAssign[i]; col >= 0 && col < m {
			result[i] = col
		} else {
			result[i] = Unassigned
		}
	}
	return result
}

// dedupeColumns enforces that a column is the assignment result of at
// most one row, keeping the first occurrence and demoting the rest to
// Unassigned. The in-tree solver cannot produce duplicates, but the
// matching layer runs this normalisation on every raw result so a
// replacement solver cannot break the invariant silently.
func dedupeColumns(assignment []int) {
	seen := make(map[int]bool, len(assignment))
	for row, col := range assignment {
		if col == Unassigned {
			continue
		}
		if seen[col] {
			assignment[row] = Unassigned
			continue
		}
		seen[col] = true
	}
}
