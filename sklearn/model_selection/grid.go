package model_selection

import (
	"sort"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Grid lists candidate values per hyperparameter name.
type Grid map[string][]interface{}

// ParameterGrid expands grid into its cartesian product. Names are visited in
// sorted order and the last name varies fastest, so candidate order is
// stable. An empty grid yields a single empty candidate (model defaults).
func ParameterGrid(grid Grid) ([]model.Params, error) {
	names := make([]string, 0, len(grid))
	for k := range grid {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		if len(grid[name]) == 0 {
			return nil, errors.NewValidationError(name, "parameter grid needs at least one value", grid[name])
		}
	}

	candidates := []model.Params{{}}
	for _, name := range names {
		next := make([]model.Params, 0, len(candidates)*len(grid[name]))
		for _, c := range candidates {
			for _, v := range grid[name] {
				p := c.Copy()
				p[name] = v
				next = append(next, p)
			}
		}
		candidates = next
	}
	return candidates, nil
}

// Size returns the number of candidates grid expands to.
func (g Grid) Size() int {
	n := 1
	for _, vs := range g {
		n *= len(vs)
	}
	return n
}
