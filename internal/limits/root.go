package limits

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/t3mu-analysis/limitscan/internal/monitoring"
)

// TreeName and BranchName locate the limits inside a combine output.
const (
	TreeName   = "limit"
	BranchName = "limit"
)

// ROOTReader reads combine outputs with groot.
type ROOTReader struct{}

// Read returns the limits stored in the limit branch of the file at path.
func (ROOTReader) Read(path string) (Limits, error) {
	values, err := ReadBranch(path)
	if err != nil {
		return Limits{}, err
	}
	return FromQuantiles(values)
}

// ReadBranch returns every entry of the limit branch in file order.
func ReadBranch(path string) ([]float64, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	obj, err := f.Get(TreeName)
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrNoLimitTree, path, err)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, fmt.Errorf("%w in %s: %q is a %T", ErrNoLimitTree, path, TreeName, obj)
	}
	if tree.Branch(BranchName) == nil {
		return nil, fmt.Errorf("%w in %s: no %q branch", ErrNoLimitTree, path, BranchName)
	}

	var v float64
	r, err := rtree.NewReader(tree, []rtree.ReadVar{{Name: BranchName, Value: &v}})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer r.Close()

	values := make([]float64, 0, tree.Entries())
	err = r.Read(func(rtree.RCtx) error {
		values = append(values, v)
		monitoring.Logf(">>>   %.2f", v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return values, nil
}
