package residue

import (
	"testing"

	"peptidesynth/testutil"
)

func TestResidueHasNoStorageDependencies(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InfraImport, "residue tables are plain files")
	testutil.AssertNoTransitiveDependency(t, "peptidesynth/internal/residue", testutil.StorageImport, "residue tables are plain files")
}
