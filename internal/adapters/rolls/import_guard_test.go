package rolls

import (
	"testing"

	"rollcore/testutil"
)

// The HTTP layer reaches storage through the service only. A direct driver
// import here would bypass the rules engine on writes.
func TestNoDirectPersistenceImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.PersistenceImportForbidden,
		"handlers reach storage through the service")
}
