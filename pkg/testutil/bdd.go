package testutil

import "testing"

// Step runs fn as a subtest named after its keyword, so a failing lock
// history scenario reads as "Given .../When .../Then ..." in test output.
type Step func(t *testing.T, desc string, fn func(t *testing.T))

var (
	Given = keyword("Given")
	When  = keyword("When")
	Then  = keyword("Then")
	And   = keyword("And")
)

func keyword(word string) Step {
	return func(t *testing.T, desc string, fn func(t *testing.T)) {
		t.Helper()
		t.Run(word+" "+desc, fn)
	}
}
