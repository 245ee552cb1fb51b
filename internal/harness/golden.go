package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// assertGolden snapshots v as indented JSON against
// testdata/golden/<name>.golden.json. Run `go test -update ./internal/harness`
// to rewrite the fixtures after an intentional behavior change.
func assertGolden(t *testing.T, name string, v any) {
	t.Helper()

	b, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden.json"),
	)
	g.Assert(t, name, append(b, '\n'))
}
