package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeExactPairing(t *testing.T) {
	report := Analyze([]string{
		"lib/main.dart",
		"lib/src/parser.dart",
		"test/src/parser_test.dart",
		"README.md",
	})

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Tested)
	require.Len(t, report.Pairs, 1)
	assert.Equal(t, Pair{Library: "lib/src/parser.dart", Test: "test/src/parser_test.dart", Exact: true}, report.Pairs[0])
	assert.Equal(t, []string{"lib/main.dart"}, report.Untested)
	assert.InDelta(t, 0.5, report.Ratio, 1e-9)
}

func TestAnalyzeExactBeatsFuzzy(t *testing.T) {
	report := Analyze([]string{
		"lib/a/widget.dart",
		"lib/b/widget.dart",
		"test/a/widget_test.dart",
	})

	require.Len(t, report.Pairs, 1)
	assert.True(t, report.Pairs[0].Exact)
	assert.Equal(t, "lib/a/widget.dart", report.Pairs[0].Library)
	assert.Equal(t, []string{"lib/b/widget.dart"}, report.Untested)
}

func TestAnalyzeFuzzyFallback(t *testing.T) {
	report := Analyze([]string{
		"lib/src/models/user.dart",
		"test/unit/user_test.dart",
	})

	require.Len(t, report.Pairs, 1)
	assert.False(t, report.Pairs[0].Exact)
	assert.Equal(t, "test/unit/user_test.dart", report.Pairs[0].Test)
}

func TestAnalyzeSkipsGeneratedFiles(t *testing.T) {
	report := Analyze([]string{
		"lib/models/user.dart",
		"lib/models/user.g.dart",
		"lib/models/user.freezed.dart",
		"test/models/user_test.dart",
	})

	assert.Equal(t, 1, report.Total)
	assert.Equal(t, 1, report.Tested)
}

func TestAnalyzeOrphanTests(t *testing.T) {
	report := Analyze([]string{
		"lib/main.dart",
		"test/main_test.dart",
		"test/helpers/fake_clock_test.dart",
	})

	assert.Equal(t, []string{"test/helpers/fake_clock_test.dart"}, report.Orphans)
}

func TestAnalyzeEmptyTree(t *testing.T) {
	report := Analyze(nil)
	assert.Equal(t, 0, report.Total)
	assert.Equal(t, 0.0, report.Ratio)
}
