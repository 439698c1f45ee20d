// Package coverage pairs Dart library files with their test files and
// summarizes how much of a repository's lib/ tree has tests at all. The
// heuristic is purely structural; it never parses Dart.
package coverage

import (
	"path"
	"sort"
	"strings"
)

// Pair links a library file to the test file covering it.
type Pair struct {
	Library string `json:"library"`
	Test    string `json:"test"`
	Exact   bool   `json:"exact"`
}

// Report summarizes the pairing over one repository tree.
type Report struct {
	Pairs    []Pair   `json:"pairs"`
	Untested []string `json:"untested"`
	Orphans  []string `json:"orphans"` // test files with no matching library
	Total    int      `json:"total"`
	Tested   int      `json:"tested"`
	Ratio    float64  `json:"ratio"`
}

// generated file suffixes that never warrant a hand-written test.
var generatedSuffixes = []string{".g.dart", ".freezed.dart", ".gr.dart", ".mocks.dart"}

func isGenerated(p string) bool {
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}

func isLibraryFile(p string) bool {
	return strings.HasPrefix(p, "lib/") && strings.HasSuffix(p, ".dart") && !isGenerated(p)
}

func isTestFile(p string) bool {
	return strings.HasPrefix(p, "test/") && strings.HasSuffix(p, "_test.dart")
}

// expectedTestPath mirrors lib/a/b.dart to test/a/b_test.dart.
func expectedTestPath(library string) string {
	rel := strings.TrimPrefix(library, "lib/")
	return "test/" + strings.TrimSuffix(rel, ".dart") + "_test.dart"
}

// testBasename returns the library basename a test file claims to cover:
// test/x/y_test.dart covers some y.dart.
func testBasename(test string) string {
	base := path.Base(test)
	return strings.TrimSuffix(base, "_test.dart") + ".dart"
}

// Analyze pairs library files with test files. Exact mirror paths win;
// remaining tests match any library sharing their basename. Each test file
// is consumed by at most one library.
func Analyze(paths []string) *Report {
	var libraries []string
	testSet := make(map[string]bool)
	for _, p := range paths {
		switch {
		case isLibraryFile(p):
			libraries = append(libraries, p)
		case isTestFile(p):
			testSet[p] = true
		}
	}
	sort.Strings(libraries)

	report := &Report{Total: len(libraries)}

	// Exact mirror matches first so a fuzzy match never steals them.
	unmatched := make([]string, 0, len(libraries))
	for _, lib := range libraries {
		expected := expectedTestPath(lib)
		if testSet[expected] {
			report.Pairs = append(report.Pairs, Pair{Library: lib, Test: expected, Exact: true})
			delete(testSet, expected)
			continue
		}
		unmatched = append(unmatched, lib)
	}

	// Fuzzy pass: match by basename anywhere under test/.
	byBasename := make(map[string][]string)
	for test := range testSet {
		name := testBasename(test)
		byBasename[name] = append(byBasename[name], test)
	}
	for _, tests := range byBasename {
		sort.Strings(tests)
	}

	for _, lib := range unmatched {
		name := path.Base(lib)
		if tests := byBasename[name]; len(tests) > 0 {
			test := tests[0]
			byBasename[name] = tests[1:]
			delete(testSet, test)
			report.Pairs = append(report.Pairs, Pair{Library: lib, Test: test})
			continue
		}
		report.Untested = append(report.Untested, lib)
	}

	for test := range testSet {
		report.Orphans = append(report.Orphans, test)
	}
	sort.Strings(report.Orphans)

	report.Tested = len(report.Pairs)
	if report.Total > 0 {
		report.Ratio = float64(report.Tested) / float64(report.Total)
	}
	return report
}
