// Package suite holds the bundled end-to-end cases for the trust test app.
package suite

import (
	"sort"
	"strings"

	"github.com/devicelab-dev/mobile-harness/pkg/harness"
)

// All returns every bundled case in declaration order.
func All() []harness.Case {
	var all []harness.Case
	all = append(all, loginCases()...)
	all = append(all, listCases()...)
	all = append(all, buttonsCases()...)
	all = append(all, switchesCases()...)
	all = append(all, inputCases()...)
	return all
}

// ByName returns the case with the given name.
func ByName(name string) (harness.Case, bool) {
	for _, c := range All() {
		if c.Name == name {
			return c, true
		}
	}
	return harness.Case{}, false
}

// Filter keeps cases whose name or group matches one of only
// (case-insensitive). An empty filter keeps everything.
func Filter(cases []harness.Case, only []string) []harness.Case {
	if len(only) == 0 {
		return cases
	}
	var out []harness.Case
	for _, c := range cases {
		for _, o := range only {
			if strings.EqualFold(o, c.Name) || strings.EqualFold(o, c.Group) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Groups returns the distinct group names, sorted.
func Groups() []string {
	seen := map[string]bool{}
	var groups []string
	for _, c := range All() {
		if !seen[c.Group] {
			seen[c.Group] = true
			groups = append(groups, c.Group)
		}
	}
	sort.Strings(groups)
	return groups
}

type expectation struct {
	ok  func() bool
	msg string
}

func expect(ok func() bool, msg string) expectation {
	return expectation{ok: ok, msg: msg}
}

// verify evaluates expectations in order and stops at the first false one.
func verify(t *harness.T, exps ...expectation) error {
	for _, e := range exps {
		if err := t.Check(e.ok(), "%s", e.msg); err != nil {
			return err
		}
	}
	return nil
}
