package terraform

import (
	"regexp"
	"strconv"
	"strings"
)

// ChangeSet summarizes a computed plan.
type ChangeSet struct {
	// Add, Change and Destroy are the resource counts from the plan summary.
	Add     int
	Change  int
	Destroy int
	// Raw is the full plan text as printed by the engine.
	Raw string
}

// Empty reports whether the plan contains no changes.
func (c *ChangeSet) Empty() bool {
	return c.Add == 0 && c.Change == 0 && c.Destroy == 0
}

// Summary returns a one-line human-readable form of the counts.
func (c *ChangeSet) Summary() string {
	if c.Empty() {
		return "no changes"
	}
	return strconv.Itoa(c.Add) + " to add, " + strconv.Itoa(c.Change) + " to change, " + strconv.Itoa(c.Destroy) + " to destroy"
}

// planSummaryRe matches terraform's "Plan: 1 to add, 0 to change, 0 to destroy." line.
var planSummaryRe = regexp.MustCompile(`Plan:\s+(\d+) to add,\s+(\d+) to change,\s+(\d+) to destroy`)

// ParseChangeSet extracts the change summary from plan output. Output with no
// summary line (e.g. "No changes. Infrastructure is up-to-date.") yields an
// empty ChangeSet.
func ParseChangeSet(raw string) *ChangeSet {
	cs := &ChangeSet{Raw: raw}
	m := planSummaryRe.FindStringSubmatch(raw)
	if len(m) != 4 {
		return cs
	}
	cs.Add = mustAtoi(m[1])
	cs.Change = mustAtoi(m[2])
	cs.Destroy = mustAtoi(m[3])
	return cs
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
