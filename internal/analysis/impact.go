package analysis

import (
	"path/filepath"

	"contractmap/internal/git"
	"contractmap/internal/ir"
)

// ImpactReport lists the top-level functions touched by a change set.
type ImpactReport struct {
	// DirectlyAffected functions have changed lines inside their body.
	DirectlyAffected []*ir.FunctionRecord
	// Callers reach a directly affected function through their inner calls.
	Callers []*ir.FunctionRecord
}

// Empty reports whether nothing was affected.
func (r *ImpactReport) Empty() bool {
	return len(r.DirectlyAffected) == 0 && len(r.Callers) == 0
}

// Names returns the affected function names, direct first, without duplicates.
func (r *ImpactReport) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]*ir.FunctionRecord{r.DirectlyAffected, r.Callers} {
		for _, fn := range list {
			if !seen[fn.Name] {
				seen[fn.Name] = true
				out = append(out, fn.Name)
			}
		}
	}
	return out
}

type recordKey struct {
	path string
	line int
	name string
}

func keyOf(r *ir.FunctionRecord) recordKey {
	return recordKey{path: normalize(r.Evidence.Filepath), line: r.Evidence.StartLine, name: r.Name}
}

// AffectedFunctions matches changes against the evidence of the contract's
// top-level functions, then collects the callers of every affected function.
func AffectedFunctions(contract ir.ContractRecord, changes []git.ChangedFile) *ImpactReport {
	report := &ImpactReport{
		DirectlyAffected: []*ir.FunctionRecord{},
		Callers:          []*ir.FunctionRecord{},
	}
	all := contract.AllFunctions()

	direct := make(map[recordKey]bool)
	for _, fn := range all {
		if fn == nil || direct[keyOf(fn)] {
			continue
		}
		for _, change := range changes {
			if samePath(fn.Evidence.Filepath, change.Path) && isAffected(fn.Evidence, change.ChangedLines) {
				direct[keyOf(fn)] = true
				report.DirectlyAffected = append(report.DirectlyAffected, fn)
				break
			}
		}
	}
	if len(direct) == 0 {
		return report
	}

	seen := make(map[recordKey]bool)
	for _, fn := range all {
		if fn == nil || direct[keyOf(fn)] || seen[keyOf(fn)] {
			continue
		}
		if reaches(fn.InnerCalls, direct) {
			seen[keyOf(fn)] = true
			report.Callers = append(report.Callers, fn)
		}
	}
	return report
}

func reaches(calls []*ir.FunctionRecord, targets map[recordKey]bool) bool {
	for _, c := range calls {
		if c == nil {
			continue
		}
		if targets[keyOf(c)] || reaches(c.InnerCalls, targets) {
			return true
		}
	}
	return false
}

func isAffected(ev ir.Evidence, lines []int) bool {
	for _, line := range lines {
		if ev.Contains(line) {
			return true
		}
	}
	return false
}

// samePath compares the crawl-relative evidence path with a changed path,
// both made absolute. git reports paths anchored at the repository top level.
func samePath(evidence, changed string) bool {
	e, c := resolve(evidence), resolve(changed)
	return e != "" && e == c
}

// resolve makes p absolute and follows symlinks when p exists.
func resolve(p string) string {
	if p == "" {
		return ""
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return ""
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

func normalize(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
