package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeWeightedCoverage() string {
	return `Combines code complexity with line coverage from a grcov JSON report (Coveralls or Covdir schema) to find code that is both complex and poorly tested.

USE WHEN:
- Deciding where new tests buy the most risk reduction
- Reviewing whether a change left complex code uncovered
- Comparing risk per file or per function across a project
- Gating a release on untested complexity

INTERPRETING RESULTS:
- Every unit gets four scores; higher is riskier
- wcc_plain: complexity weighted by the uncovered share (threshold 35)
- wcc_quantized: 1 or 2 depending on complexity (cut at 15), weighted by the uncovered share (threshold 1.5)
- crap: complexity^2 * uncovered^3 + complexity (threshold 35)
- skunk: complexity / 25 weighted by the uncovered share (threshold 30)
- A unit is complex when any score exceeds its threshold
- complex lists those units ranked by the sort key, riskiest first
- ignored lists units without usable coverage (no coverage data, zero coverable lines, unparsable, unreadable, no functions)
- project_coverage pools covered and coverable lines of all scored units

METRICS RETURNED:
- Per unit: path, function and lines (functions mode), sloc, ploc, covered, complexity, coverage, the four scores, is_complex
- Summary: count, complex count, mean / p90 / max of every score
- Ignored units with reasons, the ranked complex subset and project coverage`
}
