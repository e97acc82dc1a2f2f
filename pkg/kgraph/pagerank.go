package kgraph

import "strings"

// Default PageRank tuning, left unspecified by the spec; chosen to match the
// conventional networkx/pagerank defaults (see SPEC_FULL.md open question 3).
const (
	DefaultDamping    = 0.85
	DefaultMaxIter    = 100
	DefaultTolerance  = 1e-6
)

// WeightFunc scores an edge for one PageRank pass. pass is false for the
// forward pass (x calls y) and true for the reverse pass.
type WeightFunc func(e *KGEdge, pass bool) float64

// TestBiasWeight implements the weight function from spec section 4.6: edges
// into a test-named file get a strong bias under OnlyTests, a small one
// otherwise; edges that agree with the current pass direction and carry a
// propagation-worthy type get full weight; everything else gets a trickle.
//
// "test-named" is a substring check against the first underscore-delimited
// segment of the target file's full path — target_file.split("_")[0] from
// the source this design is modeled after (SPEC_FULL.md open question 2),
// not a path-component or prefix match.
func TestBiasWeight(onlyTests bool) WeightFunc {
	return func(e *KGEdge, pass bool) float64 {
		if isTestTargetFile(e.DstFile) {
			if onlyTests {
				return 1.0
			}
			return 0.1
		}
		if onlyTests {
			return 0.01
		}
		effectiveReverse := pass != e.Reverse
		if effectiveReverse && isPropagating(e.Type) {
			return 1.0
		}
		return 0.01
	}
}

func isPropagating(t EdgeType) bool {
	switch t {
	case EdgeCall, EdgeClassRef, EdgeTestCoverage:
		return true
	default:
		return false
	}
}

func isTestTargetFile(file string) bool {
	return strings.Contains(strings.SplitN(file, "_", 2)[0], "test")
}

// PageRank runs personalized PageRank over the graph's current edge set.
// personalization seeds the teleport distribution; nodes absent from it get
// zero initial bias. reversePass selects which of the two passes described in
// spec section 4.6 this call represents (it only affects weightFn's view of
// edge direction — traversal itself always follows forward adjacency so both
// passes see the same edge set, mirrored by construction).
//
// Returns the rank vector and whether the power iteration converged within
// DefaultMaxIter steps to DefaultTolerance. On non-convergence the caller
// should fall back to personalization directly (spec section 4.6 step 4,
// GraphNotConverged in section 7).
func (g *Graph) PageRank(personalization map[int]float64, reversePass bool, weightFn WeightFunc) (map[int]float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		nodes = append(nodes, id)
	}
	n := len(nodes)
	if n == 0 {
		return map[int]float64{}, true
	}

	var pSum float64
	for _, v := range personalization {
		pSum += v
	}
	p := make(map[int]float64, n)
	for _, id := range nodes {
		if pSum > 0 {
			p[id] = personalization[id] / pSum
		} else {
			p[id] = 1.0 / float64(n)
		}
	}

	// weighted out-degree per node for normalizing transition probability.
	outWeight := make(map[int]float64, n)
	for _, id := range nodes {
		var sum float64
		for _, e := range g.out[id] {
			sum += weightFn(e, reversePass)
		}
		outWeight[id] = sum
	}

	rank := make(map[int]float64, n)
	for _, id := range nodes {
		rank[id] = p[id]
	}

	converged := false
	for iter := 0; iter < DefaultMaxIter; iter++ {
		next := make(map[int]float64, n)
		var danglingMass float64
		for _, id := range nodes {
			if outWeight[id] == 0 {
				danglingMass += rank[id]
			}
		}
		for _, id := range nodes {
			next[id] = (1-DefaultDamping)*p[id] + DefaultDamping*danglingMass*p[id]
		}
		for _, id := range nodes {
			w := outWeight[id]
			if w == 0 {
				continue
			}
			contribution := DefaultDamping * rank[id] / w
			for _, e := range g.out[id] {
				next[e.Dst] += contribution * weightFn(e, reversePass)
			}
		}

		var delta float64
		for _, id := range nodes {
			d := next[id] - rank[id]
			if d < 0 {
				d = -d
			}
			delta += d
		}
		rank = next
		if delta < DefaultTolerance {
			converged = true
			break
		}
	}

	return rank, converged
}
