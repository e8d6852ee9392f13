package evaluator

// Match quality per parameter position. Exact beats promoted beats
// wildcard; "most specific declared type wins over wildcard" is the
// documented tie-break policy.
const (
	matchExact    = 2
	matchPromoted = 1
	matchWildcard = 0
)

// matchParam scores how well an argument tag satisfies a parameter
// descriptor. The single fixed numeric promotion is an integer argument
// against a float parameter.
func matchParam(param, arg ValueType) (int, bool) {
	switch {
	case param == arg:
		return matchExact, true
	case param == AnyType:
		return matchWildcard, true
	case param == FloatType && arg == IntType:
		return matchPromoted, true
	}
	return 0, false
}

// Resolve selects the best overload of name in the namespace at path
// (nil for global) for the given argument tags. Resolution is
// deterministic and independent of registration order: candidates are
// scored positionally, compared by total score, then lexicographically
// by per-position score, and finally by signature key.
//
// Qualified (non-global) lookups see only public functions.
func (r *Registry) Resolve(path []string, name string, argTags []ValueType) (*Function, *Error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespace(path)
	if !ok {
		return nil, newFunctionNotFound(name, argTags)
	}

	var best *Function
	var bestScores []int
	qualified := len(path) > 0

	for _, fn := range ns.functions {
		if fn.Sig.Name != name || len(fn.Sig.Params) != len(argTags) {
			continue
		}
		if qualified && fn.Visibility == Private {
			continue
		}
		scores := make([]int, len(argTags))
		matched := true
		for i, p := range fn.Sig.Params {
			s, ok := matchParam(p.Type, argTags[i])
			if !ok {
				matched = false
				break
			}
			scores[i] = s
		}
		if !matched {
			continue
		}
		if best == nil || betterMatch(scores, fn, bestScores, best) {
			best, bestScores = fn, scores
		}
	}

	if best == nil {
		return nil, newFunctionNotFound(name, argTags)
	}
	return best, nil
}

func betterMatch(scores []int, fn *Function, bestScores []int, best *Function) bool {
	total, bestTotal := 0, 0
	for i := range scores {
		total += scores[i]
		bestTotal += bestScores[i]
	}
	if total != bestTotal {
		return total > bestTotal
	}
	for i := range scores {
		if scores[i] != bestScores[i] {
			return scores[i] > bestScores[i]
		}
	}
	// Identical score vectors can only come from distinct keys (an
	// identical key overwrites). Order by key so the winner never
	// depends on registration order.
	return fn.Sig.Key() < best.Sig.Key()
}

// HasOverload reports whether any registered function could dispatch
// the call. The Simple optimization level uses it to leave overridden
// operators unfolded.
func (r *Registry) HasOverload(name string, argTags []ValueType) bool {
	_, err := r.Resolve(nil, name, argTags)
	return err == nil
}
