package matching

// Match is a resolved candidate.
type Match struct {
	Name       string
	Index      int
	Similarity int
}

// Index holds candidate names with their normalized keys so repeated
// lookups against the same list normalize each candidate once.
type Index struct {
	names []string
	keys  []string
}

func NewIndex(names []string) *Index {
	idx := &Index{
		names: make([]string, len(names)),
		keys:  make([]string, len(names)),
	}
	copy(idx.names, names)
	for i, n := range names {
		idx.keys[i] = Normalize(n)
	}
	return idx
}

func (idx *Index) Len() int {
	return len(idx.names)
}

// Best returns the highest scoring candidate for target when its score is at
// least threshold. An exact normalized match returns at once with 100. On
// equal scores the earliest candidate wins.
func (idx *Index) Best(target string, threshold int) (Match, bool) {
	key := Normalize(target)
	if key == "" {
		return Match{}, false
	}

	best := Match{Index: -1, Similarity: -1}
	for i, candidate := range idx.keys {
		if candidate == key {
			if threshold > 100 {
				return Match{}, false
			}
			return Match{Name: idx.names[i], Index: i, Similarity: 100}, true
		}

		score := similarityNormalized(key, candidate)
		if score > best.Similarity {
			best = Match{Name: idx.names[i], Index: i, Similarity: score}
		}
	}

	if best.Index < 0 || best.Similarity < threshold {
		return Match{}, false
	}
	return best, true
}

// FindBestMatch resolves target against candidates. See Index.Best.
func FindBestMatch(target string, candidates []string, threshold int) (Match, bool) {
	return NewIndex(candidates).Best(target, threshold)
}
