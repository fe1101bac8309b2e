package freqman

import "github.com/google/btree"

const indexDegree = 8

type indexItem struct {
	freq Frequency
	pos  int
}

func lessIndexItem(a, b indexItem) bool {
	if a.freq != b.freq {
		return a.freq < b.freq
	}
	return a.pos < b.pos
}

// frequencyIndex maps point frequencies (Single, HamRadio receive and
// Repeater frequencies) to entry positions. Ranges are not indexed.
type frequencyIndex struct {
	tree *btree.BTreeG[indexItem]
}

func buildIndex(entries []Entry) *frequencyIndex {
	idx := &frequencyIndex{tree: btree.NewG(indexDegree, lessIndexItem)}
	for pos, e := range entries {
		if e.IsList() {
			idx.tree.ReplaceOrInsert(indexItem{freq: e.FrequencyA, pos: pos})
		}
	}
	return idx
}

// first returns the lowest position holding f.
func (idx *frequencyIndex) first(f Frequency) (int, bool) {
	found, pos := false, 0
	idx.tree.AscendGreaterOrEqual(indexItem{freq: f, pos: -1}, func(item indexItem) bool {
		if item.freq == f {
			found, pos = true, item.pos
		}
		return false
	})
	return pos, found
}

func (idx *frequencyIndex) len() int {
	return idx.tree.Len()
}
