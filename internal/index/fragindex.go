package index

import (
	"cmp"

	"github.com/google/btree"
)

// fragmentRecord is an element of the fragment index (component C). Per
// spec §9's recommended design, the tree order is (text, key) only — score
// never participates, so a score change never requires removing and
// re-inserting fragment records from the tree.
//
// boundary is non-zero only for synthetic records built to bound a
// AscendRange query; it never appears in the tree itself.
type fragmentRecord[K cmp.Ordered, V any] struct {
	text     string
	key      K
	boundary int8
	record   *entryRecord[K, V]
}

func (r *fragmentRecord[K, V]) Less(than btree.Item) bool {
	o := than.(*fragmentRecord[K, V])
	if r.text != o.text {
		return r.text < o.text
	}
	if r.boundary != o.boundary {
		return r.boundary < o.boundary
	}
	return r.key < o.key
}

// fragmentIndex is the ordered (text, key) set backing range scans over
// normalized prefixes. It is not safe for concurrent use on its own; the
// façade in index.go serializes access to it under the shared RWMutex.
type fragmentIndex[K cmp.Ordered, V any] struct {
	tree *btree.BTree
}

const btreeDegree = 32

func newFragmentIndex[K cmp.Ordered, V any]() *fragmentIndex[K, V] {
	return &fragmentIndex[K, V]{tree: btree.New(btreeDegree)}
}

func (fi *fragmentIndex[K, V]) insert(text string, rec *entryRecord[K, V]) {
	fi.tree.ReplaceOrInsert(&fragmentRecord[K, V]{text: text, key: rec.key, record: rec})
}

func (fi *fragmentIndex[K, V]) remove(text string, key K) {
	fi.tree.Delete(&fragmentRecord[K, V]{text: text, key: key})
}

// removeAll removes every fragment record belonging to rec.
func (fi *fragmentIndex[K, V]) removeAll(rec *entryRecord[K, V]) {
	for _, f := range rec.fragments {
		fi.remove(f, rec.key)
	}
}

// insertAll inserts every fragment record belonging to rec.
func (fi *fragmentIndex[K, V]) insertAll(rec *entryRecord[K, V]) {
	for _, f := range rec.fragments {
		fi.insert(f, rec)
	}
}

// succ computes p with its last codepoint replaced by the next codepoint,
// as required for constructing the half-open prefix range [p, succ(p)).
// Callers must never invoke this with an empty prefix.
func succ(p string) string {
	r := []rune(p)
	r[len(r)-1] = r[len(r)-1] + 1
	return string(r)
}

// ascendPrefix walks every fragment record whose text is in [prefix,
// succ(prefix)) in ascending (text, key) order, calling visit for each. It
// stops early if visit returns false. prefix must be non-empty.
func (fi *fragmentIndex[K, V]) ascendPrefix(prefix string, visit func(rec *entryRecord[K, V]) bool) {
	lo := &fragmentRecord[K, V]{text: prefix, boundary: -1}
	hi := &fragmentRecord[K, V]{text: succ(prefix), boundary: -1}
	fi.tree.AscendRange(lo, hi, func(item btree.Item) bool {
		return visit(item.(*fragmentRecord[K, V]).record)
	})
}

// ascendAll walks every fragment record in ascending (text, key) order.
// Used only by internal tests exercising the "empty prefix scans the whole
// index" primitive described in spec §4.C; the public Autocomplete entry
// point never reaches this (it short-circuits empty queries per spec §7).
func (fi *fragmentIndex[K, V]) ascendAll(visit func(rec *entryRecord[K, V]) bool) {
	fi.tree.Ascend(func(item btree.Item) bool {
		return visit(item.(*fragmentRecord[K, V]).record)
	})
}

func (fi *fragmentIndex[K, V]) len() int {
	return fi.tree.Len()
}
