package meta

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

const memStoreBtreeDegree = 32

type kvItem struct {
	key   []byte
	value []byte
}

func (i *kvItem) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(*kvItem).key) < 0
}

// MemStore is an in-memory Store keeping one ordered tree per column
// family. It backs tests and single-process deployments; a replicated
// store satisfies the same interface in production.
type MemStore struct {
	lock sync.RWMutex
	cfs  map[string]*btree.BTree
}

func NewMemStore() *MemStore {
	return &MemStore{cfs: make(map[string]*btree.BTree)}
}

func (s *MemStore) tree(cf string) *btree.BTree {
	t, ok := s.cfs[cf]
	if !ok {
		t = btree.New(memStoreBtreeDegree)
		s.cfs[cf] = t
	}
	return t
}

func (s *MemStore) GetCF(cf string, key []byte) ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	t, ok := s.cfs[cf]
	if !ok {
		return nil, ErrNotFound
	}
	item := t.Get(&kvItem{key: key})
	if item == nil {
		return nil, ErrNotFound
	}
	return cloneBytes(item.(*kvItem).value), nil
}

func (s *MemStore) PutCF(cf string, key, value []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tree(cf).ReplaceOrInsert(&kvItem{key: cloneBytes(key), value: cloneBytes(value)})
	return nil
}

func (s *MemStore) DeleteCF(cf string, key []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if t, ok := s.cfs[cf]; ok {
		t.Delete(&kvItem{key: key})
	}
	return nil
}

// ScanCF iterates [startKey, limitKey) in key order. A nil startKey scans
// from the beginning, a nil limitKey to the end. The iterator holds a
// snapshot taken at creation time.
func (s *MemStore) ScanCF(cf string, startKey, limitKey []byte) Iterator {
	s.lock.RLock()
	defer s.lock.RUnlock()

	it := &memIterator{pos: -1}
	t, ok := s.cfs[cf]
	if !ok {
		return it
	}
	collect := func(item btree.Item) bool {
		kv := item.(*kvItem)
		if limitKey != nil && bytes.Compare(kv.key, limitKey) >= 0 {
			return false
		}
		it.pairs = append(it.pairs, kvItem{key: cloneBytes(kv.key), value: cloneBytes(kv.value)})
		return true
	}
	if startKey != nil {
		t.AscendGreaterOrEqual(&kvItem{key: startKey}, collect)
	} else {
		t.Ascend(collect)
	}
	return it
}

func (s *MemStore) NewBatch() Batch {
	return &memBatch{store: s}
}

func (s *MemStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cfs = make(map[string]*btree.BTree)
	return nil
}

type memIterator struct {
	pairs []kvItem
	pos   int
}

func (it *memIterator) Next() bool {
	if it.pos+1 >= len(it.pairs) {
		return false
	}
	it.pos++
	return true
}

func (it *memIterator) Key() []byte {
	return it.pairs[it.pos].key
}

func (it *memIterator) Value() []byte {
	return it.pairs[it.pos].value
}

func (it *memIterator) Error() error {
	return nil
}

func (it *memIterator) Release() {
	it.pairs = nil
	it.pos = -1
}

type memMutation struct {
	cf     string
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	store     *MemStore
	lock      sync.Mutex
	mutations []memMutation
}

func (b *memBatch) Put(cf string, key, value []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mutations = append(b.mutations, memMutation{
		cf:    cf,
		key:   cloneBytes(key),
		value: cloneBytes(value),
	})
}

func (b *memBatch) Delete(cf string, key []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.mutations = append(b.mutations, memMutation{cf: cf, key: cloneBytes(key), delete: true})
}

func (b *memBatch) Commit() error {
	b.lock.Lock()
	mutations := b.mutations
	b.mutations = nil
	b.lock.Unlock()
	if len(mutations) == 0 {
		return nil
	}

	b.store.lock.Lock()
	defer b.store.lock.Unlock()
	for _, m := range mutations {
		t := b.store.tree(m.cf)
		if m.delete {
			t.Delete(&kvItem{key: m.key})
		} else {
			t.ReplaceOrInsert(&kvItem{key: m.key, value: m.value})
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
