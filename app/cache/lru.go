package cache

// LRUList maintains eviction order for keys of any comparable type. The
// front holds the most recently used key.
type LRUList[K comparable] struct {
	head  *lruNode[K]
	tail  *lruNode[K]
	nodes map[K]*lruNode[K]
}

type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

// NewLRUList creates an empty list
func NewLRUList[K comparable]() *LRUList[K] {
	head := &lruNode[K]{}
	tail := &lruNode[K]{}
	head.next = tail
	tail.prev = head

	return &LRUList[K]{
		head:  head,
		tail:  tail,
		nodes: make(map[K]*lruNode[K]),
	}
}

// Touch inserts key at the front, or moves it there if already present
func (l *LRUList[K]) Touch(key K) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		l.pushFront(node)
		return
	}

	node := &lruNode[K]{key: key}
	l.nodes[key] = node
	l.pushFront(node)
}

// Remove drops key from the list
func (l *LRUList[K]) Remove(key K) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		delete(l.nodes, key)
	}
}

// RemoveOldest removes and returns the least recently used key
func (l *LRUList[K]) RemoveOldest() (K, bool) {
	if len(l.nodes) == 0 {
		var zero K
		return zero, false
	}

	oldest := l.tail.prev
	l.unlink(oldest)
	delete(l.nodes, oldest.key)
	return oldest.key, true
}

// Len returns the number of tracked keys
func (l *LRUList[K]) Len() int {
	return len(l.nodes)
}

// Keys returns the keys from most to least recently used
func (l *LRUList[K]) Keys() []K {
	keys := make([]K, 0, len(l.nodes))
	for n := l.head.next; n != l.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

func (l *LRUList[K]) pushFront(node *lruNode[K]) {
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *LRUList[K]) unlink(node *lruNode[K]) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
