package model

import (
	"fmt"
	"iter"
)

// Snapshots is an ordered set of a single dataset's snapshots: a doubly
// linked list sorted by creation, plus a name index. Snapshots are keyed by
// Name so that the source and backup copies of the same snapshot compare
// equal even though they live under different dataset paths.
type Snapshots struct {
	nodes map[string]*node
	head  *node
	tail  *node
}

type node struct {
	prev *node
	next *node
	val  *Snapshot
}

func NewSnapshots(snapshots ...*Snapshot) *Snapshots {
	snaps := &Snapshots{
		nodes: make(map[string]*node),
	}
	for _, snap := range snapshots {
		snaps.Add(snap)
	}
	return snaps
}

func (snaps *Snapshots) String() string {
	if snaps == nil || snaps.tail == nil {
		return "<no snaps>"
	}
	return fmt.Sprintf("%d → %s", snaps.Len(), snaps.tail.val.Name)
}

func (snaps *Snapshots) All() iter.Seq[*Snapshot] {
	return func(yield func(*Snapshot) bool) {
		if snaps == nil {
			return
		}
		for node := snaps.head; node != nil; node = node.next {
			if !yield(node.val) {
				return
			}
		}
	}
}

func (snaps *Snapshots) AllDesc() iter.Seq[*Snapshot] {
	return func(yield func(*Snapshot) bool) {
		if snaps == nil {
			return
		}
		for node := snaps.tail; node != nil; node = node.prev {
			if !yield(node.val) {
				return
			}
		}
	}
}

func (snaps *Snapshots) Add(snap *Snapshot) {
	// already added
	if _, has := snaps.nodes[snap.Name]; has {
		return
	}

	newNode := &node{
		val: snap,
	}

	// new head and tail (was empty)
	if snaps.head == nil {
		snaps.head = newNode
		snaps.tail = newNode
		snaps.nodes[snap.Name] = newNode
		return
	}

	// new head
	if snap.Less(snaps.head.val) {
		newNode.next = snaps.head
		snaps.head.prev = newNode
		snaps.head = newNode
		snaps.nodes[snap.Name] = newNode
		return
	}

	// new tail
	if snap.More(snaps.tail.val) {
		newNode.prev = snaps.tail
		snaps.tail.next = newNode
		snaps.tail = newNode
		snaps.nodes[snap.Name] = newNode
		return
	}

	// iter to find insertion
	var prev, current = snaps.head, snaps.head.next
	for current != nil && current.val.Less(snap) {
		prev, current = current, current.next
	}

	if current == nil {
		panic("oops")
	}

	newNode.next = current
	newNode.prev = prev
	prev.next = newNode
	current.prev = newNode
	snaps.nodes[snap.Name] = newNode
}

func (snaps *Snapshots) Del(snap *Snapshot) {
	node, hasNode := snaps.nodes[snap.Name]
	if !hasNode {
		return
	}

	if node == snaps.head {
		snaps.head = node.next
	}
	if node == snaps.tail {
		snaps.tail = node.prev
	}

	if node.prev != nil {
		node.prev.next = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	}

	delete(snaps.nodes, snap.Name)
	node.prev = nil
	node.next = nil
	node.val = nil
}

func (snaps *Snapshots) Has(snap *Snapshot) bool {
	if snaps == nil {
		return false
	}
	_, exists := snaps.nodes[snap.Name]
	return exists
}

func (snaps *Snapshots) HasName(name string) bool {
	if snaps == nil {
		return false
	}
	_, exists := snaps.nodes[name]
	return exists
}

func (snaps *Snapshots) Get(name string) *Snapshot {
	if snaps == nil {
		return nil
	}
	node, exists := snaps.nodes[name]
	if !exists {
		return nil
	}
	return node.val
}

func (snaps *Snapshots) Len() int {
	if snaps == nil {
		return 0
	}
	return len(snaps.nodes)
}

// Oldest returns the oldest Snapshot.
// It returns nil if there are no snapshots.
func (snaps *Snapshots) Oldest() *Snapshot {
	if snaps == nil || snaps.head == nil {
		return nil
	}
	return snaps.head.val
}

// Newest returns the newest Snapshot.
// It returns nil if there are no snapshots.
func (snaps *Snapshots) Newest() *Snapshot {
	if snaps == nil || snaps.tail == nil {
		return nil
	}
	return snaps.tail.val
}

func (snaps *Snapshots) Eq(other *Snapshots) bool {
	if snaps.Len() != other.Len() {
		return false
	}
	for snap := range snaps.All() {
		if !other.Has(snap) {
			return false
		}
	}
	return true
}

func (snaps *Snapshots) Intersection(other *Snapshots) *Snapshots {
	intersection := NewSnapshots()
	for snap := range snaps.All() {
		if other.Has(snap) {
			intersection.Add(snap)
		}
	}
	return intersection
}

func (snaps *Snapshots) Difference(other *Snapshots) *Snapshots {
	difference := NewSnapshots()
	for snap := range snaps.All() {
		if !other.Has(snap) {
			difference.Add(snap)
		}
	}
	return difference
}

func (snaps *Snapshots) Clone() *Snapshots {
	if snaps == nil {
		return nil
	}
	out := NewSnapshots()
	for snap := range snaps.All() {
		out.Add(snap)
	}
	return out
}
