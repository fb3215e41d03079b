package service

import (
	"education-web/internal/models"
	"education-web/internal/utils"
)

// maxHierarchyDepth bounds ancestor walks. The tree is designed four levels
// deep; anything past this indicates corrupt parent links.
const maxHierarchyDepth = 8

// HierarchyStore is a flat, read-only index of the institution tree built
// from one bulk load. Traversal is iterative; parent links are never trusted
// to be cycle-free.
type HierarchyStore struct {
	nodes    map[int]models.Institution
	children map[int][]int
}

func NewHierarchyStore(institutions []models.Institution) *HierarchyStore {
	s := &HierarchyStore{
		nodes:    make(map[int]models.Institution, len(institutions)),
		children: make(map[int][]int),
	}
	for _, inst := range institutions {
		s.nodes[inst.ID] = inst
		if inst.ParentID != nil {
			s.children[*inst.ParentID] = append(s.children[*inst.ParentID], inst.ID)
		}
	}
	return s
}

// Node returns the institution for id, if present.
func (s *HierarchyStore) Node(id int) (models.Institution, bool) {
	inst, ok := s.nodes[id]
	return inst, ok
}

func (s *HierarchyStore) Len() int {
	return len(s.nodes)
}

// AllIDs returns every node id in the store.
func (s *HierarchyStore) AllIDs() []int {
	ids := make([]int, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Descendants returns rootID plus every node reachable through child edges.
// An unknown id yields an empty set: callers treat "not found" as "no
// access", not as an error. A cycle in the data is logged and skipped, the
// walk still terminates.
func (s *HierarchyStore) Descendants(rootID int) map[int]struct{} {
	result := make(map[int]struct{})
	if _, ok := s.nodes[rootID]; !ok {
		return result
	}

	queue := []int{rootID}
	result[rootID] = struct{}{}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, childID := range s.children[current] {
			if _, seen := result[childID]; seen {
				utils.GetLogger().WithFields(map[string]interface{}{
					"node_id":  childID,
					"ancestor": current,
				}).Warn("hierarchy contains a cycle, skipping revisit")
				continue
			}
			result[childID] = struct{}{}
			queue = append(queue, childID)
		}
	}

	return result
}

// AncestorPath returns the chain from the root down to nodeID. The walk is
// depth-guarded so corrupt parent links cannot loop forever; on guard
// violation the partial path collected so far is returned.
func (s *HierarchyStore) AncestorPath(nodeID int) []models.Institution {
	node, ok := s.nodes[nodeID]
	if !ok {
		return nil
	}

	// Collect node -> root, then reverse.
	chain := []models.Institution{node}
	seen := map[int]struct{}{nodeID: {}}

	current := node
	for depth := 0; current.ParentID != nil && depth < maxHierarchyDepth; depth++ {
		parent, ok := s.nodes[*current.ParentID]
		if !ok {
			break
		}
		if _, visited := seen[parent.ID]; visited {
			utils.GetLogger().WithField("node_id", parent.ID).Warn("parent chain contains a cycle, truncating path")
			break
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// ChildrenAt returns the nodes levelOffset generations beneath nodeID.
// Offset 1 is the direct children; offset 2 the grandchildren, and so on.
func (s *HierarchyStore) ChildrenAt(nodeID int, levelOffset int) []models.Institution {
	if levelOffset < 1 {
		return nil
	}

	frontier := []int{nodeID}
	seen := map[int]struct{}{nodeID: {}}

	for gen := 0; gen < levelOffset; gen++ {
		var next []int
		for _, id := range frontier {
			for _, childID := range s.children[id] {
				if _, visited := seen[childID]; visited {
					continue
				}
				seen[childID] = struct{}{}
				next = append(next, childID)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			return nil
		}
	}

	out := make([]models.Institution, 0, len(frontier))
	for _, id := range frontier {
		out = append(out, s.nodes[id])
	}
	return out
}

// ValidParentLevel reports whether child level directly extends the parent
// (level = parent.level + 1). Roots must sit at level 1.
func (s *HierarchyStore) ValidParentLevel(parentID *int, level int) bool {
	if parentID == nil {
		return level == models.LevelMinistry
	}
	parent, ok := s.nodes[*parentID]
	if !ok {
		return false
	}
	return level == parent.Level+1
}
