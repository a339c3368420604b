package content

// Node is one top-level record with its ordered children; nesting never
// exceeds one level.
type Node struct {
	Record
	Children []Record `json:"children,omitempty"`
}

// ResolveTree partitions a flat collection into ordered top-level nodes and,
// per node, its ordered children.
//
// A record whose ParentID references a missing id is surfaced as top-level
// rather than hidden: after a parent delete (which never cascades) admins can
// still see the orphan and re-home it, and the public nav degrades to showing
// the link instead of silently dropping it.
func ResolveTree(records []Record) []Node {
	byID := make(map[string]struct{}, len(records))
	for _, r := range records {
		byID[r.ID] = struct{}{}
	}

	var top []Record
	children := make(map[string][]Record)
	for _, r := range records {
		if r.ParentID == "" {
			top = append(top, r)
			continue
		}
		if _, ok := byID[r.ParentID]; !ok {
			top = append(top, r) // orphan fallback
			continue
		}
		children[r.ParentID] = append(children[r.ParentID], r)
	}

	SortRecords(top)
	nodes := make([]Node, 0, len(top))
	for _, r := range top {
		kids := children[r.ID]
		SortRecords(kids)
		nodes = append(nodes, Node{Record: r, Children: kids})
	}
	return nodes
}

// ResolvePublicTree resolves the tree over publicly renderable records only.
// Hidden parents hide their subtree: the children of a hidden parent keep a
// ParentID that no longer resolves within the filtered set, and the orphan
// fallback would resurface them, so they are filtered against the full set's
// parent visibility first.
func ResolvePublicTree(records []Record) []Node {
	visibleByID := make(map[string]bool, len(records))
	for _, r := range records {
		visibleByID[r.ID] = r.IsPublic()
	}

	public := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsPublic() {
			continue
		}
		if r.ParentID != "" {
			if vis, known := visibleByID[r.ParentID]; known && !vis {
				continue
			}
		}
		public = append(public, r)
	}
	return ResolveTree(public)
}
