package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FlatNode is one tree node addressed by a stable ID, for storage and export.
// Kind and ParentID are empty for the root.
type FlatNode struct {
	ID       string         `json:"id"`
	ParentID string         `json:"parent_id,omitempty"`
	Position int            `json:"position"`
	Depth    int            `json:"depth"`
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Scope    Scope          `json:"scope"`
	Action   Action         `json:"action"`
	Kind     ConnectionKind `json:"kind,omitempty"`
}

// Flatten lists every node of root in depth-first order.
func Flatten(source string, root *Node) []FlatNode {
	if root == nil {
		return nil
	}
	var out []FlatNode
	flatten(source, root, "", "", "0", 0, 0, &out)
	return out
}

func flatten(source string, n *Node, kind ConnectionKind, parent, path string, pos, depth int, out *[]FlatNode) {
	id := BuildStableNodeID(source, path, n.Name)
	*out = append(*out, FlatNode{
		ID:       id,
		ParentID: parent,
		Position: pos,
		Depth:    depth,
		Path:     path,
		Name:     n.Name,
		Scope:    n.Scope,
		Action:   n.Action,
		Kind:     kind,
	})
	for i, c := range n.Connections {
		flatten(source, c.Node, c.Kind, id, path+"."+strconv.Itoa(i), i, depth+1, out)
	}
}

// BuildStableNodeID derives a deterministic ID from the analysed source, the
// positional path of the node and its name. Names alone are not unique.
func BuildStableNodeID(source, path, name string) string {
	fingerprint := strings.Join([]string{
		strings.TrimSpace(source),
		path,
		strings.TrimSpace(name),
	}, "|")
	sum := sha256.Sum256([]byte(fingerprint))
	return fmt.Sprintf("%s:%s", path, hex.EncodeToString(sum[:8]))
}

// Rebuild reverses Flatten. Input order does not matter; siblings are ordered by Position.
func Rebuild(flat []FlatNode) (*Node, error) {
	if len(flat) == 0 {
		return nil, fmt.Errorf("no nodes to rebuild")
	}

	nodes := make(map[string]*Node, len(flat))
	children := make(map[string][]FlatNode)
	var root *FlatNode
	for i := range flat {
		f := flat[i]
		if _, dup := nodes[f.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %s", f.ID)
		}
		nodes[f.ID] = &Node{Name: f.Name, Scope: f.Scope, Action: f.Action}
		if f.ParentID == "" {
			if root != nil {
				return nil, fmt.Errorf("multiple roots: %s and %s", root.ID, f.ID)
			}
			root = &flat[i]
			continue
		}
		children[f.ParentID] = append(children[f.ParentID], f)
	}
	if root == nil {
		return nil, fmt.Errorf("no root node")
	}

	linked := 1
	for parentID, kids := range children {
		parent, ok := nodes[parentID]
		if !ok {
			return nil, fmt.Errorf("node %s references missing parent %s", kids[0].ID, parentID)
		}
		sort.Slice(kids, func(i, j int) bool { return kids[i].Position < kids[j].Position })
		parent.Connections = make([]Connection, 0, len(kids))
		for _, k := range kids {
			parent.Connections = append(parent.Connections, Connection{Kind: k.Kind, Node: nodes[k.ID]})
			linked++
		}
	}

	// a parent cycle leaves nodes unreachable from the root
	reached := 0
	Walk(nodes[root.ID], func(*Node, ConnectionKind, int) bool {
		reached++
		return reached <= len(flat)
	})
	if reached != len(flat) || linked != len(flat) {
		return nil, fmt.Errorf("rebuilt tree is not connected: %d of %d nodes reachable", reached, len(flat))
	}

	return nodes[root.ID], nil
}
