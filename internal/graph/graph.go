package graph

import (
	"fmt"
	"strings"

	"contractmap/internal/ir"
)

// DefaultRootName names the synthetic root when the contract has no name.
const DefaultRootName = "Contract"

// PreconditionError reports an input record that breaks the record contract.
// Path lists the record names from the top level down to the offending record.
type PreconditionError struct {
	Path   []string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("malformed function record at %s: %s", strings.Join(e.Path, " > "), e.Reason)
}

// BuildHierarchy assembles the rooted tree for a contract.
// Functions of every unit are concatenated in unit order before building.
// Nothing is returned on failure.
func BuildHierarchy(contract ir.ContractRecord) (*Node, error) {
	name := strings.TrimSpace(contract.Name)
	if name == "" {
		name = DefaultRootName
	}

	b := newBuilder(name)
	conns, err := b.connections(contract.AllFunctions())
	if err != nil {
		return nil, err
	}

	return &Node{
		Name:        name,
		Scope:       ScopeContract,
		Action:      ActionNone,
		Connections: conns,
	}, nil
}

// BuildConnections turns an ordered record list into an ordered connection list.
func BuildConnections(records []*ir.FunctionRecord) ([]Connection, error) {
	return newBuilder(DefaultRootName).connections(records)
}

// builder tracks the records on the current call path so a record reachable
// from itself is reported instead of recursing forever.
type builder struct {
	path   []string
	onPath map[*ir.FunctionRecord]bool
}

func newBuilder(root string) *builder {
	return &builder{
		path:   []string{root},
		onPath: make(map[*ir.FunctionRecord]bool),
	}
}

func (b *builder) connections(records []*ir.FunctionRecord) ([]Connection, error) {
	conns := make([]Connection, 0, len(records))
	for i, r := range records {
		node, kind, err := b.node(i, r)
		if err != nil {
			return nil, err
		}
		conns = append(conns, Connection{Kind: kind, Node: node})
	}
	return conns, nil
}

func (b *builder) node(pos int, r *ir.FunctionRecord) (*Node, ConnectionKind, error) {
	if r == nil {
		return nil, "", b.fail(fmt.Sprintf("#%d", pos), "nil record")
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, "", b.fail(fmt.Sprintf("#%d", pos), "empty name")
	}
	if b.onPath[r] {
		return nil, "", b.fail(r.Name, "record calls itself through its inner calls")
	}

	c := Classify(r)

	b.onPath[r] = true
	b.path = append(b.path, r.Name)
	inner, err := b.connections(r.InnerCalls)
	b.path = b.path[:len(b.path)-1]
	delete(b.onPath, r)
	if err != nil {
		return nil, "", err
	}

	return &Node{
		Name:        r.Name,
		Scope:       c.Scope,
		Action:      c.Action,
		Connections: inner,
	}, c.Kind, nil
}

func (b *builder) fail(at, reason string) error {
	path := make([]string, 0, len(b.path)+1)
	path = append(path, b.path...)
	path = append(path, at)
	return &PreconditionError{Path: path, Reason: reason}
}
