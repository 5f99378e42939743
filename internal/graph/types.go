package graph

import "fmt"

// Scope is the visibility or origin of a node.
type Scope string

const (
	ScopeContract Scope = "contract"
	ScopePublic   Scope = "public"
	ScopePrivate  Scope = "private"
	ScopeTrait    Scope = "trait"
	ScopePayable  Scope = "payable"
)

// Scopes lists every scope in declaration order.
var Scopes = []Scope{ScopeContract, ScopePublic, ScopePrivate, ScopeTrait, ScopePayable}

func (s Scope) String() string { return string(s) }

func (s Scope) Valid() bool {
	for _, v := range Scopes {
		if v == s {
			return true
		}
	}
	return false
}

// ParseScope converts a stored scope back to its typed value.
func ParseScope(v string) (Scope, error) {
	s := Scope(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown scope %q", v)
	}
	return s, nil
}

// Action is the behavioural classification of a node.
type Action string

const (
	ActionNone     Action = "none"
	ActionEvent    Action = "event"
	ActionMutation Action = "mutation"
	ActionProcess  Action = "process"
	ActionView     Action = "view"
)

var Actions = []Action{ActionNone, ActionEvent, ActionMutation, ActionProcess, ActionView}

func (a Action) String() string { return string(a) }

func (a Action) Valid() bool {
	for _, v := range Actions {
		if v == a {
			return true
		}
	}
	return false
}

func ParseAction(v string) (Action, error) {
	a := Action(v)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", v)
	}
	return a, nil
}

// ConnectionKind classifies the edge between a caller context and a node.
type ConnectionKind string

const (
	DirectConnection        ConnectionKind = "direct"
	CrossContractConnection ConnectionKind = "cross_contract"
	Emission                ConnectionKind = "emission"
)

var ConnectionKinds = []ConnectionKind{DirectConnection, CrossContractConnection, Emission}

func (k ConnectionKind) String() string { return string(k) }

func (k ConnectionKind) Valid() bool {
	for _, v := range ConnectionKinds {
		if v == k {
			return true
		}
	}
	return false
}

func ParseConnectionKind(v string) (ConnectionKind, error) {
	k := ConnectionKind(v)
	if !k.Valid() {
		return "", fmt.Errorf("unknown connection kind %q", v)
	}
	return k, nil
}

// Node is a classified function in the hierarchy tree.
// A node owns its connections; no node is reachable through two connections.
type Node struct {
	Name        string       `json:"name"`
	Scope       Scope        `json:"scope"`
	Action      Action       `json:"action"`
	Connections []Connection `json:"connections"`
}

// Connection is a typed edge to the node it owns.
type Connection struct {
	Kind ConnectionKind `json:"kind"`
	Node *Node          `json:"node"`
}
