package domain

// GroupTarget says where a starred post goes: a group that is created with a
// generated name, or an existing (or implicitly created) named group.
type GroupTarget struct {
	name      string
	createNew bool
}

// NewGroup targets a fresh group whose name is generated at commit time.
func NewGroup() GroupTarget {
	return GroupTarget{createNew: true}
}

// ExistingGroup targets the group with the given case-sensitive name.
func ExistingGroup(name string) GroupTarget {
	return GroupTarget{name: name}
}

// CreateNew reports whether a name must be generated.
func (t GroupTarget) CreateNew() bool { return t.createNew }

// Name is the target group name; empty when CreateNew is true.
func (t GroupTarget) Name() string { return t.name }
