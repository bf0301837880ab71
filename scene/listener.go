package scene

// ChangeType describes a children list mutation
type ChangeType int

const (
	ChildAdded ChangeType = iota
	ChildRemoved
)

func (c ChangeType) String() string {
	switch c {
	case ChildAdded:
		return "added"
	case ChildRemoved:
		return "removed"
	}
	return "unknown"
}

// SceneNodeListener is notified synchronously when a children list changes
// through the SceneNode API. Listeners must not mutate the tree.
type SceneNodeListener interface {
	OnChildChanged(parent *SceneNode, change ChangeType, child *SceneNode, index int)
}
