package canopy

import "errors"

// Structural violations.
var (
	// ErrNilNode is returned when a nil node is passed to a tree operation.
	ErrNilNode = errors.New("nil node")
	// ErrHasParent is returned when attaching a node that already has a parent.
	ErrHasParent = errors.New("node already has a parent")
	// ErrDuplicateName is returned when a sibling with the same name exists.
	ErrDuplicateName = errors.New("duplicate sibling name")
	// ErrCycle is returned when an attachment would make a node its own ancestor.
	ErrCycle = errors.New("attachment would create a cycle")
	// ErrNotChild is returned when removing a node that is not a direct child.
	ErrNotChild = errors.New("node is not a direct child")
	// ErrFreed is returned when operating on a node that has been freed.
	ErrFreed = errors.New("node has been freed")
	// ErrBehaviorBound is returned when a behavior is already bound to another node.
	ErrBehaviorBound = errors.New("behavior already bound to a node")
)

// Missing registrations and lookups.
var (
	// ErrNodeNotFound is returned when a path does not resolve to a node.
	ErrNodeNotFound = errors.New("node not found")
	// ErrKindMismatch is returned when a resolved node lacks the expected kind.
	ErrKindMismatch = errors.New("node kind mismatch")
	// ErrDanglingRef is returned when a direct NodeRef's referent no longer exists.
	ErrDanglingRef = errors.New("node reference is dangling")
	// ErrSystemExists is returned when a system of the same type is already registered.
	ErrSystemExists = errors.New("system already registered")
	// ErrSystemNotFound is returned when a system is not registered.
	ErrSystemNotFound = errors.New("system not registered")
	// ErrGroupNotFound is returned when a group has never been created.
	ErrGroupNotFound = errors.New("group does not exist")
	// ErrManagerExists is returned when a manager of the same type is already registered.
	ErrManagerExists = errors.New("manager already registered")
	// ErrManagerNotFound is returned when a manager is not registered.
	ErrManagerNotFound = errors.New("manager not registered")
	// ErrInjectableExists is returned when a token already has a provider.
	ErrInjectableExists = errors.New("injectable already registered")
	// ErrInjectableNotFound is returned when a token has no provider.
	ErrInjectableNotFound = errors.New("injectable not registered")
)

// Invariant protection.
var (
	// ErrTransformLocked is returned when setting the transform of a node whose
	// transform is owned by a collaborator (e.g. a physics body).
	ErrTransformLocked = errors.New("node transform is locked")
)
