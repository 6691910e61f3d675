package ecs

import "errors"

var (
	ErrUnboundIdentity      = errors.New("ecs: entity id is not set")
	ErrInvalidIdentity      = errors.New("ecs: entity id must be a non-nil string or integer")
	ErrIdentityAlreadyBound = errors.New("ecs: entity id is already set")
	ErrTagConflict          = errors.New("ecs: component tag is bound to a different type")
	ErrComponentNotFound    = errors.New("ecs: component not found")
	ErrNoEngineBound        = errors.New("ecs: family has no engine")
)
