package game

import "errors"

var (
	// Construction
	ErrInvalidLength = errors.New("invalid block data length")

	// Range
	ErrOutOfRange = errors.New("coordinates out of range")

	// State
	ErrAlreadyPlaced = errors.New("entity already placed in a region")
	ErrNotPlaced     = errors.New("entity is not placed in a region")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrNotPresent    = errors.New("not present")
	ErrAlreadyLoaded = errors.New("region already loaded")
	ErrLinkConflict  = errors.New("conflicting region link")

	// Guard
	ErrExceedsRegionWidth = errors.New("cannot move an entity across more than one region")
)
