package terpene

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrInvalidCatalog = errors.New("invalid terpene catalog")
	ErrLoadCatalog    = errors.New("load terpene catalog failed")
	ErrUnknownTerpene = errors.New("unknown terpene")
	ErrUnknownFlavor  = errors.New("unknown flavor")
)
