package domain

import "time"

// Category is a flat classification target configured per property. The
// keyword vocabulary drives automatic classification; code and name feed the
// override menus.
type Category struct {
	ID         string
	PropertyID string
	Code       string
	Name       string
	Keywords   []string
	CreatedAt  time.Time
}
