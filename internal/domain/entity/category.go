package entity

import "time"

// Category agrupa productos dentro de una tienda.
type Category struct {
	ID        string
	ShopID    string
	Name      string
	CreatedAt time.Time
}
