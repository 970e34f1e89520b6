package entity

import "time"

// Shop es la unidad de tenencia: posee productos, clientes y ventas.
type Shop struct {
	ID        string
	OwnerID   string // UserID del dueño
	Name      string
	Location  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
