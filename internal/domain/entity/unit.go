package entity

// Unit unidad de medida global (pcs, kg, l...). Nombre único.
type Unit struct {
	ID   string
	Name string
}
