package model

import "time"

// Contact is an address book entry.
// Field names follow the Spanish vocabulary used by the agenda clients.
type Contact struct {
	ID        string    `json:"id" csv:"id"`
	Nombre    string    `json:"nombre" csv:"nombre"`
	Apellido  string    `json:"apellido" csv:"apellido"`
	Telefono  string    `json:"telefono" csv:"telefono"`
	Email     string    `json:"email" csv:"email"`
	CreatedAt time.Time `json:"created_at" csv:"-"`
	UpdatedAt time.Time `json:"updated_at" csv:"-"`
}

// FullName joins nombre and apellido, skipping empty parts.
func (c Contact) FullName() string {
	switch {
	case c.Apellido == "":
		return c.Nombre
	case c.Nombre == "":
		return c.Apellido
	default:
		return c.Nombre + " " + c.Apellido
	}
}
