package model

import "time"

// Product is a catalog item.
// Imagen holds the object key of an uploaded image or an external URL.
type Product struct {
	ID          string    `json:"id" csv:"id"`
	Nombre      string    `json:"nombre" csv:"nombre"`
	Precio      float64   `json:"precio" csv:"precio"`
	Descripcion string    `json:"descripcion" csv:"descripcion"`
	Categoria   string    `json:"categoria" csv:"categoria"`
	Existencia  int       `json:"existencia" csv:"existencia"`
	Imagen      string    `json:"imagen" csv:"imagen"`
	CreatedAt   time.Time `json:"created_at" csv:"-"`
	UpdatedAt   time.Time `json:"updated_at" csv:"-"`
}
