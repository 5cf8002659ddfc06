// Package provider defines how creature data is fetched from an upstream service.
package provider

import (
	"context"

	"github.com/darkcaves/dragonites/pkg/models"
)

// NamedRef identifies an upstream resource by id and name.
type NamedRef struct {
	ID   int
	Name string
}

// Page is one page of an upstream listing. Count is the upstream total.
type Page struct {
	Count   int
	Results []NamedRef
}

// CreatureSource fetches normalized creature records and listings.
// Errors are *TransportError, *SchemaError, or wrap ErrNotFound.
type CreatureSource interface {
	FetchCreature(ctx context.Context, id int) (models.CreatureRecord, error)
	ListSpecies(ctx context.Context, limit int) ([]NamedRef, error)
	ListCreatures(ctx context.Context, limit, offset int) (Page, error)
	ListByType(ctx context.Context, typeName string) ([]NamedRef, error)
}
