// Package models holds the shared reference tables specifications link
// against. These rows are read-only for the registry: they are seeded by
// migrations and referenced by specification children, never mutated here.
package models

import "specregistry/pkg/domain"

// CoreInvoiceTerm is one entry of the shared core invoice model. Its ID is
// the business-term identifier core elements reference.
type CoreInvoiceTerm struct {
	ID                  string  `json:"id"`
	BusinessTerm        string  `json:"businessTerm"`
	Level               string  `json:"level"`
	Cardinality         string  `json:"cardinality"`
	RowPos              int16   `json:"rowPos"`
	SemanticDescription *string `json:"semanticDescription,omitempty"`
	DataType            *string `json:"dataType,omitempty"`
	ParentID            *string `json:"parentId,omitempty"`
}

// ExtensionComponentHeader groups extension terms under one component.
type ExtensionComponentHeader struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status *string `json:"status,omitempty"`
	Link   *string `json:"link,omitempty"`
}

// ExtensionTerm is one entry of the extension component model, uniquely keyed
// by (ExtensionComponentID, BusinessTermID). Extension elements reference it
// by that composite.
type ExtensionTerm struct {
	ID                   domain.ElementID `json:"entityId"`
	ExtensionComponentID string           `json:"extensionComponentId"`
	BusinessTermID       string           `json:"businessTermId"`
	BusinessTerm         string           `json:"businessTerm"`
	Level                *string          `json:"level,omitempty"`
	Cardinality          *string          `json:"cardinality,omitempty"`
	SemanticDescription  *string          `json:"semanticDescription,omitempty"`
	DataType             *string          `json:"dataType,omitempty"`
	ExtensionType        *string          `json:"extensionType,omitempty"`
	ParentID             *string          `json:"parentId,omitempty"`
}
