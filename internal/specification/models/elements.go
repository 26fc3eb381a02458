package models

import (
	refmodels "specregistry/internal/refmodel/models"
	"specregistry/pkg/domain"
)

// CoreElement links a specification to one entry of the shared core invoice
// model. Many core elements may reference the same shared entry.
type CoreElement struct {
	ID              domain.ElementID       `json:"entityId"`
	SpecificationID domain.SpecificationID `json:"identityId"`
	BusinessTermID  string                 `json:"businessTermId"`
	Cardinality     string                 `json:"cardinality"`
	UsageNote       *string                `json:"usageNote,omitempty"`
	TypeOfChange    string                 `json:"typeOfChange"`

	// Term is the referenced shared-model entry, loaded eagerly on reads so
	// listings can render term names without per-row lookups.
	Term *refmodels.CoreInvoiceTerm `json:"coreInvoiceModel,omitempty"`
}

// ExtensionElement links a specification to one entry of the extension
// component model by its (component, business term) composite.
type ExtensionElement struct {
	ID                   domain.ElementID       `json:"entityId"`
	SpecificationID      domain.SpecificationID `json:"identityId"`
	ExtensionComponentID string                 `json:"extensionComponentId"`
	BusinessTermID       string                 `json:"businessTermId"`
	Cardinality          string                 `json:"cardinality"`
	UsageNote            *string                `json:"usageNote,omitempty"`
	Justification        *string                `json:"justification,omitempty"`
	TypeOfExtension      string                 `json:"typeOfExtension"`

	Term *refmodels.ExtensionTerm `json:"extensionModelElement,omitempty"`
}

// AdditionalRequirement describes a requirement outside the shared models.
// It has no surrogate ID: the natural key is (SpecificationID,
// BusinessTermID), so a specification holds at most one additional
// requirement per business term.
type AdditionalRequirement struct {
	SpecificationID     domain.SpecificationID `json:"identityId"`
	BusinessTermID      string                 `json:"businessTermId"`
	BusinessTermName    string                 `json:"businessTermName"`
	Level               string                 `json:"level"`
	Cardinality         string                 `json:"cardinality"`
	RowPos              int16                  `json:"rowPos"`
	SemanticDescription *string                `json:"semanticDescription,omitempty"`
	UsageNote           *string                `json:"usageNote,omitempty"`
	DataType            *string                `json:"dataType,omitempty"`
	BusinessRules       *string                `json:"businessRules,omitempty"`
	TypeOfChange        string                 `json:"typeOfChange"`
}
