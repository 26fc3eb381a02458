package models

import "specregistry/pkg/pagination"

// ChildPages carries the independent page selections for the three child
// collections of a detail read.
type ChildPages struct {
	Core                   pagination.Params
	Extension              pagination.Params
	AdditionalRequirements pagination.Params
}

// SpecificationDetails is a specification plus one page of each child
// collection.
type SpecificationDetails struct {
	Specification
	CoreElements           pagination.PagedResult[CoreElement]           `json:"coreInvoiceModelElements"`
	ExtensionElements      pagination.PagedResult[ExtensionElement]      `json:"extensionModelElements"`
	AdditionalRequirements pagination.PagedResult[AdditionalRequirement] `json:"additionalRequirements"`
}
