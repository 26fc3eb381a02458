package service

import (
	"fmt"
	"strings"

	"specregistry/internal/specification/models"
	dErrors "specregistry/pkg/domain-errors"
)

// validateSpecification checks the fields every registration must carry.
// Optional columns are not policed here; the stores accept NULLs for them.
func validateSpecification(spec *models.Specification) error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("specificationIdentifier", spec.Identifier)
	require("specificationName", spec.Name)
	require("sector", spec.Sector)
	require("purpose", spec.Purpose)
	require("contactInformation", spec.ContactInformation)
	require("specificationType", spec.Type)
	require("conformanceLevel", spec.ConformanceLevel)

	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}

func validateCoreElement(el *models.CoreElement) error {
	if strings.TrimSpace(el.BusinessTermID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "businessTermId is required")
	}
	if strings.TrimSpace(el.Cardinality) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "cardinality is required")
	}
	return nil
}

func validateExtensionElement(el *models.ExtensionElement) error {
	if strings.TrimSpace(el.ExtensionComponentID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "extensionComponentId is required")
	}
	if strings.TrimSpace(el.BusinessTermID) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "businessTermId is required")
	}
	if strings.TrimSpace(el.Cardinality) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "cardinality is required")
	}
	return nil
}

func validateAdditionalRequirement(req *models.AdditionalRequirement) error {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("businessTermId", req.BusinessTermID)
	require("businessTermName", req.BusinessTermName)
	require("level", req.Level)
	require("cardinality", req.Cardinality)

	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	return nil
}
