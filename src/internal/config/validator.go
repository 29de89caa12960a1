package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// ValidateConfig validates the entire configuration and returns all validation errors
func (c *Config) ValidateConfig() error {
	var validationErrors ValidationErrors

	if err := validate.Struct(c); err != nil {
		validationErrors = append(validationErrors, convertValidatorErrors(err, "", "")...)
	}

	if len(c.IPSets) == 0 {
		validationErrors = append(validationErrors, ValidationError{
			FieldPath: "ipsets",
			Message:   "configuration must contain at least one ipset",
		})
	} else {
		validationErrors = append(validationErrors, c.validateIPSets()...)
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

func (c *Config) validateIPSets() ValidationErrors {
	var validationErrors ValidationErrors

	// Track duplicates per kernel namespace: ipset names are global,
	// nft set names are scoped by family and table.
	seenTargets := make(map[string]bool)

	for i, def := range c.IPSets {
		if def == nil {
			validationErrors = append(validationErrors, ValidationError{
				FieldPath: fmt.Sprintf("ipsets.%d", i),
				Message:   "empty ipset definition",
			})
			continue
		}

		itemName := def.Name
		if itemName == "" {
			itemName = fmt.Sprintf("ipset[%d]", i)
		}
		fieldPrefix := fmt.Sprintf("ipsets.%d", i)

		// Validate struct fields
		if err := validate.Struct(def); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, fieldPrefix, itemName)...)
		}

		switch def.Backend.Normalized() {
		case BackendIPSet:
			if def.Family != "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fieldPrefix + ".family",
					Message:   "family can only be used with the nft backend",
				})
			}
			if def.Table != "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fieldPrefix + ".table",
					Message:   "table can only be used with the nft backend",
				})
			}
			if len(def.TempName(c.TempSuffix)) > MaxIPSetNameLength {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fieldPrefix + ".name",
					Message: fmt.Sprintf("name with temp-suffix (%s) exceeds %d characters",
						def.TempName(c.TempSuffix), MaxIPSetNameLength),
				})
			}
		case BackendNFT:
			if def.Table == "" {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fieldPrefix + ".table",
					Message:   "table is required for the nft backend",
				})
			}
		}

		target := fmt.Sprintf("%s/%s/%s/%s", def.Backend.Normalized(), def.GetFamily(), def.Table, def.Name)
		if def.IsIPSet() {
			target = fmt.Sprintf("%s/%s", BackendIPSet, def.Name)
		}
		if seenTargets[target] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPrefix + ".name",
				Message:   fmt.Sprintf("duplicate set definition: %s", def.Name),
			})
		}
		seenTargets[target] = true

		if def.IsIPSet() && c.TempSuffix != "" {
			// Two definitions whose names differ only by the suffix would
			// share a scratch set during the swap.
			for j, other := range c.IPSets {
				if j != i && other != nil && other.IsIPSet() && other.Name == def.TempName(c.TempSuffix) {
					validationErrors = append(validationErrors, ValidationError{
						ItemName:  itemName,
						FieldPath: fieldPrefix + ".name",
						Message:   fmt.Sprintf("temporary set name %s collides with ipset %s", def.TempName(c.TempSuffix), other.Name),
					})
				}
			}
		}

		// Validate source exists
		if def.Source != "" {
			path := c.GetAbsSourcePath(def)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: fieldPrefix + ".source",
					Message:   fmt.Sprintf("file does not exist: %s", path),
				})
			}
		}
	}

	return validationErrors
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			fieldPath := fieldPrefix
			if e.Field() != "" {
				// e.Field() returns the TOML tag name because we registered TagNameFunc
				if fieldPrefix != "" {
					fieldPath = fieldPrefix + "." + e.Field()
				} else {
					fieldPath = e.Field()
				}
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
