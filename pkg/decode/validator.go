// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package decode

import (
	"fmt"

	"github.com/Thermoquad/fitscope/pkg/fit"
)

// AnomalyType represents different kinds of record anomalies
type AnomalyType int

const (
	AnomalyUnknownMessage AnomalyType = iota
	AnomalyUnknownField
	AnomalyInvalidValue
	AnomalyUnnamedEnum
)

// String returns the anomaly name used in reports
func (a AnomalyType) String() string {
	switch a {
	case AnomalyUnknownMessage:
		return "unknown_message"
	case AnomalyUnknownField:
		return "unknown_field"
	case AnomalyInvalidValue:
		return "invalid_value"
	case AnomalyUnnamedEnum:
		return "unnamed_enum"
	default:
		return fmt.Sprintf("anomaly(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler
func (a AnomalyType) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ValidationError represents one anomaly found in a resolved record
type ValidationError struct {
	Type    AnomalyType            `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateRecord reports anomalies in a resolved record.
// Returns an empty slice if nothing stood out.
func ValidateRecord(rec Record) []ValidationError {
	errors := []ValidationError{}

	if !rec.Known {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnknownMessage,
			Message: fmt.Sprintf("Message %s not in profile", rec.Kind),
			Details: map[string]interface{}{"kind": rec.Kind, "fields": len(rec.Fields)},
		})
	}

	for _, f := range rec.Fields {
		if rec.Known && !f.Known {
			errors = append(errors, ValidationError{
				Type:    AnomalyUnknownField,
				Message: fmt.Sprintf("Field %d of %s not in profile", f.Number, rec.Kind),
				Details: map[string]interface{}{"kind": rec.Kind, "def_number": f.Number},
			})
		}
		if !f.Valid() {
			errors = append(errors, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("%s.%s holds the invalid value of %s", rec.Kind, f.Name, f.BaseType()),
				Details: map[string]interface{}{"kind": rec.Kind, "field": f.Name, "base_type": f.BaseType().String()},
			})
			continue
		}
		errors = append(errors, validateEnum(rec, f)...)
	}

	return errors
}

// validateEnum flags enum values with no named variant. They stay valid.
func validateEnum(rec Record, f Field) []ValidationError {
	if !f.Enum || f.Label != "" || f.RawValue.Type() != fit.TypeEnum {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyUnnamedEnum,
		Message: fmt.Sprintf("%s.%s value %s has no name in %s", rec.Kind, f.Name, f.RawValue, f.TypeName),
		Details: map[string]interface{}{"kind": rec.Kind, "field": f.Name, "type": f.TypeName, "value": f.RawValue.Uint()},
	}}
}

// ValidateDocument validates every record in order
func ValidateDocument(doc *Document) []ValidationError {
	all := []ValidationError{}
	for _, rec := range doc.Records {
		all = append(all, ValidateRecord(rec)...)
	}
	return all
}
