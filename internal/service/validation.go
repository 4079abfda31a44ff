package service

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"facilityops/internal/model"

	"github.com/go-playground/validator/v10"
)

// RequisitionForm is the header part of a requisition as entered by the requester.
type RequisitionForm struct {
	PropertyID           string         `json:"property_id" validate:"required,uuid"`
	Priority             model.Priority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	ExpectedDeliveryDate string         `json:"expected_delivery_date" validate:"omitempty,datetime=2006-01-02"`
	Notes                string         `json:"notes" validate:"max=2000"`
	// ClientKey is the optional Idempotency-Key header of the request.
	ClientKey string `json:"-" validate:"max=200"`
}

// ItemInput is one requested line. Name, category, unit and limit are
// refreshed from the item master before the row is written.
type ItemInput struct {
	ItemMasterID string `json:"item_master_id" validate:"required,uuid"`
	ItemName     string `json:"item_name"`
	CategoryName string `json:"category_name"`
	Unit         string `json:"unit"`
	UnitLimit    int    `json:"unit_limit" validate:"gte=1"`
	Quantity     int    `json:"quantity" validate:"gte=1"`
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons,omitempty"`
}

// Err converts a failed result into a *ValidationError.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return newValidationError(r.Reasons...)
}

type requisitionPayload struct {
	Form  RequisitionForm
	Items []ItemInput `json:"items" validate:"min=1,dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(itemStructLevelValidation, ItemInput{})
	return v
}

func itemStructLevelValidation(sl validator.StructLevel) {
	item := sl.Current().Interface().(ItemInput)
	if item.UnitLimit >= 1 && item.Quantity > item.UnitLimit {
		sl.ReportError(item.Quantity, "quantity", "Quantity", "lte_unit_limit", strconv.Itoa(item.UnitLimit))
	}
}

// Validate checks a requisition without touching storage.
func Validate(form RequisitionForm, items []ItemInput) ValidationResult {
	err := validate.Struct(requisitionPayload{Form: form, Items: items})
	if err == nil {
		return ValidationResult{Valid: true}
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationResult{Valid: false, Reasons: []string{err.Error()}}
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, describeFieldError(fe))
	}
	return ValidationResult{Valid: false, Reasons: reasons}
}

// fieldPath turns "requisitionPayload.Form.property_id" into "property_id"
// and "requisitionPayload.items[0].quantity" into "items[0].quantity".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	if len(parts) > 1 && parts[0] == "Form" {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		if field == "property_id" {
			return "a property must be selected"
		}
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", field)
	case "min":
		if field == "items" {
			return "at least one item is required"
		}
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte_unit_limit":
		return fmt.Sprintf("%s %v exceeds the unit limit of %s", field, fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
