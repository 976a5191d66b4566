package catalog

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/angelmondragon/warehouse-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/warehouse-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultMaterial = "Unknown"

// Spec is the input for creating a catalog entry. Only the date or clothing
// fields matching Kind are used.
type Spec struct {
	Kind           enums.ProductKind `json:"kind" validate:"required,oneof=food electronic clothing"`
	Name           string            `json:"name" validate:"required"`
	Price          decimal.Decimal   `json:"price" validate:"gt=0"`
	Quantity       int               `json:"quantity" validate:"min=0"`
	Description    string            `json:"description"`
	ExpirationDate time.Time         `json:"expiration_date"`
	WarrantyDate   time.Time         `json:"warranty_date"`
	Size           string            `json:"size" validate:"required_if=Kind clothing"`
	Color          string            `json:"color" validate:"required_if=Kind clothing"`
	Material       string            `json:"material"`
}

var validate = newValidator()

// newBarCode is swapped in tests that need predictable codes.
var newBarCode = uuid.NewString

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// New validates spec and builds an entry with a fresh bar code. now is the
// creation instant; expiration and warranty dates must not precede its day.
func New(spec Spec, now time.Time) (*Entry, error) {
	normalized := spec.normalize()
	if err := validate.Struct(normalized); err != nil {
		return nil, formatValidationErrors(err)
	}
	// decimal precision beyond float64 could slip past gt=0
	if !normalized.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive value").
			WithDetails(map[string]string{"price": "must be greater than 0"})
	}

	details, err := normalized.details(Day(now))
	if err != nil {
		return nil, err
	}

	return &Entry{
		BarCode:     newBarCode(),
		Name:        normalized.Name,
		Price:       normalized.Price,
		BasePrice:   normalized.Price,
		Quantity:    normalized.Quantity,
		Description: normalized.Description,
		CreatedAt:   now,
		Details:     details,
	}, nil
}

func (s Spec) normalize() Spec {
	s.Kind = enums.ProductKind(strings.ToLower(strings.TrimSpace(string(s.Kind))))
	s.Name = strings.TrimSpace(s.Name)
	s.Description = strings.TrimSpace(s.Description)
	s.Size = strings.TrimSpace(s.Size)
	s.Color = strings.TrimSpace(s.Color)
	s.Material = strings.TrimSpace(s.Material)
	return s
}

func (s Spec) details(today time.Time) (Variant, error) {
	switch s.Kind {
	case enums.ProductKindFood:
		date, err := validityDate("expiration_date", "Expiration date", s.ExpirationDate, today)
		if err != nil {
			return nil, err
		}
		return Food{ExpirationDate: date}, nil
	case enums.ProductKindElectronic:
		date, err := validityDate("warranty_date", "Warranty date", s.WarrantyDate, today)
		if err != nil {
			return nil, err
		}
		return Electronic{WarrantyDate: date}, nil
	case enums.ProductKindClothing:
		material := s.Material
		if material == "" {
			material = DefaultMaterial
		}
		return Clothing{Size: s.Size, Color: s.Color, Material: material}, nil
	}
	return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid product kind %q", s.Kind)
}

func validityDate(field, label string, value, today time.Time) (time.Time, error) {
	if value.IsZero() {
		return time.Time{}, pkgerrors.Newf(pkgerrors.CodeValidation, "%s is required", label).
			WithDetails(map[string]string{field: "is required"})
	}
	day := Day(value)
	if day.Before(today) {
		return time.Time{}, pkgerrors.Newf(pkgerrors.CodeValidation, "%s %s is in the past", label, FormatDate(day)).
			WithDetails(map[string]string{field: "must not be before " + FormatDate(today)})
	}
	return day, nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}
