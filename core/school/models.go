package school

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/myschool-rw/myschool/core"
)

// sosCode is the school code that switches on the car-management features.
const sosCode = "sos"

// IsSOS reports whether a school with this code and name gets the car-management features:
// its trimmed code equals "sos" or its name contains "sos", both case-insensitive.
func IsSOS(code, name string) bool {
	return core.CleanString(code, true /* lower */) == sosCode ||
		strings.Contains(strings.ToLower(name), sosCode)
}

type School struct {
	ID        int       `json:"id"`
	Name      string    `json:"school_name"`
	Code      string    `json:"school_code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// IsSOS reads the school's current code and name on every call; the flag is never stored.
func (s School) IsSOS() bool {
	return IsSOS(s.Code, s.Name)
}

// NewSchool contains information needed to register a new School.
type NewSchool struct {
	Name string `json:"school_name" validate:"required,notblank"`
	Code string `json:"school_code" validate:"required,alphanum_"`
}

func (ns *NewSchool) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Name, ns.Code)
}

// UpdateSchool defines what information may be provided to modify an existing School.
type UpdateSchool struct {
	Name     string `json:"school_name"`
	Code     string `json:"school_code" validate:"omitempty,alphanum_"`
	IsActive *bool  `json:"is_active"`
}

func (us *UpdateSchool) Validate(ctx context.Context, orig School, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	if code := core.CleanString(us.Code); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Name, us.Code, orig)
}

// GetFilter selects a single School, by ID or by case-insensitive Name.
type GetFilter struct {
	ID   int
	Name string
}
