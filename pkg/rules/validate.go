// Package rules holds the CRM domain rules: payload validation, opportunity
// status transitions and the aggregations behind the dashboard and pipeline.
// Every function is pure; the current date is always passed in.
package rules

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

// validate is safe for concurrent use and caches nothing per payload.
var validate = validator.New()

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validAmount(v *float64) bool {
	if v == nil {
		return true
	}
	return !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

// ValidateEnterprise checks an enterprise payload. Checks run in a fixed order
// and the first failure is returned.
func ValidateEnterprise(e *models.Enterprise) error {
	if blank(e.Name) {
		return apperrors.NewValidationError("name", "name is required")
	}
	if !validAmount(e.Revenue) {
		return apperrors.NewValidationError("revenue", "revenue must be a non-negative number")
	}
	if e.Headcount != nil && *e.Headcount < 0 {
		return apperrors.NewValidationError("headcount", "headcount must be a non-negative integer")
	}
	return nil
}

// ValidateContact checks a contact payload.
func ValidateContact(c *models.Contact) error {
	if blank(c.FirstName) {
		return apperrors.NewValidationError("first_name", "first name is required")
	}
	if blank(c.LastName) {
		return apperrors.NewValidationError("last_name", "last name is required")
	}
	if !blank(c.Email) {
		if err := validate.Var(strings.TrimSpace(c.Email), "email"); err != nil {
			return apperrors.NewValidationError("email", "email is not a valid address")
		}
	}
	return nil
}

// ValidateOpportunity checks an opportunity payload.
func ValidateOpportunity(o *models.Opportunity) error {
	if blank(o.Title) {
		return apperrors.NewValidationError("title", "title is required")
	}
	if o.EnterpriseID == nil {
		return apperrors.NewValidationError("enterprise_id", "enterprise is required")
	}
	if !validAmount(o.Amount) {
		return apperrors.NewValidationError("amount", "amount must be a non-negative number")
	}
	if o.Probability != nil && (*o.Probability < 0 || *o.Probability > 100) {
		return apperrors.NewValidationError("probability", "probability must be between 0 and 100")
	}
	if !o.Status.IsValid() {
		return apperrors.NewValidationError("status", "unknown status")
	}
	return nil
}

// ValidateActivity checks an activity payload. An activity must be linked to
// an enterprise, a contact or an opportunity.
func ValidateActivity(a *models.Activity) error {
	if blank(a.Subject) {
		return apperrors.NewValidationError("subject", "subject is required")
	}
	if !a.HasLink() {
		return apperrors.NewValidationError("links", "activity must be linked to an enterprise, a contact or an opportunity")
	}
	if !a.Type.IsValid() {
		return apperrors.NewValidationError("type", "unknown activity type")
	}
	return nil
}

// BatchValidationError identifies which payload of a batch failed.
type BatchValidationError struct {
	Index int
	*apperrors.ValidationError
}

func (e *BatchValidationError) Error() string {
	return fmt.Sprintf("activity %d: %s", e.Index, e.ValidationError.Error())
}

func (e *BatchValidationError) Unwrap() error {
	return e.ValidationError
}

// ValidateActivities validates every payload of a batch once, stopping at the
// first failure. Callers must not write anything unless it returns nil.
func ValidateActivities(acts []*models.Activity) error {
	for i, a := range acts {
		if a == nil {
			return &BatchValidationError{Index: i, ValidationError: apperrors.NewValidationError("activities", "activity payload is empty")}
		}
		if err := ValidateActivity(a); err != nil {
			return &BatchValidationError{Index: i, ValidationError: err.(*apperrors.ValidationError)}
		}
	}
	return nil
}

// ValidateUser checks a user payload.
func ValidateUser(u *models.User) error {
	if blank(u.Email) {
		return apperrors.NewValidationError("email", "email is required")
	}
	if err := validate.Var(strings.TrimSpace(u.Email), "email"); err != nil {
		return apperrors.NewValidationError("email", "email is not a valid address")
	}
	if blank(u.Name) {
		return apperrors.NewValidationError("name", "name is required")
	}
	if !models.IsValidRole(u.Role) {
		return apperrors.NewValidationError("role", "role must be admin or sales")
	}
	return nil
}

// NormalizePhone returns phone in E.164 form when it parses as a valid number
// for region. Anything else is returned trimmed but otherwise untouched.
func NormalizePhone(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	p, err := libphonenumber.Parse(phone, region)
	if err != nil || !libphonenumber.IsValidNumber(p) {
		return phone
	}
	return libphonenumber.Format(p, libphonenumber.E164)
}
