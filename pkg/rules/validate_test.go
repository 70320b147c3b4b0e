package rules

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
)

func requireField(t *testing.T, err error, field string) {
	t.Helper()
	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.Equal(t, field, ve.Field)
}

func TestValidateEnterprise(t *testing.T) {
	tests := []struct {
		name  string
		ent   models.Enterprise
		field string
	}{
		{"valid minimal", models.Enterprise{Name: "Acme"}, ""},
		{"valid full", models.Enterprise{Name: "Acme", Revenue: ptr(0.0), Headcount: ptr(0)}, ""},
		{"blank name", models.Enterprise{Name: "   "}, "name"},
		{"negative revenue", models.Enterprise{Name: "Acme", Revenue: ptr(-1.0)}, "revenue"},
		{"NaN revenue", models.Enterprise{Name: "Acme", Revenue: ptr(math.NaN())}, "revenue"},
		{"infinite revenue", models.Enterprise{Name: "Acme", Revenue: ptr(math.Inf(1))}, "revenue"},
		{"negative headcount", models.Enterprise{Name: "Acme", Headcount: ptr(-3)}, "headcount"},
		// Name is checked before revenue.
		{"blank name and negative revenue", models.Enterprise{Name: "  ", Revenue: ptr(-5.0)}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEnterprise(&tt.ent)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			requireField(t, err, tt.field)
		})
	}
}

func TestValidateContact(t *testing.T) {
	tests := []struct {
		name    string
		contact models.Contact
		field   string
	}{
		{"valid", models.Contact{FirstName: "Ada", LastName: "Lovelace"}, ""},
		{"valid email", models.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}, ""},
		{"blank first name", models.Contact{FirstName: "\t", LastName: "Lovelace"}, "first_name"},
		{"blank last name", models.Contact{FirstName: "Ada", LastName: ""}, "last_name"},
		{"both blank reports first name", models.Contact{}, "first_name"},
		{"bad email", models.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email"}, "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContact(&tt.contact)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			requireField(t, err, tt.field)
		})
	}
}

func TestValidateOpportunity(t *testing.T) {
	ent := uuid.New()
	valid := func() models.Opportunity {
		return models.Opportunity{Title: "Renewal", EnterpriseID: &ent, Status: models.StatusProspecting}
	}

	tests := []struct {
		name   string
		mutate func(o *models.Opportunity)
		field  string
	}{
		{"valid", func(o *models.Opportunity) {}, ""},
		{"probability bounds", func(o *models.Opportunity) { o.Probability = ptr(100) }, ""},
		{"blank title", func(o *models.Opportunity) { o.Title = " " }, "title"},
		{"missing enterprise", func(o *models.Opportunity) { o.EnterpriseID = nil }, "enterprise_id"},
		{"negative amount", func(o *models.Opportunity) { o.Amount = ptr(-0.01) }, "amount"},
		{"NaN amount", func(o *models.Opportunity) { o.Amount = ptr(math.NaN()) }, "amount"},
		{"probability over 100", func(o *models.Opportunity) { o.Probability = ptr(101) }, "probability"},
		{"probability under 0", func(o *models.Opportunity) { o.Probability = ptr(-1) }, "probability"},
		{"unknown status", func(o *models.Opportunity) { o.Status = "gagne" }, "status"},
		{"title before enterprise", func(o *models.Opportunity) { o.Title = ""; o.EnterpriseID = nil }, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid()
			tt.mutate(&o)
			err := ValidateOpportunity(&o)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			requireField(t, err, tt.field)
		})
	}
}

func TestValidateActivity_Links(t *testing.T) {
	id := uuid.New()

	noLinks := models.Activity{Type: models.ActivityCall, Subject: "Follow up"}
	requireField(t, ValidateActivity(&noLinks), "links")

	for name, a := range map[string]models.Activity{
		"enterprise":  {Type: models.ActivityCall, Subject: "Follow up", EnterpriseID: &id},
		"contact":     {Type: models.ActivityCall, Subject: "Follow up", ContactID: &id},
		"opportunity": {Type: models.ActivityCall, Subject: "Follow up", OpportunityID: &id},
	} {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, ValidateActivity(&a))
		})
	}
}

func TestValidateActivity_Order(t *testing.T) {
	id := uuid.New()

	requireField(t, ValidateActivity(&models.Activity{Type: models.ActivityNote}), "subject")
	requireField(t, ValidateActivity(&models.Activity{Type: "fax", Subject: "x", ContactID: &id}), "type")
}

func TestValidateActivities_RejectsWholeBatch(t *testing.T) {
	id := uuid.New()
	batch := []*models.Activity{
		{Type: models.ActivityTask, Subject: "ok", EnterpriseID: &id},
		{Type: models.ActivityTask, Subject: "orphan"},
		{Type: models.ActivityTask, Subject: ""},
	}

	err := ValidateActivities(batch)
	require.Error(t, err)

	var be *BatchValidationError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, "links", be.Field)
	assert.True(t, apperrors.IsValidation(err))

	assert.NoError(t, ValidateActivities(batch[:1]))
	assert.NoError(t, ValidateActivities(nil))
}

func TestValidateActivities_NullEntry(t *testing.T) {
	id := uuid.New()
	batch := []*models.Activity{
		{Type: models.ActivityNote, Subject: "ok", ContactID: &id},
		nil,
	}

	var be *BatchValidationError
	require.True(t, errors.As(ValidateActivities(batch), &be))
	assert.Equal(t, 1, be.Index)
	assert.Equal(t, "activities", be.Field)
}

func TestValidateUser(t *testing.T) {
	requireField(t, ValidateUser(&models.User{Name: "Ada", Role: models.RoleSales}), "email")
	requireField(t, ValidateUser(&models.User{Email: "ada", Name: "Ada", Role: models.RoleSales}), "email")
	requireField(t, ValidateUser(&models.User{Email: "ada@example.com", Role: models.RoleSales}), "name")
	requireField(t, ValidateUser(&models.User{Email: "ada@example.com", Name: "Ada", Role: "commercial"}), "role")
	assert.NoError(t, ValidateUser(&models.User{Email: "ada@example.com", Name: "Ada", Role: models.RoleAdmin}))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+33142685300", NormalizePhone("01 42 68 53 00", "FR"))
	assert.Equal(t, "+33142685300", NormalizePhone("+33 1 42 68 53 00", "US"))
	assert.Equal(t, "call reception", NormalizePhone("  call reception ", "FR"))
	assert.Equal(t, "", NormalizePhone("   ", "FR"))
}
