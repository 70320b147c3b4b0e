package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-crm/pkg/models"
	"github.com/ekaya-inc/ekaya-crm/pkg/rules"
)

func newTestContactService(repo *mockContactRepository) ContactService {
	return NewContactService(repo, &mockOpportunityRepository{}, &mockActivityRepository{}, "FR", zap.NewNop())
}

func TestContactService_Create_NormalizesPhone(t *testing.T) {
	repo := &mockContactRepository{}
	service := newTestContactService(repo)

	err := service.Create(context.Background(), &models.Contact{
		FirstName: "Marie",
		LastName:  "Curie",
		Phone:     "01 42 68 53 00",
	})
	require.NoError(t, err)
	assert.Equal(t, "+33142685300", repo.created.Phone)
}

func TestContactService_Update_KeepsUnparseablePhone(t *testing.T) {
	repo := &mockContactRepository{}
	service := newTestContactService(repo)

	err := service.Update(context.Background(), &models.Contact{
		ID:        uuid.New(),
		FirstName: "Marie",
		LastName:  "Curie",
		Phone:     "ask reception",
	})
	require.NoError(t, err)
	assert.Equal(t, "ask reception", repo.updated.Phone)
}

func TestContactService_Create_Validation(t *testing.T) {
	repo := &mockContactRepository{}
	service := newTestContactService(repo)

	err := service.Create(context.Background(), &models.Contact{FirstName: "Marie", LastName: "Curie", Email: "not-an-email"})
	var ve *apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
	assert.Nil(t, repo.created)
}

func TestContactService_List_FiltersByEnterprise(t *testing.T) {
	acme := uuid.New()
	repo := &mockContactRepository{list: []models.Contact{
		{ID: uuid.New(), FirstName: "A", LastName: "Zola", EnterpriseID: &acme},
		{ID: uuid.New(), FirstName: "B", LastName: "Hugo"},
		{ID: uuid.New(), FirstName: "C", LastName: "Balzac", EnterpriseID: &acme},
	}}
	service := newTestContactService(repo)

	list, err := service.List(context.Background(), rules.ContactQuery{EnterpriseID: &acme})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Balzac", list[0].LastName)
	assert.Equal(t, "Zola", list[1].LastName)
}
