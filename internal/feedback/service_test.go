package feedback

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/db/models"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

func TestFeedbackLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), logger.New(logger.Options{ServiceName: "feedback-test", Output: io.Discard}))
	require.NoError(t, err)
	ctx := context.Background()

	author := models.Profile{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Phone: "9876543210", Role: enums.RoleUser}
	require.NoError(t, conn.Create(&author).Error)

	created, err := svc.Create(ctx, author.ID, CreateInput{Type: "Complaint", Message: " late delivery "})
	require.NoError(t, err)
	assert.Equal(t, enums.FeedbackStatusPending, created.Status)
	assert.Equal(t, "late delivery", created.Message)

	mine, err := svc.ListMine(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	others, err := svc.ListMine(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, others)
	assert.Empty(t, others)

	page, err := svc.AdminList(ctx, AdminFilter{Status: "Pending"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "asha@example.com", page.Items[0].Author.Email)

	updated, err := svc.UpdateStatus(ctx, created.ID, "Resolved")
	require.NoError(t, err)
	assert.Equal(t, enums.FeedbackStatusResolved, updated.Status)

	page, err = svc.AdminList(ctx, AdminFilter{Status: "Pending"}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFeedbackValidation(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)), logger.New(logger.Options{ServiceName: "feedback-test", Output: io.Discard}))
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.Create(ctx, uuid.New(), CreateInput{Type: "Praise", Message: "hi"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.Create(ctx, uuid.New(), CreateInput{Type: "Feedback", Message: ""})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.UpdateStatus(ctx, uuid.New(), "Closed")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.UpdateStatus(ctx, uuid.New(), "Resolved")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AdminList(ctx, AdminFilter{Status: "Closed"}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = svc.AdminList(ctx, AdminFilter{Type: "Praise"}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestAdminListFiltersByTypeAndSearch(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), logger.New(logger.Options{ServiceName: "feedback-test", Output: io.Discard}))
	require.NoError(t, err)
	ctx := context.Background()

	asha := models.Profile{Name: "Asha", Email: "asha@example.com", PasswordHash: "x", Role: enums.RoleUser}
	ravi := models.Profile{Name: "Ravi", Email: "ravi@example.com", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, conn.Create(&asha).Error)
	require.NoError(t, conn.Create(&ravi).Error)

	_, err = svc.Create(ctx, asha.ID, CreateInput{Type: "Complaint", Message: "fan arrived broken"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ravi.ID, CreateInput{Type: "Feedback", Message: "great prices"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, ravi.ID, CreateInput{Type: "Complaint", Message: "late delivery"})
	require.NoError(t, err)

	page, err := svc.AdminList(ctx, AdminFilter{Type: "Complaint"}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.Equal(t, enums.FeedbackTypeComplaint, item.Type)
	}

	page, err = svc.AdminList(ctx, AdminFilter{Type: "Complaint"}, pagination.Params{Query: "RAVI"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "late delivery", page.Items[0].Message)

	page, err = svc.AdminList(ctx, AdminFilter{}, pagination.Params{Query: "broken"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "asha@example.com", page.Items[0].Author.Email)
}
