package address

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	"github.com/Abhijit5011/Electromart/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	client := dbtest.OpenClient(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)
	return svc
}

func sampleInput(line string) CreateInput {
	return CreateInput{
		Name:        "Asha",
		Phone:       "9876543210",
		AddressLine: line,
		City:        "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
	}
}

func TestFirstAddressBecomesDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, sampleInput("12 MG Road"))
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(ctx, userID, sampleInput("7 FC Road"))
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	other, err := svc.Create(ctx, uuid.New(), sampleInput("1 Park St"))
	require.NoError(t, err)
	assert.True(t, other.IsDefault, "default is per profile")

	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID)
}

func TestDeleteDoesNotReassignDefault(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.Create(ctx, userID, sampleInput("12 MG Road"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, userID, sampleInput("7 FC Road"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, first.ID))

	rows, err := svc.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].IsDefault)
}

func TestDeleteIsOwnerScoped(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	addr, err := svc.Create(ctx, owner, sampleInput("12 MG Road"))
	require.NoError(t, err)

	err = svc.Delete(ctx, uuid.New(), addr.ID)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))

	_, err = svc.Get(ctx, uuid.New(), addr.ID)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestCreateValidates(t *testing.T) {
	svc := newTestService(t)

	input := sampleInput("  ")
	input.Pincode = "4110"
	_, err := svc.Create(context.Background(), uuid.New(), input)
	require.Error(t, err)
	typed := errors.As(err)
	require.NotNil(t, typed)
	details := typed.Details().(map[string]string)
	assert.Contains(t, details, "address_line")
	assert.Contains(t, details, "pincode")
}
