package validator_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/pkg/validator"
)

func TestValidateStruct_OK(t *testing.T) {
	err := validator.ValidateStruct(dto.RegisterRequest{
		Phone:    "+998901234567",
		FullName: "Ali",
		Password: "secreto1",
	})
	assert.NoError(t, err)
}

func TestValidateStruct_FieldMessagesUseJSONNames(t *testing.T) {
	err := validator.ValidateStruct(dto.RegisterRequest{Phone: "abc", Password: "1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "teléfono inválido", ve.Fields["phone"])
	assert.Equal(t, "campo obligatorio", ve.Fields["full_name"])
	assert.Contains(t, ve.Fields, "password")
}

func TestValidateStruct_DecimalTags(t *testing.T) {
	err := validator.ValidateStruct(dto.TopUpRequest{Amount: decimal.NewFromInt(0)})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "amount")

	assert.NoError(t, validator.ValidateStruct(dto.TopUpRequest{Amount: decimal.RequireFromString("0.01")}))
}

func TestValidateStruct_EmptyCart(t *testing.T) {
	err := validator.ValidateStruct(dto.CreateTransactionRequest{PaymentType: "cash"})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "items")
}

func TestValidateStruct_NestedCartLine(t *testing.T) {
	err := validator.ValidateStruct(dto.CreateTransactionRequest{
		PaymentType: "cash",
		Items:       []dto.CartItemRequest{{ProductID: "no-uuid", Quantity: decimal.NewFromInt(1)}},
	})
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "UUID inválido", ve.Fields["items[0].product_id"])
}
