package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type digitInput struct {
	Position int    `validate:"gte=0,lte=5"`
	Digit    string `validate:"required,max=16"`
}

type addressInput struct {
	Phone   string `validate:"omitempty,phone"`
	ZipCode string `validate:"required,zipcode"`
}

func TestV10Validator_CustomRules(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   any
		wantErr map[string]string
	}{
		{name: "valid address", input: addressInput{Phone: "+525512345678", ZipCode: "06700"}},
		{name: "phone is optional", input: addressInput{ZipCode: "06700"}},
		{
			name:  "bad phone and zip",
			input: addressInput{Phone: "12-34", ZipCode: "6700"},
			wantErr: map[string]string{
				"phone":    "Ingresa un teléfono válido",
				"zip_code": "El código postal debe tener 5 dígitos",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			var verr V10ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Values())
		})
	}
}

func TestV10Validator_BuiltinsInSpanish(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate(digitInput{Position: 9})

	var verr V10ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr, 2)
	assert.Contains(t, verr["position"], "5")
	assert.Contains(t, verr["digit"], "requerido")
	assert.Contains(t, verr.Error(), "validation error")
}

func TestV10Validator_NotAStruct(t *testing.T) {
	v, err := NewV10Validator()
	require.NoError(t, err)

	err = v.Validate("plain string")
	require.Error(t, err)

	var verr V10ValidationError
	assert.NotErrorAs(t, err, &verr)
}
