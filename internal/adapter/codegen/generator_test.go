package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/srgjo27/hotel_booking/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	g := NewGenerator()
	bookingID, userID, hotelID := uuid.New(), uuid.New(), uuid.New()

	code, err := g.Generate(bookingID, userID, hotelID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, "BOOKING_"+bookingID.String()+"_"+userID.String()+"_"+hotelID.String()+"_"))
	nonce := code[strings.LastIndex(code, "_")+1:]
	assert.Len(t, nonce, 8)
	assert.Equal(t, strings.ToUpper(nonce), nonce)

	parsed, err := BookingIDFromCode(code)
	require.NoError(t, err)
	assert.Equal(t, bookingID, parsed)
}

func TestGenerate_Unique(t *testing.T) {
	g := NewGenerator()
	bookingID, userID, hotelID := uuid.New(), uuid.New(), uuid.New()

	first, err := g.Generate(bookingID, userID, hotelID)
	require.NoError(t, err)
	second, err := g.Generate(bookingID, userID, hotelID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestGenerate_RejectsNilIDs(t *testing.T) {
	_, err := NewGenerator().Generate(uuid.Nil, uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestBookingIDFromCode_Invalid(t *testing.T) {
	for _, code := range []string{"", "TICKET_123", "BOOKING_not-a-uuid_a_b_c", "BOOKING_" + uuid.NewString()} {
		_, err := BookingIDFromCode(code)
		assert.Error(t, err, code)
	}
}
