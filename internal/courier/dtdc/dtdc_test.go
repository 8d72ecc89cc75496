package dtdc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		APIKey:        "key",
		ClientID:      "CL001",
		Secret:        "sec",
		APIBaseURL:    baseURL,
		OriginPincode: "400001",
	})
}

func TestEnabledRequiresAllCredentials(t *testing.T) {
	assert.False(t, NewClient(Config{APIKey: "key", ClientID: "CL001"}).Enabled())
	assert.True(t, newTestClient("").Enabled())
}

func TestBookShipmentReturnsAWB(t *testing.T) {
	var received struct {
		Consignments []consignment `json:"consignments"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, bookPath, r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("api-key"))
		assert.Equal(t, "CL001", r.Header.Get("x-client-id"))
		assert.Equal(t, "sec", r.Header.Get("x-client-secret"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"status":"OK","data":[{"success":true,"reference_number":"D90001234"}]}`))
	}))
	defer server.Close()

	booking, err := newTestClient(server.URL).BookShipment(context.Background(), BookingInput{
		ReferenceNo:   "MD20260101120000123456",
		Consignee:     "Asha Rao",
		Address:       "12 MG Road, Bengaluru 560001",
		Phone:         "+91 98450 00000",
		Pieces:        3,
		DeclaredValue: decimal.RequireFromString("250"),
	})
	require.NoError(t, err)
	assert.Equal(t, "D90001234", booking.AWBNumber)
	assert.Equal(t, StatusBooked, booking.Status)

	require.Len(t, received.Consignments, 1)
	sent := received.Consignments[0]
	assert.Equal(t, "CL001", sent.CustomerCode)
	assert.Equal(t, 3, sent.NumPieces)
	assert.Equal(t, "250.00", sent.DeclaredValue)
	assert.Equal(t, "400001", sent.OriginDetails.Pincode)
	assert.Equal(t, "560001", sent.DestinationDetails.Pincode)
}

func TestBookShipmentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","data":[{"success":false,"message":"pincode not serviceable"}]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).BookShipment(context.Background(), BookingInput{Address: "Leh 194101"})
	assert.ErrorIs(t, err, ErrBookingRejected)
}

func TestTrackMapsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, trackPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"statusCode":200,"trackHeader":{"strShipmentNo":"D90001234","strStatus":"Delivered","strDestination":"BENGALURU"}}`))
	}))
	defer server.Close()

	tracking, err := newTestClient(server.URL).Track(context.Background(), "D90001234")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, tracking.Status)
	assert.Equal(t, "BENGALURU", tracking.Location)
}

func TestMapTrackingStatus(t *testing.T) {
	assert.Equal(t, StatusInTransit, mapTrackingStatus("Not Delivered"))
	assert.Equal(t, StatusDelivered, mapTrackingStatus("DELIVERED"))
	assert.Equal(t, StatusBooked, mapTrackingStatus("Booked"))
	assert.Equal(t, StatusInTransit, mapTrackingStatus("In Transit"))
}

func TestServerErrorIsRequestFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Track(context.Background(), "D1")
	assert.ErrorIs(t, err, ErrRequestFailed)
}
