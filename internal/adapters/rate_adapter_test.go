package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DuckDHD/costshare/internal/domain"
)

func TestGetRate_MapsWireFieldsOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "P1", r.URL.Query().Get("providerId"))
		assert.Equal(t, "99213", r.URL.Query().Get("serviceCode"))
		_ = json.NewEncoder(w).Encode(rateWire{
			Amount:            "123.45",
			RateType:          "amount",
			PaymentMethodCode: "CLAIM",
			Found:             true,
		})
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, nil)
	rate, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1", ServiceCode: "99213"})

	require.NoError(t, err)
	assert.True(t, rate.Found)
	assert.True(t, rate.Amount.Equal(decimal.RequireFromString("123.45")))
	assert.Equal(t, domain.RateType("amount"), rate.RateType)
	assert.Equal(t, "CLAIM", rate.PaymentMethodCode)
}

func TestGetRate_ForwardsHierarchyAsQueryHintWhenPresent(t *testing.T) {
	var gotPreference []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPreference = r.URL.Query()["paymentMethodPreference"]
		_ = json.NewEncoder(w).Encode(rateWire{Found: true})
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, func() []string { return []string{"claim", "provider", "contract", "default"} })
	_, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"claim", "provider", "contract", "default"}, gotPreference)
}

func TestGetRate_NilHierarchyOmitsQueryHint(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(rateWire{Found: true})
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, nil)
	_, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.NoError(t, err)
	assert.NotContains(t, gotRaw, "paymentMethodPreference")
}

func TestGetRate_EmptyHierarchyOrderOmitsQueryHint(t *testing.T) {
	var gotRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRaw = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(rateWire{Found: true})
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, func() []string { return nil })
	_, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.NoError(t, err)
	assert.NotContains(t, gotRaw, "paymentMethodPreference")
}

func TestGetRate_NotFoundSourceErrorMapsToFoundFalseNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, nil)
	rate, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.NoError(t, err)
	assert.False(t, rate.Found)
}

func TestGetRate_OtherErrorsPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, nil)
	_, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.Error(t, err)
}

func TestSetHierarchyFunc_UpdatesHierarchyAfterConstruction(t *testing.T) {
	var gotPreference []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPreference = r.URL.Query()["paymentMethodPreference"]
		_ = json.NewEncoder(w).Encode(rateWire{Found: true})
	}))
	defer srv.Close()

	c := NewRateClient(srv.URL, nil, 0, nil)
	c.SetHierarchyFunc(func() []string { return []string{"default"} })
	_, err := c.GetRate(context.Background(), domain.RateCriteria{ProviderID: "P1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, gotPreference)
}
