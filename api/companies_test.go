package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercfleet/fleet-client-go/api"
)

func TestCompaniesList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/companies/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]api.Company{
			{ID: 1, Name: "Mercury Logistics"},
			{ID: 2, Name: "Hermes Freight"},
		})
	}))
	defer server.Close()

	store := seededStore(t, "access-1")
	client, err := api.NewClient(server.URL, store, &storeRefresher{store: store})
	require.NoError(t, err)

	companies, err := client.Companies.List(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Mercury Logistics", companies[0].Name)
}

func TestCompaniesGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/companies/2/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.Company{ID: 2, Name: "Hermes Freight", DOTNumber: "1234567"})
	}))
	defer server.Close()

	store := seededStore(t, "access-1")
	client, err := api.NewClient(server.URL, store, &storeRefresher{store: store})
	require.NoError(t, err)

	company, err := client.Companies.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Hermes Freight", company.Name)
	assert.Equal(t, "1234567", company.DOTNumber)
}
