package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticAuth string

func (a staticAuth) Header(ctx context.Context) (string, error) {
	return string(a), nil
}

type failingAuth struct{}

func (failingAuth) Header(ctx context.Context) (string, error) {
	return "", errors.New("token endpoint down")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, staticAuth("Bearer test-token"), zap.NewNop()), srv
}

func TestListDefinitions(t *testing.T) {
	var gotPath, gotAuth string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]Definition{
			{ID: "d1", Name: "crah unit", AssetType: "Crah", AssociatedAssets: 3},
		})
	})

	defs, err := c.ListDefinitions(context.Background(), ProtocolBACnet)
	require.NoError(t, err)
	assert.Equal(t, "/api/setting/bacnetIpDefinitions", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	require.Len(t, defs, 1)
	assert.Equal(t, "crah unit", defs[0].Name)
}

func TestListSensorTypesQuery(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]SensorType{{ID: "temp-c", Description: "Temperature (C)"}})
	})

	types, err := c.ListSensorTypes(context.Background(), "Crah", "numeric")
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Contains(t, gotQuery, "assetTypeId=Crah")
	assert.Contains(t, gotQuery, "sensorTypeValueType=numeric")

	// empty asset type queries the whole catalog
	_, err = c.ListSensorTypes(context.Background(), "", "enum")
	require.NoError(t, err)
	assert.NotContains(t, gotQuery, "assetTypeId")
	assert.Contains(t, gotQuery, "sensorTypeValueType=enum")
}

func TestSubmitNumericBatch(t *testing.T) {
	var gotPath string
	var gotBody []NumericSensor
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(BatchResult{Results: []BatchRecordResult{
			{Index: 0, ID: "s-new", Status: "created"},
		}})
	})

	res, err := c.SubmitNumericBatch(context.Background(), ProtocolModbus, "def 1", []NumericSensor{
		{Name: "kw", SensorTypeID: "power", RegisterType: "holding", RegisterAddress: 40001},
	})
	require.NoError(t, err)
	assert.Equal(t, "/api/setting/modbusTcpDefinitions/modbusTcpNumericSensors/def 1/batch", gotPath)
	require.Len(t, gotBody, 1)
	assert.Equal(t, "kw", gotBody[0].Name)
	require.Len(t, res.Results, 1)
	assert.True(t, res.Results[0].Committed())
}

func TestServerErrorIsTransient(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	_, err := c.ListDefinitions(context.Background(), ProtocolBACnet)
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.Status)
}

func TestClientErrorIsRejection(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such definition", http.StatusNotFound)
	})

	_, err := c.GetDefinition(context.Background(), ProtocolBACnet, "missing")
	require.Error(t, err)
	assert.False(t, IsTransient(err))

	var rej *RemoteRejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, http.StatusNotFound, rej.Status)
	assert.Contains(t, rej.Body, "no such definition")
	assert.Nil(t, rej.Result)
}

func TestBatchRejectionCarriesPerRecordDetail(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(BatchResult{Results: []BatchRecordResult{
			{Index: 0, Status: "updated"},
			{Index: 1, Status: "rejected", Message: "sensor name already in use"},
		}})
	})

	_, err := c.SubmitNumericBatch(context.Background(), ProtocolBACnet, "d1", []NumericSensor{
		{Name: "a"}, {Name: "b"},
	})
	require.Error(t, err)

	var rej *RemoteRejection
	require.True(t, errors.As(err, &rej))
	require.NotNil(t, rej.Result)
	require.Len(t, rej.Result.Results, 2)
	assert.True(t, rej.Result.Results[0].Committed())
	assert.False(t, rej.Result.Results[1].Committed())
}

func TestAuthFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not reach the server without a token")
	}))
	defer srv.Close()
	c := NewClient(srv.URL, failingAuth{}, zap.NewNop())

	_, err := c.ListDefinitions(context.Background(), ProtocolBACnet)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Contains(t, err.Error(), "token")
}

func TestConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens there anymore
	c := NewClient(srv.URL, staticAuth("Bearer t"), zap.NewNop())

	_, err := c.ListDefinitions(context.Background(), ProtocolBACnet)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
