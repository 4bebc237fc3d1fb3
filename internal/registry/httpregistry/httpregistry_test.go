package httpregistry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/btmesh-io/btmesh-operator/internal/device"
)

func TestListDevicesDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/applications/fleet/devices", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]device.Device{
			{ObjectMeta: metav1.ObjectMeta{Name: "d1"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	devices, err := c.ListDevices(context.Background(), "fleet")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "d1", devices[0].Name)
}

func TestListDevicesErrorsOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ListDevices(context.Background(), "fleet")
	assert.Error(t, err)
}

func TestUpdateDevicePutsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/devices/d1", r.URL.Path)
		var dev device.Device
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dev))
		assert.Equal(t, "d1", dev.Name)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	err := c.UpdateDevice(context.Background(), device.Device{ObjectMeta: metav1.ObjectMeta{Name: "d1"}})
	assert.NoError(t, err)
}
