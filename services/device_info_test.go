package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"findchain-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIMEIClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("key"))
		assert.Equal(t, "json", q.Get("format"))

		switch q.Get("imei") {
		case "356938035643809":
			fmt.Fprint(w, `{"status":"succes","result":"","imei":"356938035643809","object":{"brand":"Motorola","name":"Moto G Power","model":"XT2345"}}`)
		case "490154203237518":
			fmt.Fprint(w, `{"status":"failed","result":"IMEI not found"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewIMEIClient(srv.URL, "secret", "", 5*time.Second)

	info, err := c.Lookup(context.Background(), "356938035643809")
	require.NoError(t, err)
	assert.Equal(t, &models.DeviceInfo{Brand: "Motorola", Model: "XT2345", ModelName: "Moto G Power", IMEI: "356938035643809"}, info)

	info, err = c.Lookup(context.Background(), "490154203237518")
	require.NoError(t, err)
	assert.Nil(t, info)

	_, err = c.Lookup(context.Background(), "111111111111111")
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, http.StatusBadGateway, up.StatusCode)
}

func TestIMEIClientValidatesBeforeCalling(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewIMEIClient(srv.URL, "secret", "succes", time.Second)
	for _, imei := range []string{"", "12345", "35693803564380a", "3569380356438090"} {
		_, err := c.Lookup(context.Background(), imei)
		assert.ErrorIs(t, err, ErrValidation, imei)
	}
	assert.False(t, called)
}

func TestLookupManyIsolatesFailures(t *testing.T) {
	p := &fakeDevices{
		infos: map[string]*models.DeviceInfo{"356938035643809": {Brand: "Apple", IMEI: "356938035643809"}},
		errs:  map[string]error{"490154203237518": errors.New("timeout")},
	}

	out := LookupMany(context.Background(), p, []string{"490154203237518", "356938035643809", "111111111111111"}, 2)
	require.Len(t, out, 3)
	assert.Nil(t, out[0])
	require.NotNil(t, out[1])
	assert.Equal(t, "Apple", out[1].Brand)
	assert.Nil(t, out[2])
}

func TestMaskIMEI(t *testing.T) {
	assert.Equal(t, "***********3809", maskIMEI("356938035643809"))
	assert.Equal(t, "12", maskIMEI("12"))
}
