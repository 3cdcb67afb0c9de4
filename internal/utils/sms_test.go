package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientSend(t *testing.T) {
	var got sendRequest
	var gotPath, gotKey, gotAccept string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		gotAccept = r.Header.Get("Accept")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 42, false)
	err := c.Send("+77010001122", Param{Name: "Code", Value: "123456"})
	require.NoError(t, err)

	require.Equal(t, "/verify", gotPath)
	require.Equal(t, "test-key", gotKey)
	require.Equal(t, "application/json", gotAccept)
	require.Equal(t, 42, got.TemplateID)
	require.Equal(t, "+77010001122", got.Mobile)
	require.Len(t, got.Parameters, 1)
	require.Equal(t, "Code", got.Parameters[0].Name)
	require.Equal(t, "123456", got.Parameters[0].Value)
}

func TestClientSendNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"template not found"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", 42, false)
	err := c.Send("+77010001122", Param{Name: "Code", Value: "123456"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 422")
}

func TestClientSendDryRun(t *testing.T) {
	// dry-run не должен ходить в сеть вообще
	c := NewClient("http://127.0.0.1:1", "test-key", 42, true)
	require.NoError(t, c.Send("+77010001122", Param{Name: "Code", Value: "123456"}))
}

func TestClientSendWithoutKeyIsDryRun(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "", 42, false)
	require.NoError(t, c.Send("+77010001122"))
}
