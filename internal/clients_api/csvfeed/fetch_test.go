package csvfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"orderviz/internal/infra/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "Order Date and Time,Order Value\n2023-01-01 10:00,100\n"

func TestMain(m *testing.M) {
	log.UseNop()
	os.Exit(m.Run())
}

func testOptions() Options {
	return Options{
		Timeout:         2 * time.Second,
		MaxResponseSize: 1024,
		RetryBaseDelay:  time.Millisecond,
		RetryMaxDelay:   5 * time.Millisecond,
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	body, err := NewClient(testOptions()).Fetch(context.Background(), srv.URL+"/orders.csv")
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
}

func TestFetchHTTPNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 3
	_, err := NewClient(opts).Fetch(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNotFound, fe.Kind)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.EqualValues(t, 1, calls.Load(), "404 is never retried")
}

func TestFetchHTTPServerErrorNotRetriedByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(testOptions()).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindStatus, fe.Kind)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFetchHTTPRetriesWhenEnabled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.MaxRetries = 2
	body, err := NewClient(opts).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchHTTPTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	_, err := NewClient(testOptions()).Fetch(context.Background(), srv.URL)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindTooLarge, fe.Kind)
}

func TestFetchHTTPUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(testOptions()).Fetch(context.Background(), url)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindUnreachable, fe.Kind)
}

func TestFetchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	client := NewClient(testOptions())

	body, err := client.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))

	body, err = client.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(body))
}

func TestFetchFileNotFound(t *testing.T) {
	_, err := NewClient(testOptions()).Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNotFound, fe.Kind)
	assert.Zero(t, fe.StatusCode)
}
