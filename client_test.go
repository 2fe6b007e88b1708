package pushover

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/pushover/core/errors"
	"github.com/kart-io/pushover/logger"
)

const (
	testUserKey  = "uQiRzpo4DXghDmr9QzzfQu27cmVRsG"
	testAPIToken = "azGDORePK8gMaC0QOYAMyEEuzJnyUi"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithBaseURL(server.URL), WithLogger(logger.Discard)}, opts...)
	client, err := NewClient(testUserKey, testAPIToken, opts...)
	require.NoError(t, err)
	return client, server
}

func TestNewClient(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		client, err := NewClient(testUserKey, testAPIToken)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Nil(t, client.LastSent())
	})

	t.Run("empty credentials rejected", func(t *testing.T) {
		_, err := NewClient("", testAPIToken)
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)

		_, err = NewClient(testUserKey, "")
		assert.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})
}

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotForm map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":1,"request":"647d2300-702c-4b38-8b2f-d56326ae460b"}`))
	}))

	msg, err := NewMessage("test").Title("Hi").Build()
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "/messages.json", gotPath)
	assert.Equal(t, "test", gotForm["message"])
	assert.Equal(t, "Hi", gotForm["title"])
	assert.Equal(t, testUserKey, gotForm["user"])
	assert.Equal(t, testAPIToken, gotForm["token"])

	require.NotNil(t, resp)
	assert.True(t, resp.OK())
	assert.Equal(t, "647d2300-702c-4b38-8b2f-d56326ae460b", resp.Request)
	assert.Equal(t, http.StatusOK, resp.HTTPStatus)

	// Response attached to the message, message recorded as last sent
	assert.Equal(t, resp, msg.Response())
	assert.Equal(t, Payload(msg), client.LastSent())
}

func TestSendGlance(t *testing.T) {
	var gotPath string
	var gotForm map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
	}))

	glance, err := NewGlance().Title("deploys").Count(3).Build()
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), glance)
	require.NoError(t, err)

	assert.Equal(t, "/glances.json", gotPath)
	assert.Equal(t, "deploys", gotForm["title"])
	assert.Equal(t, "3", gotForm["count"])
	assert.Equal(t, testUserKey, gotForm["user"])
	assert.Equal(t, testAPIToken, gotForm["token"])
	assert.NotContains(t, gotForm, "percent")
	assert.Equal(t, resp, glance.Response())
}

func TestSendWithAttachment(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "chart.png")
	imageData := []byte("\x89PNG fake image bytes")
	require.NoError(t, os.WriteFile(imagePath, imageData, 0o600))

	var gotViaMultipart bool
	var gotMessage, gotToken string
	var gotFile []byte
	var gotMIME string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotViaMultipart = true
		gotMessage = r.PostFormValue("message")
		gotToken = r.PostFormValue("token")

		file, header, err := r.FormFile("attachment")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)
		gotMIME = header.Header.Get("Content-Type")

		_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
	}))

	msg, err := NewMessage("with image").Attachment(imagePath).Build()
	require.NoError(t, err)

	_, err = client.Send(context.Background(), msg)
	require.NoError(t, err)

	assert.True(t, gotViaMultipart)
	assert.Equal(t, "with image", gotMessage)
	assert.Equal(t, testAPIToken, gotToken)
	assert.Equal(t, imageData, gotFile)
	assert.Equal(t, "image/png", gotMIME)
}

func TestSendRejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":0,"request":"abc","errors":["application token is invalid"]}`))
	}))

	msg, err := NewMessage("test").Build()
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), msg)
	require.Error(t, err)

	// The decoded response is still attached for inspection
	require.NotNil(t, resp)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusBadRequest, resp.HTTPStatus)
	assert.Equal(t, resp, msg.Response())
}

func TestSendNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client, err := NewClient(testUserKey, testAPIToken,
		WithBaseURL(serverURL), WithLogger(logger.Discard))
	require.NoError(t, err)

	msg, err := NewMessage("test").Build()
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), msg)
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, errors.IsNetworkError(err))
	assert.Nil(t, msg.Response())
	assert.Nil(t, client.LastSent())
}

func TestVerifyUser(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		var gotContentType string
		var gotBody []byte
		var logBuf bytes.Buffer
		testLogger := logger.NewStandardLogger(log.New(&logBuf, "", 0), logger.Info, "[pushover]")

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/users/validate.json", r.URL.Path)
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
		}), WithLogger(testLogger))

		resp, err := client.VerifyUser(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "application/json", gotContentType)
		assert.JSONEq(t, `{"token":"`+testAPIToken+`","user":"`+testUserKey+`"}`, string(gotBody))
		assert.True(t, resp.OK())
		assert.Contains(t, logBuf.String(), "user is verified")
	})

	t.Run("not verified", func(t *testing.T) {
		var logBuf bytes.Buffer
		testLogger := logger.NewStandardLogger(log.New(&logBuf, "", 0), logger.Info, "[pushover]")

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":0,"request":"abc","errors":["user identifier is invalid"]}`))
		}), WithLogger(testLogger))

		resp, err := client.VerifyUser(context.Background())
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.False(t, resp.OK())
		assert.Contains(t, logBuf.String(), "user is not verified")
	})
}

func TestLimits(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/apps/limits.json", r.URL.Path)
		assert.Equal(t, testAPIToken, r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"limit":10000,"remaining":7496,"reset":1693112400,"status":1,"request":"abc"}`))
	}))

	limits, err := client.Limits(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10000, limits.Limit)
	assert.Equal(t, 7496, limits.Remaining)
	assert.Equal(t, int64(1693112400), limits.Reset)
}

func TestReceipt(t *testing.T) {
	t.Run("no prior send and no explicit id fails with invalid state", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request should be issued")
		}))

		_, err := client.Receipt(context.Background(), "")
		assert.ErrorIs(t, err, errors.ErrNoReceipt)
		assert.True(t, errors.IsStateError(err))
	})

	t.Run("explicit receipt id", func(t *testing.T) {
		var logBuf bytes.Buffer
		testLogger := logger.NewStandardLogger(log.New(&logBuf, "", 0), logger.Info, "[pushover]")

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/receipts/rLqVuqTRh62UzxtmqiaLzQmV.json", r.URL.Path)
			assert.Equal(t, testAPIToken, r.URL.Query().Get("token"))
			_, _ = w.Write([]byte(`{"status":1,"acknowledged":1,"acknowledged_at":1693112500}`))
		}), WithLogger(testLogger))

		rs, err := client.Receipt(context.Background(), "rLqVuqTRh62UzxtmqiaLzQmV")
		require.NoError(t, err)

		assert.True(t, rs.IsAcknowledged())
		assert.Contains(t, logBuf.String(), "receipt acknowledged")
	})

	t.Run("falls back to the last emergency send", func(t *testing.T) {
		var receiptPath string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/messages.json":
				_, _ = w.Write([]byte(`{"status":1,"request":"abc","receipt":"rLqVuqTRh62UzxtmqiaLzQmV"}`))
			default:
				receiptPath = r.URL.Path
				_, _ = w.Write([]byte(`{"status":1,"acknowledged":0}`))
			}
		}))

		msg, err := NewMessage("fire").Priority(PriorityEmergency).Build()
		require.NoError(t, err)

		_, err = client.Send(context.Background(), msg)
		require.NoError(t, err)

		rs, err := client.Receipt(context.Background(), "")
		require.NoError(t, err)

		assert.Equal(t, "/receipts/rLqVuqTRh62UzxtmqiaLzQmV.json", receiptPath)
		assert.False(t, rs.IsAcknowledged())
	})

	t.Run("last send without receipt fails with invalid state", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
		}))

		msg, err := NewMessage("normal").Build()
		require.NoError(t, err)
		_, err = client.Send(context.Background(), msg)
		require.NoError(t, err)

		_, err = client.Receipt(context.Background(), "")
		assert.ErrorIs(t, err, errors.ErrNoReceipt)
	})
}

func TestLastSentOverwritten(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":1,"request":"abc"}`))
	}))

	first, err := NewMessage("first").Build()
	require.NoError(t, err)
	second, err := NewGlance().Text("second").Build()
	require.NoError(t, err)

	_, err = client.Send(context.Background(), first)
	require.NoError(t, err)
	assert.Equal(t, Payload(first), client.LastSent())

	_, err = client.Send(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, Payload(second), client.LastSent())
}

func TestClientOptions(t *testing.T) {
	t.Run("base URL gains trailing slash", func(t *testing.T) {
		client, err := NewClient(testUserKey, testAPIToken, WithBaseURL("https://example.com/1"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/1/", client.baseURL)
	})

	t.Run("timeout applied to http client", func(t *testing.T) {
		client, err := NewClient(testUserKey, testAPIToken, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	})

	t.Run("custom http client replaces the default", func(t *testing.T) {
		custom := &http.Client{Timeout: time.Second}
		client, err := NewClient(testUserKey, testAPIToken, WithHTTPClient(custom))
		require.NoError(t, err)
		assert.Same(t, custom, client.httpClient)
	})
}
