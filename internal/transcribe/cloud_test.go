package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lsilvatti/subgen/internal/subgenerr"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("fake audio bytes"), 0o600))
	return path
}

func TestCloudAdapterTranscribeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"language":"en","segments":[{"start":0,"end":1.2,"text":"Hello."}]}`))
	}))
	defer srv.Close()

	adapter := NewCloudAdapter(srv.URL, "test-key")
	result, err := adapter.Transcribe(context.Background(), writeTempAudio(t), Options{})
	require.NoError(t, err)
	assert.Equal(t, "en", result.DetectedLanguage)
	require.Len(t, result.Segments, 1)
	assert.Equal(t, "Hello.", result.Segments[0].Text)
}

func TestCloudAdapterMalformedJSONIsBadTranscriptionOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	adapter := NewCloudAdapter(srv.URL, "test-key")
	_, err := adapter.Transcribe(context.Background(), writeTempAudio(t), Options{})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadTranscription))
}

func TestCloudAdapterInvertedTimestampIsBadTranscriptionOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"language":"en","segments":[{"start":2,"end":1,"text":"broken"}]}`))
	}))
	defer srv.Close()

	adapter := NewCloudAdapter(srv.URL, "test-key")
	_, err := adapter.Transcribe(context.Background(), writeTempAudio(t), Options{})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindBadTranscription))
}

func TestCloudAdapterHTTPErrorIsTranscriptionFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := NewCloudAdapter(srv.URL, "test-key")
	_, err := adapter.Transcribe(context.Background(), writeTempAudio(t), Options{})
	require.Error(t, err)
	assert.True(t, subgenerr.Is(err, subgenerr.KindTranscriptionFail))
}
