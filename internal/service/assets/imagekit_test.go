package assets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventmaster/internal/domain"
	"eventmaster/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageKit_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "private_key", user)
		assert.Empty(t, pass)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "qr-abc.png", r.FormValue("fileName"))
		assert.Equal(t, "/eventmaster/qrcodes", r.FormValue("folder"))
		assert.Equal(t, "true", r.FormValue("useUniqueFileName"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"fileId": "file_123",
			"name":   "qr-abc_x1.png",
			"url":    "https://ik.imagekit.io/demo/eventmaster/qrcodes/qr-abc_x1.png",
			"size":   9,
		})
	}))
	defer srv.Close()

	c := NewImageKit(Config{PrivateKey: "private_key", UploadURL: srv.URL}, logger.NewNop())
	asset, err := c.Upload(context.Background(), domain.UploadFile{Name: "qr-abc.png", ContentType: "image/png", Data: []byte("png-bytes")}, "/eventmaster/qrcodes")

	require.NoError(t, err)
	assert.Equal(t, "file_123", asset.FileID)
	assert.Equal(t, "https://ik.imagekit.io/demo/eventmaster/qrcodes/qr-abc_x1.png", asset.URL)
	assert.Equal(t, int64(9), asset.Size)
}

func TestImageKit_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Your account cannot be authenticated."}`))
	}))
	defer srv.Close()

	c := NewImageKit(Config{PrivateKey: "bad", UploadURL: srv.URL}, logger.NewNop())
	_, err := c.Upload(context.Background(), domain.UploadFile{Name: "a.png", Data: []byte("x")}, "/x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "cannot be authenticated")
}

func TestImageKit_Delete(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/files/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/files/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewImageKit(Config{PrivateKey: "k", APIURL: srv.URL}, logger.NewNop())
	ctx := context.Background()

	assert.NoError(t, c.Delete(ctx, "file_1"))
	assert.NoError(t, c.Delete(ctx, "gone"))
	assert.Error(t, c.Delete(ctx, "broken"))
	assert.Equal(t, []string{"/files/file_1", "/files/gone", "/files/broken"}, paths)
}

func TestImageKit_Disabled(t *testing.T) {
	c := NewImageKit(Config{}, logger.NewNop())
	assert.False(t, c.Enabled())

	_, err := c.Upload(context.Background(), domain.UploadFile{Name: "a"}, "/")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, c.Delete(context.Background(), "x"), ErrDisabled)
}
