package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKind(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"logo", "logo"},
		{"", DefaultKind},
		{"   ", DefaultKind},
		{"../../etc", "etc"},
		{"team photo", "team_photo"},
		{"before-after", "before-after"},
		{"/", DefaultKind},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanKind(tt.in))
		})
	}
}

func TestCleanFilename(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"site.jpg", "site.jpg", false},
		{"../../secret.png", "secret.png", false},
		{`C:\Users\me\plant floor.png`, "plant floor.png", false},
		{"", "", true},
		{"..", "", true},
		{"/", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanFilename(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitKey(t *testing.T) {
	kind, name, err := SplitKey("logo/acme.png")
	require.NoError(t, err)
	assert.Equal(t, "logo", kind)
	assert.Equal(t, "acme.png", name)

	for _, bad := range []string{"noslash", "../x.png", "logo/../x.png", "lo go/x.png", "logo/"} {
		_, _, err := SplitKey(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Logo", Title("logo"))
	assert.Equal(t, "General", Title(""))
	assert.Equal(t, "Team_photo", Title("TEAM photo"))
}

func TestDiskStore_SaveAndOpen(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, "logo", "../acme.png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "logo/acme.png", key)

	obj, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, int64(9), obj.Size)
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = store.Save(ctx, "logo", "acme.png", strings.NewReader("v2"), 2)
	require.NoError(t, err)
	obj2, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer obj2.Body.Close()
	data, _ = io.ReadAll(obj2.Body)
	assert.Equal(t, "v2", string(data))
}

func TestDiskStore_DefaultKind(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	key, err := store.Save(context.Background(), "", "photo.jpg", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "general/photo.jpg", key)
}

func TestDiskStore_OpenErrors(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "logo/missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestNewDiskStore_RequiresDir(t *testing.T) {
	_, err := NewDiskStore("")
	require.Error(t, err)
}

func TestNewMinioStore_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  MinioConfig
		want string
	}{
		{"no endpoint", MinioConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}, "endpoint is required"},
		{"no creds", MinioConfig{Endpoint: "localhost:9000", Bucket: "b"}, "access key and secret key"},
		{"no bucket", MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, "bucket is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMinioStore(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// fakeS3 answers the bucket check and object puts a MinioStore makes.
type fakeS3 struct {
	mu       sync.Mutex
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func TestMinioStore_SaveEnsuresBucketOnce(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	store, err := NewMinioStore(MinioConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "casebot-uploads",
	})
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, "logo", "acme.png", strings.NewReader("abc"), 3)
	require.NoError(t, err)
	assert.Equal(t, "logo/acme.png", key)
	_, err = store.Save(ctx, "site", "floor.jpg", strings.NewReader("def"), 3)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	heads := 0
	for _, r := range fake.requests {
		if strings.HasPrefix(r, "HEAD ") {
			heads++
		}
	}
	assert.Equal(t, 1, heads)
	assert.Contains(t, fake.requests, "PUT /casebot-uploads/logo/acme.png")
	assert.Contains(t, fake.requests, "PUT /casebot-uploads/site/floor.jpg")
}
