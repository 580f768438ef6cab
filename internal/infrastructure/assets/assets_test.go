package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/invoice-export/internal/domain/invoice"
	"github.com/erp/invoice-export/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

type fakeObjects struct {
	data map[string][]byte
}

func (f fakeObjects) GetObject(_ context.Context, bucket, key string, _ int64) ([]byte, error) {
	d, ok := f.data[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return d, nil
}

func TestDecode(t *testing.T) {
	img, err := Decode(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte("<html>not an image</html>"))
	assert.ErrorContains(t, err, "unsupported image type")
}

func TestQRImage(t *testing.T) {
	img, err := QRImage("upi://pay?pa=acme@upi&am=100.00", 128)
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())

	_, err = QRImage("", 128)
	assert.Error(t, err)
}

func TestDataURLSource(t *testing.T) {
	raw := pngBytes(t)
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	src := DataURLSource{}
	require.True(t, src.Match(ref))
	got, err := src.Fetch(context.Background(), ref, "")
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = src.Fetch(context.Background(), "data:image/png,plain", "")
	assert.Error(t, err)

	_, err = DataURLSource{MaxBytes: 4}.Fetch(context.Background(), ref, "")
	assert.ErrorContains(t, err, "exceeds")
}

func TestParseObjectRef(t *testing.T) {
	tests := []struct {
		ref    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://brand/logos/acme.png", "brand", "logos/acme.png", true},
		{"object:logos/acme.png", "", "logos/acme.png", true},
		{"object:", "", "", false},
		{"s3://brand", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			bucket, key, err := parseObjectRef(tt.ref)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestDriveSource_SendsBearerCredential(t *testing.T) {
	raw := pngBytes(t)
	var gotAuth, gotPath, gotAlt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotAlt = r.URL.Query().Get("alt")
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	src := NewDriveSource(srv.URL+"/drive/v3", srv.Client(), fastRetry(), 1<<20)
	require.True(t, src.Match("1AbCdEfGhIjK"))

	data, err := src.Fetch(context.Background(), "1AbCdEfGhIjK", "tok-123")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/drive/v3/files/1AbCdEfGhIjK", gotPath)
	assert.Equal(t, "media", gotAlt)
}

func TestDriveSource_RequiresCredential(t *testing.T) {
	src := NewDriveSource("http://127.0.0.1:1", http.DefaultClient, fastRetry(), 1<<20)
	_, err := src.Fetch(context.Background(), "1AbCdEfGhIjK", "")
	assert.ErrorContains(t, err, "credential")
}

func TestDriveSource_RetriesTransientFailures(t *testing.T) {
	raw := pngBytes(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	src := NewDriveSource(srv.URL, srv.Client(), fastRetry(), 1<<20)
	data, err := src.Fetch(context.Background(), "1AbCdEfGhIjK", "tok")
	require.NoError(t, err)
	assert.Equal(t, raw, data)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDriveSource_NoRetryOnPermanentStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(status)
			}))
			defer srv.Close()

			src := NewDriveSource(srv.URL, srv.Client(), fastRetry(), 1<<20)
			_, err := src.Fetch(context.Background(), "1AbCdEfGhIjK", "tok")
			var serr *StatusError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, status, serr.StatusCode)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestDriveSource_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewDriveSource(srv.URL, srv.Client(), fastRetry(), 1<<20)
	_, err := src.Fetch(context.Background(), "1AbCdEfGhIjK", "tok")
	require.Error(t, err)
	assert.Equal(t, int32(4), calls.Load(), "first attempt plus three retries")
}

func TestHTTPSource_WithholdsCredentialFromUntrustedHosts(t *testing.T) {
	raw := pngBytes(t)
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	untrusted := NewHTTPSource(srv.Client(), fastRetry(), 1<<20, "drive.example.com")
	_, err := untrusted.Fetch(context.Background(), srv.URL+"/logo.png", "secret")
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())

	trusted := NewHTTPSource(srv.Client(), fastRetry(), 1<<20, HostOf(srv.URL))
	_, err = trusted.Fetch(context.Background(), srv.URL+"/logo.png", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth.Load())
}

func TestHTTPSource_EnforcesSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	src := NewHTTPSource(srv.Client(), fastRetry(), 16)
	_, err := src.Fetch(context.Background(), srv.URL+"/big.png", "")
	assert.ErrorContains(t, err, "exceeds")
}

func TestResolver_LogoFailureFallsBackWithoutFailingCall(t *testing.T) {
	raw := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missinglogo") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	r := NewResolver(ResolverConfig{Timeout: time.Second}, []Source{
		NewDriveSource(srv.URL, srv.Client(), fastRetry(), 1<<20),
	})
	got := r.Resolve(context.Background(), invoice.AssetRefs{
		CompanyLogoRef: "missinglogo1",
		SignatureRef:   "signature01",
		QRPayload:      "upi://pay?pa=acme@upi",
	}, "tok")

	_, ok := got.Image(invoice.AssetCompanyLogo)
	assert.False(t, ok)
	assert.True(t, got.Referenced(invoice.AssetCompanyLogo))

	_, ok = got.Image(invoice.AssetSignature)
	assert.True(t, ok)
	_, ok = got.Image(invoice.AssetPaymentQR)
	assert.True(t, ok)

	failures := got.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, invoice.AssetCompanyLogo, failures[0].Kind)
}

func TestResolver_UnsupportedAndUndecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text body"))
	}))
	defer srv.Close()

	r := NewResolver(ResolverConfig{}, []Source{NewHTTPSource(srv.Client(), fastRetry(), 1<<20)})
	got := r.Resolve(context.Background(), invoice.AssetRefs{
		CompanyLogoRef: srv.URL + "/logo.txt",
		SignatureRef:   "ftp://example.com/sig.png",
	}, "")

	failures := got.Failures()
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[1].Err, ErrUnsupportedRef)
	assert.ErrorContains(t, failures[0].Err, "unsupported image type")
}

func TestResolver_CachesDecodableBytes(t *testing.T) {
	raw := pngBytes(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	assetCache := cache.NewInMemoryAssetCache()
	defer assetCache.Close()

	r := NewResolver(ResolverConfig{CacheTTL: time.Minute}, []Source{
		NewDriveSource(srv.URL, srv.Client(), fastRetry(), 1<<20),
	}, WithCache(assetCache))

	refs := invoice.AssetRefs{CompanyLogoRef: "logo12345"}
	first := r.Resolve(context.Background(), refs, "tok-a")
	_, ok := first.Image(invoice.AssetCompanyLogo)
	require.True(t, ok)

	second := r.Resolve(context.Background(), refs, "tok-a")
	_, ok = second.Image(invoice.AssetCompanyLogo)
	require.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())

	// another credential must not share the entry
	r.Resolve(context.Background(), refs, "tok-b")
	assert.Equal(t, int32(2), calls.Load())
}

func TestResolver_ObjectSource(t *testing.T) {
	raw := pngBytes(t)
	r := NewResolver(ResolverConfig{}, []Source{
		ObjectSource{Store: fakeObjects{data: map[string][]byte{"brand/sig.png": raw}}},
	})
	got := r.Resolve(context.Background(), invoice.AssetRefs{SignatureRef: "s3://brand/sig.png"}, "")
	_, ok := got.Image(invoice.AssetSignature)
	assert.True(t, ok)
	assert.Empty(t, got.Failures())
}

func TestResolver_EmptyRefs(t *testing.T) {
	r := NewResolver(ResolverConfig{}, nil)
	got := r.Resolve(context.Background(), invoice.AssetRefs{}, "")
	assert.False(t, got.Referenced(invoice.AssetCompanyLogo))
	assert.Empty(t, got.Failures())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "http:https://x/l.png", cacheKey("http", "https://x/l.png", "tok", false))
	a := cacheKey("drive", "id1", "tok-a", true)
	b := cacheKey("drive", "id1", "tok-b", true)
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "tok-a")
}
