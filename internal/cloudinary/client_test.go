package cloudinary

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New("demo", "key", "secret", "profiles")
	c.BaseURL = srv.URL
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestSign(t *testing.T) {
	c := New("demo", "key", "secret", "")
	got := c.sign(map[string]string{"timestamp": "1700000000", "folder": "profiles", "api_key": "key"})
	want := fmt.Sprintf("%x", sha1.Sum([]byte("folder=profiles&timestamp=1700000000secret")))
	if got != want {
		t.Fatalf("sign = %s, want %s", got, want)
	}
}

func TestUploadPhoto(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("folder") != "profiles" || r.FormValue("api_key") != "key" || r.FormValue("signature") == "" {
			t.Errorf("form = %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file: %v", err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		if hdr.Filename != "me.jpg" || string(body) != "jpegbytes" {
			t.Errorf("file = %s %q", hdr.Filename, body)
		}
		_, _ = io.WriteString(w, `{"public_id":"profiles/abc","secure_url":"https://cdn/abc.jpg","bytes":9}`)
	})

	url, id, err := c.UploadPhoto(context.Background(), []byte("jpegbytes"), "me.jpg")
	if err != nil {
		t.Fatalf("UploadPhoto: %v", err)
	}
	if url != "https://cdn/abc.jpg" || id != "profiles/abc" {
		t.Fatalf("got %s %s", url, id)
	}
}

func TestUploadPhotoError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})
	_, _, err := c.UploadPhoto(context.Background(), []byte("x"), "x.png")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestDeletePhoto(t *testing.T) {
	results := map[string]string{"profiles/old": "ok", "profiles/gone": "not found", "profiles/bad": "error"}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/destroy" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = r.ParseMultipartForm(1 << 20)
		fmt.Fprintf(w, `{"result":%q}`, results[r.FormValue("public_id")])
	})

	ctx := context.Background()
	if err := c.DeletePhoto(ctx, "profiles/old"); err != nil {
		t.Errorf("ok: %v", err)
	}
	if err := c.DeletePhoto(ctx, "profiles/gone"); err != nil {
		t.Errorf("not found should be tolerated: %v", err)
	}
	if err := c.DeletePhoto(ctx, "profiles/bad"); err == nil {
		t.Error("expected error result to fail")
	}
	if err := c.DeletePhoto(ctx, ""); err != nil {
		t.Errorf("empty id: %v", err)
	}
}
