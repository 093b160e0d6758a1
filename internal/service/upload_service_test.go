package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/cybertheory/vendordashboard/internal/domain"
	"github.com/cybertheory/vendordashboard/internal/security/audit"
)

func validUpload() domain.ImageUpload {
	return domain.ImageUpload{
		EditToken: "edit-token",
		PostID:    "post-1",
		ConfigID:  "cfg-1",
		FileName:  "photo.jpg",
		MIMEType:  "image/jpeg",
		Data:      strings.NewReader("jpegbytes"),
	}
}

func TestForwardUpload(t *testing.T) {
	store := &fakeImageStore{response: []byte(`{"success":true,"url":"https://cdn.example.com/p.jpg"}`)}
	s := NewUploadService(store, audit.NewLogger(slog.Default()), nil)
	vendor := activeVendor("u-1")

	body, err := s.Forward(context.Background(), vendor, validUpload())
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	if string(body) != `{"success":true,"url":"https://cdn.example.com/p.jpg"}` {
		t.Fatalf("expected upstream body verbatim, got %s", body)
	}
	if len(store.uploads) != 1 || store.uploads[0].PostID != "post-1" {
		t.Fatalf("expected one forwarded upload, got %v", store.uploads)
	}
}

func TestForwardUploadValidation(t *testing.T) {
	store := &fakeImageStore{}
	s := NewUploadService(store, audit.NewLogger(slog.Default()), nil)
	vendor := activeVendor("u-1")

	cases := map[string]func(*domain.ImageUpload){
		"missing token":   func(u *domain.ImageUpload) { u.EditToken = "" },
		"missing post id": func(u *domain.ImageUpload) { u.PostID = "" },
		"missing config":  func(u *domain.ImageUpload) { u.ConfigID = "" },
		"missing file":    func(u *domain.ImageUpload) { u.Data = nil },
	}
	for name, mutate := range cases {
		upload := validUpload()
		mutate(&upload)
		if _, err := s.Forward(context.Background(), vendor, upload); !errors.Is(err, domain.ErrInvalid) {
			t.Errorf("%s: expected invalid, got %v", name, err)
		}
	}
	if len(store.uploads) != 0 {
		t.Fatalf("expected nothing forwarded, got %v", store.uploads)
	}
}

func TestForwardUploadUpstreamError(t *testing.T) {
	store := &fakeImageStore{uploadErr: &domain.UpstreamError{StatusCode: 413, Message: "file too large"}}
	s := NewUploadService(store, audit.NewLogger(slog.Default()), nil)
	vendor := activeVendor("u-1")

	_, err := s.Forward(context.Background(), vendor, validUpload())
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if upstream.StatusCode != 413 || upstream.Message != "file too large" {
		t.Fatalf("expected status and message preserved, got %+v", upstream)
	}
}
