package services_test

import (
	"errors"
	"strings"
	"testing"

	"scout/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrTransient, "tmdb", "discover", "movie query", cause)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("marker not preserved")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not preserved")
	}
	for _, fragment := range []string{"tmdb", "discover", "movie query", "connection refused"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("error %q missing %q", err.Error(), fragment)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "jellyfin", "users", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "", "", "", nil)
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "overseerr", "submit", "", nil)) {
		t.Fatal("configuration errors are fatal")
	}
	if !services.IsFatal(services.Wrap(services.ErrValidation, "tmdb", "discover", "", nil)) {
		t.Fatal("validation errors are fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrTransient, "tmdb", "discover", "", nil)) {
		t.Fatal("transient errors are not fatal")
	}
	if services.IsFatal(nil) {
		t.Fatal("nil is not fatal")
	}
}
