package utils

import (
	"strings"
	"testing"
)

func TestBookingPhotoObjectName(t *testing.T) {
	name := bookingPhotoObjectName("64f1c0ffee0000000000aaaa", ".jpg")

	if !strings.HasPrefix(name, "booking-requests/64f1c0ffee0000000000aaaa/") {
		t.Errorf("object name %q should live under the customer's booking-requests folder", name)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("object name %q should keep the file extension", name)
	}

	other := bookingPhotoObjectName("64f1c0ffee0000000000aaaa", ".jpg")
	if name == other {
		t.Error("object names should be unique per upload")
	}
}

func TestObjectNameFromURL(t *testing.T) {
	t.Setenv("R2_PUBLIC_DOMAIN", "https://cdn.example.com/")

	got := ObjectNameFromURL("https://cdn.example.com/completion/abc/1-photo.jpg")
	if got != "completion/abc/1-photo.jpg" {
		t.Errorf("ObjectNameFromURL = %q, want %q", got, "completion/abc/1-photo.jpg")
	}
}
