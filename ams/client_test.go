package ams

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"amsflow/media"
)

func TestMapErrorNotFound(t *testing.T) {
	err := mapError("get asset", "output-1", &azcore.ResponseError{StatusCode: http.StatusNotFound, ErrorCode: "ResourceNotFound"})
	if !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestMapErrorPassesThrough(t *testing.T) {
	cause := errors.New("connection reset")
	err := mapError("get job", "job-1", cause)
	if errors.Is(err, media.ErrNotFound) {
		t.Fatal("Did not expect ErrNotFound for transport errors")
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped cause, got %v", err)
	}
	if mapError("delete asset", "a", nil) != nil {
		t.Error("Expected nil for nil error")
	}
}

func TestNewRequiresAccount(t *testing.T) {
	if _, err := New(Account{SubscriptionID: "sub"}, nil, nil); err == nil {
		t.Error("Expected error for incomplete account")
	}
}

func TestPresetRoundTrip(t *testing.T) {
	presets := []media.Preset{
		{Kind: media.PresetVideoAnalyzer, AudioLanguage: "en-US"},
		{Kind: media.PresetAudioAnalyzer, AudioLanguage: "de-DE"},
		{Kind: media.PresetBuiltInEncoder, EncoderPreset: "AdaptiveStreaming"},
	}
	for _, p := range presets {
		sdk, err := toPreset(p)
		if err != nil {
			t.Fatalf("toPreset(%+v) failed: %v", p, err)
		}
		if got := fromPreset(sdk); got != p {
			t.Errorf("Expected %+v, got %+v", p, got)
		}
	}

	if _, err := toPreset(media.Preset{Kind: "FaceDetector"}); err == nil {
		t.Error("Expected error for unsupported preset")
	}
}
