package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleSettings = `[DEFAULT]
ACCOUNT_NAME = amsaccount
RESOURCE_GROUP_NAME = media-rg
TRANSFORM_NAME = VideoAnalyzerTransform
CLIENT = 00000000-0000-0000-0000-000000000001
KEY = s3cret
SUBSCRIPTION_ID = 00000000-0000-0000-0000-000000000002
TENANT_ID = 00000000-0000-0000-0000-000000000003
CONTENT_KEY_POLICY_NAME = SharedContentKeyPolicyUsedByAllAssets
CONTENT_KEY_IDENTIFIER_CLAIM_TYPE = urn:microsoft:azure:mediaservices:contentkeyidentifier
ISSUER = myIssuer
AUDIENCE = myAudience
POLL_INTERVAL = 2
SINK_TYPE = s3
SINK_BUCKET = results
SINK_REGION = eu-west-1
`

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.ini")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	s, err := Load(writeSettings(t, sampleSettings))
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if s.AccountName != "amsaccount" {
		t.Errorf("Expected account amsaccount, got %s", s.AccountName)
	}
	if s.ResourceGroupName != "media-rg" {
		t.Errorf("Expected resource group media-rg, got %s", s.ResourceGroupName)
	}
	if s.ClientSecret != "s3cret" {
		t.Errorf("Expected client secret from KEY, got %q", s.ClientSecret)
	}
	if s.ContentKeyIdentifierClaimType != "urn:microsoft:azure:mediaservices:contentkeyidentifier" {
		t.Errorf("Unexpected claim type %s", s.ContentKeyIdentifierClaimType)
	}
	if s.InputFile != DefaultInputFile {
		t.Errorf("Expected default input file, got %s", s.InputFile)
	}
	if s.Poll.Interval != 2*time.Second {
		t.Errorf("Expected bare integer poll interval to mean seconds, got %v", s.Poll.Interval)
	}
	if s.Poll.MaxInterval != 2*time.Second {
		t.Errorf("Expected max interval to follow interval, got %v", s.Poll.MaxInterval)
	}
	if s.Poll.Timeout != 0 {
		t.Errorf("Expected unbounded poll by default, got %v", s.Poll.Timeout)
	}
	if s.Sink.Type != "s3" || s.Sink.Settings["bucket"] != "results" || s.Sink.Settings["region"] != "eu-west-1" {
		t.Errorf("Unexpected sink settings: %+v", s.Sink)
	}
	if _, ok := s.Sink.Settings["type"]; ok {
		t.Error("SINK_TYPE should not leak into sink settings")
	}

	if err := s.RequireAccount(); err != nil {
		t.Errorf("Expected account settings to be complete: %v", err)
	}
	if err := s.RequireEncryption(); err != nil {
		t.Errorf("Expected encryption settings to be complete: %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("AMSFLOW_ACCOUNT_NAME", "override")
	t.Setenv("AMSFLOW_POLL_TIMEOUT", "30m")

	s, err := Load(writeSettings(t, sampleSettings))
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if s.AccountName != "override" {
		t.Errorf("Expected environment override, got %s", s.AccountName)
	}
	if s.Poll.Timeout != 30*time.Minute {
		t.Errorf("Expected 30m timeout, got %v", s.Poll.Timeout)
	}
}

func TestRequireReportsMissingKeys(t *testing.T) {
	s, err := Load(writeSettings(t, "[DEFAULT]\nACCOUNT_NAME = a\n"))
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	err = s.RequireAccount()
	if !errors.Is(err, ErrMissingSetting) {
		t.Fatalf("Expected ErrMissingSetting, got %v", err)
	}
	for _, key := range []string{KeyResourceGroupName, KeySubscriptionID, KeyTenantID} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected %s in error %q", key, err)
		}
	}
	if strings.Contains(err.Error(), KeyAccountName) {
		t.Errorf("ACCOUNT_NAME is set and should not be reported: %v", err)
	}
}

func TestInvalidPollMultiplier(t *testing.T) {
	if _, err := Load(writeSettings(t, "[DEFAULT]\nPOLL_MULTIPLIER = 0.5\n")); err == nil {
		t.Error("Expected error for multiplier below 1")
	}
}

func TestDataPaths(t *testing.T) {
	t.Setenv("AMSFLOW_DATA_DIR", "")
	if got := GetRunsDBPath(""); got != filepath.Join(DefaultDataDir, "runs.db") {
		t.Errorf("Unexpected default runs db path %s", got)
	}
	if got := GetRunsDBPath("/var/lib/amsflow"); got != "/var/lib/amsflow/runs.db" {
		t.Errorf("Unexpected runs db path %s", got)
	}
	if got := GetOutputDir("", "output-1"); got != filepath.Join("output", "output-1") {
		t.Errorf("Unexpected output dir %s", got)
	}
}

func TestLoadDefaultSectionKeysAnyCase(t *testing.T) {
	for name, body := range map[string]string{
		"header":    "[DEFAULT]\naccount_name = amsaccount\n",
		"no header": "Account_Name = amsaccount\n",
	} {
		t.Run(name, func(t *testing.T) {
			s, err := Load(writeSettings(t, body))
			if err != nil {
				t.Fatalf("Failed to load settings: %v", err)
			}
			if s.AccountName != "amsaccount" {
				t.Errorf("Expected account amsaccount, got %q", s.AccountName)
			}
		})
	}
}
