package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

const (
	// DefaultSettingsFile is read from the working directory unless --config says otherwise.
	DefaultSettingsFile = "settings.ini"
	DefaultInputFile    = "ignite.mp4"
	DefaultOutputFolder = "output"
	DefaultPollInterval = 5 * time.Second

	envPrefix = "AMSFLOW_"
	sinkKey   = "SINK_"
)

// Keys recognised in the DEFAULT section of settings.ini.
const (
	KeyAccountName                   = "ACCOUNT_NAME"
	KeyResourceGroupName             = "RESOURCE_GROUP_NAME"
	KeyTransformName                 = "TRANSFORM_NAME"
	KeyClient                        = "CLIENT"
	KeyKey                           = "KEY"
	KeySubscriptionID                = "SUBSCRIPTION_ID"
	KeyTenantID                      = "TENANT_ID"
	KeyContentKeyPolicyName          = "CONTENT_KEY_POLICY_NAME"
	KeyContentKeyIdentifierClaimType = "CONTENT_KEY_IDENTIFIER_CLAIM_TYPE"
	KeyIssuer                        = "ISSUER"
	KeyAudience                      = "AUDIENCE"
	KeyInputFile                     = "INPUT_FILE"
	KeyOutputFolder                  = "OUTPUT_FOLDER"
	KeyPollInterval                  = "POLL_INTERVAL"
	KeyPollMaxInterval               = "POLL_MAX_INTERVAL"
	KeyPollMultiplier                = "POLL_MULTIPLIER"
	KeyPollTimeout                   = "POLL_TIMEOUT"
	KeyLogLevel                      = "LOG_LEVEL"
	KeyLogFile                       = "LOG_FILE"
	KeyDataDir                       = "DATA_DIR"
	KeySinkType                      = "SINK_TYPE"
)

var ErrMissingSetting = errors.New("missing required setting")

// PollSettings shapes the job and live event polling schedule.
type PollSettings struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	Timeout     time.Duration // 0 polls until a terminal state
}

// SinkSettings selects where downloaded output assets are written.
// Settings holds every SINK_* key with the prefix stripped and lowercased,
// e.g. SINK_BUCKET becomes "bucket".
type SinkSettings struct {
	Type     string
	Settings map[string]string
}

// Settings is the parsed form of settings.ini after environment overrides.
type Settings struct {
	AccountName       string
	ResourceGroupName string
	TransformName     string
	ClientID          string
	ClientSecret      string
	SubscriptionID    string
	TenantID          string

	ContentKeyPolicyName          string
	ContentKeyIdentifierClaimType string
	Issuer                        string
	Audience                      string

	InputFile    string
	OutputFolder string
	Poll         PollSettings
	LogLevel     string
	LogFile      string
	DataDir      string
	Sink         SinkSettings

	raw map[string]string
}

// Load reads a .env file if present, then the ini file at path, then applies
// AMSFLOW_<KEY> environment overrides.
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	raw := make(map[string]string)
	if path != "" {
		file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		for _, key := range file.Section(ini.DefaultSection).Keys() {
			raw[strings.ToUpper(key.Name())] = strings.TrimSpace(key.Value())
		}
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, envPrefix) {
			continue
		}
		raw[strings.TrimPrefix(name, envPrefix)] = value
	}

	return fromMap(raw)
}

func fromMap(raw map[string]string) (*Settings, error) {
	s := &Settings{
		AccountName:                   raw[KeyAccountName],
		ResourceGroupName:             raw[KeyResourceGroupName],
		TransformName:                 raw[KeyTransformName],
		ClientID:                      raw[KeyClient],
		ClientSecret:                  raw[KeyKey],
		SubscriptionID:                raw[KeySubscriptionID],
		TenantID:                      raw[KeyTenantID],
		ContentKeyPolicyName:          raw[KeyContentKeyPolicyName],
		ContentKeyIdentifierClaimType: raw[KeyContentKeyIdentifierClaimType],
		Issuer:                        raw[KeyIssuer],
		Audience:                      raw[KeyAudience],
		InputFile:                     valueOr(raw[KeyInputFile], DefaultInputFile),
		OutputFolder:                  valueOr(raw[KeyOutputFolder], DefaultOutputFolder),
		LogLevel:                      raw[KeyLogLevel],
		LogFile:                       raw[KeyLogFile],
		DataDir:                       raw[KeyDataDir],
		raw:                           raw,
	}

	var err error
	if s.Poll.Interval, err = durationOr(raw, KeyPollInterval, DefaultPollInterval); err != nil {
		return nil, err
	}
	if s.Poll.MaxInterval, err = durationOr(raw, KeyPollMaxInterval, s.Poll.Interval); err != nil {
		return nil, err
	}
	if s.Poll.Timeout, err = durationOr(raw, KeyPollTimeout, 0); err != nil {
		return nil, err
	}
	s.Poll.Multiplier = 1.0
	if v := raw[KeyPollMultiplier]; v != "" {
		m, perr := strconv.ParseFloat(v, 64)
		if perr != nil || m < 1 {
			return nil, fmt.Errorf("invalid %s %q: must be a number >= 1", KeyPollMultiplier, v)
		}
		s.Poll.Multiplier = m
	}
	if s.Poll.MaxInterval < s.Poll.Interval {
		s.Poll.MaxInterval = s.Poll.Interval
	}

	s.Sink = SinkSettings{Type: valueOr(raw[KeySinkType], "local"), Settings: make(map[string]string)}
	for key, value := range raw {
		if key == KeySinkType || !strings.HasPrefix(key, sinkKey) {
			continue
		}
		s.Sink.Settings[strings.ToLower(strings.TrimPrefix(key, sinkKey))] = value
	}

	return s, nil
}

// Get returns any raw setting by its ini key.
func (s *Settings) Get(key string) string {
	return s.raw[key]
}

// Require reports every listed key that has no value.
func (s *Settings) Require(keys ...string) error {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(s.raw[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// RequireAccount checks the keys every workflow needs to reach the account.
func (s *Settings) RequireAccount() error {
	return s.Require(KeyAccountName, KeyResourceGroupName, KeySubscriptionID, KeyTenantID)
}

// RequireEncryption checks the keys the AES workflow needs on top of the account keys.
func (s *Settings) RequireEncryption() error {
	return s.Require(KeyTransformName, KeyContentKeyPolicyName, KeyContentKeyIdentifierClaimType, KeyIssuer, KeyAudience)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func durationOr(raw map[string]string, key string, fallback time.Duration) (time.Duration, error) {
	v := raw[key]
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// plain integers are seconds
		secs, ierr := strconv.Atoi(v)
		if ierr != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		d = time.Duration(secs) * time.Second
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, v)
	}
	return d, nil
}
