package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

const testClientJSON = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GOOGLE_SERVICE_ACCOUNT_JSON", "GOOGLE_SERVICE_ACCOUNT_FILE", "GOOGLE_APPLICATION_CREDENTIALS",
		"GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE", "GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE"} {
		t.Setenv(k, "")
	}
}

func TestOAuthClientConfig(t *testing.T) {
	clearCredentialEnv(t)

	cfg, err := OAuthClientConfig()
	if err != nil || cfg != nil {
		t.Fatalf("unset client: cfg=%v err=%v", cfg, err)
	}

	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)
	cfg, err = OAuthClientConfig()
	if err != nil {
		t.Fatalf("OAuthClientConfig: %v", err)
	}
	if cfg.ClientID != "test" {
		t.Errorf("ClientID = %q", cfg.ClientID)
	}
}

func TestNewSheetsService_OAuthMissingToken(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)

	_, err := newSheetsService(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing oauth token") {
		t.Fatalf("expected token error, got %v", err)
	}
}

func TestNewSheetsService_OAuthToken(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", testClientJSON)

	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: time.Now().Add(time.Hour)}
	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v", info.Mode().Perm())
	}

	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", path)
	svc, err := newSheetsService(context.Background())
	if err != nil || svc == nil {
		t.Fatalf("newSheetsService: svc=%v err=%v", svc, err)
	}
}
