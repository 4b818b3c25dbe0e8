package auth

import (
	"strings"
	"testing"
	"time"
)

func testConfig() JWTConfig {
	return JWTConfig{
		Secret:        "test-secret-key-must-be-32-chars!",
		Issuer:        "test-issuer",
		TokenDuration: 15 * time.Minute,
	}
}

func TestNewJWTService_ValidConfig(t *testing.T) {
	service, err := NewJWTService(testConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if service == nil {
		t.Fatal("Expected service to be non-nil")
	}
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = ""

	if _, err := NewJWTService(cfg); err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Secret = "short"

	if _, err := NewJWTService(cfg); err == nil {
		t.Fatal("Expected error for short secret")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	token, err := service.GenerateToken("U123", RoleAdmin)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	claims, err := service.ValidateToken(token)
	if err != nil {
		t.Fatalf("Expected valid token, got: %v", err)
	}
	if claims.UserID != "U123" {
		t.Errorf("Expected UserID 'U123', got %q", claims.UserID)
	}
	if !claims.IsAdmin() {
		t.Error("Expected admin claims")
	}
}

func TestGenerateToken_UnknownRole(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	if _, err := service.GenerateToken("U123", "superuser"); err == nil {
		t.Fatal("Expected error for unknown role")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	service, _ := NewJWTService(testConfig())
	token, _ := service.GenerateToken("U123", RoleOperator)

	other := testConfig()
	other.Secret = strings.Repeat("x", 32)
	otherService, _ := NewJWTService(other)

	if _, err := otherService.ValidateToken(token); err == nil {
		t.Fatal("Expected validation to fail with a different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	nowFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	defer func() { nowFunc = time.Now }()

	token, err := service.GenerateToken("U123", RoleOperator)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	nowFunc = time.Now
	if _, err := service.ValidateToken(token); err == nil {
		t.Fatal("Expected validation to fail for an expired token")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	if _, err := service.ValidateToken("not-a-token"); err == nil {
		t.Fatal("Expected error for malformed token")
	}
}
