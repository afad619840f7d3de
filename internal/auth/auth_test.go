package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-bridge/internal/domain"
	apperrors "github.com/spec-kit/ticket-bridge/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("s3cret", 30)
	token, expiresAt, err := tm.GenerateToken("123456789", domain.SubjectTypeStaff)
	if err != nil {
		t.Fatal(err)
	}
	if d := time.Until(expiresAt); d < 29*time.Minute || d > 31*time.Minute {
		t.Errorf("expiry in %v", d)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != domain.SubjectTypeStaff || claims.RegisteredClaims.Subject != "123456789" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("s3cret", 30)
	other := NewTokenManager("other", 30)
	foreign, _, _ := other.GenerateToken("1", domain.SubjectTypeStaff)

	expired := NewTokenManager("s3cret", 1)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, _ := expired.GenerateToken("1", domain.SubjectTypeStaff)

	cases := map[string]string{
		"garbage":    "not-a-token",
		"bad secret": foreign,
		"expired":    stale,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tm.ParseToken(token); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("s3cret", 30)
	staffToken, _, _ := tm.GenerateToken("42", domain.SubjectTypeStaff)
	serviceToken, _, _ := tm.GenerateToken("exporter", domain.SubjectTypeService)
	unknownToken, _, _ := tm.GenerateToken("x", domain.SubjectType("GUEST"))

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
	}})
	app.Get("/staff", NewAuthMiddleware(tm).Handle, RequireStaff(), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.SubjectID)
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic " + staffToken, fiber.StatusUnauthorized},
		{"unknown subject", "Bearer " + unknownToken, fiber.StatusUnauthorized},
		{"service subject", "Bearer " + serviceToken, fiber.StatusForbidden},
		{"staff", "Bearer " + staffToken, fiber.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/staff", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
