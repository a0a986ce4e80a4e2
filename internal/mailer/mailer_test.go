package mailer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gearguard/gearguard/internal/core/domain"
)

func mailBody(t *testing.T, from string, msg domain.MailMessage) string {
	t.Helper()
	m, err := Render(from, msg)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("serialize mail: %v", err)
	}
	return buf.String()
}

func TestRender_ResetPassword(t *testing.T) {
	body := mailBody(t, "noreply@gearguard.io", domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "alice@example.com",
		Data: domain.ResetPasswordMailData{FullName: "Alice", OTP: "123456", ExpiryMinutes: 10},
	})

	if !strings.Contains(body, "123456") {
		t.Fatalf("mail body missing OTP:\n%s", body)
	}
	if !strings.Contains(body, "Password reset code") {
		t.Fatalf("unexpected subject:\n%s", body)
	}
}

func TestRender_NewAccount(t *testing.T) {
	body := mailBody(t, "noreply@gearguard.io", domain.MailMessage{
		Type: domain.MailTypeNewAccount,
		To:   "bob@example.com",
		Data: domain.NewAccountMailData{FullName: "Bob", Email: "bob@example.com", Role: domain.RoleTechnician},
	})

	if !strings.Contains(body, "TECHNICIAN") {
		t.Fatalf("mail body missing role:\n%s", body)
	}
}

func TestRender_QueueDecodedData(t *testing.T) {
	// Off the queue, Data is a map rather than the concrete struct.
	body := mailBody(t, "noreply@gearguard.io", domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "alice@example.com",
		Data: map[string]any{"fullName": "Alice", "otp": "654321", "expiryMinutes": 10},
	})

	if !strings.Contains(body, "654321") {
		t.Fatalf("mail body missing OTP decoded from generic data:\n%s", body)
	}
}

func TestRender_UnknownType(t *testing.T) {
	_, err := Render("noreply@gearguard.io", domain.MailMessage{
		Type: "newsletter",
		To:   "alice@example.com",
	})
	if err == nil {
		t.Fatal("expected error for unsupported mail type")
	}
}

func TestRender_BadRecipient(t *testing.T) {
	_, err := Render("noreply@gearguard.io", domain.MailMessage{
		Type: domain.MailTypeNewAccount,
		To:   "not-an-address",
	})
	if err == nil {
		t.Fatal("expected error for invalid recipient")
	}
}
