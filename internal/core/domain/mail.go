package domain

// MailMessage is the envelope published to the mail outbox queue.
// Type selects the template in the mailer worker.
type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

const (
	MailTypeResetPassword = "reset_password"
	MailTypeNewAccount    = "new_account"
)

// ResetPasswordMailData fills the password-reset OTP template.
type ResetPasswordMailData struct {
	FullName      string `json:"fullName"`
	OTP           string `json:"otp"`
	ExpiryMinutes int    `json:"expiryMinutes"`
}

// NewAccountMailData fills the account-created template.
type NewAccountMailData struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
