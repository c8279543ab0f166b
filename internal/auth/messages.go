package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bartrekker/admin-api/internal/identity"
)

// Messages is the catalog of user-facing auth strings. Every failure shown
// to the console user comes from here so deployments can localize without a
// rebuild; raw provider diagnostics never leak through.
type Messages struct {
	InvalidCredentials string `yaml:"invalid_credentials"`
	UserNotFound       string `yaml:"user_not_found"`
	WrongPassword      string `yaml:"wrong_password"`
	InvalidEmail       string `yaml:"invalid_email"`
	TooManyRequests    string `yaml:"too_many_requests"`
	EmailInUse         string `yaml:"email_in_use"`
	WeakPassword       string `yaml:"weak_password"`
	Unknown            string `yaml:"unknown"`
	AdminExists        string `yaml:"admin_exists"`
	AdminCreated       string `yaml:"admin_created"`
}

// DefaultMessages returns the built-in English catalog
func DefaultMessages() Messages {
	return Messages{
		InvalidCredentials: "Invalid email or password",
		UserNotFound:       "No account found for this email",
		WrongPassword:      "Invalid email or password",
		InvalidEmail:       "Please enter a valid email address",
		TooManyRequests:    "Too many attempts. Please try again later",
		EmailInUse:         "An account with this email already exists",
		WeakPassword:       "Password is too weak",
		Unknown:            "Something went wrong. Please try again",
		AdminExists:        "Admin account already exists",
		AdminCreated:       "Admin account created",
	}
}

// LoadMessages reads a YAML catalog from path and overlays it on the
// defaults; empty entries in the file keep their default. An empty path
// returns the defaults unchanged.
func LoadMessages(path string) (Messages, error) {
	msgs := DefaultMessages()
	if path == "" {
		return msgs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return msgs, fmt.Errorf("failed to read message catalog: %w", err)
	}

	var overlay Messages
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return msgs, fmt.Errorf("failed to parse message catalog: %w", err)
	}

	msgs.merge(overlay)
	return msgs, nil
}

func (m *Messages) merge(o Messages) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&m.InvalidCredentials, o.InvalidCredentials)
	set(&m.UserNotFound, o.UserNotFound)
	set(&m.WrongPassword, o.WrongPassword)
	set(&m.InvalidEmail, o.InvalidEmail)
	set(&m.TooManyRequests, o.TooManyRequests)
	set(&m.EmailInUse, o.EmailInUse)
	set(&m.WeakPassword, o.WeakPassword)
	set(&m.Unknown, o.Unknown)
	set(&m.AdminExists, o.AdminExists)
	set(&m.AdminCreated, o.AdminCreated)
}

// ForCode maps a provider error code to its user-facing string
func (m Messages) ForCode(code identity.Code) string {
	switch code {
	case identity.CodeUserNotFound:
		return m.UserNotFound
	case identity.CodeWrongPassword:
		return m.WrongPassword
	case identity.CodeInvalidEmail:
		return m.InvalidEmail
	case identity.CodeTooManyRequests:
		return m.TooManyRequests
	case identity.CodeEmailInUse:
		return m.EmailInUse
	case identity.CodeWeakPassword:
		return m.WeakPassword
	default:
		return m.Unknown
	}
}
