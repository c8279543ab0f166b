package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bartrekker/admin-api/internal/config"
	"github.com/bartrekker/admin-api/internal/identity"
)

var adminCfg = config.AdminConfig{
	ID:       "adm-1",
	Email:    "admin@bartrekker.com",
	Password: "sup3rsecret",
	Name:     "BarTrekker Admin",
}

type fakeProvider struct {
	signInErr    error
	signInCalls  int
	principal    *identity.Principal
	signOutErr   error
	signOutCalls int
	createErr    error
	createCalls  int
	cb           func(*identity.Principal)
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*identity.Principal, error) {
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if f.principal != nil {
		return f.principal, nil
	}
	return &identity.Principal{ID: "prov-1", Email: email, Name: "Provider Admin"}, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.signOutCalls++
	return f.signOutErr
}

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password, name string) (*identity.Principal, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &identity.Principal{ID: "prov-1", Email: email, Name: name}, nil
}

func (f *fakeProvider) OnIdentityChange(cb func(*identity.Principal)) func() {
	f.cb = cb
	return func() { f.cb = nil }
}

type recordingEmitter struct {
	logins, logouts, created int
	authErrors               []string
	pageViews                []string
}

func (r *recordingEmitter) AdminLogin()           { r.logins++ }
func (r *recordingEmitter) AdminLogout()          { r.logouts++ }
func (r *recordingEmitter) AdminCreated()         { r.created++ }
func (r *recordingEmitter) AuthError(code string) { r.authErrors = append(r.authErrors, code) }
func (r *recordingEmitter) PageView(name string)  { r.pageViews = append(r.pageViews, name) }

func newTestGateway(p *fakeProvider, e *recordingEmitter) *Gateway {
	return NewGateway(p, adminCfg, e, DefaultMessages(), zerolog.Nop())
}

func TestLoginRejectsNonAdminLocally(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong email", "intruder@example.com", "sup3rsecret"},
		{"wrong password", "admin@bartrekker.com", "guess"},
		{"both wrong", "intruder@example.com", "guess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{}
			emitter := &recordingEmitter{}
			gw := newTestGateway(provider, emitter)

			result := gw.Login(context.Background(), tt.email, tt.password)

			if result.Success {
				t.Fatal("expected rejection")
			}
			if result.Error != DefaultMessages().InvalidCredentials {
				t.Errorf("error = %q, want the non-specific invalid-credentials message", result.Error)
			}
			if provider.signInCalls != 0 {
				t.Error("local rejection must not contact the provider")
			}
			if emitter.logins != 0 {
				t.Error("no login analytics on rejection")
			}
		})
	}
}

func TestLoginSuccess(t *testing.T) {
	provider := &fakeProvider{}
	emitter := &recordingEmitter{}
	gw := newTestGateway(provider, emitter)

	result := gw.Login(context.Background(), adminCfg.Email, adminCfg.Password)

	if !result.Success || result.User == nil {
		t.Fatalf("expected success, got %+v", result)
	}
	if !result.User.IsAdmin {
		t.Error("accepted identity must be admin")
	}
	if result.User.ID != "prov-1" || result.User.Name != "Provider Admin" {
		t.Errorf("identity should come from the provider principal, got %+v", result.User)
	}
	if emitter.logins != 1 {
		t.Errorf("login analytics = %d, want 1", emitter.logins)
	}
}

func TestLoginFallsBackToConfiguredFields(t *testing.T) {
	provider := &fakeProvider{principal: &identity.Principal{}}
	gw := newTestGateway(provider, &recordingEmitter{})

	result := gw.Login(context.Background(), adminCfg.Email, adminCfg.Password)
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	if result.User.ID != adminCfg.ID {
		t.Errorf("ID = %q, want configured fallback %q", result.User.ID, adminCfg.ID)
	}
	if result.User.Email != adminCfg.Email {
		t.Errorf("Email = %q, want configured fallback %q", result.User.Email, adminCfg.Email)
	}
	if result.User.Name != adminCfg.Name {
		t.Errorf("Name = %q, want configured fallback %q", result.User.Name, adminCfg.Name)
	}
}

func TestLoginMapsProviderErrors(t *testing.T) {
	msgs := DefaultMessages()
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantCode string
	}{
		{
			name:     "user not found",
			err:      identity.NewError(identity.CodeUserNotFound, errors.New("no row")),
			wantMsg:  msgs.UserNotFound,
			wantCode: "user-not-found",
		},
		{
			name:     "wrong password",
			err:      identity.NewError(identity.CodeWrongPassword, errors.New("mismatch")),
			wantMsg:  msgs.WrongPassword,
			wantCode: "wrong-password",
		},
		{
			name:     "invalid email",
			err:      identity.NewError(identity.CodeInvalidEmail, errors.New("malformed")),
			wantMsg:  msgs.InvalidEmail,
			wantCode: "invalid-email",
		},
		{
			name:     "too many requests",
			err:      identity.NewError(identity.CodeTooManyRequests, errors.New("throttled")),
			wantMsg:  msgs.TooManyRequests,
			wantCode: "too-many-requests",
		},
		{
			name:     "unclassified provider failure",
			err:      errors.New("connection reset"),
			wantMsg:  msgs.Unknown,
			wantCode: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{signInErr: tt.err}
			emitter := &recordingEmitter{}
			gw := newTestGateway(provider, emitter)

			result := gw.Login(context.Background(), adminCfg.Email, adminCfg.Password)

			if result.Success {
				t.Fatal("expected failure")
			}
			if result.Error != tt.wantMsg {
				t.Errorf("error = %q, want %q", result.Error, tt.wantMsg)
			}
			if len(emitter.authErrors) != 1 || emitter.authErrors[0] != tt.wantCode {
				t.Errorf("auth-error analytics = %v, want [%s]", emitter.authErrors, tt.wantCode)
			}
		})
	}
}

func TestLogoutAnalyticsOnlyOnSuccess(t *testing.T) {
	provider := &fakeProvider{}
	emitter := &recordingEmitter{}
	gw := newTestGateway(provider, emitter)

	if err := gw.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() = %v", err)
	}
	if emitter.logouts != 1 {
		t.Errorf("logout analytics = %d, want 1", emitter.logouts)
	}

	provider.signOutErr = errors.New("provider unreachable")
	if err := gw.Logout(context.Background()); err == nil {
		t.Fatal("expected sign-out failure to propagate")
	}
	if emitter.logouts != 1 {
		t.Error("no logout analytics on failure")
	}
}

func TestAdminExists(t *testing.T) {
	tests := []struct {
		name      string
		signInErr error
		want      bool
	}{
		{"probe succeeds", nil, true},
		{"user not found", identity.NewError(identity.CodeUserNotFound, nil), false},
		{"wrong password still counts as existing", identity.NewError(identity.CodeWrongPassword, nil), true},
		{"unclassified failure treated as existing", errors.New("timeout"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{signInErr: tt.signInErr}
			gw := newTestGateway(provider, &recordingEmitter{})

			if got := gw.AdminExists(context.Background()); got != tt.want {
				t.Errorf("AdminExists() = %v, want %v", got, tt.want)
			}
			if tt.signInErr == nil && provider.signOutCalls != 1 {
				t.Error("a successful probe must sign straight back out")
			}
		})
	}
}

func TestCreateAdmin(t *testing.T) {
	msgs := DefaultMessages()

	t.Run("already exists", func(t *testing.T) {
		provider := &fakeProvider{} // probe sign-in succeeds
		emitter := &recordingEmitter{}
		gw := newTestGateway(provider, emitter)

		result := gw.CreateAdmin(context.Background())
		if !result.Success || result.Message != msgs.AdminExists {
			t.Errorf("got %+v, want success with %q", result, msgs.AdminExists)
		}
		if provider.createCalls != 0 {
			t.Error("no provider mutation when the admin exists")
		}
		if emitter.created != 0 {
			t.Error("no admin-created analytics when nothing was created")
		}
	})

	t.Run("creates when missing", func(t *testing.T) {
		provider := &fakeProvider{signInErr: identity.NewError(identity.CodeUserNotFound, nil)}
		emitter := &recordingEmitter{}
		gw := newTestGateway(provider, emitter)

		result := gw.CreateAdmin(context.Background())
		if !result.Success || result.Message != msgs.AdminCreated {
			t.Errorf("got %+v, want success with %q", result, msgs.AdminCreated)
		}
		if provider.createCalls != 1 {
			t.Errorf("create calls = %d, want 1", provider.createCalls)
		}
		if emitter.created != 1 {
			t.Errorf("admin-created analytics = %d, want 1", emitter.created)
		}
	})

	t.Run("maps creation failures", func(t *testing.T) {
		provider := &fakeProvider{
			signInErr: identity.NewError(identity.CodeUserNotFound, nil),
			createErr: identity.NewError(identity.CodeWeakPassword, nil),
		}
		gw := newTestGateway(provider, &recordingEmitter{})

		result := gw.CreateAdmin(context.Background())
		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Message != msgs.WeakPassword {
			t.Errorf("message = %q, want %q", result.Message, msgs.WeakPassword)
		}
	})
}

func TestOnIdentityChangedFiltersByAdminEmail(t *testing.T) {
	provider := &fakeProvider{}
	gw := newTestGateway(provider, &recordingEmitter{})

	var got []*Identity
	unsubscribe := gw.OnIdentityChanged(func(u *Identity) {
		got = append(got, u)
	})

	provider.cb(&identity.Principal{ID: "prov-1", Email: adminCfg.Email, Name: "Admin"})
	provider.cb(&identity.Principal{ID: "x", Email: "someone@example.com"})
	provider.cb(nil)

	if len(got) != 3 {
		t.Fatalf("callback invocations = %d, want 3", len(got))
	}
	if got[0] == nil || !got[0].IsAdmin || got[0].Email != adminCfg.Email {
		t.Errorf("matching principal should become the admin identity, got %+v", got[0])
	}
	if got[1] != nil {
		t.Error("non-matching principal must be delivered as absent")
	}
	if got[2] != nil {
		t.Error("sign-out must be delivered as absent")
	}

	unsubscribe()
	if provider.cb != nil {
		t.Error("unsubscribe must cancel the provider subscription")
	}
}
