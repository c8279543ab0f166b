package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bartrekker/admin-api/internal/models"
)

const (
	// minPasswordLength is the weakest password CreateAccount accepts
	minPasswordLength = 6

	// maxFailedAttempts sign-in failures within attemptWindow lock the
	// account out with too-many-requests until the window passes
	maxFailedAttempts = 5
	attemptWindow     = 15 * time.Minute
)

// LocalProvider is the database-backed identity provider. Accounts live in
// the service database with bcrypt hashes; the current signed-in principal
// is held in memory and fanned out to identity-change subscribers.
type LocalProvider struct {
	db       *gorm.DB
	log      zerolog.Logger
	validate *validator.Validate

	mu      sync.Mutex
	current *Principal
	subs    map[int]func(*Principal)
	nextSub int

	attempts map[string]*attemptRecord
}

type attemptRecord struct {
	count       int
	windowStart time.Time
}

// NewLocalProvider creates a database-backed identity provider
func NewLocalProvider(db *gorm.DB, log zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		db:       db,
		log:      log,
		validate: validator.New(),
		subs:     make(map[int]func(*Principal)),
		attempts: make(map[string]*attemptRecord),
	}
}

// SignIn verifies the credential pair against the accounts table. Failures
// are classified: malformed email, unknown account, bad password, and
// repeated failures within the attempt window each get their own code.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Principal, error) {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, NewError(CodeInvalidEmail, fmt.Errorf("malformed email %q", email))
	}

	if p.throttled(email) {
		return nil, NewError(CodeTooManyRequests, fmt.Errorf("too many failed attempts for %s", email))
	}

	var account models.Account
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewError(CodeUserNotFound, err)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := VerifyPassword(password, account.PasswordHash); err != nil {
		p.recordFailure(email)
		return nil, NewError(CodeWrongPassword, err)
	}
	p.clearFailures(email)

	principal := &Principal{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
	}

	p.setCurrent(principal)
	return principal, nil
}

// SignOut ends the current provider session and notifies subscribers
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.setCurrent(nil)
	return nil
}

// CreateAccount provisions a new account with a bcrypt-hashed password
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password, name string) (*Principal, error) {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return nil, NewError(CodeInvalidEmail, fmt.Errorf("malformed email %q", email))
	}
	if len(password) < minPasswordLength {
		return nil, NewError(CodeWeakPassword, fmt.Errorf("password shorter than %d characters", minPasswordLength))
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check for existing account: %w", err)
	}
	if count > 0 {
		return nil, NewError(CodeEmailInUse, fmt.Errorf("account %s already exists", email))
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := p.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	p.log.Info().Str("account_id", account.ID).Str("email", account.Email).Msg("Account created")

	return &Principal{
		ID:    account.ID,
		Email: account.Email,
		Name:  account.Name,
	}, nil
}

// OnIdentityChange subscribes cb to sign-in/sign-out notifications. The
// current principal is delivered asynchronously right after subscribing so
// late subscribers observe the present state.
func (p *LocalProvider) OnIdentityChange(cb func(*Principal)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = cb
	current := p.current
	p.mu.Unlock()

	go cb(current)

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// setCurrent replaces the signed-in principal and fans the change out
func (p *LocalProvider) setCurrent(principal *Principal) {
	p.mu.Lock()
	p.current = principal
	cbs := make([]func(*Principal), 0, len(p.subs))
	for _, cb := range p.subs {
		cbs = append(cbs, cb)
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		cb(principal)
	}
}

func (p *LocalProvider) throttled(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.attempts[email]
	if !ok {
		return false
	}
	if time.Since(rec.windowStart) > attemptWindow {
		delete(p.attempts, email)
		return false
	}
	return rec.count >= maxFailedAttempts
}

func (p *LocalProvider) recordFailure(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.attempts[email]
	if !ok || time.Since(rec.windowStart) > attemptWindow {
		p.attempts[email] = &attemptRecord{count: 1, windowStart: time.Now()}
		return
	}
	rec.count++
}

func (p *LocalProvider) clearFailures(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, email)
}
