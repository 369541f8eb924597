package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pnlfinance/family-finance/internal/domain"
	"github.com/pnlfinance/family-finance/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var sessionTracer = otel.Tracer("service/session")

const sessionIssuer = "family-finance"

// DefaultCategories are seeded into every standard ledger of a new family.
var DefaultCategories = []domain.Category{
	{Name: "Продукты", Icon: "🛒", Kind: domain.Expense},
	{Name: "Транспорт", Icon: "🚕", Kind: domain.Expense},
	{Name: "Дом", Icon: "🏠", Kind: domain.Expense},
	{Name: "Развлечения", Icon: "🎉", Kind: domain.Expense},
	{Name: "Зарплата", Icon: "💰", Kind: domain.Income},
	{Name: "Подарки", Icon: "🎁", Kind: domain.Income},
}

// SessionConfig carries the settings SessionService needs from config.Config.
type SessionConfig struct {
	LedgerTitles      []string
	CreditLedgerTitle string
	JWTSecret         string
	SessionTTL        time.Duration
}

// SessionClaims are the claims of a session token.
// Subject is the profile id.
type SessionClaims struct {
	FamilyID string `json:"family_id"`
	jwt.RegisteredClaims
}

// SessionService resolves a Telegram user to a profile and family, seeds a
// new family's ledgers and categories, and issues session tokens.
type SessionService struct {
	store  port.FinanceStore
	cfg    SessionConfig
	secret []byte
	logger *zap.Logger
}

// NewSessionService creates a session service.
func NewSessionService(store port.FinanceStore, cfg SessionConfig, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:  store,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		logger: logger,
	}
}

// ============================================================
// Start: POST /v1/session
// ============================================================

func (s *SessionService) Start(ctx context.Context, user domain.TelegramUser) (*domain.SessionInfo, error) {
	ctx, span := sessionTracer.Start(ctx, "SessionService.Start")
	defer span.End()
	span.SetAttributes(attribute.Int64("telegram.id", user.ID))

	if user.ID == 0 {
		return nil, &domain.ErrValidation{Field: "id", Message: "telegram user id is required"}
	}

	profile, err := s.resolveProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	ledgers, err := s.ensureLedgers(ctx, profile.FamilyID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCategories(ctx, ledgers); err != nil {
		return nil, err
	}

	token, err := s.signSessionToken(profile)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &domain.SessionInfo{Token: token, Profile: *profile, Ledgers: ledgers}, nil
}

func (s *SessionService) resolveProfile(ctx context.Context, user domain.TelegramUser) (*domain.Profile, error) {
	profile, err := s.store.GetProfileByTelegramID(ctx, user.ID)
	if err == nil {
		return profile, nil
	}
	if !domain.IsNotFound(err, "profile") {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	family, err := s.store.CreateFamily(ctx)
	if err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}

	name := strings.TrimSpace(user.FirstName)
	if name == "" {
		name = "user " + strconv.FormatInt(user.ID, 10)
	}
	profile, err = s.store.CreateProfile(ctx, &domain.Profile{
		TelegramID:  user.ID,
		FamilyID:    family.ID,
		DisplayName: name,
	})
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("new family registered",
		zap.String("family_id", family.ID),
		zap.String("profile_id", profile.ID),
	)
	return profile, nil
}

func (s *SessionService) ensureLedgers(ctx context.Context, familyID string) ([]domain.Ledger, error) {
	ledgers, err := s.store.ListLedgers(ctx, familyID)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	if len(ledgers) > 0 {
		return ledgers, nil
	}

	seed := make([]domain.Ledger, 0, len(s.cfg.LedgerTitles))
	for _, title := range s.cfg.LedgerTitles {
		kind := domain.LedgerStandard
		if title == s.cfg.CreditLedgerTitle {
			kind = domain.LedgerCredit
		}
		seed = append(seed, domain.Ledger{FamilyID: familyID, Title: title, Kind: kind})
	}

	ledgers, err = s.store.CreateLedgers(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("seed ledgers: %w", err)
	}
	s.logger.Info("ledgers seeded", zap.String("family_id", familyID), zap.Int("count", len(ledgers)))
	return ledgers, nil
}

// ensureCategories seeds defaults only when the family has no categories at
// all, so user deletions are never undone.
func (s *SessionService) ensureCategories(ctx context.Context, ledgers []domain.Ledger) error {
	ids := make([]string, 0, len(ledgers))
	for _, l := range ledgers {
		ids = append(ids, l.ID)
	}

	existing, err := s.store.ListCategories(ctx, ids)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	var seed []domain.Category
	for _, l := range ledgers {
		if l.Kind != domain.LedgerStandard {
			continue
		}
		for _, c := range DefaultCategories {
			c.LedgerID = l.ID
			seed = append(seed, c)
		}
	}
	if len(seed) == 0 {
		return nil
	}

	if _, err := s.store.CreateCategories(ctx, seed); err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	return nil
}

// ============================================================
// ValidateToken: used by middleware
// ============================================================

func (s *SessionService) ValidateToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired session token"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.FamilyID == "" {
		return nil, &domain.ErrUnauthorized{Message: "invalid session token"}
	}
	return claims, nil
}

func (s *SessionService) signSessionToken(p *domain.Profile) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		FamilyID: p.FamilyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
			Issuer:    sessionIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
