package address

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"ecommerce-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, input CreateAddressInput) (*Address, error)
	Update(ctx context.Context, input UpdateAddressInput) (*Address, error)
	GetByID(ctx context.Context, id uint) (*Address, error)
	ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*Address, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, input CreateAddressInput) (*Address, error) {
	log := logger.ForMethod(ctx, "service", "CreateAddress", zap.Uint("user_id", input.UserID))

	addr := &Address{
		UserID:        input.UserID,
		RecipientName: strings.TrimSpace(input.RecipientName),
		Street:        strings.TrimSpace(input.Street),
		Number:        strings.TrimSpace(input.Number),
		Complement:    normalizeOptional(input.Complement),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		Country:       strings.TrimSpace(input.Country),
		IsDefault:     input.IsDefault,
	}
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	if err := validate(addr); err != nil {
		log.Warn("invalid address", zap.Error(err))
		return nil, err
	}

	if err := s.repo.Create(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

// Update replaces every editable field. Ownership never changes.
func (s *service) Update(ctx context.Context, input UpdateAddressInput) (*Address, error) {
	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	current.RecipientName = strings.TrimSpace(input.RecipientName)
	current.Street = strings.TrimSpace(input.Street)
	current.Number = strings.TrimSpace(input.Number)
	current.Complement = normalizeOptional(input.Complement)
	current.City = strings.TrimSpace(input.City)
	current.State = strings.TrimSpace(input.State)
	current.Country = strings.TrimSpace(input.Country)
	current.IsDefault = input.IsDefault
	if current.Country == "" {
		current.Country = DefaultCountry
	}

	if err := validate(current); err != nil {
		logger.ForMethod(ctx, "service", "UpdateAddress").
			Warn("invalid address", zap.Uint("address_id", input.ID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*Address, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID uint, filter ListFilter) ([]*Address, error) {
	list, err := s.repo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*Address{}
	}
	return list, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

var fieldLimits = []struct {
	name  string
	limit int
	value func(*Address) string
}{
	{"recipient_name", 100, func(a *Address) string { return a.RecipientName }},
	{"street", 255, func(a *Address) string { return a.Street }},
	{"number", 10, func(a *Address) string { return a.Number }},
	{"city", 100, func(a *Address) string { return a.City }},
	{"state", 100, func(a *Address) string { return a.State }},
	{"country", 100, func(a *Address) string { return a.Country }},
}

func validate(a *Address) error {
	for _, f := range fieldLimits {
		v := f.value(a)
		if v == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
		if utf8.RuneCountInString(v) > f.limit {
			return fmt.Errorf("%w: %s", ErrFieldTooLong, f.name)
		}
	}
	if a.Complement != nil && utf8.RuneCountInString(*a.Complement) > 100 {
		return fmt.Errorf("%w: complement", ErrFieldTooLong)
	}
	return nil
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
