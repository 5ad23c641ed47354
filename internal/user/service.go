package user

import (
	"context"
	"errors"
	"strings"

	"github.com/pawkart/backend/internal/repo"
)

// ErrInvalidAddress is returned when required address fields are missing.
var ErrInvalidAddress = errors.New("address line1, city, state and pincode are required")

// Address is the API-facing projection of a saved address.
type Address struct {
	ID        string  `json:"id"`
	Line1     string  `json:"line1"`
	Line2     *string `json:"line2,omitempty"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Pincode   string  `json:"pincode"`
	IsDefault bool    `json:"isDefault"`
}

// AddressInput carries create and update payloads.
type AddressInput struct {
	Line1     string
	Line2     *string
	City      string
	State     string
	Pincode   string
	IsDefault bool
}

// Service manages the signed-in user's address book. The default address
// drives shipping region classification at quote time.
type Service struct {
	Addresses repo.AddressesRepo
}

func (s *Service) List(ctx context.Context, userID string) ([]Address, error) {
	rows, err := s.Addresses.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAddress(a))
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, userID string, in AddressInput) (Address, error) {
	a, err := fromInput(userID, in)
	if err != nil {
		return Address{}, err
	}
	id, err := s.Addresses.Create(ctx, a)
	if err != nil {
		return Address{}, err
	}
	a.ID = id
	return toAddress(a), nil
}

func (s *Service) Update(ctx context.Context, userID, addressID string, in AddressInput) (Address, error) {
	a, err := fromInput(userID, in)
	if err != nil {
		return Address{}, err
	}
	a.ID = addressID
	if err := s.Addresses.Update(ctx, a); err != nil {
		return Address{}, err
	}
	return toAddress(a), nil
}

func (s *Service) Delete(ctx context.Context, userID, addressID string) error {
	return s.Addresses.Delete(ctx, addressID, userID)
}

func fromInput(userID string, in AddressInput) (repo.Address, error) {
	line1 := strings.TrimSpace(in.Line1)
	city := strings.TrimSpace(in.City)
	state := strings.TrimSpace(in.State)
	pincode := strings.TrimSpace(in.Pincode)
	if line1 == "" || city == "" || state == "" || pincode == "" {
		return repo.Address{}, ErrInvalidAddress
	}
	return repo.Address{
		UserID:    userID,
		Line1:     line1,
		Line2:     in.Line2,
		City:      city,
		State:     state,
		Pincode:   pincode,
		IsDefault: in.IsDefault,
	}, nil
}

func toAddress(a repo.Address) Address {
	return Address{
		ID:        a.ID,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		State:     a.State,
		Pincode:   a.Pincode,
		IsDefault: a.IsDefault,
	}
}
