package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	coupons map[string]Coupon
	usages  map[string]bool
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (Coupon, error) {
	c, ok := f.coupons[NormalizeCode(code)]
	if !ok {
		return Coupon{}, ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) HasUsage(_ context.Context, code, customerKey string) (bool, error) {
	return f.usages[NormalizeCode(code)+"|"+customerKey], nil
}

func newTestService(store *fakeStore) *Service {
	return NewService(ServiceConfig{
		Store:  store,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return now },
	})
}

func TestServiceValidateHappyPath(t *testing.T) {
	store := &fakeStore{coupons: map[string]Coupon{"SAVE10": active(nil)}}
	svc := newTestService(store)

	v, err := svc.Validate(context.Background(), "save10", "user-1",
		[]Item{{ProductID: "p1", LineTotal: dec("1000")}}, 2)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", v.Coupon.Code)
	assert.True(t, v.Discount.Equal(dec("100")))
}

func TestServiceLookupIsCaseInsensitive(t *testing.T) {
	store := &fakeStore{coupons: map[string]Coupon{"SAVE10": active(nil)}}
	svc := newTestService(store)

	_, err := svc.Validate(context.Background(), "  SaVe10 ", "",
		[]Item{{ProductID: "p1", LineTotal: dec("100")}}, 1)
	require.NoError(t, err)
}

func TestServiceUnknownCode(t *testing.T) {
	svc := newTestService(&fakeStore{coupons: map[string]Coupon{}})
	_, err := svc.Validate(context.Background(), "NOPE", "user-1", nil, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceRejectsSecondUseBySameCustomer(t *testing.T) {
	store := &fakeStore{
		coupons: map[string]Coupon{"SAVE10": active(nil)},
		usages:  map[string]bool{"SAVE10|user-1": true},
	}
	svc := newTestService(store)

	_, err := svc.Validate(context.Background(), "SAVE10", "user-1",
		[]Item{{ProductID: "p1", LineTotal: dec("1000")}}, 1)
	assert.ErrorIs(t, err, ErrAlreadyUsed)

	// A different customer key is still allowed.
	_, err = svc.Validate(context.Background(), "SAVE10", "user-2",
		[]Item{{ProductID: "p1", LineTotal: dec("1000")}}, 1)
	assert.NoError(t, err)
}

func TestServiceSkipsUsageCheckForAnonymous(t *testing.T) {
	store := &fakeStore{
		coupons: map[string]Coupon{"SAVE10": active(nil)},
		usages:  map[string]bool{"SAVE10|user-1": true},
	}
	svc := newTestService(store)

	_, err := svc.Validate(context.Background(), "SAVE10", "",
		[]Item{{ProductID: "p1", LineTotal: dec("1000")}}, 1)
	assert.NoError(t, err)
}

func TestServiceEnforcesCartFloors(t *testing.T) {
	store := &fakeStore{coupons: map[string]Coupon{
		"SAVE10": active(func(c *Coupon) { c.MinCartTotal = decPtr("500") }),
	}}
	svc := newTestService(store)

	_, err := svc.Validate(context.Background(), "SAVE10", "user-1",
		[]Item{{ProductID: "p1", LineTotal: dec("499")}}, 1)
	assert.ErrorIs(t, err, ErrMinimumSpendUnmet)
}
