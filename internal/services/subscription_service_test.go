package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"reportly/internal/models/db_models"
	"reportly/pkg/utils"
)

func newSubscriptionFixture(t *testing.T) (*fakeUsers, *fakeLedger, SubscriptionService, uuid.UUID) {
	t.Helper()

	userID := uuid.New()
	now := time.Now().Unix()

	sub := &db_models.Subscription{
		UserID:   userID,
		Tier:     "professional",
		Status:   db_models.SubStatusActive,
		StartsAt: now - 86400,
		EndsAt:   now + 29*86400,
	}
	sub.ID = uuid.New()

	subID := sub.ID
	user := &db_models.User{
		SubscriptionID:     &subID,
		Tier:               "professional",
		SubscriptionStatus: string(db_models.SubStatusActive),
	}
	user.ID = userID

	users := &fakeUsers{users: map[uuid.UUID]*db_models.User{userID: user}}
	ledger := &fakeLedger{subs: []*db_models.Subscription{sub}}

	return users, ledger, NewSubscriptionService(users, ledger), userID
}

func TestCancelForUserKeepsAccessUntilPaidThrough(t *testing.T) {
	users, ledger, svc, userID := newSubscriptionFixture(t)
	originalEnds := ledger.subs[0].EndsAt

	res, err := svc.CancelForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("CancelForUser() error: %v", err)
	}

	if res.Status != string(db_models.SubStatusCancelled) {
		t.Errorf("status = %q, want cancelled", res.Status)
	}
	if res.EndsAt != originalEnds {
		t.Errorf("ends at = %d, want untouched %d", res.EndsAt, originalEnds)
	}
	if res.CancelledAt == nil {
		t.Error("cancelled at not set")
	}

	user, _ := users.FindByID(context.Background(), userID)
	if user.SubscriptionStatus != string(db_models.SubStatusCancelled) {
		t.Errorf("user snapshot status = %q, want cancelled", user.SubscriptionStatus)
	}
}

func TestCancelForUserTwice(t *testing.T) {
	_, _, svc, userID := newSubscriptionFixture(t)

	if _, err := svc.CancelForUser(context.Background(), userID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	if _, err := svc.CancelForUser(context.Background(), userID); !errors.Is(err, utils.ErrSubscriptionNotFound) {
		t.Fatalf("second cancel = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestCancelForUserWithoutSubscription(t *testing.T) {
	userID := uuid.New()
	user := &db_models.User{}
	user.ID = userID

	svc := NewSubscriptionService(
		&fakeUsers{users: map[uuid.UUID]*db_models.User{userID: user}},
		&fakeLedger{},
	)

	if _, err := svc.CancelForUser(context.Background(), userID); !errors.Is(err, utils.ErrSubscriptionNotFound) {
		t.Fatalf("error = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestStatusForUnknownUser(t *testing.T) {
	svc := NewSubscriptionService(&fakeUsers{users: map[uuid.UUID]*db_models.User{}}, &fakeLedger{})

	if _, err := svc.StatusForUser(context.Background(), uuid.New()); !errors.Is(err, utils.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}

func TestStatusForUser(t *testing.T) {
	_, ledger, svc, userID := newSubscriptionFixture(t)

	res, err := svc.StatusForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("StatusForUser() error: %v", err)
	}
	if res.UserID != userID || res.Tier != "professional" {
		t.Errorf("response = %+v", res)
	}
	if res.Status != string(db_models.SubStatusActive) {
		t.Errorf("status = %q, want active", res.Status)
	}
	if res.EndsAt != ledger.subs[0].EndsAt {
		t.Errorf("ends at = %d", res.EndsAt)
	}
}
