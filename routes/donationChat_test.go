package routes

import (
	"testing"
	"time"

	"food-donation-server/utils"
)

func TestNewDonationChatStampsNormalizedCreatedAt(t *testing.T) {
	before := utils.NormalizeSentTime(nil)
	donationChat := newDonationChat(7, 3)
	after := utils.NormalizeSentTime(nil)

	if donationChat.DonationID != 7 || donationChat.CreatorID != 3 {
		t.Fatalf("unexpected chat fields: %+v", donationChat)
	}

	createdAt := donationChat.CreatedAt
	if createdAt.Location() != time.UTC {
		t.Fatalf("expected zone-naive (UTC-rebuilt) CreatedAt, got location %v", createdAt.Location())
	}
	if createdAt.Nanosecond() != 0 {
		t.Fatalf("expected sub-second precision dropped, got %dns", createdAt.Nanosecond())
	}
	if createdAt.Before(before) || createdAt.After(after) {
		t.Fatalf("CreatedAt %v outside normalized window [%v, %v]", createdAt, before, after)
	}
}
