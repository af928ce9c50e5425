package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openlang/backend/internal/domain"
)

func TestStore_Insert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	lead := &domain.InterestLead{Email: "a@b.com", Source: "VoicERA Website"}
	require.NoError(t, store.Insert(ctx, lead))

	id, at := lead.Identity()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.False(t, at.IsZero())
	assert.Equal(t, "UTC", at.Location().String())

	records := store.Records("voicera_interest_leads")
	require.Len(t, records, 1)
	assert.Same(t, lead, records[0])
	assert.Equal(t, 0, store.Count("contact_submissions"))
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Insert(ctx, &domain.ContactSubmission{
				Email:   fmt.Sprintf("user%d@example.com", i),
				Name:    "User",
				Message: "hello",
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, rec := range store.Records("contact_submissions") {
		id, _ := rec.Identity()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 20)
}

func TestStore_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Insert(ctx, &domain.Inquiry{Email: "a@b.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Count("inquiries"))
}
