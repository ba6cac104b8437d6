package remote

import (
	"context"

	"axis/internal/domain"
)

// DemoOperatorID is the principal demo mode runs as.
const DemoOperatorID = "00000000-0000-0000-0000-000000000001"

// SeedDemo loads a small roster into a memory store so demo mode has data to
// mirror. IDs are fixed so restarts stay stable.
func SeedDemo(store *MemoryStore) {
	operator := store.AddProfile(domain.Profile{
		ID:        DemoOperatorID,
		Handle:    "axis-operator",
		Name:      "Axis Operator",
		Email:     "operator@axis.local",
		Role:      domain.RoleSuperAdmin,
		ATISScore: 520,
	})
	jobber := store.AddProfile(domain.Profile{
		ID:        "00000000-0000-0000-0000-000000000002",
		Handle:    "node-7",
		Name:      "Node Seven",
		Email:     "node7@axis.local",
		Role:      domain.RoleJobber,
		ATISScore: 80,
	})

	ctx := context.Background()
	_, _ = store.InsertProof(ctx, domain.Proof{
		JobberID: jobber.ID,
		Title:    "Launch thread",
		Type:     "thread",
		URL:      "https://example.com/thread/1",
		Status:   domain.ProofPending,
	})
	_, _ = store.InsertProject(ctx, domain.Project{
		Title:     "Winter Campaign",
		Price:     "1200",
		Niche:     "fintech",
		CreatedBy: operator.ID,
	})
	_, _ = store.InsertBroadcast(ctx, domain.Broadcast{
		Message:  "Demo mode: no remote store configured.",
		Priority: domain.PriorityNormal,
		AuthorID: operator.ID,
	})
}
