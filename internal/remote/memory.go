package remote

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"axis/internal/domain"
	"axis/pkg/platform/sentinel"
)

// MemoryStore is an in-memory Store. It backs demo mode when no remote is
// configured and doubles as the test fake, like the other store_memory
// implementations in this tree.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]domain.Profile
	proofs        map[string]domain.Proof
	projects      map[string]domain.Project
	broadcasts    map[string]domain.Broadcast
	notifications map[string]domain.Notification
	events        map[string]domain.SystemEvent
	clock         func() time.Time
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]domain.Profile),
		proofs:        make(map[string]domain.Proof),
		projects:      make(map[string]domain.Project),
		broadcasts:    make(map[string]domain.Broadcast),
		notifications: make(map[string]domain.Notification),
		events:        make(map[string]domain.SystemEvent),
		clock:         time.Now,
	}
}

// applyPatch round-trips the patch through JSON so column-named keys land on
// the struct the same way the REST driver's server would apply them.
func applyPatch[T any](entity T, patch Patch) (T, error) {
	base, err := json.Marshal(entity)
	if err != nil {
		return entity, err
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return entity, err
	}
	for k, v := range patch {
		merged[k] = v
	}
	buf, err := json.Marshal(merged)
	if err != nil {
		return entity, err
	}
	var out T
	if err := json.Unmarshal(buf, &out); err != nil {
		return entity, err
	}
	return out, nil
}

func (s *MemoryStore) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profiles := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		p.Proofs = s.proofsFor(p.ID)
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CreatedAt.After(profiles[j].CreatedAt) })
	normalizeProfiles(profiles)
	return profiles, nil
}

func (s *MemoryStore) proofsFor(jobberID string) []domain.Proof {
	var proofs []domain.Proof
	for _, pr := range s.proofs {
		if pr.JobberID == jobberID {
			proofs = append(proofs, pr)
		}
	}
	sort.Slice(proofs, func(i, j int) bool { return proofs[i].CreatedAt.After(proofs[j].CreatedAt) })
	return proofs
}

func (s *MemoryStore) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return domain.Profile{}, sentinel.ErrNotFound
	}
	p.Proofs = s.proofsFor(id)
	profiles := []domain.Profile{p}
	normalizeProfiles(profiles)
	return profiles[0], nil
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, id string, patch Patch) (domain.Profile, error) {
	s.mu.Lock()
	p, ok := s.profiles[id]
	if !ok {
		s.mu.Unlock()
		return domain.Profile{}, sentinel.ErrNotFound
	}
	updated, err := applyPatch(p, patch)
	if err != nil {
		s.mu.Unlock()
		return domain.Profile{}, err
	}
	updated.Proofs = nil
	s.profiles[id] = updated
	s.mu.Unlock()
	return s.GetProfile(ctx, id)
}

func (s *MemoryStore) DeleteProfile(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, id)
	for pid, pr := range s.proofs {
		if pr.JobberID == id {
			delete(s.proofs, pid)
		}
	}
	return nil
}

func (s *MemoryStore) InsertProof(_ context.Context, proof domain.Proof) (domain.Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proof.ID == "" {
		proof.ID = uuid.NewString()
	}
	if proof.Status == "" {
		proof.Status = domain.ProofPending
	}
	proof.CreatedAt = s.clock()
	s.proofs[proof.ID] = proof
	return proof, nil
}

func (s *MemoryStore) UpdateProof(_ context.Context, id string, patch Patch) (domain.Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, ok := s.proofs[id]
	if !ok {
		return domain.Proof{}, sentinel.ErrNotFound
	}
	updated, err := applyPatch(pr, patch)
	if err != nil {
		return domain.Proof{}, err
	}
	s.proofs[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteProof(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proofs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.proofs, id)
	return nil
}

func (s *MemoryStore) ListProjects(_ context.Context) ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projects := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func (s *MemoryStore) InsertProject(_ context.Context, project domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	project.CreatedAt = s.clock()
	s.projects[project.ID] = project
	return project, nil
}

func (s *MemoryStore) UpdateProject(_ context.Context, id string, patch Patch) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, sentinel.ErrNotFound
	}
	updated, err := applyPatch(p, patch)
	if err != nil {
		return domain.Project{}, err
	}
	s.projects[id] = updated
	return updated, nil
}

func (s *MemoryStore) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

func (s *MemoryStore) ListBroadcasts(_ context.Context) ([]domain.Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	broadcasts := make([]domain.Broadcast, 0, len(s.broadcasts))
	for _, b := range s.broadcasts {
		broadcasts = append(broadcasts, b)
	}
	sort.Slice(broadcasts, func(i, j int) bool { return broadcasts[i].CreatedAt.After(broadcasts[j].CreatedAt) })
	return broadcasts, nil
}

func (s *MemoryStore) InsertBroadcast(_ context.Context, broadcast domain.Broadcast) (domain.Broadcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if broadcast.ID == "" {
		broadcast.ID = uuid.NewString()
	}
	if broadcast.Priority == "" {
		broadcast.Priority = domain.PriorityNormal
	}
	broadcast.CreatedAt = s.clock()
	s.broadcasts[broadcast.ID] = broadcast
	return broadcast, nil
}

func (s *MemoryStore) DeleteBroadcast(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.broadcasts[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.broadcasts, id)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var notifications []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

// AddNotification seeds a notification; notifications are created by external
// collaborators in production.
func (s *MemoryStore) AddNotification(n domain.Notification) domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.clock()
	}
	s.notifications[n.ID] = n
	return n
}

func (s *MemoryStore) MarkNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
			s.notifications[id] = n
		}
	}
	return nil
}

func (s *MemoryStore) DeleteNotification(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

func (s *MemoryStore) ClearNotifications(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notifications {
		if n.UserID == userID {
			delete(s.notifications, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]domain.SystemEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]domain.SystemEvent, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
	if len(events) > domain.EventReadLimit {
		events = events[:domain.EventReadLimit]
	}
	return events, nil
}

func (s *MemoryStore) InsertEvent(_ context.Context, event domain.SystemEvent) (domain.SystemEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.CreatedAt = s.clock()
	s.events[event.ID] = event
	return event, nil
}

func (s *MemoryStore) DeleteEvent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// AddProfile seeds a profile; registration is an external collaborator in
// production, so the fake exposes it directly.
func (s *MemoryStore) AddProfile(p domain.Profile) domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock()
	}
	if p.Role == "" {
		p.Role = domain.RoleJobber
	}
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	p.Proofs = nil
	s.profiles[p.ID] = p
	return p
}
