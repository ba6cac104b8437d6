package cache

import "axis/internal/domain"

// Collection names as the remote store and the push channel know them.
const (
	CollectionProfiles      = "profiles"
	CollectionProjects      = "projects"
	CollectionBroadcasts    = "broadcasts"
	CollectionNotifications = "notifications"
	CollectionEvents        = "events"
)

// Mirror aggregates the per-collection containers. It is constructed
// explicitly and handed to consumers; there is no ambient singleton.
type Mirror struct {
	Profiles      *Collection[domain.Profile]
	Projects      *Collection[domain.Project]
	Broadcasts    *Collection[domain.Broadcast]
	Notifications *Collection[domain.Notification]
	Events        *Collection[domain.SystemEvent]
}

// NewMirror builds an empty mirror. It holds nothing until the first resync
// or confirmed write lands.
func NewMirror() *Mirror {
	return &Mirror{
		Profiles:      NewCollection(CollectionProfiles, func(p domain.Profile) string { return p.ID }),
		Projects:      NewCollection(CollectionProjects, func(p domain.Project) string { return p.ID }),
		Broadcasts:    NewCollection(CollectionBroadcasts, func(b domain.Broadcast) string { return b.ID }),
		Notifications: NewCollection(CollectionNotifications, func(n domain.Notification) string { return n.ID }),
		Events:        NewCollection(CollectionEvents, func(e domain.SystemEvent) string { return e.ID }),
	}
}

// Dispose empties every collection. Subscribers see one final notification
// per collection.
func (m *Mirror) Dispose() {
	m.Profiles.ReplaceAll(nil)
	m.Projects.ReplaceAll(nil)
	m.Broadcasts.ReplaceAll(nil)
	m.Notifications.ReplaceAll(nil)
	m.Events.ReplaceAll(nil)
}
