package live

import (
	"sync"

	"go.uber.org/zap"

	"bookadmin/internal/domain"
)

// Fanout bridges lifecycle events across server instances. Optional: without
// it the hub broadcasts to local connections only.
type Fanout interface {
	Publish(organizationID int64, ev domain.Event) error
	Subscribe(organizationID int64, handler func(domain.Event)) (cancel func(), err error)
}

// Hub fans lifecycle events out to every connected admin session of an
// organization. Rooms are keyed by organization id; each room holds the
// connections of the sessions currently watching that organization's lists.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[int64]map[string]*Client
	subs   map[int64]func() // fanout subscription cancel per room
	fanout Fanout
	logger *zap.Logger
}

func NewHub(fanout Fanout, logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[int64]map[string]*Client),
		subs:   make(map[int64]func()),
		fanout: fanout,
		logger: logger,
	}
}

// Publish delivers an event to every session in the organization's room.
// With a fanout configured, the event goes through it once and each instance
// broadcasts on receipt, so local clients are not delivered twice; subscriber
// dedup by event id covers the rest.
func (h *Hub) Publish(organizationID int64, ev domain.Event) {
	if h.fanout != nil {
		if err := h.fanout.Publish(organizationID, ev); err == nil {
			return
		}
		h.logger.Warn("event fanout failed, broadcasting locally",
			zap.String("event_id", ev.ID))
	}
	h.broadcastLocal(organizationID, ev)
}

func (h *Hub) broadcastLocal(organizationID int64, ev domain.Event) {
	h.mu.RLock()
	clients := h.rooms[organizationID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- ev:
		default:
			// buffer full, skip; the client will re-fetch on reconnect
		}
	}
}

// Register adds a session connection. The first connection of a room starts
// the fanout subscription for that organization.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.OrganizationID] == nil {
		h.rooms[c.OrganizationID] = make(map[string]*Client)
		if h.fanout != nil {
			orgID := c.OrganizationID
			cancel, err := h.fanout.Subscribe(orgID, func(ev domain.Event) {
				h.broadcastLocal(orgID, ev)
			})
			if err == nil {
				h.subs[orgID] = cancel
			} else {
				h.logger.Warn("fanout subscribe failed", zap.Int64("organization_id", orgID), zap.Error(err))
			}
		}
	}
	h.rooms[c.OrganizationID][c.ID] = c
	h.mu.Unlock()

	h.logger.Debug("session connected",
		zap.String("client_id", c.ID),
		zap.Int64("organization_id", c.OrganizationID))
}

// Unregister removes a connection, cancelling the fanout subscription when
// the last session of a room leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.OrganizationID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, c.OrganizationID)
			if cancel, ok := h.subs[c.OrganizationID]; ok {
				cancel()
				delete(h.subs, c.OrganizationID)
			}
		}
	}
	h.mu.Unlock()

	h.logger.Debug("session disconnected",
		zap.String("client_id", c.ID),
		zap.Int64("organization_id", c.OrganizationID))
}

// SessionCount reports connected sessions for an organization.
func (h *Hub) SessionCount(organizationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[organizationID])
}

// Close drops every connection, e.g. on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for orgID, room := range h.rooms {
		for id, c := range room {
			close(c.send)
			delete(room, id)
		}
		if cancel, ok := h.subs[orgID]; ok {
			cancel()
			delete(h.subs, orgID)
		}
		delete(h.rooms, orgID)
	}
}
