// Package platformtest provides an in-memory platform.Gateway for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/spec-kit/ticket-bridge/internal/platform"
)

// Sent is one recorded outbound message.
type Sent struct {
	Target  string
	Direct  bool
	Message platform.Message
}

// Gateway records every call and lets tests script failures.
type Gateway struct {
	mu sync.Mutex

	Categories map[string]bool
	Channels   map[string]string // id -> name
	Created    []platform.ChannelSpec
	Deleted    []string
	Sent       []Sent

	// ClosedDMs lists users whose private channel refuses messages.
	ClosedDMs map[string]bool
	// FailChannels lists channels whose Send fails with ErrNotFound.
	FailChannels map[string]bool
	// CreateErr, when set, is returned by CreateChannel.
	CreateErr error

	next int
}

// New returns a gateway knowing the given category IDs.
func New(categories ...string) *Gateway {
	g := &Gateway{
		Categories:   map[string]bool{},
		Channels:     map[string]string{},
		ClosedDMs:    map[string]bool{},
		FailChannels: map[string]bool{},
	}
	for _, c := range categories {
		g.Categories[c] = true
	}
	return g
}

func (g *Gateway) CategoryExists(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Categories[id]
}

func (g *Gateway) ChannelExists(_ context.Context, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.Channels[id]
	return ok
}

func (g *Gateway) ChannelName(_ context.Context, id string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	name, ok := g.Channels[id]
	return name, ok
}

func (g *Gateway) CreateChannel(_ context.Context, spec platform.ChannelSpec) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateErr != nil {
		return "", g.CreateErr
	}
	g.next++
	id := fmt.Sprintf("chan-%d", g.next)
	g.Channels[id] = spec.Name
	g.Created = append(g.Created, spec)
	return id, nil
}

func (g *Gateway) DeleteChannel(_ context.Context, id, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.Channels[id]; !ok {
		return platform.ErrNotFound
	}
	delete(g.Channels, id)
	g.Deleted = append(g.Deleted, id)
	return nil
}

func (g *Gateway) Send(_ context.Context, channelID string, msg platform.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailChannels[channelID] {
		return platform.ErrNotFound
	}
	g.Sent = append(g.Sent, Sent{Target: channelID, Message: msg})
	return nil
}

func (g *Gateway) SendDirect(_ context.Context, userID string, msg platform.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ClosedDMs[userID] {
		return platform.ErrRefused
	}
	g.Sent = append(g.Sent, Sent{Target: userID, Direct: true, Message: msg})
	return nil
}

// SentTo returns the messages delivered to target, in order.
func (g *Gateway) SentTo(target string) []platform.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []platform.Message
	for _, s := range g.Sent {
		if s.Target == target {
			out = append(out, s.Message)
		}
	}
	return out
}

// AddChannel registers an existing channel.
func (g *Gateway) AddChannel(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Channels[id] = name
}

// RemoveChannel deletes a channel behind the core's back.
func (g *Gateway) RemoveChannel(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.Channels, id)
}
