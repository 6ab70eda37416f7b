package service

import (
	"context"
	"os"
	"path/filepath"

	"clinical-intelligence-be/pkg/events"
	pktNats "clinical-intelligence-be/pkg/nats"
)

type fakeSubscriber struct {
	eventType string
	handler   pktNats.EventHandler
}

func (f *fakeSubscriber) Subscribe(_ context.Context, eventType, _ string, handler pktNats.EventHandler) error {
	f.eventType = eventType
	f.handler = handler
	return nil
}

func writeOrg(root, orgId string) error {
	return os.MkdirAll(filepath.Join(root, orgId), 0o755)
}

type fakeDelivery struct {
	orgs []string
}

func (f *fakeDelivery) Deliver(orgId string, _ events.Event) {
	f.orgs = append(f.orgs, orgId)
}
