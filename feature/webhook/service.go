package webhook

import (
	"context"
	"strings"

	"go.uber.org/zap"

	syncfeature "github.com/TheNetworkGuy/netbox-zabbix-sync/feature/sync"
)

// Syncer is the slice of the sync service the webhook consumes.
type Syncer interface {
	SyncOne(ctx context.Context, kind string, id int64) (syncfeature.EntityResult, error)
}

// Payload is the body NetBox posts for a webhook subscription.
type Payload struct {
	Event string `json:"event"`
	Model string `json:"model"`
	Data  struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

// Service reacts to NetBox object change notifications by reconciling the
// single affected entity.
type Service struct {
	syncer Syncer
	logger *zap.Logger
}

// NewService wires the webhook service.
func NewService(syncer Syncer, logger *zap.Logger) *Service {
	return &Service{syncer: syncer, logger: logger}
}

// Handle processes one notification. Deletion events are ignored since the
// NetBox object no longer exists; removal of decommissioned hosts happens
// through the status classification of a regular sync.
func (s *Service) Handle(ctx context.Context, payload Payload) (syncfeature.EntityResult, bool, error) {
	if payload.Event == "deleted" {
		s.logger.Debug("ignoring deletion event",
			zap.String("model", payload.Model), zap.Int64("id", payload.Data.ID))
		return syncfeature.EntityResult{}, false, nil
	}
	kind, ok := modelKind(payload.Model)
	if !ok {
		s.logger.Debug("ignoring unsupported model", zap.String("model", payload.Model))
		return syncfeature.EntityResult{}, false, nil
	}
	result, err := s.syncer.SyncOne(ctx, kind, payload.Data.ID)
	if err != nil {
		return result, true, err
	}
	s.logger.Info("webhook sync complete",
		zap.String("model", payload.Model),
		zap.String("name", result.Name),
		zap.String("action", result.Action))
	return result, true, nil
}

func modelKind(model string) (string, bool) {
	switch strings.ToLower(model) {
	case "device":
		return syncfeature.KindDevice, true
	case "virtualmachine":
		return syncfeature.KindVM, true
	default:
		return "", false
	}
}
