package services

import (
	"academica_go/services/notifications"

	"github.com/sirupsen/logrus"
)

// notifyUsers emits a fire-and-forget notification. The core never waits for
// or depends on delivery.
func notifyUsers(orgID uint, userIDs []uint, title, message, typ, link string) {
	svc := notifications.NewService()
	if err := svc.EnqueueOrCreate(userIDs, notifications.Queued(orgID, title, message, typ, link)); err != nil {
		logrus.WithError(err).Warn("failed to emit notification")
	}
}
