package ports

import (
	"context"
	"time"
)

// InvitationIssued is handed to the delivery collaborator after an invitation
// is persisted. It carries the raw token because the invitee needs it.
type InvitationIssued struct {
	InvitationID string
	ClinicID     string
	ClinicName   string
	Email        string
	Role         string
	Token        string
	ExpiresAt    time.Time
}

// InvitationNotifier delivers an invitation to the invitee (email, SMS...).
type InvitationNotifier interface {
	NotifyInvitation(ctx context.Context, ev InvitationIssued) error
}

// InvitationPublisher queues an InvitationIssued for asynchronous delivery.
// Publish must not block on the notifier.
type InvitationPublisher interface {
	Publish(ev InvitationIssued)
}
