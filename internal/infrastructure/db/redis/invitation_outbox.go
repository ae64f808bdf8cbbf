package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicore/clinic-api/internal/core/ports"
)

const defaultStreamMaxLen = 10000

// InvitationOutbox hands issued invitations to the mailer through a Redis
// stream. Each entry carries the raw token; the stream is trimmed to roughly
// maxLen entries.
type InvitationOutbox struct {
	client redis.Cmdable
	stream string
	maxLen int64
}

// NewInvitationOutbox creates an outbox appending to stream.
func NewInvitationOutbox(client redis.Cmdable, stream string) *InvitationOutbox {
	return &InvitationOutbox{client: client, stream: stream, maxLen: defaultStreamMaxLen}
}

// NotifyInvitation appends ev to the stream with XADD.
func (o *InvitationOutbox) NotifyInvitation(ctx context.Context, ev ports.InvitationIssued) error {
	err := o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: o.maxLen,
		Approx: true,
		Values: map[string]any{
			"invitation_id": ev.InvitationID,
			"clinic_id":     ev.ClinicID,
			"clinic_name":   ev.ClinicName,
			"email":         ev.Email,
			"role":          ev.Role,
			"token":         ev.Token,
			"expires_at":    ev.ExpiresAt.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("outbox xadd: %w", err)
	}
	return nil
}
