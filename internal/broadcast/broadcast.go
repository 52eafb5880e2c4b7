// Package broadcast persists announcements and emails them to every active
// member with an address.
package broadcast

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/email"
	"github.com/dukerupert/rollcall/internal/metrics"
	"github.com/dukerupert/rollcall/internal/model"
)

// PartialFailureWarning is attached to a result whose delivery accounting did
// not complete.
const PartialFailureWarning = "Some emails may have failed"

type Announcements interface {
	Create(ctx context.Context, title, message, createdBy string) (*model.Announcement, error)
	SetSentCount(ctx context.Context, id string, sent int) error
}

type Recipients interface {
	ListActiveWithEmail(ctx context.Context) ([]model.Member, error)
}

type Config struct {
	// Concurrency bounds the number of in-flight sends. Values below 1 mean 1.
	Concurrency int
	// SendTimeout bounds each individual send. Zero means no bound.
	SendTimeout time.Duration
}

type Broadcaster struct {
	announcements Announcements
	recipients    Recipients
	sender        email.Sender
	cfg           Config
	logger        *slog.Logger
}

func New(announcements Announcements, recipients Recipients, sender email.Sender, cfg Config, logger *slog.Logger) *Broadcaster {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Broadcaster{
		announcements: announcements,
		recipients:    recipients,
		sender:        sender,
		cfg:           cfg,
		logger:        logger,
	}
}

// Result is the created announcement plus a warning when the sent count could
// not be established or saved.
type Result struct {
	Announcement *model.Announcement
	Warning      string
}

// Broadcast saves the announcement, then emails it to every recipient
// concurrently and waits for all sends to settle. A failed send never stops
// the others. The announcement exists once Broadcast returns without error,
// whatever happened to delivery.
func (b *Broadcaster) Broadcast(ctx context.Context, title, message, createdBy string) (*Result, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	if message == "" {
		return nil, apperr.Validation("Message is required")
	}

	a, err := b.announcements.Create(ctx, title, message, createdBy)
	if err != nil {
		return nil, apperr.Dependency("save announcement", err)
	}

	// The announcement exists now; delivery continues even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	members, err := b.recipients.ListActiveWithEmail(ctx)
	if err != nil {
		b.logger.Error("load recipients", "announcement", a.ID, "error", err)
		return &Result{Announcement: a, Warning: PartialFailureWarning}, nil
	}

	sent := b.send(ctx, members, email.Message{Subject: title, Text: message})
	a.SentCount = sent

	if err := b.announcements.SetSentCount(ctx, a.ID, sent); err != nil {
		b.logger.Error("save sent count", "announcement", a.ID, "sent", sent, "error", err)
		return &Result{Announcement: a, Warning: PartialFailureWarning}, nil
	}

	b.logger.Info("announcement broadcast", "announcement", a.ID, "recipients", len(members), "sent", sent)
	return &Result{Announcement: a}, nil
}

// send delivers msg to each member and returns how many sends succeeded.
func (b *Broadcaster) send(ctx context.Context, members []model.Member, msg email.Message) int {
	var sent atomic.Int64
	var g errgroup.Group
	g.SetLimit(b.cfg.Concurrency)

	for _, m := range members {
		msg := msg
		msg.To = m.Email
		g.Go(func() error {
			sendCtx := ctx
			if b.cfg.SendTimeout > 0 {
				var cancel context.CancelFunc
				sendCtx, cancel = context.WithTimeout(ctx, b.cfg.SendTimeout)
				defer cancel()
			}

			if err := b.sender.Send(sendCtx, msg); err != nil {
				metrics.EmailsSent.WithLabelValues("failure").Inc()
				b.logger.Warn("send announcement email", "member", m.ID, "to", msg.To, "error", err)
				return nil
			}
			metrics.EmailsSent.WithLabelValues("success").Inc()
			sent.Add(1)
			return nil
		})
	}

	// Tasks never return errors; Wait only joins them.
	_ = g.Wait()
	return int(sent.Load())
}
