package service

import (
	"context"
	"sync"
	"time"

	"docdesk/internal/cache"
	"docdesk/internal/credential"
	"docdesk/internal/domain"
	"docdesk/internal/env"
)

// ClientContext carries everything a lifecycle operation needs to address the service.
// It is passed explicitly to every operation; nothing is read from globals.
type ClientContext struct {
	Environment env.Source
	Credentials *credential.Provider
	Cache       *cache.Cache
	Notices     *NoticeBoard
}

// Endpoint resolves the base address and the normal-mode credential for one request.
func (cc *ClientContext) Endpoint(ctx context.Context) (domain.Endpoint, error) {
	return cc.EndpointFor(ctx, domain.ModeNormal)
}

// EndpointFor resolves the base address and the credential for mode. Both are evaluated
// afresh on every call.
func (cc *ClientContext) EndpointFor(ctx context.Context, mode domain.CredentialMode) (domain.Endpoint, error) {
	cred, err := cc.Credentials.Resolve(ctx, mode)
	if err != nil {
		return domain.Endpoint{}, err
	}
	var snap env.Snapshot
	if cc.Environment != nil {
		snap = cc.Environment()
	}
	return domain.Endpoint{BaseURL: env.Resolve(snap), Credential: cred}, nil
}

func (cc *ClientContext) notify(kind domain.NoticeKind, subject, msg string) {
	if cc.Notices != nil {
		cc.Notices.Add(kind, subject, msg)
	}
}

const maxNotices = 50

// NoticeBoard keeps the most recent user-visible notices.
type NoticeBoard struct {
	mu      sync.Mutex
	notices []domain.Notice
	now     func() time.Time
}

// NewNoticeBoard creates an empty NoticeBoard.
func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{now: time.Now}
}

// Add records a notice, dropping the oldest once the board is full.
func (b *NoticeBoard) Add(kind domain.NoticeKind, subject, msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.notices = append(b.notices, domain.Notice{
		Kind:    kind,
		Subject: subject,
		Message: msg,
		At:      b.now().UTC(),
	})
	if over := len(b.notices) - maxNotices; over > 0 {
		b.notices = append([]domain.Notice(nil), b.notices[over:]...)
	}
}

// List returns the notices oldest first.
func (b *NoticeBoard) List() []domain.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Clear drops every notice.
func (b *NoticeBoard) Clear() {
	b.mu.Lock()
	b.notices = nil
	b.mu.Unlock()
}
