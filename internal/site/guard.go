package site

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/portfolio-site/internal/types"
	"github.com/jonathan/portfolio-site/internal/view"
)

// acceptedTTL is how long a delivered form token keeps answering repeats.
const acceptedTTL = 10 * time.Minute

// submissionGuard sends each contact form token at most once. Repeats that
// arrive while the first send is in flight wait for its outcome; repeats after
// a successful send get the stored response. Failed sends are forgotten so
// the visitor can retry.
type submissionGuard struct {
	group singleflight.Group
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	accepted map[string]acceptedSubmission
}

type acceptedSubmission struct {
	resp *types.ContactResponse
	at   time.Time
}

func newSubmissionGuard() *submissionGuard {
	return &submissionGuard{
		ttl:      acceptedTTL,
		now:      time.Now,
		accepted: make(map[string]acceptedSubmission),
	}
}

// submit runs send once per token. Tokens that are not UUIDs are not tracked.
// The send itself is detached from ctx so a browser that aborts the first of
// two requests does not abort the delivery the second one is waiting on.
func (g *submissionGuard) submit(ctx context.Context, token string, send func(context.Context) (*types.ContactResponse, error)) (*types.ContactResponse, error) {
	if _, err := uuid.Parse(token); err != nil {
		return send(ctx)
	}
	if resp, ok := g.lookup(token); ok {
		return resp, nil
	}

	sendCtx := context.WithoutCancel(ctx)
	ch := g.group.DoChan(token, func() (any, error) {
		if resp, ok := g.lookup(token); ok {
			return resp, nil
		}
		resp, err := send(sendCtx)
		if err != nil {
			return nil, err
		}
		g.remember(token, resp)
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*types.ContactResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *submissionGuard) lookup(token string) (*types.ContactResponse, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.accepted[token]
	if !ok || g.now().Sub(a.at) > g.ttl {
		return nil, false
	}
	return a.resp, true
}

func (g *submissionGuard) remember(token string, resp *types.ContactResponse) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for k, a := range g.accepted {
		if now.Sub(a.at) > g.ttl {
			delete(g.accepted, k)
		}
	}
	g.accepted[token] = acceptedSubmission{resp: resp, at: now}
}

// guardedSubmitter routes one form's submission through the guard.
type guardedSubmitter struct {
	guard  *submissionGuard
	token  string
	target view.ContactSubmitter
}

func (s guardedSubmitter) SubmitContactForm(ctx context.Context, sub types.ContactSubmission) (*types.ContactResponse, error) {
	return s.guard.submit(ctx, s.token, func(ctx context.Context) (*types.ContactResponse, error) {
		return s.target.SubmitContactForm(ctx, sub)
	})
}
