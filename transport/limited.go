package transport

import (
	"context"

	"golang.org/x/time/rate"
)

// Limited caps the outbound message rate of the wrapped sender. Callers
// block until a token is available or ctx is done.
type Limited struct {
	next    Sender
	limiter *rate.Limiter
}

func NewLimited(next Sender, perSecond float64) Sender {
	if perSecond <= 0 {
		return next
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) Send(ctx context.Context, msg Message) Result {
	if err := l.limiter.Wait(ctx); err != nil {
		return Failed(err)
	}
	return l.next.Send(ctx, msg)
}
