package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated
// provider failures.
var ErrCircuitOpen = errors.New("llm circuit breaker is open")

// ResilientClient wraps a Client with a rate limiter and a circuit breaker.
// The limiter smooths burst traffic toward the provider; the breaker stops
// hammering it once it is clearly down.
type ResilientClient struct {
	inner   Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func NewResilient(inner Client) *ResilientClient {
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &ResilientClient{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

func (c *ResilientClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	return c.execute(ctx, func() (Response, error) { return c.inner.Generate(ctx, messages) })
}

func (c *ResilientClient) GenerateJSON(ctx context.Context, messages []Message) (Response, error) {
	return c.execute(ctx, func() (Response, error) { return c.inner.GenerateJSON(ctx, messages) })
}

// Embed passes through when the wrapped client supports embeddings.
func (c *ResilientClient) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, ok := c.inner.(Embedder)
	if !ok {
		return nil, fmt.Errorf("llm provider does not support embeddings")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return emb.Embed(ctx, text)
}

func (c *ResilientClient) execute(ctx context.Context, fn func() (Response, error)) (Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Response{}, ErrCircuitOpen
		}
		return Response{}, err
	}
	return result.(Response), nil
}
