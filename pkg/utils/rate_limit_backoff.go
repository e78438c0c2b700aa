package utils

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RateLimitBackoff handles rate limit detection and backoff calculations
type RateLimitBackoff struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	BufferTime time.Duration
	outputFn   func(string)
}

// NewRateLimitBackoff creates a new rate limit backoff handler with sensible defaults
func NewRateLimitBackoff() *RateLimitBackoff {
	return &RateLimitBackoff{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		BufferTime: 2 * time.Second,
		outputFn:   func(msg string) { fmt.Print(msg) },
	}
}

// SetOutputFunc overrides the default output function for user-facing messages
func (rlb *RateLimitBackoff) SetOutputFunc(fn func(string)) {
	if fn == nil {
		rlb.outputFn = func(msg string) { fmt.Print(msg) }
		return
	}
	rlb.outputFn = fn
}

func (rlb *RateLimitBackoff) print(msg string) {
	if rlb.outputFn != nil {
		rlb.outputFn(msg)
		return
	}
	fmt.Print(msg)
}

func containsRateLimitPhrases(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "rate limit") ||
		strings.Contains(s, "requests per minute") ||
		strings.Contains(s, "rate exceeded") ||
		strings.Contains(s, "quota exceeded") ||
		strings.Contains(s, "too many requests") ||
		strings.Contains(s, "insufficient_quota") ||
		(strings.Contains(s, "quota") && strings.Contains(s, "exceeded"))
}

// IsRateLimitError checks if an error or HTTP response indicates a rate limit
func (rlb *RateLimitBackoff) IsRateLimitError(err error, resp *http.Response) bool {
	// HTTP 429 is generally a reliable indicator
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	if err != nil {
		errStr := strings.ToLower(err.Error())
		// Providers often format as "status 429".
		if strings.Contains(errStr, "429") {
			return true
		}
		return containsRateLimitPhrases(errStr)
	}

	return false
}

// CalculateBackoffDelay calculates how long to wait before retrying
func (rlb *RateLimitBackoff) CalculateBackoffDelay(resp *http.Response, attempt int) time.Duration {
	// First try to use rate limit headers if available
	if resp != nil {
		if delay := rlb.parseRateLimitHeaders(resp); delay > 0 {
			return delay
		}
	}

	// Fallback to exponential backoff
	return rlb.exponentialBackoff(attempt)
}

// parseRateLimitHeaders attempts to parse rate limit headers from various providers
func (rlb *RateLimitBackoff) parseRateLimitHeaders(resp *http.Response) time.Duration {
	// OpenRouter format (X-RateLimit-Reset in milliseconds)
	if resetHeader := resp.Header.Get("X-RateLimit-Reset"); resetHeader != "" {
		if resetTime, err := strconv.ParseInt(resetHeader, 10, 64); err == nil {
			resetAt := time.Unix(resetTime/1000, (resetTime%1000)*1000000)
			waitTime := time.Until(resetAt)
			if waitTime > 0 {
				return rlb.capDelay(waitTime + rlb.BufferTime)
			}
		}
	}

	// Retry-After header (in seconds)
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			waitTime := time.Duration(seconds) * time.Second
			return rlb.capDelay(waitTime + rlb.BufferTime)
		}
	}

	return 0 // No parseable headers found
}

// exponentialBackoff calculates exponential backoff delay
func (rlb *RateLimitBackoff) exponentialBackoff(attempt int) time.Duration {
	delay := rlb.BaseDelay * time.Duration(math.Pow(2, float64(attempt)))
	return rlb.capDelay(delay)
}

// capDelay ensures delay doesn't exceed maximum
func (rlb *RateLimitBackoff) capDelay(delay time.Duration) time.Duration {
	if delay > rlb.MaxDelay {
		return rlb.MaxDelay
	}
	if delay < 0 {
		return rlb.BaseDelay
	}
	return delay
}

// ShouldRetry determines if we should retry based on attempt count
func (rlb *RateLimitBackoff) ShouldRetry(attempt int) bool {
	return attempt < rlb.MaxRetries
}

// Wait sleeps for the backoff duration, announcing it through the output
// function. It returns early with the context error if ctx is cancelled.
func (rlb *RateLimitBackoff) Wait(ctx context.Context, duration time.Duration, provider string) error {
	if duration <= 0 {
		return nil
	}

	rlb.print(fmt.Sprintf("rate limited by %s, retrying in %v", provider, duration.Round(time.Second)))

	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
