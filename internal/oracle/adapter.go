package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/RenoirGroup/renoir-case-study-chatbot/internal/metrics"
)

// Default policy values for Adapter.
const (
	DefaultTimeout      = 15 * time.Second
	DefaultRetryBackoff = 250 * time.Millisecond
	DefaultCacheSize    = 512
)

// Adapter applies timeout, retry, caching and fallback policy around a
// Client. All methods always return usable text.
type Adapter struct {
	client       Client
	timeout      time.Duration
	maxRetries   int
	retryBackoff time.Duration
	rephrase     RephraseMode
	recorder     *metrics.Recorder
	cache        *lru.Cache[string, string]
}

// AdapterOpts holds parameters for creating an Adapter.
type AdapterOpts struct {
	Client       Client
	Timeout      time.Duration // per attempt; defaults to DefaultTimeout
	MaxRetries   int           // extra attempts after the first failure
	RetryBackoff time.Duration // defaults to DefaultRetryBackoff
	CacheSize    int           // translation memo entries; defaults to DefaultCacheSize
	Rephrase     RephraseMode  // defaults to RephraseOracle
	Recorder     *metrics.Recorder
}

// NewAdapter creates an Adapter.
func NewAdapter(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("oracle: client is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("oracle: translation cache: %w", err)
	}
	mode := opts.Rephrase
	if mode == "" {
		mode = RephraseOracle
	}
	if mode != RephraseOracle && mode != RephraseTemplate {
		return nil, fmt.Errorf("oracle: unknown rephrase mode %q", mode)
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Adapter{
		client:       opts.Client,
		timeout:      timeout,
		maxRetries:   retries,
		retryBackoff: backoff,
		rephrase:     mode,
		recorder:     opts.Recorder,
		cache:        cache,
	}, nil
}

// Translate returns text in language. English and blank text skip the call.
// On failure the original text is returned verbatim.
func (a *Adapter) Translate(ctx context.Context, text, language string) string {
	if IsEnglish(language) || strings.TrimSpace(text) == "" {
		return text
	}
	key := language + "\x00" + text
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}
	out, err := a.call(ctx, "translate", translatePrompt(text, language))
	if err != nil {
		return text
	}
	out = strings.TrimSpace(out)
	a.cache.Add(key, out)
	return out
}

// Classify judges whether answer is complete for question. prior, when
// non-empty, is included as context. Failures yield Complete.
func (a *Adapter) Classify(ctx context.Context, question, answer string, prior []QA) Verdict {
	out, err := a.call(ctx, "classify", classifyPrompt(question, answer, prior))
	if err != nil {
		return Complete
	}
	return ParseVerdict(out)
}

// Rephrase produces a clarification re-ask that repeats question verbatim.
// Template mode, failures and responses that drop the question all fall back
// to (or are completed by) the local template.
func (a *Adapter) Rephrase(ctx context.Context, question, answer string) string {
	if a.rephrase == RephraseTemplate {
		return TemplateRephrase(question)
	}
	out, err := a.call(ctx, "rephrase", rephrasePrompt(question, answer))
	if err != nil {
		return TemplateRephrase(question)
	}
	out = strings.TrimSpace(out)
	if !strings.Contains(out, question) {
		return out + "\n\n" + question
	}
	return out
}

// call runs one logical oracle request with per-attempt timeout and bounded
// retries. Every failure is logged for operators.
func (a *Adapter) call(ctx context.Context, op, prompt string) (string, error) {
	attempts := a.maxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(a.retryBackoff):
			}
		}

		out, err := a.attempt(ctx, op, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		log.Printf("oracle: %s via %s failed (attempt %d/%d): %v",
			op, a.client.Name(), attempt, attempts, err)
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (a *Adapter) attempt(ctx context.Context, op, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	out, err := a.client.Complete(callCtx, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = errors.New("empty response")
	}
	a.recorder.ObserveOracle(op, a.client.Name(), outcome(err), time.Since(start))
	return out, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
