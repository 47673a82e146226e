// Package assistant produces chat replies: it analyzes the meal described by
// the user, asks the language model to explain it and caches the answers.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/diogo/nutribuddy/internal/logging"
	"github.com/diogo/nutribuddy/internal/models"
	"github.com/diogo/nutribuddy/internal/nutrition"
)

const (
	// DefaultCacheSize is the number of replies kept when no size is given
	DefaultCacheSize = 256
	// DefaultGenerateTimeout bounds one model call shared by coalesced callers
	DefaultGenerateTimeout = 60 * time.Second
)

// Service answers chat messages
type Service struct {
	gen       Generator
	db        *nutrition.DB
	logger    *zap.Logger
	cacheSize int
	cache     *lru.Cache[string, string]
	group     singleflight.Group

	generateTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logging.OrNop(logger)
	}
}

// WithCacheSize sets how many replies are cached; zero disables caching
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cacheSize = size
	}
}

// WithGenerateTimeout bounds a single model call
func WithGenerateTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.generateTimeout = timeout
		}
	}
}

// WithDatabase replaces the built-in food database
func WithDatabase(db *nutrition.DB) Option {
	return func(s *Service) {
		if db != nil {
			s.db = db
		}
	}
}

// NewService creates a reply service backed by gen
func NewService(gen Generator, opts ...Option) (*Service, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}

	s := &Service{
		gen:       gen,
		db:        nutrition.Default(),
		logger:    zap.NewNop(),
		cacheSize: DefaultCacheSize,

		generateTimeout: DefaultGenerateTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cacheSize > 0 {
		cache, err := lru.New[string, string](s.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create reply cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Summarize runs the nutrition analysis for message
func (s *Service) Summarize(message string) string {
	return nutrition.Summary(s.db.Analyze(message))
}

// Reply returns the assistant's answer to message. It never fails: a blank
// message gets a prompt to describe the meal and a model failure gets a
// fixed apology.
//
// Concurrent callers with the same message share one model call. That call
// is detached from the caller that started it and bounded by the generate
// timeout instead, so one caller giving up never fails the others.
func (s *Service) Reply(ctx context.Context, message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.EmptyMessageReply
	}

	key := cacheKey(message)
	if s.cache != nil {
		if reply, ok := s.cache.Get(key); ok {
			s.logger.Debug("reply cache hit", zap.String("key", key))
			return reply
		}
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
		defer cancel()

		reply, err := s.generate(genCtx, message)
		if err == nil && s.cache != nil {
			s.cache.Add(key, reply)
		}
		return reply, err
	})

	select {
	case <-ctx.Done():
		s.logger.Warn("reply canceled", zap.Error(ctx.Err()))
		return models.BackendFailureReply
	case res := <-ch:
		if res.Err != nil {
			s.logger.Error("error talking to gemini", zap.Error(res.Err))
			return models.BackendFailureReply
		}
		return res.Val.(string)
	}
}

func (s *Service) generate(ctx context.Context, message string) (string, error) {
	summary := s.Summarize(message)
	prompt, err := BuildPrompt(message, summary)
	if err != nil {
		return "", err
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	s.logger.Debug("reply generated",
		zap.Int("prompt_length", len(prompt)),
		zap.Int("reply_length", len(text)),
		zap.Duration("elapsed", time.Since(start)))
	return strings.TrimSpace(text), nil
}

// CacheLen returns the number of cached replies
func (s *Service) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// cacheKey collapses whitespace and case so trivially different messages
// share an entry.
func cacheKey(message string) string {
	return strings.ToLower(strings.Join(strings.Fields(message), " "))
}
