package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/trezcool/soma/core"
)

const (
	systemPrompt     = "You are a course advisor."
	noCoursesPrompt  = "No courses available"
	limitersCapacity = 10000
	limitersTTL      = time.Hour
)

var (
	// errors
	ErrQuotaExceeded = errors.New("API request limit reached")
	ErrRateLimited   = errors.New("too many requests")
)

// AdvisorError wraps a failure of the underlying Advisor.
type AdvisorError struct {
	Err error
}

func (e *AdvisorError) Error() string { return "getting recommendations: " + e.Err.Error() }

// Advisor answers the user prompt following the instruction; typically a LLM.
type Advisor interface {
	Advise(ctx context.Context, instruction, prompt string) (string, error)
}

type Options struct {
	MaxRequests   int
	CacheSize     int // negative disables the cache
	CacheTTL      time.Duration
	RatePerMinute int // per user; 0 disables throttling
	Burst         int
}

func OptionsFromConfig(conf core.RecommendationConfig) Options {
	return Options{
		MaxRequests:   conf.MaxRequests,
		CacheSize:     conf.CacheSize,
		CacheTTL:      conf.CacheTTL,
		RatePerMinute: conf.RatePerMinute,
		Burst:         conf.Burst,
	}
}

type Service struct {
	advisor  Advisor
	quota    *quota
	cache    *expirable.LRU[string, string]
	limiters *expirable.LRU[string, *rate.Limiter]
	limitMu  sync.Mutex
	limit    rate.Limit
	burst    int
}

func NewService(advisor Advisor, opts Options) *Service {
	svc := &Service{
		advisor: advisor,
		quota:   &quota{max: opts.MaxRequests},
		limit:   rate.Inf,
		burst:   opts.Burst,
	}
	if opts.CacheSize >= 0 {
		svc.cache = expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL)
	}
	if opts.RatePerMinute > 0 {
		svc.limit = rate.Every(time.Minute / time.Duration(opts.RatePerMinute))
		if svc.burst < 1 {
			svc.burst = 1
		}
		svc.limiters = expirable.NewLRU[string, *rate.Limiter](limitersCapacity, nil, limitersTTL)
	}
	return svc
}

// Usage reports how much of the request quota has been consumed.
func (svc *Service) Usage() Usage {
	return svc.quota.usage()
}

// Recommend asks the Advisor which of the courses best fit the prompt.
// Cached answers do not consume the quota. On ErrQuotaExceeded and AdvisorError, the returned Result
// still carries the request counts.
func (svc *Service) Recommend(ctx context.Context, userID string, req Request) (Result, error) {
	if !svc.allow(userID) {
		return Result{}, ErrRateLimited
	}

	key := cacheKey(req)
	if svc.cache != nil {
		if rec, ok := svc.cache.Get(key); ok {
			usage := svc.quota.usage()
			return Result{
				Recommendation:    rec,
				RequestCount:      usage.RequestCount,
				RemainingRequests: usage.RemainingRequests,
				Cached:            true,
			}, nil
		}
	}

	usage, ok := svc.quota.take()
	res := Result{RequestCount: usage.RequestCount, RemainingRequests: usage.RemainingRequests}
	if !ok {
		return res, ErrQuotaExceeded
	}

	rec, err := svc.advisor.Advise(ctx, BuildInstruction(req.AvailableCourses), req.Prompt)
	if err != nil {
		return res, &AdvisorError{Err: err}
	}
	res.Recommendation = strings.TrimSpace(rec)

	if svc.cache != nil {
		svc.cache.Add(key, res.Recommendation)
	}
	return res, nil
}

func (svc *Service) allow(userID string) bool {
	if svc.limiters == nil {
		return true
	}
	svc.limitMu.Lock()
	defer svc.limitMu.Unlock()

	limiter, ok := svc.limiters.Get(userID)
	if !ok {
		limiter = rate.NewLimiter(svc.limit, svc.burst)
		svc.limiters.Add(userID, limiter)
	}
	return limiter.Allow()
}

// BuildInstruction lists the available courses for the Advisor.
func BuildInstruction(courses []CourseSummary) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\nAvailable courses:\n")
	if len(courses) == 0 {
		b.WriteString(noCoursesPrompt)
		return b.String()
	}
	for i, c := range courses {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(c.Title)
		b.WriteString(": ")
		b.WriteString(c.Description)
	}
	return b.String()
}

func cacheKey(req Request) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(core.CleanString(req.Prompt))))
	for _, c := range req.AvailableCourses {
		h.Write([]byte{0})
		h.Write([]byte(c.Title))
		h.Write([]byte{0x1f})
		h.Write([]byte(c.Description))
	}
	return hex.EncodeToString(h.Sum(nil))
}
