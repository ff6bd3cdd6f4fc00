package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type advisorMock struct {
	mu           sync.Mutex
	calls        int
	instructions []string
	err          error
}

func (a *advisorMock) Advise(_ context.Context, instruction, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.instructions = append(a.instructions, instruction)
	if a.err != nil {
		return "", a.err
	}
	return "  take Go 101 for: " + prompt + "\n", nil
}

func TestBuildInstruction(t *testing.T) {
	assert.Equal(t, "You are a course advisor.\nAvailable courses:\nNo courses available", BuildInstruction(nil))
	assert.Equal(t,
		"You are a course advisor.\nAvailable courses:\n- Go 101: Learn Go\n- SQL: Learn databases",
		BuildInstruction([]CourseSummary{{Title: "Go 101", Description: "Learn Go"}, {Title: "SQL", Description: "Learn databases"}}),
	)
}

func TestService_Recommend(t *testing.T) {
	ctx := context.Background()
	courses := []CourseSummary{{Title: "Go 101", Description: "Learn Go"}}

	t.Run("quota & cache", func(t *testing.T) {
		advisor := &advisorMock{}
		svc := NewService(advisor, Options{MaxRequests: 2, CacheSize: 10, CacheTTL: time.Minute})

		res, err := svc.Recommend(ctx, "u1", Request{Prompt: "backend", AvailableCourses: courses})
		require.NoError(t, err)
		assert.Equal(t, Result{Recommendation: "take Go 101 for: backend", RequestCount: 1, RemainingRequests: 1}, res)
		assert.Equal(t, []string{"You are a course advisor.\nAvailable courses:\n- Go 101: Learn Go"}, advisor.instructions)

		// same prompt (case-insensitive) is served from the cache
		res, err = svc.Recommend(ctx, "u2", Request{Prompt: "BACKEND", AvailableCourses: courses})
		require.NoError(t, err)
		assert.True(t, res.Cached)
		assert.Equal(t, 1, res.RequestCount)
		assert.Equal(t, 1, advisor.calls)

		_, err = svc.Recommend(ctx, "u1", Request{Prompt: "frontend", AvailableCourses: courses})
		require.NoError(t, err)

		res, err = svc.Recommend(ctx, "u1", Request{Prompt: "data", AvailableCourses: courses})
		assert.Equal(t, ErrQuotaExceeded, err)
		assert.Equal(t, Result{RequestCount: 2, RemainingRequests: 0}, res)
		assert.Equal(t, 2, advisor.calls)

		// cached answers still work once the quota is exhausted
		res, err = svc.Recommend(ctx, "u1", Request{Prompt: "backend", AvailableCourses: courses})
		require.NoError(t, err)
		assert.True(t, res.Cached)

		assert.Equal(t, Usage{RequestCount: 2, MaxRequests: 2, RemainingRequests: 0}, svc.Usage())
	})

	t.Run("advisor failure consumes quota", func(t *testing.T) {
		advisor := &advisorMock{err: errors.New("boom")}
		svc := NewService(advisor, Options{MaxRequests: 5, CacheSize: 10, CacheTTL: time.Minute})

		res, err := svc.Recommend(ctx, "u1", Request{Prompt: "backend"})
		require.Error(t, err)
		_, ok := err.(*AdvisorError)
		assert.True(t, ok)
		assert.Equal(t, Result{RequestCount: 1, RemainingRequests: 4}, res)

		// failures are not cached
		advisor.err = nil
		res, err = svc.Recommend(ctx, "u1", Request{Prompt: "backend"})
		require.NoError(t, err)
		assert.False(t, res.Cached)
		assert.Equal(t, 2, advisor.calls)
		assert.Equal(t, "You are a course advisor.\nAvailable courses:\nNo courses available", advisor.instructions[1])
	})

	t.Run("per user throttling", func(t *testing.T) {
		advisor := &advisorMock{}
		svc := NewService(advisor, Options{MaxRequests: 100, CacheSize: -1, RatePerMinute: 1, Burst: 2})

		for i := 0; i < 2; i++ {
			_, err := svc.Recommend(ctx, "u1", Request{Prompt: "backend"})
			require.NoError(t, err)
		}
		_, err := svc.Recommend(ctx, "u1", Request{Prompt: "backend"})
		assert.Equal(t, ErrRateLimited, err)

		// other users have their own bucket
		_, err = svc.Recommend(ctx, "u2", Request{Prompt: "backend"})
		assert.NoError(t, err)
		assert.Equal(t, 3, advisor.calls)
	})
}

func TestRequest_Clean(t *testing.T) {
	req := Request{Prompt: "  learn go \n", AvailableCourses: []CourseSummary{{Title: " Go ", Description: " basics "}}}
	req.Clean()
	assert.Equal(t, Request{Prompt: "learn go", AvailableCourses: []CourseSummary{{Title: "Go", Description: "basics"}}}, req)
}
