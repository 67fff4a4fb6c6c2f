package v1

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/repcircle/repcircle/internal/profile"
	"github.com/repcircle/repcircle/store"
)

func TestChatLimiter_BurstThenThrottle(t *testing.T) {
	service := &APIV1Service{
		Profile:  &profile.Profile{CoachChatPerMinute: 2},
		limiters: map[int32]*rate.Limiter{},
	}

	limiter := service.chatLimiter(1)
	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow(), "third call within the minute is throttled")

	assert.Same(t, limiter, service.chatLimiter(1), "limiter is reused per member")
	assert.True(t, service.chatLimiter(2).Allow(), "other members have their own budget")
}

func TestAutoTitle(t *testing.T) {
	assert.Equal(t, "quick chest day", autoTitle("quick chest day"))

	long := strings.Repeat("one two three ", 10)
	title := autoTitle(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(title), autoTitleLimit+1)
	assert.True(t, strings.HasSuffix(title, "…"))
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(title, "…"), " "), "no trailing space before the marker")
}

func TestParseFitnessLevel(t *testing.T) {
	level, err := parseFitnessLevel("advanced")
	require.NoError(t, err)
	assert.Equal(t, store.FitnessLevelAdvanced, level)

	_, err = parseFitnessLevel("elite")
	assert.Error(t, err)
}

func TestParseEnums(t *testing.T) {
	_, err := parseGoalCategory("strength")
	assert.NoError(t, err)
	_, err = parseGoalCategory("vibes")
	assert.Error(t, err)

	_, err = parseLimitationType("injury")
	assert.NoError(t, err)
	_, err = parseLimitationType("mood")
	assert.Error(t, err)

	_, err = parseLimitationSeverity("severe")
	assert.NoError(t, err)
	_, err = parseLimitationSeverity("catastrophic")
	assert.Error(t, err)

	_, err = parseSkillStatus("working_on")
	assert.NoError(t, err)
	_, err = parseSkillStatus("mastered")
	assert.Error(t, err)
}
