package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		parseOrigins(" https://a.example, ,https://b.example "))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SELECTION_TTL_HOURS", "")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")
	t.Setenv("APP_TIMEZONE", "")

	cfg := Load()

	assert.Equal(t, 720*time.Hour, cfg.SelectionTTL)
	assert.Equal(t, 30, cfg.AuthRateLimit)
	assert.Equal(t, "Asia/Tashkent", cfg.Timezone)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Nowhere/Invalid"}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "student:u1:exam-e1-answers",
		CacheKey.StudentStorageKey("u1", CacheKey.ExamAnswersKey("e1")))
	assert.Equal(t, "exam-e1-submitted", CacheKey.ExamSubmittedKey("e1"))
	assert.Equal(t, "docstore:users/a/groups", CacheKey.CollectionChannel("users/a/groups"))
}
