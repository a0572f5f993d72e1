package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicportal/internal/adapters/cache"
	"github.com/zatekoja/clinicportal/internal/application/services"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/nlp"
)

type countingParser struct {
	calls int
	inner *nlp.Parser
}

func (c *countingParser) Parse(transcript string) nlp.ParseResult {
	c.calls++
	return c.inner.Parse(transcript)
}

func newCountingParser() *countingParser {
	return &countingParser{inner: nlp.NewParser(nil, nil)}
}

func TestMedicationParseService_Parse(t *testing.T) {
	svc := services.NewMedicationParseService(nlp.NewParser(nil, nil), nil, 0, nil)

	r := svc.Parse(context.Background(), "take amoxicillin 500mg three times a day for seven days")
	assert.Equal(t, nlp.ParseResult{Medication: "amoxicillin 500mg", Dosage: "3 times a day", Days: "7 days"}, r)
}

func TestMedicationParseService_BlankSkipsParserAndCache(t *testing.T) {
	parser := newCountingParser()
	c := new(MockCache)
	svc := services.NewMedicationParseService(parser, c, time.Hour, nil)

	assert.True(t, svc.Parse(context.Background(), "  ").IsEmpty())
	assert.Equal(t, 0, parser.calls)
	c.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestMedicationParseService_CacheMissStoresResult(t *testing.T) {
	parser := newCountingParser()
	c := new(MockCache)
	svc := services.NewMedicationParseService(parser, c, time.Hour, nil)

	key := services.ParseCacheKey("apply cream every 6 hours")
	c.On("Get", mock.Anything, key).Return(nil, providers.ErrCacheMiss)
	c.On("Set", mock.Anything, key, mock.MatchedBy(func(b []byte) bool {
		var r nlp.ParseResult
		return json.Unmarshal(b, &r) == nil && r.Dosage == "every 6 hours"
	}), time.Hour).Return(nil)

	r := svc.Parse(context.Background(), "apply cream every 6 hours")
	assert.Equal(t, "apply cream", r.Medication)
	assert.Equal(t, 1, parser.calls)
	c.AssertExpectations(t)
}

func TestMedicationParseService_CacheHitSkipsParser(t *testing.T) {
	parser := newCountingParser()
	c := new(MockCache)
	svc := services.NewMedicationParseService(parser, c, time.Hour, nil)

	cached, err := json.Marshal(nlp.ParseResult{Medication: "cached", Dosage: "twice a day"})
	require.NoError(t, err)
	c.On("Get", mock.Anything, services.ParseCacheKey("anything")).Return(cached, nil)

	r := svc.Parse(context.Background(), "anything")
	assert.Equal(t, "cached", r.Medication)
	assert.Equal(t, 0, parser.calls)
}

func TestMedicationParseService_CacheErrorsAreIgnored(t *testing.T) {
	parser := newCountingParser()
	c := new(MockCache)
	svc := services.NewMedicationParseService(parser, c, time.Minute, nil)

	c.On("Get", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	r := svc.Parse(context.Background(), "twice a day")
	assert.Equal(t, "twice a day", r.Dosage)
}

func TestMedicationParseService_WithLocalCache(t *testing.T) {
	local, err := cache.NewLocalAdapter(16)
	require.NoError(t, err)
	parser := newCountingParser()
	svc := services.NewMedicationParseService(parser, local, time.Hour, nil)

	first := svc.Parse(context.Background(), "Take Ibuprofen twice per day")
	second := svc.Parse(context.Background(), "  Take Ibuprofen twice per day ")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, parser.calls)

	// Different casing is a different transcript.
	svc.Parse(context.Background(), "take ibuprofen twice per day")
	assert.Equal(t, 2, parser.calls)
}

func TestParseCacheKey(t *testing.T) {
	assert.Equal(t, services.ParseCacheKey("a b"), services.ParseCacheKey(" a b\n"))
	assert.NotEqual(t, services.ParseCacheKey("A b"), services.ParseCacheKey("a b"))
	assert.Regexp(t, `^medparse:[0-9a-f]{64}$`, services.ParseCacheKey("x"))
}

func TestMedicationParseService_Order(t *testing.T) {
	svc := services.NewMedicationParseService(nlp.NewParser(nil, nil), nil, 0, nil)
	order := svc.Order(context.Background(), "metformin 850mg twice daily for 3 months")
	assert.Equal(t, "twice a day", order.Dosage)
}
