package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/clinicportal/internal/domain/entities"
	"github.com/zatekoja/clinicportal/internal/domain/providers"
	"github.com/zatekoja/clinicportal/internal/infrastructure/observability"
	"github.com/zatekoja/clinicportal/internal/nlp"
)

// MedicationParser is the extraction capability the service wraps.
type MedicationParser interface {
	Parse(transcript string) nlp.ParseResult
}

// MedicationParseService turns free-text medication orders into structured
// fields, memoizing results in an optional cache.
type MedicationParseService struct {
	parser   MedicationParser
	cache    providers.CacheProvider
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// NewMedicationParseService creates the service. cache and metrics may be nil.
func NewMedicationParseService(parser MedicationParser, cache providers.CacheProvider, cacheTTL time.Duration, metrics *observability.Metrics) *MedicationParseService {
	return &MedicationParseService{
		parser:   parser,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
	}
}

// ParseCacheKey returns the cache key for a transcript. Parse output depends
// on casing, so only surrounding whitespace is normalized.
func ParseCacheKey(transcript string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(transcript)))
	return "medparse:" + hex.EncodeToString(sum[:])
}

// Parse never fails; cache errors only cost a recomputation.
func (s *MedicationParseService) Parse(ctx context.Context, transcript string) nlp.ParseResult {
	if strings.TrimSpace(transcript) == "" {
		observability.RecordParse(ctx, s.metrics, false, false, false)
		return nlp.ParseResult{}
	}

	key := ParseCacheKey(transcript)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var cached nlp.ParseResult
			if json.Unmarshal(data, &cached) == nil {
				observability.RecordCacheResult(ctx, s.metrics, "medparse", true)
				return cached
			}
		}
		observability.RecordCacheResult(ctx, s.metrics, "medparse", false)
	}

	result := s.parser.Parse(transcript)
	observability.RecordParse(ctx, s.metrics, result.Medication != "", result.Dosage != "", result.Days != "")

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache medication parse")
			}
		}
	}
	return result
}

// Order parses a plan into the order stored on a diagnosis session.
func (s *MedicationParseService) Order(ctx context.Context, plan string) entities.MedicationOrder {
	r := s.Parse(ctx, plan)
	return entities.MedicationOrder{Medication: r.Medication, Dosage: r.Dosage, Days: r.Days}
}
