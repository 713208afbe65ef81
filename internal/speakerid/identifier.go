// Package speakerid matches speaker embeddings produced by diarization
// against a persistent library of known speakers, so returning participants
// are recognized across meetings.
package speakerid

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"meeting-assistant-sidecar/internal/embedding"
	"meeting-assistant-sidecar/internal/vectormath"
)

// DefaultThreshold is the minimum cosine similarity for a positive match.
const DefaultThreshold = 0.75

// ErrNoStore is returned when a store-backed operation is invoked on an
// identifier that was built without a profile store. This is an integration
// bug, not a runtime condition worth retrying.
var ErrNoStore = errors.New("speaker profile store not configured")

// Profile is a persisted speaker as the store exposes it. Embedding is nil
// until the first observation; EmbeddingCount tracks how many observations
// the stored running average has absorbed.
type Profile struct {
	ID             int64
	Name           string
	Embedding      []byte
	EmbeddingCount int
}

// ProfileStore is the persistence contract the identifier consumes. The
// SQLite implementation lives in internal/store.
type ProfileStore interface {
	GetAllProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	CreateProfile(ctx context.Context, name string) (int64, error)
	UpdateProfileEmbedding(ctx context.Context, id int64, embedding []byte, count int) error
}

// Match is the outcome of comparing one diarization label against the
// candidate library. MatchedName is nil when nothing cleared the threshold;
// Confidence still carries the best similarity found so callers always see
// the closest guess.
type Match struct {
	SpeakerLabel string  `json:"speaker_label"`
	MatchedName  *string `json:"matched_name"`
	Confidence   float64 `json:"confidence"`
}

// Identifier matches observed embeddings against known speakers.
//
// Identify is pure and safe for concurrent use. IdentifyFromStore and
// UpdateProfile perform read-then-write against the store and are NOT
// serializable against themselves for the same profile: two concurrent
// UpdateProfile calls on one profile can lose an update. The caller must
// serialize identify-and-persist cycles (the IPC dispatcher does this by
// handling one message at a time).
type Identifier struct {
	Threshold float64
	store     ProfileStore
}

// New creates an identifier backed by store. A nil store is allowed for
// stateless matching via Identify; the store-touching methods then return
// ErrNoStore.
func New(store ProfileStore) *Identifier {
	return &Identifier{
		Threshold: DefaultThreshold,
		store:     store,
	}
}

// Identify compares every observed label against every candidate and returns
// one Match per label.
//
// The best candidate is selected with a strictly-greater comparison, so on a
// tie the first candidate scanned wins. Candidates are scanned in sorted name
// order to keep that tie-break deterministic under Go's randomized map
// iteration. Empty candidates produce unmatched results with confidence 0.0.
func (id *Identifier) Identify(observed, candidates map[string][]float32) []Match {
	labels := sortedKeys(observed)
	names := sortedKeys(candidates)

	matches := make([]Match, 0, len(labels))
	for _, label := range labels {
		vec := observed[label]

		var (
			bestName string
			bestSim  float64
			found    bool
		)
		for _, name := range names {
			sim := vectormath.CosineSimilarity(vec, candidates[name])
			if !found || sim > bestSim {
				bestName = name
				bestSim = sim
				found = true
			}
		}

		m := Match{SpeakerLabel: label}
		if found {
			m.Confidence = bestSim
			if bestSim >= id.Threshold {
				name := bestName
				m.MatchedName = &name
			}
		}
		matches = append(matches, m)
	}
	return matches
}

// IdentifyFromStore loads all stored profiles, decodes their embeddings and
// delegates to Identify. Profiles without a usable embedding are skipped:
// they would only show up as zero-vector candidates. A profile whose count is
// positive but whose blob is nil or corrupt is a store inconsistency and is
// skipped the same way rather than crashing the match.
func (id *Identifier) IdentifyFromStore(ctx context.Context, observed map[string][]float32) ([]Match, error) {
	if id.store == nil {
		return nil, ErrNoStore
	}

	profiles, err := id.store.GetAllProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load speaker profiles: %w", err)
	}

	candidates := make(map[string][]float32, len(profiles))
	for _, p := range profiles {
		if len(p.Embedding) == 0 {
			continue
		}
		vec, err := embedding.Decode(p.Embedding)
		if err != nil {
			log.Warn().
				Int64("profileId", p.ID).
				Str("name", p.Name).
				Err(err).
				Msg("Skipping profile with corrupt embedding")
			continue
		}
		candidates[p.Name] = vec
	}

	return id.Identify(observed, candidates), nil
}

// UpdateProfile folds newEmbedding into the stored running average for
// profileID and increments the sample count.
//
// A missing profile is a silent no-op: the host may delete speakers at any
// time and losing that race is benign. A stored nil embedding bootstraps the
// average regardless of the stored count. This operation is not idempotent -
// re-applying the same observation double-counts it.
func (id *Identifier) UpdateProfile(ctx context.Context, profileID int64, newEmbedding []float32) error {
	if id.store == nil {
		return ErrNoStore
	}

	profile, err := id.store.GetProfile(ctx, profileID)
	if err != nil {
		return fmt.Errorf("load speaker profile %d: %w", profileID, err)
	}
	if profile == nil {
		log.Debug().
			Int64("profileId", profileID).
			Msg("Profile deleted before update, skipping")
		return nil
	}

	var current []float32
	count := profile.EmbeddingCount
	if len(profile.Embedding) == 0 {
		count = 0
	} else {
		current, err = embedding.Decode(profile.Embedding)
		if err != nil {
			log.Warn().
				Int64("profileId", profileID).
				Err(err).
				Msg("Stored embedding corrupt, restarting running average")
			current = nil
			count = 0
		}
	}

	updated, newCount := vectormath.RunningAverage(current, count, newEmbedding)
	if err := id.store.UpdateProfileEmbedding(ctx, profileID, embedding.Encode(updated), newCount); err != nil {
		return fmt.Errorf("update speaker profile %d: %w", profileID, err)
	}
	return nil
}

func sortedKeys(m map[string][]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
