package uniqueness

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"pagesmith/internal/history"
	"pagesmith/internal/logger"
)

const (
	DefaultDiversityFloor = 0.35
	DefaultMaxAttempts    = 3
)

type Config struct {
	DiversityFloor float64
	MaxAttempts    int
}

// Request describes one page body to make unique.
type Request struct {
	// Seed makes variation reproducible per page; the potential page id is used.
	Seed         string
	Intensity    Intensity
	Subject      string
	Protected    []string
	OpeningStyle string
	ClosingStyle string
	Facts        []Fact
}

// Outcome is the accepted candidate.
type Outcome struct {
	Body         string
	Fingerprint  Fingerprint
	Score        float64
	Attempts     int
	OpeningStyle string
	ClosingStyle string
}

// Engine varies drafts against the shared pattern history.
type Engine struct {
	history *history.History
	cfg     Config
	logger  *logger.Logger
}

func NewEngine(h *history.History, cfg Config, log *logger.Logger) *Engine {
	if h == nil {
		h = history.New(history.Options{})
	}
	if cfg.DiversityFloor <= 0 {
		cfg.DiversityFloor = DefaultDiversityFloor
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{history: h, cfg: cfg, logger: log}
}

// Score rates a fingerprint against the current history window.
func (e *Engine) Score(fp Fingerprint) float64 {
	return Score(fp, e.history.RecentPatterns())
}

// Apply varies draft up to MaxAttempts times until a candidate reaches the
// diversity floor, then records the best candidate in history. It never fails:
// when no candidate clears the floor the most diverse one is returned.
func (e *Engine) Apply(draft string, req Request) Outcome {
	recent := e.history.RecentPatterns()

	var best Outcome
	bestScore := -1.0
	attempts := 0
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		attempts = attempt
		r := SeededRand(req.Seed, attempt)
		opening, closing := req.OpeningStyle, req.ClosingStyle
		if attempt > 1 || opening == "" {
			opening = OpeningStyles[r.IntN(len(OpeningStyles))]
		}
		if attempt > 1 || closing == "" {
			closing = ClosingStyles[r.IntN(len(ClosingStyles))]
		}

		body := Vary(draft, VaryOptions{
			Rand:         r,
			Intensity:    req.Intensity,
			Subject:      req.Subject,
			Protected:    req.Protected,
			OpeningStyle: opening,
			ClosingStyle: closing,
			Facts:        req.Facts,
		})
		fp := Extract(body)
		score := Score(fp, recent)
		if score > bestScore {
			bestScore = score
			best = Outcome{Body: body, Fingerprint: fp, Score: score, OpeningStyle: opening, ClosingStyle: closing}
		}
		if score >= e.cfg.DiversityFloor {
			break
		}
	}
	best.Attempts = attempts
	if bestScore < e.cfg.DiversityFloor {
		e.logger.Debug("accepting candidate below diversity floor", "seed", req.Seed, "score", bestScore, "attempts", attempts)
	}

	e.history.AppendPattern(best.Fingerprint)
	return best
}

// SeededRand derives a deterministic source from a seed string and attempt number.
func SeededRand(seed string, attempt int) *rand.Rand {
	sum := sha256.Sum256([]byte(seed))
	hi := binary.BigEndian.Uint64(sum[:8])
	lo := binary.BigEndian.Uint64(sum[8:16]) ^ uint64(attempt)
	return rand.New(rand.NewPCG(hi, lo))
}
