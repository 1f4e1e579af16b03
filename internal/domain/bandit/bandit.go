// Package bandit orders scored candidates with a multi-armed bandit:
// epsilon-greedy explore/exploit driven by the engagement
// classification, plus UCB and Thompson sampling variants.
package bandit

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
)

// defaultEpsilon is the exploration rate for unclassified users.
const defaultEpsilon = 0.2

// Branch labels for the explore/exploit decision.
const (
	BranchExplore = "explore"
	BranchExploit = "exploit"
)

// Ranker applies the bandit ordering. The random source is guarded by
// a mutex so one Ranker can serve concurrent requests.
type Ranker struct {
	mu             sync.Mutex
	rng            *rand.Rand
	defaultEpsilon float64
}

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithSeed fixes the random source, making orderings reproducible.
func WithSeed(seed int64) Option {
	return func(r *Ranker) {
		r.rng = rand.New(rand.NewSource(seed))
	}
}

// WithDefaultEpsilon overrides the exploration rate used for profiles
// without an engagement classification.
func WithDefaultEpsilon(epsilon float64) Option {
	return func(r *Ranker) {
		if epsilon >= 0 && epsilon <= 1 {
			r.defaultEpsilon = epsilon
		}
	}
}

// NewRanker creates a Ranker.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		rng:            rand.New(rand.NewSource(rand.Int63())),
		defaultEpsilon: defaultEpsilon,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type scoredContent struct {
	content catalog.Content
	score   float64
}

// Rank orders candidates for serving. With probability epsilon, drawn
// from the profile's classification, the ordering explores; otherwise
// it exploits by descending score. Unscored candidates count as 0.5.
// The returned branch names which side was taken.
func (r *Ranker) Rank(
	candidates []catalog.Content,
	scores map[string]float64,
	prof *profile.Profile,
) ([]catalog.Content, string) {
	scored := make([]scoredContent, 0, len(candidates))
	for _, c := range candidates {
		score, ok := scores[c.ID]
		if !ok {
			score = 0.5
		}
		scored = append(scored, scoredContent{content: c, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	epsilon := r.EpsilonFor(prof)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rng.Float64() < epsilon {
		return r.explore(scored), BranchExplore
	}
	return exploit(scored), BranchExploit
}

// EpsilonFor maps the engagement classification to an exploration
// rate. Explorers explore the most, specialists the least.
func (r *Ranker) EpsilonFor(prof *profile.Profile) float64 {
	if prof == nil || prof.Engagement == nil {
		return r.defaultEpsilon
	}

	switch prof.Engagement.Classification {
	case profile.ClassExplorer:
		return 0.4
	case profile.ClassSpecialist:
		return 0.1
	case profile.ClassBingeConsumer:
		return 0.3
	case profile.ClassCasualBrowser:
		return 0.35
	case profile.ClassDeepLearner:
		return 0.15
	default:
		return r.defaultEpsilon
	}
}

// explore surfaces variety: the lower-scored half shuffled, followed
// by the top third, de-duplicated. The result may be shorter than the
// input; callers backfill from their own score order.
func (r *Ranker) explore(scored []scoredContent) []catalog.Content {
	mid := len(scored) / 2
	if mid == 0 {
		return contents(scored)
	}

	lower := make([]scoredContent, len(scored)-mid)
	copy(lower, scored[mid:])
	r.rng.Shuffle(len(lower), func(i, j int) {
		lower[i], lower[j] = lower[j], lower[i]
	})

	out := make([]catalog.Content, 0, len(scored))
	seen := make(map[string]struct{}, len(scored))
	appendUnique := func(c catalog.Content) {
		if _, ok := seen[c.ID]; ok {
			return
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}

	for _, sc := range lower {
		appendUnique(sc.content)
	}
	for _, sc := range scored[:len(scored)/3] {
		appendUnique(sc.content)
	}
	return out
}

func exploit(scored []scoredContent) []catalog.Content {
	return contents(scored)
}

func contents(scored []scoredContent) []catalog.Content {
	out := make([]catalog.Content, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.content)
	}
	return out
}

// UCB augments estimated scores with an uncertainty bonus:
// score + c * sqrt(ln(total+1) / count). Unseen arms count once.
func (r *Ranker) UCB(
	estimated map[string]float64,
	selectionCounts map[string]int,
	totalCount int,
	c float64,
) map[string]float64 {
	out := make(map[string]float64, len(estimated))
	for contentID, score := range estimated {
		count := selectionCounts[contentID]
		if count < 1 {
			count = 1
		}
		bonus := c * math.Sqrt(math.Log(float64(totalCount+1))/float64(count))
		out[contentID] = score + bonus
	}
	return out
}

// BetaParams parameterize one arm's Beta posterior.
type BetaParams struct {
	Alpha float64
	Beta  float64
}

// SampleThompson draws from each arm's Beta posterior and returns the
// arm with the highest sample, or empty when no arms exist.
func (r *Ranker) SampleThompson(params map[string]BetaParams) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	best := ""
	bestSample := math.Inf(-1)
	for contentID, p := range params {
		sample := r.betaSample(p.Alpha, p.Beta)
		if sample > bestSample {
			bestSample = sample
			best = contentID
		}
	}
	return best
}

func (r *Ranker) betaSample(alpha, beta float64) float64 {
	a := r.gammaSample(alpha)
	b := r.gammaSample(beta)
	return a / (a + b)
}

// gammaSample draws from a Gamma distribution using Marsaglia and
// Tsang's method.
func (r *Ranker) gammaSample(alpha float64) float64 {
	if alpha < 1 {
		return r.gammaSample(alpha+1) * math.Pow(r.rng.Float64(), 1.0/alpha)
	}

	d := alpha - 1.0/3.0
	c := 1.0 / (3.0 * math.Sqrt(d))

	for {
		x := r.rng.NormFloat64()
		v := (1.0 + c*x) * (1.0 + c*x) * (1.0 + c*x)
		if v <= 0 {
			continue
		}

		u := r.rng.Float64()
		if u < 1.0-0.0331*(x*x)*(x*x) {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}
