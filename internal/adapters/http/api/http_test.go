package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/terptaster/internal/adapters/http/api"
	"github.com/okian/terptaster/internal/adapters/mq/queue"
	"github.com/okian/terptaster/internal/adapters/repository"
	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/internal/domain/training"
	"github.com/okian/terptaster/internal/domain/types"
	"github.com/okian/terptaster/pkg/logger"
	"github.com/okian/terptaster/pkg/metrics"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeDeps backs every service with a real scorer over a small catalog and
// in-memory doubles for the pipeline, leaderboard and training calls.
type fakeDeps struct {
	catalog *terpene.Catalog
	scorer  *scoring.Scorer

	mu         sync.Mutex
	seen       map[string]bool
	enqueued   []model.Tasting
	enqueueErr error

	entries []types.Entry

	view       training.View
	trainErr   error
	lastGuess  string
	lastAction string
}

func newFakeDeps(t *testing.T) *fakeDeps {
	t.Helper()
	c, err := terpene.NewCatalog([]terpene.Terpene{
		{Name: "Myrcene", PossibleFlavors: []string{"Earthy", "Musky", "Herbal"}, Effects: "Relaxing"},
		{Name: "Limonene", PossibleFlavors: []string{"Citrus", "Lemon"}, Effects: "Uplifting"},
		{Name: "Pinene", PossibleFlavors: []string{"Pine", "Herbal"}, Effects: "Alert"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return &fakeDeps{
		catalog: c,
		scorer:  scoring.New(c),
		seen:    make(map[string]bool),
		view:    training.View{ID: "sess-1", Difficulty: training.Expert, Terpene: "Myrcene", HintsLeft: training.MaxHints, MaxStrikes: training.MaxStrikes},
	}
}

func (f *fakeDeps) ScoreTerpenes(_ context.Context, in scoring.Input) scoring.ScoreCard {
	return f.scorer.ScoreTerpenes(in)
}

func (f *fakeDeps) ScorePalate(_ context.Context, in scoring.Input) scoring.PalateCard {
	return f.scorer.ScorePalate(in)
}

func (f *fakeDeps) Terpenes(context.Context) []terpene.Terpene { return f.catalog.Terpenes() }

func (f *fakeDeps) Terpene(_ context.Context, name string) (terpene.Terpene, error) {
	t, ok := f.catalog.Lookup(name)
	if !ok {
		return terpene.Terpene{}, fmt.Errorf("fake: %w: %q", terpene.ErrUnknownTerpene, name)
	}
	return t, nil
}

func (f *fakeDeps) Flavors(context.Context) []string { return f.catalog.Flavors() }

func (f *fakeDeps) TerpenesForFlavor(_ context.Context, flavor string) ([]string, error) {
	names := f.catalog.TerpenesForFlavor(flavor)
	if len(names) == 0 {
		return nil, fmt.Errorf("fake: %w: %q", terpene.ErrUnknownFlavor, flavor)
	}
	return names, nil
}

func (f *fakeDeps) ExpectedFlavors(_ context.Context, selected []string) []string {
	return f.catalog.ExpectedFlavors(selected)
}

func (f *fakeDeps) SeenAndRecord(_ context.Context, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[id] {
		return true
	}
	f.seen[id] = true
	return false
}

func (f *fakeDeps) Unrecord(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, id)
}

func (f *fakeDeps) Size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.seen))
}

func (f *fakeDeps) Enqueue(_ context.Context, t model.Tasting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, t)
	return nil
}

func (f *fakeDeps) TopN(_ context.Context, n int) ([]types.Entry, error) {
	if n > len(f.entries) {
		n = len(f.entries)
	}
	return f.entries[:n], nil
}

func (f *fakeDeps) Rank(_ context.Context, tasterID string) (types.Entry, error) {
	for _, e := range f.entries {
		if e.TasterID == tasterID {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("fake: %w", repository.ErrNotFound)
}

func (f *fakeDeps) StartSession(_ context.Context, d training.Difficulty) (training.View, error) {
	f.lastAction = "start"
	v := f.view
	v.Difficulty = d
	return v, f.trainErr
}

func (f *fakeDeps) Session(_ context.Context, id string) (training.View, error) {
	return f.action("get", id)
}

func (f *fakeDeps) Guess(_ context.Context, id, guess string) (training.View, error) {
	f.lastGuess = guess
	return f.action("guess", id)
}

func (f *fakeDeps) Hint(_ context.Context, id string) (training.View, error) {
	return f.action("hint", id)
}

func (f *fakeDeps) NextRound(_ context.Context, id string) (training.View, error) {
	return f.action("next", id)
}

func (f *fakeDeps) RestartSession(_ context.Context, id string) (training.View, error) {
	return f.action("restart", id)
}

func (f *fakeDeps) EndSession(_ context.Context, id string) error {
	_, err := f.action("end", id)
	return err
}

func (f *fakeDeps) action(name, id string) (training.View, error) {
	f.lastAction = name
	if id != f.view.ID {
		return training.View{}, fmt.Errorf("fake: %w", repository.ErrSessionMissing)
	}
	return f.view, f.trainErr
}

type staticStats map[string]any

func (s staticStats) GetStats() map[string]any { return s }

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// requestCount reads terptaster_palate_http_requests_total for one label set.
func requestCount(endpoint, method, status string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		panic(err)
	}
	want := map[string]string{"endpoint": endpoint, "method": method, "status_code": status}
	for _, mf := range families {
		if mf.GetName() != "terptaster_palate_http_requests_total" {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if v, ok := want[l.GetName()]; ok && v != l.GetValue() {
					continue next
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestScoreEndpoints(t *testing.T) {
	Convey("Given a router over a three terpene catalog", t, func() {
		deps := newFakeDeps(t)
		h := api.NewServer(deps, staticStats{}).Router()

		Convey("When two of three selected terpenes are corroborated", func() {
			w := do(h, http.MethodPost, "/score/terpenes",
				`{"selectedTerpenes":["Pinene","Myrcene","Limonene"],"inhaleFlavors":["Earthy"],"exhaleFlavors":["Pine"]}`)

			Convey("Then the card reports 67 percent in dataset order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](w)
				So(body["percentage"], ShouldEqual, 67.0)
				So(body["grade"], ShouldEqual, "D")
				So(body["correctMatches"], ShouldEqual, 2.0)
				So(body["totalPossibleMatches"], ShouldEqual, 3.0)
				So(body["matchedTerpenes"], ShouldResemble, []any{"Myrcene", "Pinene"})
				So(body["feedback"], ShouldEqual, "Keep practicing!")
			})
		})

		Convey("When nothing is selected", func() {
			w := do(h, http.MethodPost, "/score/terpenes", `{"inhaleFlavors":["Earthy"]}`)

			Convey("Then the score is zero with an empty match list", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](w)
				So(body["percentage"], ShouldEqual, 0.0)
				So(body["grade"], ShouldEqual, "F")
				So(body["matchedTerpenes"], ShouldResemble, []any{})
			})
		})

		Convey("When scoring the palate variant", func() {
			w := do(h, http.MethodPost, "/score/palate",
				`{"selectedTerpenes":["Limonene"],"inhaleFlavors":["Lemon","Pine"]}`)

			Convey("Then each tasted flavor is judged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](w)
				So(body["percentage"], ShouldEqual, 50.0)
				So(body["matchedFlavors"], ShouldResemble, []any{"Lemon"})
				So(body["unmatchedFlavors"], ShouldResemble, []any{"Pine"})
				So(body["totalFlavors"], ShouldEqual, 2.0)
			})
		})

		Convey("When the body is malformed", func() {
			w := do(h, http.MethodPost, "/score/terpenes", `{"selectedTerpenes":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When the body carries an unknown field", func() {
			w := do(h, http.MethodPost, "/score/terpenes", `{"terpenes":["Myrcene"]}`)

			Convey("Then it is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a list is too long", func() {
			names := make([]string, 65)
			for i := range names {
				names[i] = fmt.Sprintf(`"t%d"`, i)
			}
			w := do(h, http.MethodPost, "/score/terpenes", `{"selectedTerpenes":[`+strings.Join(names, ",")+`]}`)

			Convey("Then validation fails naming the field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				e := decode[errorBody](w)
				So(e.Code, ShouldEqual, "validation_error")
				So(e.Message, ShouldContainSubstring, "selectedTerpenes")
			})
		})
	})
}

func TestCatalogEndpoints(t *testing.T) {
	Convey("Given a router over a three terpene catalog", t, func() {
		deps := newFakeDeps(t)
		h := api.NewServer(deps, staticStats{}).Router()

		Convey("When listing terpenes", func() {
			w := do(h, http.MethodGet, "/terpenes", "")
			body := decode[struct {
				Count    int               `json:"count"`
				Terpenes []terpene.Terpene `json:"terpenes"`
			}](w)

			Convey("Then they come back in dataset order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.Count, ShouldEqual, 3)
				So(body.Terpenes[0].Name, ShouldEqual, "Myrcene")
				So(body.Terpenes[2].Name, ShouldEqual, "Pinene")
			})
		})

		Convey("When fetching a known and an unknown terpene", func() {
			ok := do(h, http.MethodGet, "/terpenes/Limonene", "")
			missing := do(h, http.MethodGet, "/terpenes/Nope", "")

			Convey("Then the known one is returned and the other is 404", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(decode[terpene.Terpene](ok).PossibleFlavors, ShouldResemble, []string{"Citrus", "Lemon"})
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](missing).Code, ShouldEqual, "not_found")
			})
		})

		Convey("When asking which terpenes give a flavor", func() {
			w := do(h, http.MethodGet, "/flavors/Herbal/terpenes", "")
			missing := do(h, http.MethodGet, "/flavors/Bubblegum/terpenes", "")

			Convey("Then every producer is listed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](w)
				So(body["flavor"], ShouldEqual, "Herbal")
				So(body["terpenes"], ShouldResemble, []any{"Myrcene", "Pinene"})
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When listing flavors", func() {
			w := do(h, http.MethodGet, "/flavors", "")

			Convey("Then the distinct flavors are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(len(decode[[]string](w)), ShouldEqual, 6)
			})
		})

		Convey("When asking for expected flavors of nothing", func() {
			w := do(h, http.MethodPost, "/terpenes/expected-flavors", `{}`)

			Convey("Then both lists are empty arrays", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[map[string]any](w)
				So(body["selectedTerpenes"], ShouldResemble, []any{})
				So(body["expectedFlavors"], ShouldResemble, []any{})
			})
		})
	})
}

func TestTastingsEndpoint(t *testing.T) {
	Convey("Given a router with a working queue", t, func() {
		deps := newFakeDeps(t)
		h := api.NewServer(deps, staticStats{}).Router()
		body := `{"submissionId":"sub-1","tasterId":"t-1","selectedTerpenes":["Myrcene"],"inhaleFlavors":["Earthy"],"ts":"2024-05-01T10:00:00Z"}`

		Convey("When a new tasting is posted", func() {
			w := do(h, http.MethodPost, "/tastings", body)

			Convey("Then it is accepted and queued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(decode[map[string]any](w)["status"], ShouldEqual, "accepted")
				So(deps.enqueued, ShouldHaveLength, 1)
				So(deps.enqueued[0].TasterID, ShouldEqual, "t-1")
				So(deps.enqueued[0].TS.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("And posting it again reports a duplicate", func() {
				again := do(h, http.MethodPost, "/tastings", body)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](again)["duplicate"], ShouldEqual, true)
				So(deps.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When required ids are missing", func() {
			w := do(h, http.MethodPost, "/tastings", `{"tasterId":"t-1"}`)

			Convey("Then validation fails", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				e := decode[errorBody](w)
				So(e.Code, ShouldEqual, "validation_error")
				So(e.Message, ShouldContainSubstring, "submissionId is required")
			})
		})

		Convey("When the timestamp is not RFC3339", func() {
			w := do(h, http.MethodPost, "/tastings", `{"submissionId":"s","tasterId":"t","ts":"yesterday"}`)

			Convey("Then validation fails", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Code, ShouldEqual, "validation_error")
			})
		})

		Convey("When the queue is full", func() {
			deps.enqueueErr = fmt.Errorf("queue.enqueue: %w", queue.ErrQueueFull)
			w := do(h, http.MethodPost, "/tastings", body)

			Convey("Then the client is told to back off and the id is released", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode[errorBody](w).Code, ShouldEqual, "backpressure")
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the queue is closed", func() {
			deps.enqueueErr = fmt.Errorf("queue.enqueue: %w", queue.ErrClosed)
			w := do(h, http.MethodPost, "/tastings", body)

			Convey("Then the service is unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode[errorBody](w).Code, ShouldEqual, "unavailable")
			})
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given a router with three ranked tasters", t, func() {
		deps := newFakeDeps(t)
		deps.entries = []types.Entry{
			{Rank: 1, TasterID: "a", Percentage: 90, Grade: "A"},
			{Rank: 1, TasterID: "b", Percentage: 90, Grade: "A"},
			{Rank: 3, TasterID: "c", Percentage: 50, Grade: "F"},
		}
		h := api.NewServer(deps, staticStats{}, api.WithMaxLeaderboardLimit(5)).Router()

		Convey("When no limit is given", func() {
			w := do(h, http.MethodGet, "/leaderboard", "")

			Convey("Then the default page is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[[]types.Entry](w), ShouldHaveLength, 3)
			})
		})

		Convey("When a limit is given", func() {
			w := do(h, http.MethodGet, "/leaderboard?limit=2", "")

			Convey("Then it caps the result", func() {
				entries := decode[[]types.Entry](w)
				So(entries, ShouldHaveLength, 2)
				So(entries[1].Rank, ShouldEqual, 1)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			bad := do(h, http.MethodGet, "/leaderboard?limit=zero", "")
			neg := do(h, http.MethodGet, "/leaderboard?limit=0", "")
			big := do(h, http.MethodGet, "/leaderboard?limit=6", "")

			Convey("Then each is rejected with its own code", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](bad).Code, ShouldEqual, "bad_request")
				So(neg.Code, ShouldEqual, http.StatusBadRequest)
				So(big.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](big).Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When looking up ranks", func() {
			ok := do(h, http.MethodGet, "/rank/c", "")
			missing := do(h, http.MethodGet, "/rank/zed", "")

			Convey("Then known tasters resolve and unknown ones are 404", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				So(decode[types.Entry](ok).Rank, ShouldEqual, 3)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestTrainingEndpoints(t *testing.T) {
	Convey("Given a router with one training session", t, func() {
		deps := newFakeDeps(t)
		h := api.NewServer(deps, staticStats{}).Router()

		Convey("When starting a session", func() {
			w := do(h, http.MethodPost, "/training/sessions", `{"difficulty":"multiple_choice"}`)

			Convey("Then it is created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[training.View](w).Difficulty, ShouldEqual, training.MultipleChoice)
			})
		})

		Convey("When the difficulty is unknown", func() {
			w := do(h, http.MethodPost, "/training/sessions", `{"difficulty":"wizard"}`)

			Convey("Then validation fails", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode[errorBody](w).Message, ShouldContainSubstring, "difficulty must be one of")
			})
		})

		Convey("When each action is called on the session", func() {
			for _, action := range []string{"hint", "next", "restart"} {
				w := do(h, http.MethodPost, "/training/sessions/sess-1/"+action, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastAction, ShouldEqual, action)
			}
			w := do(h, http.MethodGet, "/training/sessions/sess-1", "")

			Convey("Then the session view is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode[training.View](w).ID, ShouldEqual, "sess-1")
			})
		})

		Convey("When the session is ended", func() {
			w := do(h, http.MethodDelete, "/training/sessions/sess-1", "")
			missing := do(h, http.MethodDelete, "/training/sessions/other", "")

			Convey("Then it is 204 and unknown ids are 404", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(deps.lastAction, ShouldEqual, "end")
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When guessing", func() {
			w := do(h, http.MethodPost, "/training/sessions/sess-1/guess", `{"guess":"Earthy"}`)
			empty := do(h, http.MethodPost, "/training/sessions/sess-1/guess", `{"guess":""}`)

			Convey("Then the guess is forwarded and an empty one is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastGuess, ShouldEqual, "Earthy")
				So(empty.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the session does not exist", func() {
			w := do(h, http.MethodGet, "/training/sessions/other", "")

			Convey("Then it is 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the game rejects the action", func() {
			cases := map[error]int{
				training.ErrGameOver:         http.StatusConflict,
				training.ErrRoundClosed:      http.StatusConflict,
				training.ErrRoundOpen:        http.StatusConflict,
				training.ErrNoHintsLeft:      http.StatusConflict,
				training.ErrNotPlayable:      http.StatusConflict,
				training.ErrEmptyGuess:       http.StatusBadRequest,
				errors.New("store exploded"): http.StatusInternalServerError,
			}

			Convey("Then each rule maps to its status", func() {
				for err, status := range cases {
					deps.trainErr = fmt.Errorf("training.op: %w", err)
					w := do(h, http.MethodPost, "/training/sessions/sess-1/hint", "")
					So(w.Code, ShouldEqual, status)
				}
			})

			Convey("And internal errors do not leak their message", func() {
				deps.trainErr = errors.New("store exploded")
				w := do(h, http.MethodPost, "/training/sessions/sess-1/next", "")
				So(decode[errorBody](w).Message, ShouldEqual, http.StatusText(http.StatusInternalServerError))
			})
		})
	})
}

func TestRouterBehaviour(t *testing.T) {
	Convey("Given a router with docs, CORS and a tight rate limit", t, func() {
		deps := newFakeDeps(t)
		docs := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "docs")
		})
		h := api.NewServer(deps, staticStats{"queue_len": 3},
			api.WithCORSOrigins([]string{"https://example.test"}),
			api.WithRateLimit(2, time.Minute),
			api.WithDocs(docs),
		).Router()

		Convey("When probing health and stats", func() {
			health := do(h, http.MethodGet, "/healthz", "")
			stats := do(h, http.MethodGet, "/stats", "")

			Convey("Then both respond", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(decode[map[string]any](stats)["queue_len"], ShouldEqual, 3.0)
			})
		})

		Convey("When fetching docs", func() {
			w := do(h, http.MethodGet, "/openapi.yaml", "")

			Convey("Then the docs handler serves it", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldEqual, "docs")
			})
		})

		Convey("When a route does not exist or the method is wrong", func() {
			unmatchedBefore := requestCount("unmatched", http.MethodGet, "404")
			missing := do(h, http.MethodGet, "/nowhere", "")
			wrong := do(h, http.MethodDelete, "/flavors", "")

			Convey("Then JSON errors are returned", func() {
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(decode[errorBody](missing).Code, ShouldEqual, "not_found")
				So(wrong.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})

			Convey("And the miss is counted as unmatched", func() {
				So(requestCount("unmatched", http.MethodGet, "404"), ShouldEqual, unmatchedBefore+1)
			})
		})

		Convey("When a browser sends a preflight", func() {
			req := httptest.NewRequest(http.MethodOptions, "/score/terpenes", nil)
			req.Header.Set("Origin", "https://example.test")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then the origin is allowed", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://example.test")
			})
		})

		Convey("When one client exceeds the rate limit", func() {
			throttledBefore := requestCount("/flavors", http.MethodGet, "429")
			codes := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				codes = append(codes, do(h, http.MethodGet, "/flavors", "").Code)
			}

			Convey("Then the third call is throttled", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})

			Convey("And the throttled call is counted under its route", func() {
				So(requestCount("/flavors", http.MethodGet, "429"), ShouldBeGreaterThanOrEqualTo, throttledBefore+1)
			})

			Convey("And health checks are not throttled", func() {
				So(do(h, http.MethodGet, "/healthz", "").Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
