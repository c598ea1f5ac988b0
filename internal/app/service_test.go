package service_test

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/terptaster/internal/adapters/repository"
	service "github.com/okian/terptaster/internal/app"
	"github.com/okian/terptaster/internal/domain/scoring"
	"github.com/okian/terptaster/internal/domain/terpene"
	"github.com/okian/terptaster/internal/domain/training"
	"github.com/okian/terptaster/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func testCatalog(t *testing.T) *terpene.Catalog {
	t.Helper()
	c, err := terpene.NewCatalog([]terpene.Terpene{
		{Name: "Myrcene", PossibleFlavors: []string{"Earthy", "Musky"}, Effects: "Relaxing", FunFact: "Found in mangoes", NotableStrains: "Blue Dream"},
		{Name: "Limonene", PossibleFlavors: []string{"Citrus", "Lemon"}, Effects: "Uplifting", FunFact: "Found in citrus rinds", NotableStrains: "Super Lemon Haze"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func startService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithCatalog(testCatalog(t)),
		service.WithWorkerCount(2),
		service.WithQueueSize(100),
		service.WithRand(rand.New(rand.NewSource(7))),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service with the embedded dataset", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting it", func() {
			err := svc.Start(ctx)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it is running with the full catalog", func() {
				So(err, ShouldBeNil)
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["terpenes"], ShouldBeGreaterThan, 0)
				So(stats["queueCapacity"], ShouldEqual, 10_000)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping it", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it is marked stopped and stopping again is safe", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})

	Convey("Given a service pointed at a missing dataset", t, func() {
		svc := service.New(service.WithTerpeneData("/nonexistent/terpenes.json"))

		Convey("Then Start fails with a load error", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, terpene.ErrLoadCatalog), ShouldBeTrue)
		})
	})
}

func TestService_ScoringAndCatalog(t *testing.T) {
	Convey("Given a started service over Myrcene and Limonene", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When scoring a half corroborated selection", func() {
			in := scoring.Input{
				SelectedTerpenes: []string{"Limonene", "Myrcene"},
				InhaleFlavors:    []string{"Earthy"},
			}
			card := svc.ScoreTerpenes(ctx, in)
			palate := svc.ScorePalate(ctx, in)

			Convey("Then both variants score it", func() {
				So(card.Percentage, ShouldEqual, 50)
				So(card.MatchedTerpenes, ShouldResemble, []string{"Myrcene"})
				So(palate.Percentage, ShouldEqual, 100)
			})
		})

		Convey("When looking up catalog entries", func() {
			_, unknown := svc.Terpene(ctx, "Linalool")
			_, noFlavor := svc.TerpenesForFlavor(ctx, "Pine")
			names, err := svc.TerpenesForFlavor(ctx, "Lemon")

			Convey("Then unknown names map to their sentinels", func() {
				So(errors.Is(unknown, terpene.ErrUnknownTerpene), ShouldBeTrue)
				So(errors.Is(noFlavor, terpene.ErrUnknownFlavor), ShouldBeTrue)
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"Limonene"})
				So(svc.ExpectedFlavors(ctx, []string{"Limonene", "Nope"}), ShouldResemble, []string{"Citrus", "Lemon"})
				So(svc.Flavors(ctx), ShouldHaveLength, 4)
			})
		})
	})
}

func TestService_Training(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService(t)
		ctx := context.Background()

		Convey("When starting an expert session", func() {
			view, err := svc.StartSession(ctx, training.Expert)
			So(err, ShouldBeNil)

			Convey("Then the answer is hidden until a guess", func() {
				So(view.ID, ShouldNotBeEmpty)
				So(view.Revealed, ShouldBeFalse)
				So(view.Answer, ShouldBeNil)
				So(view.HintsLeft, ShouldEqual, training.MaxHints)
			})

			Convey("And hints come in order then run out", func() {
				v, err := svc.Hint(ctx, view.ID)
				So(err, ShouldBeNil)
				So(v.HintsLeft, ShouldEqual, training.MaxHints-1)
				_, _ = svc.Hint(ctx, view.ID)
				_, _ = svc.Hint(ctx, view.ID)
				_, err = svc.Hint(ctx, view.ID)
				So(errors.Is(err, training.ErrNoHintsLeft), ShouldBeTrue)
			})

			Convey("And a wrong guess costs a strike and reveals the round", func() {
				v, err := svc.Guess(ctx, view.ID, "Bubblegum")
				So(err, ShouldBeNil)
				So(v.Correct, ShouldBeFalse)
				So(v.Strikes, ShouldEqual, 1)
				So(v.Answer, ShouldNotBeNil)

				_, err = svc.Guess(ctx, view.ID, "Earthy")
				So(errors.Is(err, training.ErrRoundClosed), ShouldBeTrue)
			})

			Convey("And a correct guess grows the streak", func() {
				current, err := svc.Session(ctx, view.ID)
				So(err, ShouldBeNil)
				flavors, _ := svc.Terpene(ctx, current.Terpene)

				// Either flavor of the terpene may have been dealt; try the
				// first and fall back to the second on a fresh session.
				v, err := svc.Guess(ctx, view.ID, "  "+flavors.PossibleFlavors[0]+"  ")
				So(err, ShouldBeNil)
				if !v.Correct {
					So(v.Answer.Flavor, ShouldEqual, flavors.PossibleFlavors[1])
					return
				}
				So(v.Streak, ShouldEqual, 1)
				So(v.BestStreak, ShouldEqual, 1)
			})

			Convey("And next requires the round to be answered", func() {
				_, err := svc.NextRound(ctx, view.ID)
				So(errors.Is(err, training.ErrRoundOpen), ShouldBeTrue)

				_, _ = svc.Guess(ctx, view.ID, "Bubblegum")
				v, err := svc.NextRound(ctx, view.ID)
				So(err, ShouldBeNil)
				So(v.Revealed, ShouldBeFalse)
				So(v.Strikes, ShouldEqual, 1)
			})

			Convey("And three strikes end the game until restart", func() {
				for i := 0; i < training.MaxStrikes; i++ {
					_, err := svc.Guess(ctx, view.ID, "Bubblegum")
					So(err, ShouldBeNil)
					if i < training.MaxStrikes-1 {
						_, err = svc.NextRound(ctx, view.ID)
						So(err, ShouldBeNil)
					}
				}
				v, _ := svc.Session(ctx, view.ID)
				So(v.GameOver, ShouldBeTrue)
				_, err := svc.NextRound(ctx, view.ID)
				So(errors.Is(err, training.ErrGameOver), ShouldBeTrue)

				v, err = svc.RestartSession(ctx, view.ID)
				So(err, ShouldBeNil)
				So(v.GameOver, ShouldBeFalse)
				So(v.Strikes, ShouldEqual, 0)
				So(v.Streak, ShouldEqual, 0)
			})
		})

		Convey("When starting a just_learning session", func() {
			view, err := svc.StartSession(ctx, training.JustLearning)
			So(err, ShouldBeNil)

			Convey("Then the profile is shown and guessing is refused", func() {
				So(view.Revealed, ShouldBeTrue)
				So(view.Answer, ShouldNotBeNil)
				_, err := svc.Guess(ctx, view.ID, "Earthy")
				So(errors.Is(err, training.ErrNotPlayable), ShouldBeTrue)
				_, err = svc.NextRound(ctx, view.ID)
				So(err, ShouldBeNil)
			})
		})

		Convey("When starting a multiple choice session", func() {
			view, err := svc.StartSession(ctx, training.MultipleChoice)

			Convey("Then four options are offered", func() {
				So(err, ShouldBeNil)
				So(view.Options, ShouldHaveLength, training.OptionCount)
			})

			Convey("And ending it removes the session", func() {
				So(svc.EndSession(ctx, view.ID), ShouldBeNil)
				_, err := svc.Session(ctx, view.ID)
				So(errors.Is(err, repository.ErrSessionMissing), ShouldBeTrue)
				So(errors.Is(svc.EndSession(ctx, view.ID), repository.ErrSessionMissing), ShouldBeTrue)
			})
		})

		Convey("When the difficulty or id is unknown", func() {
			_, badDifficulty := svc.StartSession(ctx, "wizard")
			_, missing := svc.Session(ctx, "no-such-session")

			Convey("Then the sentinels come through", func() {
				So(errors.Is(badDifficulty, training.ErrInvalidDifficulty), ShouldBeTrue)
				So(errors.Is(missing, repository.ErrSessionMissing), ShouldBeTrue)
			})
		})
	})
}
