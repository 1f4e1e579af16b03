package app_test

import (
	"context"
	"testing"

	"github.com/pathwise/engine/internal/adapters/catalogmem"
	"github.com/pathwise/engine/internal/adapters/repository"
	"github.com/pathwise/engine/internal/app"
	"github.com/pathwise/engine/internal/domain/bandit"
	"github.com/pathwise/engine/internal/domain/catalog"
	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/smartystreets/goconvey/convey"
)

type stubProfiles struct {
	prof *profile.Profile
}

func (s stubProfiles) Profile(_ context.Context, _ string) (*profile.Profile, error) {
	if s.prof == nil {
		return nil, repository.ErrNotFound
	}
	return s.prof.Clone(), nil
}

func seededCatalog() *catalogmem.Catalog {
	return catalogmem.NewCatalog(
		catalog.Content{ID: "v-1", Type: catalog.TypeVideo, Topics: []string{"math"}, DifficultyLevel: 4, EstimatedDurationMinutes: 15},
		catalog.Content{ID: "v-2", Type: catalog.TypeVideo, Topics: []string{"math"}, DifficultyLevel: 3, EstimatedDurationMinutes: 20},
		catalog.Content{ID: "v-3", Type: catalog.TypeVideo, Topics: []string{"physics"}, DifficultyLevel: 5, EstimatedDurationMinutes: 25},
		catalog.Content{ID: "a-1", Type: catalog.TypeArticle, Topics: []string{"history"}, DifficultyLevel: 2, EstimatedDurationMinutes: 10},
		catalog.Content{ID: "q-1", Type: catalog.TypeQuiz, Topics: []string{"math"}, DifficultyLevel: 4},
	)
}

func newTestRecommender(cat *catalogmem.Catalog, history *catalogmem.History, sink *catalogmem.Recommendations, prof *profile.Profile) *app.Recommender {
	return app.NewRecommender(cat, history, sink, stubProfiles{prof: prof},
		app.WithDefaultLimit(3),
		app.WithMaxLimit(4),
		app.WithRanker(bandit.NewRanker(bandit.WithSeed(7), bandit.WithDefaultEpsilon(0))),
	)
}

func TestRecommender_Recommend(t *testing.T) {
	convey.Convey("Given a recommender over a seeded catalog", t, func() {
		ctx := context.Background()
		cat := seededCatalog()
		history := catalogmem.NewHistory()
		sink := catalogmem.NewRecommendations()
		recommender := newTestRecommender(cat, history, sink, nil)

		convey.Convey("When recommendations are requested", func() {
			records, err := recommender.Recommend(ctx, "user-1", 3)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the list respects the limit and carries full records", func() {
				convey.So(len(records), convey.ShouldEqual, 3)

				seen := make(map[string]bool)
				for _, rec := range records {
					convey.So(rec.ID, convey.ShouldNotBeEmpty)
					convey.So(rec.UserID, convey.ShouldEqual, "user-1")
					convey.So(rec.Algorithm, convey.ShouldEqual, "hybrid")
					convey.So(rec.Reason, convey.ShouldNotBeEmpty)
					convey.So(rec.Score, convey.ShouldBeGreaterThanOrEqualTo, 0)
					convey.So(rec.Score, convey.ShouldBeLessThanOrEqualTo, 1)
					convey.So(seen[rec.ContentID], convey.ShouldBeFalse)
					seen[rec.ContentID] = true
				}
			})

			convey.Convey("Then the emitted records are persisted to the sink", func() {
				convey.So(len(sink.Saved("user-1")), convey.ShouldEqual, 3)
			})

			convey.Convey("Then a repeat request serves the cached list", func() {
				again, err := recommender.Recommend(ctx, "user-1", 3)
				convey.So(err, convey.ShouldBeNil)
				convey.So(again[0].ID, convey.ShouldEqual, records[0].ID)
				convey.So(len(sink.Saved("user-1")), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the requested limit is out of range", func() {
			records, err := recommender.Recommend(ctx, "user-1", 99)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is capped at the maximum", func() {
				convey.So(len(records), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When content types are mixed", func() {
			records, err := recommender.Recommend(ctx, "user-1", 3)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the list interleaves more than one type", func() {
				types := make(map[string]bool)
				byID := make(map[string]catalog.Content)
				published, _ := cat.Published(ctx)
				for _, content := range published {
					byID[content.ID] = content
				}
				for _, rec := range records {
					types[string(byID[rec.ContentID].Type)] = true
				}
				convey.So(len(types), convey.ShouldBeGreaterThan, 1)
			})
		})

		convey.Convey("When the user has already seen some content", func() {
			history.RecordSeen("user-1", catalog.Content{ID: "v-1", Type: catalog.TypeVideo})
			history.RecordSeen("user-1", catalog.Content{ID: "v-2", Type: catalog.TypeVideo})

			records, err := recommender.Recommend(ctx, "user-1", 4)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then seen content is never recommended", func() {
				for _, rec := range records {
					convey.So(rec.ContentID, convey.ShouldNotBeIn, []string{"v-1", "v-2"})
				}
			})
		})

		convey.Convey("When every candidate has been consumed", func() {
			published, _ := cat.Published(ctx)
			for _, content := range published {
				history.RecordSeen("user-1", content)
			}

			_, err := recommender.Recommend(ctx, "user-1", 3)

			convey.Convey("Then it reports no content available", func() {
				convey.So(err, convey.ShouldEqual, app.ErrNoContentAvailable)
			})
		})
	})
}

func TestRecommender_NextContentAndFeedback(t *testing.T) {
	convey.Convey("Given a recommender over a seeded catalog", t, func() {
		ctx := context.Background()
		cat := seededCatalog()
		history := catalogmem.NewHistory()
		sink := catalogmem.NewRecommendations()
		recommender := newTestRecommender(cat, history, sink, nil)

		convey.Convey("When the next content is requested", func() {
			records, err := recommender.Recommend(ctx, "user-1", 0)
			convey.So(err, convey.ShouldBeNil)

			next, err := recommender.NextContent(ctx, "user-1")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it is the head of the default-limit list", func() {
				convey.So(next.ContentID, convey.ShouldEqual, records[0].ContentID)
			})
		})

		convey.Convey("When feedback is recorded", func() {
			first, err := recommender.Recommend(ctx, "user-1", 3)
			convey.So(err, convey.ShouldBeNil)

			history.RecordSeen("user-1", catalog.Content{ID: first[0].ContentID})
			convey.So(recommender.RecordFeedback(ctx, "user-1", first[0].ContentID, catalog.FeedbackClicked), convey.ShouldBeNil)

			convey.Convey("Then the feedback reaches the sink", func() {
				convey.So(sink.Feedback("user-1"), convey.ShouldContain, first[0].ContentID+":clicked")
			})

			convey.Convey("Then the cached list is invalidated and re-ranked", func() {
				fresh, err := recommender.Recommend(ctx, "user-1", 3)
				convey.So(err, convey.ShouldBeNil)
				for _, rec := range fresh {
					convey.So(rec.ContentID, convey.ShouldNotEqual, first[0].ContentID)
				}
			})
		})
	})
}

func TestRecommender_WithBehavioralProfile(t *testing.T) {
	convey.Convey("Given a recommender and a profiled deep learner", t, func() {
		ctx := context.Background()
		prof := profile.New("user-1")
		prof.Engagement.Classification = profile.ClassDeepLearner
		prof.Interests["math"] = &profile.InterestScore{Topic: "math", Score: 40}

		cat := seededCatalog()
		recommender := newTestRecommender(cat, catalogmem.NewHistory(), catalogmem.NewRecommendations(), prof)

		convey.Convey("When recommendations are served", func() {
			records, err := recommender.Recommend(ctx, "user-1", 4)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the reason reflects the deep-dive strategy", func() {
				convey.So(records[0].Reason, convey.ShouldEqual, "Deep dive into topics you care about")
			})

			convey.Convey("Then scores stay within bounds despite strong interests", func() {
				for _, rec := range records {
					convey.So(rec.Score, convey.ShouldBeLessThanOrEqualTo, 1)
				}
			})
		})
	})
}
