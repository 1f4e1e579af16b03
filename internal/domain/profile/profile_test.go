package profile_test

import (
	"testing"
	"time"

	"github.com/pathwise/engine/internal/domain/profile"
	"github.com/smartystreets/goconvey/convey"
)

func TestProfile_New(t *testing.T) {
	convey.Convey("Given a bootstrap profile", t, func() {
		p := profile.New("user-1")

		convey.Convey("Then it starts with unknown engagement and zero counters", func() {
			convey.So(p.UserID, convey.ShouldEqual, "user-1")
			convey.So(p.Engagement, convey.ShouldNotBeNil)
			convey.So(p.Engagement.Classification, convey.ShouldEqual, profile.ClassUnknown)
			convey.So(p.Engagement.Confidence, convey.ShouldEqual, 0)
			convey.So(p.Interests, convey.ShouldBeEmpty)
			convey.So(p.TotalSessions, convey.ShouldEqual, 0)
			convey.So(p.TotalContentConsumed, convey.ShouldEqual, 0)
		})
	})
}

func TestProfile_Clone(t *testing.T) {
	convey.Convey("Given a populated profile", t, func() {
		p := profile.New("user-1")
		p.Interests["math"] = &profile.InterestScore{Topic: "math", Score: 42, LastUpdated: time.Now()}
		p.CommonPaths = []profile.ContentTransition{{FromContent: "a", ToContent: "b", Frequency: 3, Probability: 0.5}}
		p.Engagement.Classification = profile.ClassDeepLearner
		p.TotalContentConsumed = 7

		convey.Convey("When cloned", func() {
			c := p.Clone()

			convey.Convey("Then the clone carries the same values", func() {
				convey.So(c.UserID, convey.ShouldEqual, "user-1")
				convey.So(c.Interests["math"].Score, convey.ShouldEqual, 42)
				convey.So(c.Engagement.Classification, convey.ShouldEqual, profile.ClassDeepLearner)
				convey.So(c.TotalContentConsumed, convey.ShouldEqual, 7)
				convey.So(len(c.CommonPaths), convey.ShouldEqual, 1)
			})

			convey.Convey("Then mutating the clone does not touch the original", func() {
				c.Interests["math"].Score = 1
				c.Engagement.Classification = profile.ClassExplorer
				c.CommonPaths[0].Frequency = 99

				convey.So(p.Interests["math"].Score, convey.ShouldEqual, 42)
				convey.So(p.Engagement.Classification, convey.ShouldEqual, profile.ClassDeepLearner)
				convey.So(p.CommonPaths[0].Frequency, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When cloning a nil profile", func() {
			var nilProfile *profile.Profile

			convey.So(nilProfile.Clone(), convey.ShouldBeNil)
		})
	})
}

func TestProfile_InterestScoreFor(t *testing.T) {
	convey.Convey("Given a profile with one interest", t, func() {
		p := profile.New("user-1")
		p.Interests["math"] = &profile.InterestScore{Topic: "math", Score: 12.5}

		convey.Convey("Then tracked topics return their score", func() {
			convey.So(p.InterestScoreFor("math", 0.5), convey.ShouldEqual, 12.5)
		})

		convey.Convey("Then untracked topics return the default", func() {
			convey.So(p.InterestScoreFor("history", 0.5), convey.ShouldEqual, 0.5)
		})

		convey.Convey("Then a nil profile returns the default", func() {
			var nilProfile *profile.Profile
			convey.So(nilProfile.InterestScoreFor("math", 0.5), convey.ShouldEqual, 0.5)
		})
	})
}
