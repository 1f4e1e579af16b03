package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/pathwise/engine/internal/adapters/http/api"
	"github.com/smartystreets/goconvey/convey"
)

type fakeStats map[string]any

func (f fakeStats) Stats() map[string]any { return f }

func newTestMux() *http.ServeMux {
	server := api.NewServer(map[string]api.StatsProvider{
		"profiler":    fakeStats{"cachedProfiles": 3},
		"recommender": fakeStats{"cachedLists": 1},
	})
	mux := http.NewServeMux()
	server.Register(mux)
	return mux
}

func TestServer_Stats(t *testing.T) {
	convey.Convey("Given the registered API routes", t, func() {
		mux := newTestMux()

		convey.Convey("When GET /stats is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			convey.Convey("Then each provider contributes its section", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Header().Get("Content-Type"), convey.ShouldStartWith, "application/json")

				var body map[string]map[string]any
				convey.So(json.Unmarshal(rec.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body["profiler"]["cachedProfiles"], convey.ShouldEqual, 3)
				convey.So(body["recommender"]["cachedLists"], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When /stats is requested with the wrong method", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/stats", nil))

			convey.Convey("Then it is rejected", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestServer_Health(t *testing.T) {
	convey.Convey("Given the registered API routes", t, func() {
		mux := newTestMux()

		convey.Convey("When GET /healthz is requested", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then prometheus metrics are served", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(rec.Body.Len(), convey.ShouldBeGreaterThan, 0)
			})
		})
	})
}
