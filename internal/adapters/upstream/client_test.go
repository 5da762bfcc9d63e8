package upstream_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crashcompass/compass/internal/adapters/upstream"
	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func newUpstream(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for p, h := range routes {
		mux.HandleFunc(p, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func jsonBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestClient(t *testing.T) {
	convey.Convey("Given an upstream model API", t, func() {
		srv := newUpstream(t, map[string]http.HandlerFunc{
			"/api/v1/fred/categories": jsonBody(http.StatusOK, `{"labor_market":{"series":["UNRATE","PAYEMS"],"outlook_score":41.5}}`),
			"/api/v1/fred/series/UNRATE": jsonBody(http.StatusOK, `{"name":"Unemployment Rate","citation":"FRED","series":[{"date":"2024-01-01","value":"3.7"},{"date":"2024-02-01","value":""}]}`),
			"/api/v1/fred/series/MISSING": jsonBody(http.StatusNotFound, `{"detail":"Series MISSING not found"}`),
			"/api/v1/fred/dial_score":     jsonBody(http.StatusOK, `{"score":57.6,"contributors":[{"name":"PAYEMS","value":1,"shap":-0.1}]}`),
			"/api/v1/ml/history":          jsonBody(http.StatusOK, `[{"date":"2008-01-01","prob":0.7,"is_recession":1}]`),
		})
		c := upstream.New(srv.URL + "/")
		ctx := context.Background()

		convey.Convey("When fetching categories", func() {
			got, err := c.Categories(ctx)

			convey.Convey("Then the listing is decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got["labor_market"].Series, convey.ShouldResemble, []string{"UNRATE", "PAYEMS"})
				convey.So(*got["labor_market"].OutlookScore, convey.ShouldEqual, 41.5)
			})
		})

		convey.Convey("When fetching a series", func() {
			got, err := c.Series(ctx, "UNRATE")

			convey.Convey("Then observations keep their gaps", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.SeriesID, convey.ShouldEqual, "UNRATE")
				convey.So(got.Name, convey.ShouldEqual, "Unemployment Rate")
				convey.So(got.Series, convey.ShouldResemble, model.Series{
					{Date: "2024-01-01", Value: "3.7"},
					{Date: "2024-02-01", Value: ""},
				})
			})
		})

		convey.Convey("When the series does not exist", func() {
			_, err := c.Series(ctx, "MISSING")

			convey.Convey("Then the error is not found and carries the detail", func() {
				convey.So(errors.Is(err, upstream.ErrNotFound), convey.ShouldBeTrue)
				var se *upstream.StatusError
				convey.So(errors.As(err, &se), convey.ShouldBeTrue)
				convey.So(se.Status, convey.ShouldEqual, http.StatusNotFound)
				convey.So(se.Detail, convey.ShouldEqual, "Series MISSING not found")
				convey.So(err.Error(), convey.ShouldContainSubstring, "Series MISSING not found")
			})
		})

		convey.Convey("When fetching the dial score", func() {
			got, err := c.DialScore(ctx)

			convey.Convey("Then score and contributors are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Score, convey.ShouldEqual, 57.6)
				convey.So(got.Contributors, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When fetching history", func() {
			got, err := c.History(ctx)

			convey.Convey("Then points are decoded", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, []model.HistoryPoint{{Date: "2008-01-01", Prob: 0.7, IsRecession: 1}})
			})
		})
	})

	convey.Convey("Given an upstream that misbehaves", t, func() {
		srv := newUpstream(t, map[string]http.HandlerFunc{
			"/api/v1/fred/dial_score": jsonBody(http.StatusInternalServerError, `oops`),
			"/api/v1/ml/history":      jsonBody(http.StatusOK, `{"not":"a list"}`),
			"/api/v1/fred/categories": jsonBody(http.StatusBadGateway, `{"detail":{"reason":"down"}}`),
		})
		c := upstream.New(srv.URL)
		ctx := context.Background()

		convey.Convey("When the status is a server error without detail", func() {
			_, err := c.DialScore(ctx)

			convey.Convey("Then a status error with the status text is returned", func() {
				var se *upstream.StatusError
				convey.So(errors.As(err, &se), convey.ShouldBeTrue)
				convey.So(se.Status, convey.ShouldEqual, 500)
				convey.So(errors.Is(err, upstream.ErrNotFound), convey.ShouldBeFalse)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Internal Server Error")
			})
		})

		convey.Convey("When the detail is not a string", func() {
			_, err := c.Categories(ctx)

			convey.Convey("Then the raw detail is kept", func() {
				var se *upstream.StatusError
				convey.So(errors.As(err, &se), convey.ShouldBeTrue)
				convey.So(se.Detail, convey.ShouldEqual, `{"reason":"down"}`)
			})
		})

		convey.Convey("When the body has the wrong shape", func() {
			_, err := c.History(ctx)

			convey.Convey("Then a decode error is returned", func() {
				convey.So(errors.Is(err, upstream.ErrDecode), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given an unreachable upstream", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		c := upstream.New(url, upstream.WithTimeout(time.Second))

		convey.Convey("Then calls fail as unavailable", func() {
			_, err := c.DialScore(context.Background())
			convey.So(errors.Is(err, upstream.ErrUnavailable), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given concurrent identical requests", t, func() {
		var hits atomic.Int32
		release := make(chan struct{})
		srv := newUpstream(t, map[string]http.HandlerFunc{
			"/api/v1/ml/history": func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				<-release
				_, _ = w.Write([]byte(`[]`))
			},
		})
		c := upstream.New(srv.URL)

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = c.History(context.Background())
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		convey.Convey("Then they share a single upstream round trip", func() {
			for _, err := range errs {
				convey.So(err, convey.ShouldBeNil)
			}
			convey.So(hits.Load(), convey.ShouldBeLessThan, 5)
		})
	})

	convey.Convey("Given a caller that gives up", t, func() {
		srv := newUpstream(t, map[string]http.HandlerFunc{
			"/api/v1/fred/dial_score": func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(200 * time.Millisecond)
				_, _ = w.Write([]byte(`1`))
			},
		})
		c := upstream.New(srv.URL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		convey.Convey("Then the call returns with the context error", func() {
			_, err := c.DialScore(ctx)
			convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		})
	})
}
