package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFetch(t *testing.T) {
	Convey("Given an upstream that echoes the Referer header", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(r.Header.Get("Referer") + "|" + r.Header.Get("User-Agent")))
		}))
		defer srv.Close()

		doer := NewFingerprinted()

		Convey("Plain http requests carry the given headers over the default user agent", func() {
			body, err := Fetch(context.Background(), doer, srv.URL+"/ok", map[string]string{
				"Referer":    "https://example.org/",
				"User-Agent": "custom",
			})
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "https://example.org/|custom")
		})

		Convey("A non-2xx status is a StatusError", func() {
			_, err := Fetch(context.Background(), doer, srv.URL+"/missing", nil)
			var statusErr *StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
