package network

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shortplay/shortplay/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a server echoing the user agent", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.UserAgent()))
		}))
		defer server.Close()

		client := NewClient(time.Second)

		Convey("The application user agent is added", func() {
			resp, err := client.Get(server.URL)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, constant.UserAgent)
		})

		Convey("An explicit user agent is kept", func() {
			req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
			req.Header.Set("User-Agent", "custom")
			resp, err := client.Do(req)
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "custom")
		})
	})
}
