package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})

		Convey("Set accepts any afero backend", func() {
			Set(afero.NewReadOnlyFs(afero.NewMemMapFs()))
			So(API().WriteFile("/x", []byte("x"), os.ModePerm), ShouldNotBeNil)
		})
	})
}

func TestGacheFs(t *testing.T) {
	Convey("Given an in-memory backend", t, func() {
		SetMemMapFs()
		var fs GacheFs

		Convey("MkdirAll and OpenFile go through API()", func() {
			So(fs.MkdirAll("/a/b", os.ModePerm), ShouldBeNil)
			f, err := fs.OpenFile("/a/b/c.json", os.O_CREATE|os.O_RDWR, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			exists, err := API().Exists("/a/b/c.json")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})
	})
}
