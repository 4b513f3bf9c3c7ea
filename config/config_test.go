package config

import (
	"testing"

	"github.com/shortplay/shortplay/filesystem"
	"github.com/shortplay/shortplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			So(Setup(), ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
			So(viper.GetInt(key.SessionMaxRetry), ShouldEqual, 3)
			So(viper.GetInt(key.RetryAttemptTimeoutMs), ShouldEqual, 10000)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("session.advance_seconds"), ShouldEqual, "session_advance_seconds")
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		_ = Setup()
		defer viper.Set(key.BackendURL, Default[key.BackendURL].Value)
		defer viper.Set(key.RetryMaxAttempts, Default[key.RetryMaxAttempts].Value)
		defer viper.Set(key.IconsVariant, Default[key.IconsVariant].Value)

		Convey("It validates", func() {
			So(Validate(), ShouldBeNil)
		})

		Convey("A relative backend URL is rejected", func() {
			viper.Set(key.BackendURL, "/api")
			So(Validate(), ShouldNotBeNil)
		})

		Convey("An unknown icons variant is rejected", func() {
			viper.Set(key.IconsVariant, "sparkles")
			So(Validate(), ShouldNotBeNil)
		})

		Convey("Zero attempts are rejected", func() {
			viper.Set(key.RetryMaxAttempts, 0)
			So(Validate(), ShouldNotBeNil)
		})
	})
}

func TestClampEpisodes(t *testing.T) {
	Convey("ClampEpisodes keeps counts within 1..100", t, func() {
		So(ClampEpisodes(0), ShouldEqual, 1)
		So(ClampEpisodes(-7), ShouldEqual, 1)
		So(ClampEpisodes(50), ShouldEqual, 50)
		So(ClampEpisodes(500), ShouldEqual, 100)
	})
}

func TestField(t *testing.T) {
	Convey("Given a registered field", t, func() {
		f := Default[key.BackendURL]

		Convey("Env is prefixed with the application name", func() {
			So(f.Env(), ShouldEqual, "SHORTPLAY_BACKEND_URL")
		})

		Convey("Its JSON carries default and type", func() {
			b, err := f.MarshalJSON()
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"type":"string"`)
			So(string(b), ShouldContainSubstring, `"key":"backend.url"`)
		})
	})
}
