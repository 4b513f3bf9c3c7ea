package icon

import (
	"testing"

	"github.com/shortplay/shortplay/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestGet(t *testing.T) {
	Convey("Given a registered icon", t, func() {
		defer viper.Set(key.IconsVariant, "")
		target := Play

		Convey("It renders for each variant", func() {
			for _, variant := range AvailableVariants() {
				Convey("variant="+variant, func() {
					viper.Set(key.IconsVariant, variant)
					So(Get(target), ShouldNotBeEmpty)
				})
			}
		})

		Convey("Variants render differently", func() {
			viper.Set(key.IconsVariant, "plain")
			plain := Get(target)
			viper.Set(key.IconsVariant, "emoji")
			So(Get(target), ShouldNotEqual, plain)
		})

		Convey("It returns empty for an unknown variant", func() {
			viper.Set(key.IconsVariant, "")
			So(Get(target), ShouldBeEmpty)
			viper.Set(key.IconsVariant, "sparkles")
			So(Get(target), ShouldBeEmpty)
		})

		Convey("An unregistered icon renders as nothing", func() {
			viper.Set(key.IconsVariant, "plain")
			So(Get(Icon(-1)), ShouldBeEmpty)
		})
	})
}

func TestCurrent(t *testing.T) {
	Convey("Current follows icons.variant", t, func() {
		defer viper.Set(key.IconsVariant, "")

		viper.Set(key.IconsVariant, "nerd")
		So(Current().MustGet(), ShouldEqual, Nerd)

		viper.Set(key.IconsVariant, "NERD")
		So(Current().IsAbsent(), ShouldBeTrue)
	})
}
