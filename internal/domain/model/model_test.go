package model

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

func TestUnits(t *testing.T) {
	Convey("Given units written in different ways", t, func() {
		Convey("When parsing signed strings", func() {
			for in, want := range map[string]float64{"+5.2": 5.2, "-3": -3, "4.1u": 4.1, "": 0, " +0.5 ": 0.5} {
				got, err := ParseUnits(in)
				So(err, ShouldBeNil)
				So(got.Float64(), ShouldAlmostEqual, want)
			}
		})

		Convey("When the string is not a number", func() {
			_, err := ParseUnits("lots")
			So(err, ShouldNotBeNil)
		})

		Convey("When decoding JSON", func() {
			var w []Window
			err := json.Unmarshal([]byte(`[{"record":"5-2","units":"+5.2"},{"record":"1-4","units":-2.5},{"record":"0-0","units":null}]`), &w)

			So(err, ShouldBeNil)
			So(w[0].Units.Float64(), ShouldAlmostEqual, 5.2)
			So(w[1].Units.Float64(), ShouldAlmostEqual, -2.5)
			So(w[2].Units.Float64(), ShouldEqual, 0.0)
		})

		Convey("When JSON holds a bad value", func() {
			var w Window
			So(json.Unmarshal([]byte(`{"units":true}`), &w), ShouldNotBeNil)
		})

		Convey("When decoding YAML", func() {
			var w []Window
			err := yaml.Unmarshal([]byte("- record: 5-2\n  units: \"+5.2\"\n- record: 1-1\n  units: 3\n"), &w)

			So(err, ShouldBeNil)
			So(w[0].Units.Float64(), ShouldAlmostEqual, 5.2)
			So(w[1].Units.Float64(), ShouldEqual, 3.0)
		})

		Convey("When encoding JSON", func() {
			b, err := json.Marshal(Window{Record: "5-2", Units: 5.5})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"record":"5-2","units":5.5}`)
		})
	})
}

func TestIntentVocabulary(t *testing.T) {
	Convey("Given the intent vocabulary", t, func() {
		So(IntentGeneral.Valid(), ShouldBeTrue)
		So(IntentComparison.Valid(), ShouldBeTrue)
		So(IntentUnknown.Valid(), ShouldBeFalse)
		So(Intent("nonexistent").Valid(), ShouldBeFalse)
		So(len(ClassifierIntents), ShouldEqual, 5)

		So(ConfidenceMedium.Valid(), ShouldBeTrue)
		So(Confidence("HIGH").Valid(), ShouldBeFalse)
		So(Confidence("").Valid(), ShouldBeFalse)
	})
}

func TestDatasetEmpty(t *testing.T) {
	Convey("Given datasets", t, func() {
		var nilSet *Dataset
		So(nilSet.Empty(), ShouldBeTrue)
		So((&Dataset{Packages: []Package{{ID: "p"}}}).Empty(), ShouldBeTrue)
		So((&Dataset{Handicappers: []Handicapper{{ID: "h"}}}).Empty(), ShouldBeFalse)
	})
}
