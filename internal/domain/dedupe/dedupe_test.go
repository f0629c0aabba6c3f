package dedupe_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	dedupe "github.com/okian/capperchat/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithCapacity(8))

		So(d.Size(), ShouldEqual, 0)

		Convey("When an id is new", func() {
			So(d.SeenAndRecord("cap-1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("When an id repeats", func() {
			d.SeenAndRecord("cap-1")

			So(d.SeenAndRecord("cap-1"), ShouldBeTrue)
			So(d.SeenAndRecord(" cap-1 "), ShouldBeTrue)
			So(d.Contains("cap-1"), ShouldBeTrue)
			So(d.Contains("cap-2"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("When an id is forgotten", func() {
			d.SeenAndRecord("cap-1")
			d.Forget("cap-1")

			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord("cap-1"), ShouldBeFalse)
		})

		Convey("When forgetting an unknown id", func() {
			So(func() { d.Forget("missing") }, ShouldNotPanic)
		})
	})

	Convey("Given a case-insensitive key function", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithKeyFunc(strings.ToLower))

		d.SeenAndRecord("PKG-1")
		So(d.SeenAndRecord("pkg-1"), ShouldBeTrue)
	})

	Convey("Given concurrent writers", t, func() {
		d := dedupe.NewInMemoryDeduper()
		var wg sync.WaitGroup
		var mu sync.Mutex
		fresh := 0

		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					if !d.SeenAndRecord(fmt.Sprintf("id-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		So(fresh, ShouldEqual, 100)
		So(d.Size(), ShouldEqual, 100)
	})
}
