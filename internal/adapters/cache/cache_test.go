package cache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/stipend/internal/adapters/cache"
	"github.com/okian/stipend/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestKey(t *testing.T) {
	Convey("Given key parts", t, func() {
		So(cache.Key("flight", "v1", "ICN", "NRT"), ShouldEqual, "flight|v1|ICN|NRT")
		So(cache.Key("col", 2, 1.5, true), ShouldEqual, "col|2|1.5|true")
		So(cache.Key(), ShouldEqual, "")
	})
}

func TestCacheRoundTrip(t *testing.T) {
	Convey("Given a cache backed by a temp file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "nested", "flight.json")
		clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

		c := cache.New[model.PriceResult](path, cache.WithClock(clock.Now))
		So(c.Open(ctx), ShouldBeNil)
		So(c.Len(), ShouldEqual, 0)

		Convey("When a value is set, flushed, and reloaded in a fresh instance", func() {
			want := model.PriceResult{Price: 612.5, Source: "scraper (3 top fares)"}
			c.Set("k", want)
			So(c.SaveToDisk(ctx), ShouldBeNil)

			reloaded := cache.New[model.PriceResult](path)
			So(reloaded.Open(ctx), ShouldBeNil)

			Convey("Then the value and timestamp survive", func() {
				got, ok := reloaded.Get("k")
				So(ok, ShouldBeTrue)
				So(got, ShouldResemble, want)

				e, ok := reloaded.Entry("k")
				So(ok, ShouldBeTrue)
				So(e.Timestamp, ShouldEqual, clock.t.UnixMilli())
				So(e.Time().Equal(clock.t), ShouldBeTrue)
			})

			Convey("Then no temp files are left behind", func() {
				files, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(files), ShouldEqual, 1)
			})
		})

		Convey("When a key is overwritten", func() {
			c.Set("k", model.PriceResult{Price: 1, Source: "a"})
			clock.t = clock.t.Add(time.Minute)
			c.Set("k", model.PriceResult{Price: 2, Source: "b"})

			Convey("Then the newest value and timestamp win", func() {
				e, _ := c.Entry("k")
				So(e.Value.Price, ShouldEqual, 2)
				So(e.Timestamp, ShouldEqual, clock.t.UnixMilli())
				So(c.Len(), ShouldEqual, 1)
			})
		})

		Convey("When entries are older than the freshness window", func() {
			c.Set("k", model.PriceResult{Price: 100, Source: "api"})

			_, fresh := c.GetFresh("k", 6*time.Hour)
			So(fresh, ShouldBeTrue)

			clock.t = clock.t.Add(6 * time.Hour)
			_, fresh = c.GetFresh("k", 6*time.Hour)

			Convey("Then they read as a miss but are still stored", func() {
				So(fresh, ShouldBeFalse)
				_, ok := c.Get("k")
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When many distinct keys are written", func() {
			for i := 0; i < 500; i++ {
				c.Set(cache.Key("flight", i), model.PriceResult{Price: float64(i), Source: "distance"})
			}

			Convey("Then nothing is evicted", func() {
				So(c.Len(), ShouldEqual, 500)
			})
		})
	})
}

func TestCacheDiskFailures(t *testing.T) {
	Convey("Given a corrupt cache file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "col.json")
		So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)

		c := cache.New[float64](path)

		Convey("Then Open degrades to an empty cache", func() {
			So(c.Open(ctx), ShouldBeNil)
			So(c.Len(), ShouldEqual, 0)
			_, ok := c.Get("anything")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an empty cache file", t, func() {
		path := filepath.Join(t.TempDir(), "empty.json")
		So(os.WriteFile(path, nil, 0o600), ShouldBeNil)
		c := cache.New[float64](path)
		So(c.Open(context.Background()), ShouldBeNil)
		So(c.Len(), ShouldEqual, 0)
	})

	Convey("Given a path whose parent is a regular file", t, func() {
		ctx := context.Background()
		blocker := filepath.Join(t.TempDir(), "blocker")
		So(os.WriteFile(blocker, []byte("x"), 0o600), ShouldBeNil)

		c := cache.New[float64](filepath.Join(blocker, "col.json"))
		So(c.Open(ctx), ShouldBeNil)
		c.Set("Seoul, KR", 1.12)

		Convey("Then the flush fails but memory is intact", func() {
			err := c.SaveToDisk(ctx)
			So(errors.Is(err, cache.ErrFlush), ShouldBeTrue)
			v, ok := c.Get("Seoul, KR")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1.12)
		})
	})
}

func TestCacheWriteThrough(t *testing.T) {
	Convey("Given a write-through cache", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "stipend.json")
		c := cache.New[string](path, cache.WithWriteThrough(), cache.WithName("stipend"))
		So(c.Open(ctx), ShouldBeNil)

		c.Set("a", "b")

		Convey("Then the file exists without an explicit flush", func() {
			other := cache.New[string](path)
			So(other.Open(ctx), ShouldBeNil)
			v, ok := other.Get("a")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "b")
			So(c.Close(ctx), ShouldBeNil)
		})
	})
}
