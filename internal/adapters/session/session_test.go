package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/fraudlens/internal/adapters/session"
	"github.com/okian/fraudlens/internal/domain/shell"
	. "github.com/smartystreets/goconvey/convey"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func TestInMemoryStore(t *testing.T) {
	Convey("Given a store bounded to two sessions", t, func() {
		ctx := context.Background()
		var observed int
		store := session.NewInMemoryStore(
			session.WithMaxSize(2),
			session.WithIDGenerator(sequentialIDs()),
			session.WithSizeObserver(func(n int) { observed = n }),
		)

		Convey("When a session is created", func() {
			s := store.Create(ctx)

			Convey("Then it starts at home and can be found", func() {
				So(s.ID, ShouldEqual, "s1")
				So(s.View, ShouldEqual, shell.Home)
				got, ok := store.Get(ctx, "s1")
				So(ok, ShouldBeTrue)
				So(got.View, ShouldEqual, shell.Home)
				So(observed, ShouldEqual, 1)
			})
		})

		Convey("When a session is updated", func() {
			s := store.Create(ctx)
			s.View = shell.Results
			store.Save(ctx, s)

			Convey("Then the new view is stored without growing the store", func() {
				got, _ := store.Get(ctx, s.ID)
				So(got.View, ShouldEqual, shell.Results)
				So(store.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a third session is created", func() {
			store.Create(ctx)
			store.Create(ctx)
			_, _ = store.Get(ctx, "s1") // s2 becomes least recently used
			store.Create(ctx)

			Convey("Then the least recently used session is evicted", func() {
				So(store.Len(), ShouldEqual, 2)
				_, ok := store.Get(ctx, "s2")
				So(ok, ShouldBeFalse)
				_, ok = store.Get(ctx, "s1")
				So(ok, ShouldBeTrue)
				_, ok = store.Get(ctx, "s3")
				So(ok, ShouldBeTrue)
				So(observed, ShouldEqual, 2)
			})
		})

		Convey("When the id is unknown", func() {
			_, ok := store.Get(ctx, "nope")

			Convey("Then nothing is found", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestInMemoryStoreConcurrency(t *testing.T) {
	Convey("Given concurrent browsers", t, func() {
		ctx := context.Background()
		store := session.NewInMemoryStore(session.WithMaxSize(50))

		var wg sync.WaitGroup
		for range 200 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s := store.Create(ctx)
				s.View = shell.Prediction
				store.Save(ctx, s)
				_, _ = store.Get(ctx, s.ID)
			}()
		}
		wg.Wait()

		Convey("Then the bound holds", func() {
			So(store.Len(), ShouldEqual, 50)
		})
	})
}
