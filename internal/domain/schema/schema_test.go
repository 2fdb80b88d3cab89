package schema_test

import (
	"errors"
	"testing"

	"github.com/okian/fraudlens/internal/domain/artifact"
	"github.com/okian/fraudlens/internal/domain/schema"
	"github.com/okian/fraudlens/internal/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

// stub is a hand-built Introspectable for layouts a valid artifact cannot
// express.
type stub struct {
	names  []string
	stages []schema.Stage
}

func (s stub) FeatureNamesIn() ([]string, bool) { return s.names, s.names != nil }

func (s stub) TransformerAt(i int) (schema.Stage, bool) {
	if i < 0 || i >= len(s.stages) {
		return schema.Stage{}, false
	}
	return s.stages[i], true
}

func (s stub) NamedTransformer(name string) (schema.Stage, bool) {
	for _, st := range s.stages {
		if st.Name == name {
			return st, true
		}
	}
	return schema.Stage{}, false
}

func validStub() stub {
	return stub{
		names: []string{"a", "b", "c", "d", "Transaction_Month"},
		stages: []schema.Stage{
			{Name: "num", Kind: schema.KindScaler, Columns: []string{"a"}},
			{Name: schema.OrdinalStageName, Kind: schema.KindOrdinal, Columns: []string{"c", "b"},
				Categories: [][]string{{"z", "y", "x"}, {"1", "2"}}},
			{Name: schema.OneHotStageName, Kind: schema.KindOneHot, Columns: []string{"d"},
				Categories: [][]string{{"no", "yes"}}},
		},
	}
}

func TestIntrospectScenario(t *testing.T) {
	Convey("Given the scenario pipeline", t, func() {
		p := testutil.ScenarioPipeline(t)

		Convey("When introspecting it", func() {
			s, err := schema.Introspect(p)

			Convey("Then the partitions should match the fitted stages", func() {
				So(err, ShouldBeNil)
				So(s.Columns, ShouldResemble, testutil.ScenarioColumns)
				So(s.Numeric, ShouldResemble, []string{"amount", "age"})
				So(s.Ordinal, ShouldResemble, []schema.CategoricalColumn{
					{Name: "risk_tier", Categories: []string{"low", "medium", "high"}},
				})
				So(s.Binary, ShouldResemble, []schema.CategoricalColumn{
					{Name: "is_weekend", Categories: []string{"no", "yes"}},
				})
				So(s.Remainder, ShouldResemble, []string{"Transaction_Hour"})
			})

			Convey("Then the partitions should cover every column once", func() {
				So(s.Validate(), ShouldBeNil)
				cats, ok := s.Categories("risk_tier")
				So(ok, ShouldBeTrue)
				So(cats, ShouldResemble, []string{"low", "medium", "high"})
				_, ok = s.Categories("amount")
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestIntrospectOrdering(t *testing.T) {
	Convey("Given stages listing columns out of feature order", t, func() {
		s, err := schema.Introspect(validStub())

		Convey("Then ordinal columns and category ranks keep the stage order", func() {
			So(err, ShouldBeNil)
			So(s.Ordinal[0].Name, ShouldEqual, "c")
			So(s.Ordinal[0].Categories, ShouldResemble, []string{"z", "y", "x"})
			So(s.Ordinal[1].Name, ShouldEqual, "b")
		})

		Convey("Then the remainder keeps the feature order", func() {
			So(s.Remainder, ShouldResemble, []string{"Transaction_Month"})
		})
	})
}

func TestIntrospectFailures(t *testing.T) {
	Convey("Given layouts that cannot yield a schema", t, func() {
		Convey("When feature names were not recorded", func() {
			doc := testutil.ScenarioDocument()
			doc.Steps[0].ColumnTransformer.FeatureNamesIn = nil
			doc.Steps[0].ColumnTransformer.Remainder = artifact.RemainderDrop
			p, err := artifact.New(doc)
			So(err, ShouldBeNil)

			_, err = schema.Introspect(p)

			Convey("Then it should fail with ErrFeatureNamesUnavailable", func() {
				So(errors.Is(err, schema.ErrFeatureNamesUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the stages are reordered", func() {
			s := validStub()
			s.stages[1], s.stages[2] = s.stages[2], s.stages[1]
			_, err := schema.Introspect(s)

			Convey("Then it should fail with ErrStageMismatch", func() {
				So(errors.Is(err, schema.ErrStageMismatch), ShouldBeTrue)
			})
		})

		Convey("When a stage is missing", func() {
			s := validStub()
			s.stages = s.stages[:2]
			_, err := schema.Introspect(s)

			Convey("Then it should fail with ErrStageMismatch", func() {
				So(errors.Is(err, schema.ErrStageMismatch), ShouldBeTrue)
			})
		})

		Convey("When the ordinal stage is renamed", func() {
			s := validStub()
			s.stages[1].Name = "ordinal"
			_, err := schema.Introspect(s)

			Convey("Then it should fail with ErrStageMismatch", func() {
				So(errors.Is(err, schema.ErrStageMismatch), ShouldBeTrue)
			})
		})

		Convey("When two stages claim the same column", func() {
			s := validStub()
			s.stages[0].Columns = []string{"a", "d"}
			_, err := schema.Introspect(s)

			Convey("Then it should fail with ErrPartitionMismatch", func() {
				So(errors.Is(err, schema.ErrPartitionMismatch), ShouldBeTrue)
			})
		})

		Convey("When a stage claims a column that was never fitted", func() {
			s := validStub()
			s.stages[0].Columns = []string{"a", "ghost"}
			_, err := schema.Introspect(s)

			Convey("Then it should fail with ErrPartitionMismatch", func() {
				So(errors.Is(err, schema.ErrPartitionMismatch), ShouldBeTrue)
			})
		})
	})
}
