package query

import (
	"testing"

	"github.com/syssam/orma/provider"
	"github.com/syssam/orma/schema"
)

var benchProviders = []*provider.Provider{
	provider.SQLite(),
	provider.MySQL(),
	provider.Postgres(),
	provider.SQLServer(),
	provider.Oracle(),
	provider.Firebird(),
}

func BenchmarkSelect_Simple(b *testing.B) {
	t := people()
	for _, p := range benchProviders {
		b.Run(p.Dialect(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := New(p, t).Select(C("Id"), C("Name")).ToSelectStatement(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSelect_Paged(b *testing.B) {
	t := people()
	for _, p := range benchProviders {
		b.Run(p.Dialect(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := New(p, t).
					Where(GT(C("Age"), Value(18)), String("City").Contains("ork")).
					OrderBy(C("Name")).
					Range(20, 10).
					ToSelectStatement()
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSelect_Join(b *testing.B) {
	person, order := people(), orders()
	for _, p := range benchProviders {
		b.Run(p.Dialect(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := New(p, person).
					Join(order, EQ(Col("Person", "Id"), Col("Order", "PersonId"))).
					Select(Col("Person", "Name"), Col("Order", "Quantity")).
					Where(In(Col("Person", "Id"), 1, 2, 3)).
					ToSelectStatement()
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkInsert(b *testing.B) {
	t := people()
	row := schema.Row{"Name": "Ann", "Age": 30, "City": "NY", "Active": true}
	for _, p := range benchProviders {
		b.Run(p.Dialect(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := New(p, t).ToInsertStatement(row); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
