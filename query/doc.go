// Package query builds dialect independent statements over mapped tables
// and compiles them to SQL for a provider.
//
// Expressions are trees of nodes built with the helpers of this package:
//
//	p := provider.Postgres()
//	stmt, err := query.New(p, people).
//		Where(query.String("City").EQ("NY"), query.Int("Age").GT(30)).
//		OrderByDescending(query.C("Age")).
//		Range(20, 10).
//		ToSelectStatement()
//
// Constants are bound as parameters in the placeholder style of the
// provider, or rendered inline when parameterization is disabled.
// Sub-expressions without column references are evaluated at compile time.
// Caller supplied SQL enters a statement only through SQL, WhereRaw and Raw.
package query
