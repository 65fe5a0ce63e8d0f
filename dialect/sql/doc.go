// Package sql provides the SQL text primitives and the database access layer
// used by the data model.
//
// Statements are built as literal SQL text. Values are rendered by Literal
// and collected by the four condition sets:
//
//   - WhereSet: predicates joined with AND, "1=1" when empty
//   - InsertSet: "([a],[b]) VALUES (x,y)"
//   - UpdateSet: "[a] = x, [b] = y"
//   - OrderSet: "[a] ASC, [b] DESC", "(SELECT 0)" when empty
//
// For example:
//
//	w := sql.Where().
//	    Append("Status", "active").
//	    AppendOp("Age", ">=", 18).
//	    Append("DeletedAt", nil)
//	w.Render() // [Status] = 'active' AND [Age] >= 18 AND [DeletedAt] IS NULL
//
// Typed columns build the same predicates with compile-time value types:
//
//	var (
//	    Status = sql.TextColumn("Status")
//	    Age    = sql.Column[int]("Age")
//	)
//	w := sql.Match(Status.HasPrefix("act"), Age.In(18, 21))
//
// # Data sources
//
// Sources opens one Driver per logical data source name, resolving the
// connection string and provider through a Resolver:
//
//	srcs := sql.NewSources(cfg)
//	s, err := srcs.Session(ctx, "main")
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//	n, err := s.Command("DELETE FROM [Users] WHERE [Id] = 1").Exec(ctx)
//
// Every Command runs with CommandTimeout unless its Timeout is changed.
//
// # Statistics
//
// A Stats collector counts statements and reports slow ones:
//
//	st := sql.NewStats(
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	srcs := sql.NewSources(cfg, sql.WithSourceStats(st))
//	fmt.Println(st.Snapshot())
package sql
