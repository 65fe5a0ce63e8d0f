// Package adapter runs CRUD and query operations for types registered in a
// schema.Registry.
//
// Every operation returns a datamodel.Result and never a raw error. Without
// a transaction the adapter reserves a connection of the type's data source
// for the duration of the call:
//
//	a := adapter.New(reg, sources)
//	r := adapter.Paginate[User](ctx, a,
//		sql.Where().Append("Active", true),
//		sql.Order().Desc("Created"),
//		20, 1, nil)
//	if !r.Succeed() {
//		return r.Err()
//	}
//	page, _ := datamodel.DataAs[adapter.Page[User]](r)
//
// Operations on a single value are methods; operations selecting rows by
// condition are generic functions over the registered type.
package adapter
