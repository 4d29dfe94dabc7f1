// Package mixin provides reusable field sets for schema.Table definitions.
//
//	person := schema.NewTable("Person",
//	    field.String("Name"),
//	).WithMixins(mixin.ID{}, mixin.Version{})
package mixin
