// Package orm maps declared record schemas onto relational tables.
//
// Entities are declared once at startup as a set of named fields:
//
//	users, err := orm.BuildSchema("User", map[string]*orm.Field{
//	    "id":     orm.IntegerField(orm.PrimaryKey()),
//	    "name":   orm.StringField(),
//	    "email":  orm.StringField(orm.NotUpdatable()),
//	    "passwd": orm.StringField(orm.DefaultFunc(func() any { return "******" })),
//	})
//
// The resulting Schema is frozen: it renders its CREATE TABLE statement with
// CreateTableSQL and drives a Table, which issues parameterized statements
// through a types.DataAccess collaborator. Column order is always the order
// in which fields were constructed.
package orm
