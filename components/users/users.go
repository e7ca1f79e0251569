// components/users/users.go
//
// Users component – CRUD over a MySQL table through sqlx.
package users

import (
	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/internal/component"
)

// compile-time assertions
var (
	_ component.Component = Comp{}
	_ component.Migrator  = Comp{}
)

// Comp implements component.Component.
type Comp struct{}

func (Comp) Name() string                     { return "users" }
func (Comp) Endpoints() []endpoint.Descriptor { return []endpoint.Descriptor{Collection, Item} }
func (Comp) Migrations() []string             { return []string{createTable} }

func init() {
	component.Register(Comp{})
}
