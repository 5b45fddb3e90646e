package gorepo

// Entity is the only contract a model needs to be stored in a Repository:
// a stable unique identifier of a comparable key type.
//
// Implement it on the pointer receiver:
//
//	func (p *Person) GetID() int   { return p.ID }
//	func (p *Person) SetID(id int) { p.ID = id }
type Entity[K comparable] interface {
	GetID() K
	SetID(id K)
}

// EntityPtr constrains P to be *E implementing Entity[K]. The zero value of E
// with only the key set is enough to address a record, which is what
// Repository.DeleteByID relies on.
type EntityPtr[E any, K comparable] interface {
	*E
	Entity[K]
}

// newShell returns a zero-value entity carrying only the given key.
func newShell[E any, K comparable, P EntityPtr[E, K]](id K) P {
	shell := P(new(E))
	shell.SetID(id)

	return shell
}
