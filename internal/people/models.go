// Package people contains the demo models served by the gorepo CLI.
package people

// Address is where a Person lives.
type Address struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	City     string `gorm:"not null" json:"city"`
	ZipCode  string `json:"zipCode"`
	Province string `json:"province"`
}

func (a *Address) GetID() int   { return a.ID }
func (a *Address) SetID(id int) { a.ID = id }

// Person has exactly one Address.
type Person struct {
	ID        int      `gorm:"primaryKey" json:"id"`
	Surname   string   `gorm:"not null" json:"surname"`
	Name      string   `gorm:"not null" json:"name"`
	AddressID int      `json:"addressId"`
	Address   *Address `json:"address,omitempty"`
}

func (p *Person) GetID() int   { return p.ID }
func (p *Person) SetID(id int) { p.ID = id }

// SortColumns maps the sort aliases accepted from users to Person columns.
var SortColumns = map[string]string{
	"id":      "id",
	"name":    "name",
	"surname": "surname",
	"address": "address_id",
}
