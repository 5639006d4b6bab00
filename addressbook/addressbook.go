// Package addressbook holds hand-written builders for the tutorial
// address-book messages. They are the reference schemas for the wire decoder:
//
//	message Person {
//	  string name = 1;
//	  uint64 id = 2;
//	  repeated PhoneNumber phone = 3;
//	}
//
//	message PhoneNumber {
//	  string number = 1;
//	  string type = 2;
//	}
package addressbook

import (
	"github.com/anirudhraja/protoview/wire"
)

// PhoneNumber is one entry of Person.Phones.
type PhoneNumber struct {
	Number string
	Type   string
}

// FieldName implements wire.FieldNamer.
func (p *PhoneNumber) FieldName(n wire.FieldNumber) string {
	switch n {
	case 1:
		return "number"
	case 2:
		return "type"
	}
	return ""
}

// AddField implements wire.Builder.
func (p *PhoneNumber) AddField(f wire.Field) (err error) {
	switch f.Number {
	case 1:
		p.Number, err = f.Value.Text()
	case 2:
		p.Type, err = f.Value.Text()
	default:
		err = wire.UnknownField("PhoneNumber", f.Number)
	}
	return err
}

// Person is a contact with any number of phone numbers.
type Person struct {
	Name   string
	ID     uint64
	Phones []PhoneNumber
}

// FieldName implements wire.FieldNamer.
func (p *Person) FieldName(n wire.FieldNumber) string {
	switch n {
	case 1:
		return "name"
	case 2:
		return "id"
	case 3:
		return "phone"
	}
	return ""
}

// AddField implements wire.Builder.
func (p *Person) AddField(f wire.Field) (err error) {
	switch f.Number {
	case 1:
		p.Name, err = f.Value.Text()
	case 2:
		p.ID, err = f.Value.Uint64()
	case 3:
		var phone PhoneNumber
		phone, err = wire.ParseEmbedded[PhoneNumber](f)
		if err == nil {
			p.Phones = append(p.Phones, phone)
		}
	default:
		err = wire.UnknownField("Person", f.Number)
	}
	return err
}

// ParsePerson decodes a Person with the default decoder.
func ParsePerson(buf []byte) (Person, error) {
	return wire.ParseMessage[Person](buf)
}

// ParsePhoneNumber decodes a PhoneNumber with the default decoder.
func ParsePhoneNumber(buf []byte) (PhoneNumber, error) {
	return wire.ParseMessage[PhoneNumber](buf)
}
