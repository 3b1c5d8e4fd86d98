// Package entity defines the entity model and the CRUD contracts the
// generator composes for each entity: storage-side clients, the services
// built on top of them, and the defaults that implement those services.
package entity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"reflect"
	"strconv"
	"time"
)

// ErrNotFound is returned when no entity has the requested key.
var ErrNotFound = errors.New("entity: not found")

// Entity is a storable value identified by a key of type K.
//
//	type Person struct {
//	    ID        int64  `json:"id"`
//	    FirstName string `json:"firstName"`
//	    entity.Timestamps
//	}
//
//	func (p *Person) GetID() int64   { return p.ID }
//	func (p *Person) SetID(id int64) { p.ID = id }
type Entity[K comparable] interface {
	GetID() K
	SetID(K)
}

// Timestamped entities have their created and modified dates maintained by
// the storage clients.
type Timestamped interface {
	CreatedDate() time.Time
	ModifiedDate() time.Time
	SetCreatedDate(time.Time)
	SetModifiedDate(time.Time)
}

// Timestamps implements Timestamped; embed it.
type Timestamps struct {
	Created  time.Time `json:"createdDate"`
	Modified time.Time `json:"modifiedDate"`
}

func (t *Timestamps) CreatedDate() time.Time       { return t.Created }
func (t *Timestamps) ModifiedDate() time.Time      { return t.Modified }
func (t *Timestamps) SetCreatedDate(at time.Time)  { t.Created = at }
func (t *Timestamps) SetModifiedDate(at time.Time) { t.Modified = at }

// New returns a ready-to-fill E. Pointer types get a fresh zero value to
// point at.
func New[E any]() E {
	var zero E
	t := reflect.TypeOf(&zero).Elem()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(E)
	}
	return zero
}

// Name is the bare type name of E.
func Name[E any]() string {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// IsZeroKey reports whether k is the zero value of K.
func IsZeroKey[K comparable](k K) bool {
	var zero K
	return k == zero
}

// IsIntegerKey reports whether K is a signed or unsigned integer.
func IsIntegerKey[K comparable]() bool {
	switch reflect.TypeOf((*K)(nil)).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// NewKey generates a key for a new entity. Integer keys are next (callers
// track the sequence); string keys are random 32-character hex strings.
func NewKey[K comparable](next int64) (K, error) {
	var key K
	v := reflect.ValueOf(&key).Elem()
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(next)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(next))
	case reflect.String:
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return key, err
		}
		v.SetString(hex.EncodeToString(buf))
	default:
		return key, errors.New("entity: cannot generate keys of type " + v.Type().String())
	}
	return key, nil
}

// ParseKey converts the textual form of a key, as found in URLs, to K.
func ParseKey[K comparable](s string) (K, error) {
	var key K
	v := reflect.ValueOf(&key).Elem()
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return key, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return key, err
		}
		v.SetUint(n)
	case reflect.String:
		v.SetString(s)
	default:
		return key, errors.New("entity: cannot parse keys of type " + v.Type().String())
	}
	return key, nil
}
