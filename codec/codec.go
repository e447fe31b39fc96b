// Package codec round-trips registered record types through msgpack. Each
// payload carries its type name so it can be decoded without the caller
// knowing the concrete type up front.
package codec

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-catalog-cache/keys"
)

type envelope struct {
	Type string             `msgpack:"t"`
	Data msgpack.RawMessage `msgpack:"d"`
}

type registration struct {
	rt  reflect.Type
	ptr bool
}

// Codec encodes values of registered types.
type Codec struct {
	types *xsync.MapOf[string, registration]
}

// New creates a codec and registers the given sample values.
func New(samples ...any) *Codec {
	c := &Codec{types: xsync.NewMapOf[string, registration]()}
	c.Register(samples...)
	return c
}

// Register records the concrete type of each sample under its registry name.
func (c *Codec) Register(samples ...any) {
	for _, s := range samples {
		rt := reflect.TypeOf(s)
		reg := registration{rt: rt}
		if rt.Kind() == reflect.Ptr {
			reg = registration{rt: rt.Elem(), ptr: true}
		}
		c.types.Store(keys.TypeName(rt), reg)
	}
}

// Marshal encodes v inside a typed envelope.
func (c *Codec) Marshal(v any) ([]byte, error) {
	name := keys.TypeOf(v)
	if _, ok := c.types.Load(name); !ok {
		return nil, fmt.Errorf("codec: type %q is not registered", name)
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", name, err)
	}
	return msgpack.Marshal(envelope{Type: name, Data: data})
}

// Unmarshal decodes a payload produced by Marshal.
func (c *Codec) Unmarshal(b []byte) (any, error) {
	var env envelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("codec: decode envelope: %w", err)
	}
	reg, ok := c.types.Load(env.Type)
	if !ok {
		return nil, fmt.Errorf("codec: type %q is not registered", env.Type)
	}
	ptr := reflect.New(reg.rt)
	if err := msgpack.Unmarshal(env.Data, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("codec: decode %s: %w", env.Type, err)
	}
	if reg.ptr {
		return ptr.Interface(), nil
	}
	return ptr.Elem().Interface(), nil
}

// Knows reports whether typeName is registered.
func (c *Codec) Knows(typeName string) bool {
	_, ok := c.types.Load(typeName)
	return ok
}
