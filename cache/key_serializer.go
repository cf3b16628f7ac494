package cache

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	goerrors "github.com/goliatone/go-errors"
)

// KeySeparator defines the delimiter between the query and the filters in a key.
const KeySeparator = "::"

// maxFilterDepth bounds recursion, which also stops pointer cycles.
const maxFilterDepth = 64

// Text codes attached to key derivation errors.
const (
	TextCodeUnsupportedFilter = "UNSUPPORTED_FILTER"
	TextCodeFilterTooDeep     = "FILTER_TOO_DEEP"
)

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringType        = reflect.TypeOf("")
)

// defaultKeySerializer implements KeySerializer with a canonical, JSON-like
// encoding of the filters. Maps and structs are written with sorted keys so
// two filters with the same content always produce the same key, and every
// string is quoted so distinct content can never run together.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from the query text and its filters.
// A nil filters value and an empty map produce the same key.
func (s *defaultKeySerializer) SerializeKey(query string, filters any) (string, error) {
	var b strings.Builder
	b.WriteString(strconv.Quote(query))
	b.WriteString(KeySeparator)

	rv := reflect.ValueOf(filters)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && !rv.IsNil() && !implementsMarshaler(rv) {
		rv = rv.Elem()
	}
	if isNilish(rv) {
		b.WriteString("{}")
		return b.String(), nil
	}

	if err := s.encode(&b, rv, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *defaultKeySerializer) encode(b *strings.Builder, v reflect.Value, depth int) error {
	if depth > maxFilterDepth {
		return goerrors.New(fmt.Sprintf("filters nested deeper than %d levels", maxFilterDepth), goerrors.CategoryBadInput).
			WithTextCode(TextCodeFilterTooDeep)
	}

	if !v.IsValid() {
		b.WriteString("null")
		return nil
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
	}

	if handled, err := s.encodeMarshaler(b, v); handled || err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return s.encode(b, v.Elem(), depth+1)

	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))

	case reflect.Float32:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 32))

	case reflect.Float64:
		b.WriteString(strconv.FormatFloat(v.Float(), 'g', -1, 64))

	case reflect.String:
		b.WriteString(strconv.Quote(v.String()))

	case reflect.Slice:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return s.encodeList(b, v, depth)

	case reflect.Array:
		return s.encodeList(b, v, depth)

	case reflect.Map:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return s.encodeMap(b, v, depth)

	case reflect.Struct:
		return s.encodeStruct(b, v, depth)

	default:
		return unsupportedFilter(v.Type())
	}

	return nil
}

// encodeMarshaler writes values that know how to render themselves, such as
// time.Time. It reports whether v was handled.
func (s *defaultKeySerializer) encodeMarshaler(b *strings.Builder, v reflect.Value) (bool, error) {
	if !v.CanInterface() {
		return false, nil
	}

	if v.Type().Implements(jsonMarshalerType) {
		data, err := v.Interface().(json.Marshaler).MarshalJSON()
		if err != nil {
			return true, goerrors.Wrap(err, goerrors.CategoryBadInput, "filter value failed to marshal").
				WithTextCode(TextCodeUnsupportedFilter)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, data); err != nil {
			return true, goerrors.Wrap(err, goerrors.CategoryBadInput, "filter value produced invalid JSON").
				WithTextCode(TextCodeUnsupportedFilter)
		}
		b.Write(compact.Bytes())
		return true, nil
	}

	if v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return true, goerrors.Wrap(err, goerrors.CategoryBadInput, "filter value failed to marshal").
				WithTextCode(TextCodeUnsupportedFilter)
		}
		b.WriteString(strconv.Quote(string(text)))
		return true, nil
	}

	return false, nil
}

func (s *defaultKeySerializer) encodeList(b *strings.Builder, v reflect.Value, depth int) error {
	b.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := s.encode(b, v.Index(i), depth+1); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

type keyedValue struct {
	key   string
	value reflect.Value
}

// encodeMap writes map entries sorted by their encoded key. Keys of a map
// with interface keys are tagged with their dynamic type unless they are
// plain strings, so int(1) and uint(1) do not share an encoding.
func (s *defaultKeySerializer) encodeMap(b *strings.Builder, v reflect.Value, depth int) error {
	pairs := make([]keyedValue, 0, v.Len())
	tagged := v.Type().Key().Kind() == reflect.Interface

	iter := v.MapRange()
	for iter.Next() {
		key, err := s.encodeMapKey(iter.Key(), depth, tagged)
		if err != nil {
			return err
		}
		pairs = append(pairs, keyedValue{key: key, value: iter.Value()})
	}

	return s.writeObject(b, pairs, depth)
}

func (s *defaultKeySerializer) encodeMapKey(k reflect.Value, depth int, tagged bool) (string, error) {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}

	var kb strings.Builder
	switch k.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if err := s.encode(&kb, k, depth+1); err != nil {
			return "", err
		}
	default:
		if !k.CanInterface() || !k.Type().Implements(textMarshalerType) {
			return "", unsupportedFilter(k.Type())
		}
		if _, err := s.encodeMarshaler(&kb, k); err != nil {
			return "", err
		}
	}

	if tagged && k.Type() != stringType {
		return typeTag(k.Type()) + "(" + kb.String() + ")", nil
	}
	return kb.String(), nil
}

func typeTag(t reflect.Type) string {
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// encodeStruct writes exported fields named the way encoding/json would name
// them, so a struct and a map with the same content share a key.
func (s *defaultKeySerializer) encodeStruct(b *strings.Builder, v reflect.Value, depth int) error {
	pairs := make([]keyedValue, 0, v.NumField())
	if err := s.collectFields(v, &pairs); err != nil {
		return err
	}
	return s.writeObject(b, pairs, depth)
}

func (s *defaultKeySerializer) collectFields(v reflect.Value, pairs *[]keyedValue) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fv := v.Field(i)

		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		if field.Anonymous && name == "" {
			embedded := fv
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := s.collectFields(embedded, pairs); err != nil {
					return err
				}
				continue
			}
		}

		if !field.IsExported() {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		if name == "" {
			name = field.Name
		}

		*pairs = append(*pairs, keyedValue{key: strconv.Quote(name), value: fv})
	}
	return nil
}

// writeObject sorts by encoded key, then by encoded value, so equal keys
// never fall back to map iteration order.
func (s *defaultKeySerializer) writeObject(b *strings.Builder, pairs []keyedValue, depth int) error {
	values := make([]string, len(pairs))
	order := make([]int, len(pairs))
	for i, pair := range pairs {
		var vb strings.Builder
		if err := s.encode(&vb, pair.value, depth+1); err != nil {
			return err
		}
		values[i] = vb.String()
		order[i] = i
	}

	sort.Slice(order, func(i, j int) bool {
		a, c := order[i], order[j]
		if pairs[a].key != pairs[c].key {
			return pairs[a].key < pairs[c].key
		}
		return values[a] < values[c]
	})

	b.WriteByte('{')
	for i, idx := range order {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(pairs[idx].key)
		b.WriteByte(':')
		b.WriteString(values[idx])
	}
	b.WriteByte('}')
	return nil
}

// jsonFieldName reads the json tag of a struct field.
func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}

	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, false
}

func implementsMarshaler(v reflect.Value) bool {
	return v.Type().Implements(jsonMarshalerType) || v.Type().Implements(textMarshalerType)
}

func isNilish(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return v.IsNil()
	}
	return false
}

func unsupportedFilter(t reflect.Type) error {
	return goerrors.New(fmt.Sprintf("filters contain unsupported value of type %s", t), goerrors.CategoryBadInput).
		WithTextCode(TextCodeUnsupportedFilter)
}

// hashedKeySerializer digests the keys of another serializer with xxhash so
// every key has the same short length regardless of the filters.
type hashedKeySerializer struct {
	inner KeySerializer
}

// NewHashedKeySerializer wraps inner so its keys are replaced by a 64-bit
// xxhash digest. A nil inner uses the default serializer.
func NewHashedKeySerializer(inner KeySerializer) KeySerializer {
	if inner == nil {
		inner = NewDefaultKeySerializer()
	}
	return &hashedKeySerializer{inner: inner}
}

// SerializeKey implements KeySerializer.
func (s *hashedKeySerializer) SerializeKey(query string, filters any) (string, error) {
	key, err := s.inner.SerializeKey(query, filters)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("xxh:%016x", xxhash.Sum64String(key)), nil
}
