package config

import "fmt"

type param interface {
	key() string
	service() string
	emptyValue() paramValue
}

// paramImpl identifies a param by its key within a service namespace
type paramImpl struct {
	paramKey string
	paramSvc string
}

func ref(key, service string) paramImpl {
	return paramImpl{paramKey: key, paramSvc: service}
}

func (p paramImpl) key() string     { return p.paramKey }
func (p paramImpl) service() string { return p.paramSvc }

func (p paramImpl) emptyValue() paramValue {
	panic(fmt.Sprintf("Parameter %v has no type", p))
}

func (p paramImpl) String() string {
	return fmt.Sprintf("{key: %s; service: %s}", p.paramKey, p.paramSvc)
}

type (
	// StringParam is a param holding a string
	StringParam struct{ paramImpl }

	// IntParam is a param holding an int. Numeric strings are accepted
	IntParam struct{ paramImpl }

	// BoolParam is a param holding a bool. "true" and "false" strings are accepted
	BoolParam struct{ paramImpl }

	// DurationParam is a param holding time.Duration written as "30s" or "5m"
	DurationParam struct{ paramImpl }
)

func newStringParam(key, service string) StringParam     { return StringParam{ref(key, service)} }
func newIntParam(key, service string) IntParam           { return IntParam{ref(key, service)} }
func newBoolParam(key, service string) BoolParam         { return BoolParam{ref(key, service)} }
func newDurationParam(key, service string) DurationParam { return DurationParam{ref(key, service)} }

func (StringParam) emptyValue() paramValue   { return NewStringVal("") }
func (IntParam) emptyValue() paramValue      { return NewIntVal(0) }
func (BoolParam) emptyValue() paramValue     { return NewBoolVal(false) }
func (DurationParam) emptyValue() paramValue { return NewDurationVal(0) }
