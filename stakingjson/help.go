package stakingjson

import (
	"fmt"
	"reflect"
	"strings"
)

// fieldUsage returns the usage name of a command struct field, its JSON name
// in lowercase wrapped in brackets when optional.
func fieldUsage(rtf reflect.StructField) string {
	name := strings.ToLower(rtf.Name)
	if tag := rtf.Tag.Get("json"); tag != "" {
		name = strings.Split(tag, ",")[0]
	}
	if rtf.Type.Kind() == reflect.Ptr {
		return "(" + name + ")"
	}
	return name
}

// MethodUsageText returns a one-line usage string for the provided method,
// e.g. "setapr init_val min_val desc_per_month sender timestamp signature".
// Optional parameters are wrapped in parentheses.
func MethodUsageText(method string) (string, error) {
	registerLock.RLock()
	rtp, ok := methodToConcreteType[method]
	registerLock.RUnlock()
	if !ok {
		str := fmt.Sprintf("%q is not registered", method)
		return "", makeError(ErrUnregisteredMethod, str)
	}

	rt := rtp.Elem()
	parts := make([]string, 0, rt.NumField()+1)
	parts = append(parts, method)
	for i := 0; i < rt.NumField(); i++ {
		parts = append(parts, fieldUsage(rt.Field(i)))
	}
	return strings.Join(parts, " "), nil
}
