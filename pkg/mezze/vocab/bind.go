package vocab

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mezze-dev/mezze/pkg/mezze"
)

var (
	contextType   = reflect.TypeOf((*mezze.Context)(nil))
	tableType     = reflect.TypeOf((*mezze.Table)(nil))
	docStringType = reflect.TypeOf(mezze.DocString(""))
	timeType      = reflect.TypeOf(time.Time{})
	locationType  = reflect.TypeOf((*time.Location)(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// CustomType describes a registered named parameter type, e.g. `type Color
// string` with a closed set of allowed spellings. Grounded on
// pkg/executor/executor.go's CustomTypeInfo.
type CustomType struct {
	Name          string
	AllowedValues map[string]string // case-folded input -> canonical value
}

// binder converts regex captures into a step implementation's call
// arguments via reflection, and converts its return values back into an
// error. Grounded on pkg/executor/executor.go's buildCallArgs/
// processReturnValues/convertArg family, extended with *mezze.Context,
// *mezze.Table, and mezze.DocString special-cased parameters in place of
// that file's context.Context-only special case.
type binder struct {
	customTypes map[string]*CustomType
}

func newBinder(customTypes map[string]*CustomType) *binder {
	return &binder{customTypes: customTypes}
}

// call invokes fn, binding ctx/step/captures to its parameters in
// declaration order, and extracts a single error return (if any).
func (b *binder) call(fn reflect.Value, ctx *mezze.Context, step mezze.Step, captures []string) error {
	fnType := fn.Type()
	args, err := b.buildArgs(fnType, ctx, step, captures)
	if err != nil {
		return &mezze.BadParameters{Cause: err}
	}
	results := fn.Call(args)
	return b.extractError(fnType, results)
}

func (b *binder) buildArgs(fnType reflect.Type, ctx *mezze.Context, step mezze.Step, captures []string) ([]reflect.Value, error) {
	n := fnType.NumIn()
	args := make([]reflect.Value, 0, n)
	captureIdx := 0

	for i := 0; i < n; i++ {
		paramType := fnType.In(i)

		switch {
		case paramType == contextType:
			args = append(args, reflect.ValueOf(ctx))
			continue
		case paramType == tableType:
			args = append(args, reflect.ValueOf(step.Table))
			continue
		case paramType == docStringType:
			var ds string
			if step.DocString != nil {
				ds = *step.DocString
			}
			args = append(args, reflect.ValueOf(mezze.DocString(ds)))
			continue
		}

		if captureIdx >= len(captures) {
			return nil, fmt.Errorf("not enough captured arguments: expected %d more, have %d", n-i, len(captures)-captureIdx)
		}
		raw := captures[captureIdx]
		captureIdx++

		converted, err := b.convert(raw, paramType)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%q): %w", i, raw, err)
		}
		args = append(args, converted)
	}

	return args, nil
}

func (b *binder) extractError(fnType reflect.Type, results []reflect.Value) error {
	for i, res := range results {
		if fnType.Out(i).Implements(errorType) {
			if !res.IsNil() {
				return res.Interface().(error)
			}
		}
	}
	return nil
}

func (b *binder) convert(raw string, targetType reflect.Type) (reflect.Value, error) {
	switch targetType {
	case timeType:
		return convertTime(raw)
	case locationType:
		loc, err := parseTimezone(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(loc), nil
	}

	typeName, kindName := targetType.Name(), targetType.Kind().String()
	if typeName != "" && typeName != kindName {
		if ct, ok := b.customTypes[typeName]; ok {
			resolved, ok := ct.AllowedValues[strings.ToLower(raw)]
			if !ok {
				return reflect.Value{}, fmt.Errorf("invalid %s %q (allowed: %s)", typeName, raw, strings.Join(allowedValuesList(ct), ", "))
			}
			return convertNamed(resolved, targetType)
		}
		return convertNamed(raw, targetType)
	}

	return convertPrimitive(raw, targetType)
}

func allowedValuesList(ct *CustomType) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range ct.AllowedValues {
		if !seen[v] {
			out = append(out, v)
			seen[v] = true
		}
	}
	return out
}

func convertTime(raw string) (reflect.Value, error) {
	if dt, err := parseDateTime(raw); err == nil {
		return reflect.ValueOf(dt), nil
	}
	if d, err := parseDate(raw); err == nil {
		return reflect.ValueOf(d), nil
	}
	if t, err := parseTime(raw); err == nil {
		return reflect.ValueOf(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot parse %q as time.Time", raw)
}

func convertNamed(raw string, targetType reflect.Type) (reflect.Value, error) {
	val := reflect.New(targetType).Elem()
	switch targetType.Kind() {
	case reflect.String:
		val.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		val.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		val.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		val.SetFloat(f)
	case reflect.Bool:
		bv, err := parseBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		val.SetBool(bv)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported underlying type: %s", targetType.Kind())
	}
	return val, nil
}

func convertPrimitive(raw string, targetType reflect.Type) (reflect.Value, error) {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw).Convert(targetType), nil
	case reflect.Int:
		v, err := strconv.Atoi(raw)
		return reflectOrErr(reflect.ValueOf(v), targetType, err)
	case reflect.Int8:
		v, err := strconv.ParseInt(raw, 10, 8)
		return reflectOrErr(reflect.ValueOf(int8(v)), targetType, err)
	case reflect.Int16:
		v, err := strconv.ParseInt(raw, 10, 16)
		return reflectOrErr(reflect.ValueOf(int16(v)), targetType, err)
	case reflect.Int32:
		v, err := strconv.ParseInt(raw, 10, 32)
		return reflectOrErr(reflect.ValueOf(int32(v)), targetType, err)
	case reflect.Int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		return reflectOrErr(reflect.ValueOf(v), targetType, err)
	case reflect.Uint:
		v, err := strconv.ParseUint(raw, 10, 0)
		return reflectOrErr(reflect.ValueOf(uint(v)), targetType, err)
	case reflect.Uint8:
		v, err := strconv.ParseUint(raw, 10, 8)
		return reflectOrErr(reflect.ValueOf(uint8(v)), targetType, err)
	case reflect.Uint16:
		v, err := strconv.ParseUint(raw, 10, 16)
		return reflectOrErr(reflect.ValueOf(uint16(v)), targetType, err)
	case reflect.Uint32:
		v, err := strconv.ParseUint(raw, 10, 32)
		return reflectOrErr(reflect.ValueOf(uint32(v)), targetType, err)
	case reflect.Uint64:
		v, err := strconv.ParseUint(raw, 10, 64)
		return reflectOrErr(reflect.ValueOf(v), targetType, err)
	case reflect.Float32:
		v, err := strconv.ParseFloat(raw, 32)
		return reflectOrErr(reflect.ValueOf(float32(v)), targetType, err)
	case reflect.Float64:
		v, err := strconv.ParseFloat(raw, 64)
		return reflectOrErr(reflect.ValueOf(v), targetType, err)
	case reflect.Bool:
		v, err := parseBool(raw)
		return reflectOrErr(reflect.ValueOf(v), targetType, err)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type: %s", targetType.Kind())
	}
}

func reflectOrErr(v reflect.Value, targetType reflect.Type, err error) (reflect.Value, error) {
	if err != nil {
		return reflect.Value{}, err
	}
	return v.Convert(targetType), nil
}

// parseBool accepts yes/on/enabled/1 and no/off/disabled/0 alongside
// true/false, case-insensitively.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "enabled", "1":
		return true, nil
	case "false", "no", "off", "disabled", "0":
		return false, nil
	default:
		return false, fmt.Errorf("cannot parse %q as bool", s)
	}
}

// Time/date/datetime parsing, adapted verbatim from
// pkg/executor/executor.go's layout tables and timezone handling.

var (
	timeLayouts = []string{
		"15:04:05.000",
		"15:04:05",
		"15:04",
		"3:04:05.000pm",
		"3:04:05.000PM",
		"3:04:05pm",
		"3:04:05PM",
		"3:04:05 pm",
		"3:04:05 PM",
		"3:04pm",
		"3:04PM",
		"3:04 pm",
		"3:04 PM",
	}

	dateLayouts = []string{
		"02/01/2006",
		"02-01-2006",
		"02.01.2006",
		"2/1/2006",
		"2-1-2006",
		"2.1.2006",
		"2006-01-02",
		"2006/01/02",
		"2 Jan 2006",
		"2 January 2006",
		"02 Jan 2006",
		"02 January 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 02, 2006",
		"January 02, 2006",
	}

	tzOffsetRegex = regexp.MustCompile(`^([+-])(\d{2}):?(\d{2})$`)
)

func parseTimezone(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "Z" || s == "UTC" {
		return time.UTC, nil
	}
	if matches := tzOffsetRegex.FindStringSubmatch(s); matches != nil {
		sign := 1
		if matches[1] == "-" {
			sign = -1
		}
		hours, _ := strconv.Atoi(matches[2])
		minutes, _ := strconv.Atoi(matches[3])
		offsetSeconds := sign * (hours*3600 + minutes*60)
		return time.FixedZone(s, offsetSeconds), nil
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", s, err)
	}
	return loc, nil
}

func extractTimezone(s string) (string, *time.Location) {
	s = strings.TrimSpace(s)

	if strings.HasSuffix(s, "Z") {
		return strings.TrimSuffix(s, "Z"), time.UTC
	}
	if strings.HasSuffix(s, " UTC") || strings.HasSuffix(s, "UTC") {
		return strings.TrimSuffix(strings.TrimSuffix(s, " UTC"), "UTC"), time.UTC
	}

	parts := strings.Split(s, " ")
	if len(parts) >= 2 {
		lastPart := parts[len(parts)-1]
		if strings.Contains(lastPart, "/") {
			if loc, err := time.LoadLocation(lastPart); err == nil {
				return strings.TrimSuffix(s, " "+lastPart), loc
			}
		}
	}

	if len(parts) >= 1 {
		lastPart := parts[len(parts)-1]
		if len(lastPart) >= 5 && (lastPart[0] == '+' || lastPart[0] == '-') {
			if loc, err := parseTimezone(lastPart); err == nil {
				withoutTz := strings.TrimSuffix(s, lastPart)
				withoutTz = strings.TrimSuffix(withoutTz, " ")
				return withoutTz, loc
			}
		}
	}

	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '+' || s[i] == '-' {
			if loc, err := parseTimezone(s[i:]); err == nil {
				return s[:i], loc
			}
			break
		}
	}

	return s, time.Local
}

func parseTime(s string) (time.Time, error) {
	timeStr, loc := extractTimezone(s)
	timeStr = strings.TrimSpace(timeStr)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, timeStr, loc); err == nil {
			return time.Date(1, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

func parseDateTime(s string) (time.Time, error) {
	dtStr, loc := extractTimezone(s)
	dtStr = strings.TrimSpace(dtStr)

	var datePart, timePart string
	if idx := strings.Index(dtStr, "T"); idx != -1 {
		datePart, timePart = dtStr[:idx], dtStr[idx+1:]
	} else if idx := strings.LastIndex(dtStr, " "); idx != -1 {
		for i := len(dtStr) - 1; i >= 0; i-- {
			if dtStr[i] == ' ' {
				possibleTime := dtStr[i+1:]
				if strings.Contains(possibleTime, ":") {
					datePart, timePart = dtStr[:i], possibleTime
					break
				}
			}
		}
		if datePart == "" {
			datePart, timePart = dtStr[:idx], dtStr[idx+1:]
		}
	} else {
		return time.Time{}, fmt.Errorf("cannot parse %q as datetime: no separator found", s)
	}

	var parsedDate time.Time
	var dateErr error
	for _, layout := range dateLayouts {
		parsedDate, dateErr = time.ParseInLocation(layout, datePart, loc)
		if dateErr == nil {
			break
		}
	}
	if dateErr != nil {
		return time.Time{}, fmt.Errorf("cannot parse date part %q: %w", datePart, dateErr)
	}

	var parsedTime time.Time
	var timeErr error
	for _, layout := range timeLayouts {
		parsedTime, timeErr = time.ParseInLocation(layout, timePart, loc)
		if timeErr == nil {
			break
		}
	}
	if timeErr != nil {
		return time.Time{}, fmt.Errorf("cannot parse time part %q: %w", timePart, timeErr)
	}

	return time.Date(
		parsedDate.Year(), parsedDate.Month(), parsedDate.Day(),
		parsedTime.Hour(), parsedTime.Minute(), parsedTime.Second(), parsedTime.Nanosecond(),
		loc,
	), nil
}
