package golog

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	timeFormat  = "2006-01-02T15:04:05-0700"
	floatFormat = 'f'
)

type Formatter interface {
	Format(e *Entry) []byte
}

type FormatterFunc func(*Entry) []byte

func (f FormatterFunc) Format(e *Entry) []byte {
	return f(e)
}

// JSONFormatter renders one JSON object per line.
func JSONFormatter() Formatter {
	return FormatterFunc(func(e *Entry) []byte {
		js := make(map[string]interface{}, len(e.Ctx)/2+4)
		for i := 0; i+1 < len(e.Ctx); i += 2 {
			k, ok := e.Ctx[i].(string)
			if !ok {
				js["_error"] = fmt.Sprintf("%+v is not a string key", e.Ctx[i])
				continue
			}
			if err, ok := e.Ctx[i+1].(error); ok {
				js[k] = err.Error()
			} else {
				js[k] = e.Ctx[i+1]
			}
		}
		js["t"] = e.Time.Format(timeFormat)
		js["level"] = e.Lvl.String()
		js["msg"] = e.Msg
		if e.Src != "" {
			js["src"] = e.Src
		}
		b, err := json.Marshal(js)
		if err != nil {
			b, _ = json.Marshal(map[string]string{"JSONFormatterError": err.Error()})
		}
		return append(b, '\n')
	})
}

// LogfmtFormatter renders key=value lines.
func LogfmtFormatter() Formatter {
	return FormatterFunc(func(e *Entry) []byte {
		buf := &bytes.Buffer{}
		buf.WriteString("t=")
		buf.WriteString(e.Time.Format(timeFormat))
		buf.WriteString(" lvl=")
		buf.WriteString(e.Lvl.String())
		buf.WriteString(" msg=")
		buf.WriteString(quote(e.Msg))
		if e.Src != "" {
			buf.WriteString(" src=")
			buf.WriteString(quote(e.Src))
		}
		if len(e.Ctx) != 0 {
			buf.WriteByte(' ')
			buf.Write(FormatContext(e.Ctx, ' '))
		}
		buf.WriteByte('\n')
		return buf.Bytes()
	})
}

func FormatContext(ctx []interface{}, delim rune) []byte {
	buf := &bytes.Buffer{}
	for i := 0; i+1 < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteRune(delim)
		}
		k, ok := ctx[i].(string)
		if !ok {
			buf.WriteString("_error=")
		} else {
			buf.WriteString(k)
			buf.WriteByte('=')
		}
		buf.WriteString(format(ctx[i+1]))
	}
	return buf.Bytes()
}

func format(value interface{}) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), floatFormat, 3, 64)
	case float64:
		return strconv.FormatFloat(v, floatFormat, 3, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int8, int16, int32, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", value)
	case string:
		return quote(v)
	case time.Time:
		return v.Format(timeFormat)
	case time.Duration:
		return v.String()
	case error:
		return quote(v.Error())
	case fmt.Stringer:
		return quote(v.String())
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		if err != nil {
			return quote("logFormatError:" + err.Error())
		}
		return quote(string(b))
	}
	return quote(fmt.Sprintf("%+v", value))
}

// quote returns s untouched when it's a plain token, otherwise an ASCII-only quoted string.
func quote(s string) string {
	if s == "" {
		return `""`
	}
	if strings.IndexFunc(s, needsQuote) < 0 {
		return s
	}
	return strconv.QuoteToASCII(s)
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '"' || r == '=' || r == '\\' || r > '~'
}
