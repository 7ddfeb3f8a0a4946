package uploadproto

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Number хранит целое поле, которое клиенты присылают то числом, то строкой.
// Пустое значение означает, что поле не передано.
type Number string

// Int возвращает Number для целого значения.
func Int(v int64) Number {
	return Number(strconv.FormatInt(v, 10))
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(b)
	switch {
	case s == "null":
		*n = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(str))
	default:
		*n = Number(s)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	if v, err := n.Int64(); err == nil {
		return strconv.AppendInt(nil, v, 10), nil
	}
	return json.Marshal(string(n))
}

// Present сообщает, было ли поле передано.
func (n Number) Present() bool {
	return n != ""
}

func (n Number) Int64() (int64, error) {
	return strconv.ParseInt(string(n), 10, 64)
}
