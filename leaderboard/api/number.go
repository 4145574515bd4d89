// leaderboard/api/number.go
package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON field that must coerce to a finite number. Game clients
// send numeric fields both as JSON numbers and as strings ("42"), so both
// are accepted; anything non-numeric or non-finite fails to decode. Handlers
// use *Number to tell a missing field apart from zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if len(raw) >= 2 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("value %s is not a number", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("value %s is not a finite number", raw)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) Int() int {
	return int(n)
}
