package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yukikurage/task-assignment-api/internal/optional"
)

// DateLayout is the wire format of due dates
const DateLayout = "2006-01-02"

// Date is a calendar date on the wire. It also accepts RFC 3339 timestamps.
type Date struct {
	time.Time
}

// NewDate wraps t, or returns nil for a nil t
func NewDate(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

// UnmarshalJSON parses "2006-01-02" or an RFC 3339 timestamp
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// MarshalJSON writes the date as "2006-01-02"
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func dateField(f optional.Field[Date]) optional.Field[time.Time] {
	if !f.Present() {
		return optional.Absent[time.Time]()
	}
	d, ok := f.Value()
	if !ok {
		return optional.Null[time.Time]()
	}
	return optional.Of(d.Time)
}
