package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"wordreminder/internal/duration"
)

// CadenceInput is the wire form of a reminder cadence: either a cron style
// string ("0 9 * * *", "@every 2h") or a unit breakdown such as
// {"hours": 2}, which becomes an "@every" expression.
type CadenceInput struct {
	Expression string
}

func (c *CadenceInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		c.Expression = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c.Expression = strings.TrimSpace(s)
		return nil
	}
	var u duration.Units
	if err := json.Unmarshal(data, &u); err != nil {
		return errors.New("reminder must be a cron expression or a duration object")
	}
	d := u.Duration()
	if d <= 0 {
		c.Expression = ""
		return nil
	}
	c.Expression = "@every " + d.String()
	return nil
}

func (c CadenceInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Expression)
}

// DurationInput is a window length given either as milliseconds or as a unit
// breakdown.
type DurationInput struct {
	Ms int64
}

func (d *DurationInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Ms = 0
		return nil
	}
	if data[0] == '{' {
		var u duration.Units
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		d.Ms = duration.ToMillis(u)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return errors.New("duration must be milliseconds or a duration object")
	}
	d.Ms = ms
	return nil
}

func (d DurationInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(duration.ToUnits(d.Ms))
}
