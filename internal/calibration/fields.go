package calibration

import "math"

// Field is one entry of the persisted calibration record.
type Field int

const (
	FieldLeftXMin Field = iota
	FieldLeftXCenter
	FieldLeftXMax
	FieldLeftYMin
	FieldLeftYCenter
	FieldLeftYMax
	FieldCXMin
	FieldCXCenter
	FieldCXMax
	FieldCYMin
	FieldCYCenter
	FieldCYMax
	FieldLTriggerMin
	FieldLTriggerMax
	FieldRTriggerMin
	FieldRTriggerMax
	FieldLeftStickDeadzone
	FieldCStickDeadzone
	FieldTriggerDeadzone

	NumFields = 19
)

type fieldAccess struct {
	name string
	get  func(c *Calibration) float64
	set  func(c *Calibration, v float64)
}

func intField(name string, p func(c *Calibration) *int) fieldAccess {
	return fieldAccess{
		name: name,
		get:  func(c *Calibration) float64 { return float64(*p(c)) },
		set:  func(c *Calibration, v float64) { *p(c) = int(math.Round(v)) },
	}
}

func floatField(name string, p func(c *Calibration) *float64) fieldAccess {
	return fieldAccess{
		name: name,
		get:  func(c *Calibration) float64 { return *p(c) },
		set:  func(c *Calibration, v float64) { *p(c) = v },
	}
}

var fields = [NumFields]fieldAccess{
	FieldLeftXMin:          intField("left_x_min", func(c *Calibration) *int { return &c.LeftX.Min }),
	FieldLeftXCenter:       intField("left_x_center", func(c *Calibration) *int { return &c.LeftX.Center }),
	FieldLeftXMax:          intField("left_x_max", func(c *Calibration) *int { return &c.LeftX.Max }),
	FieldLeftYMin:          intField("left_y_min", func(c *Calibration) *int { return &c.LeftY.Min }),
	FieldLeftYCenter:       intField("left_y_center", func(c *Calibration) *int { return &c.LeftY.Center }),
	FieldLeftYMax:          intField("left_y_max", func(c *Calibration) *int { return &c.LeftY.Max }),
	FieldCXMin:             intField("c_x_min", func(c *Calibration) *int { return &c.CX.Min }),
	FieldCXCenter:          intField("c_x_center", func(c *Calibration) *int { return &c.CX.Center }),
	FieldCXMax:             intField("c_x_max", func(c *Calibration) *int { return &c.CX.Max }),
	FieldCYMin:             intField("c_y_min", func(c *Calibration) *int { return &c.CY.Min }),
	FieldCYCenter:          intField("c_y_center", func(c *Calibration) *int { return &c.CY.Center }),
	FieldCYMax:             intField("c_y_max", func(c *Calibration) *int { return &c.CY.Max }),
	FieldLTriggerMin:       intField("l_trigger_min", func(c *Calibration) *int { return &c.LTrigger.Min }),
	FieldLTriggerMax:       intField("l_trigger_max", func(c *Calibration) *int { return &c.LTrigger.Max }),
	FieldRTriggerMin:       intField("r_trigger_min", func(c *Calibration) *int { return &c.RTrigger.Min }),
	FieldRTriggerMax:       intField("r_trigger_max", func(c *Calibration) *int { return &c.RTrigger.Max }),
	FieldLeftStickDeadzone: floatField("left_stick_deadzone", func(c *Calibration) *float64 { return &c.LeftStickDeadzone }),
	FieldCStickDeadzone:    floatField("c_stick_deadzone", func(c *Calibration) *float64 { return &c.CStickDeadzone }),
	FieldTriggerDeadzone:   floatField("trigger_deadzone", func(c *Calibration) *float64 { return &c.TriggerDeadzone }),
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, NumFields)
	for i, f := range fields {
		m[f.name] = Field(i)
	}
	return m
}()

func (f Field) String() string {
	if f >= 0 && f < NumFields {
		return fields[f].name
	}
	return "UNKNOWN"
}

// IsDeadzone reports whether f holds a dead zone fraction rather than raw units.
func (f Field) IsDeadzone() bool {
	return f >= FieldLeftStickDeadzone && f < NumFields
}

// FieldByName resolves a persisted key. Unknown keys report false.
func FieldByName(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Get returns the value of f. Limits are returned as whole numbers.
func (c Calibration) Get(f Field) float64 {
	return fields[f].get(&c)
}

// Set stores v into f without validation; limits are rounded to raw units.
func (c *Calibration) Set(f Field, v float64) {
	fields[f].set(c, v)
}

// Values returns every field keyed by its persisted name.
func (c Calibration) Values() map[string]any {
	out := make(map[string]any, NumFields)
	for i, f := range fields {
		if Field(i).IsDeadzone() {
			out[f.name] = f.get(&c)
		} else {
			out[f.name] = int(f.get(&c))
		}
	}
	return out
}
