package packet

// Button identifies one of the 16 digital inputs carried by an input report.
type Button uint8

const (
	ButtonA Button = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonZ
	ButtonZL
	ButtonStart
	ButtonHome
	ButtonScreenshot
	ButtonChat
	ButtonLClick
	ButtonRClick
	ButtonDpadUp
	ButtonDpadDown
	ButtonDpadLeft
	ButtonDpadRight

	NumButtons = 16
)

var buttonNames = [NumButtons]string{
	ButtonA:          "A",
	ButtonB:          "B",
	ButtonX:          "X",
	ButtonY:          "Y",
	ButtonZ:          "Z",
	ButtonZL:         "ZL",
	ButtonStart:      "Start",
	ButtonHome:       "Home",
	ButtonScreenshot: "Screenshot",
	ButtonChat:       "Chat",
	ButtonLClick:     "LClick",
	ButtonRClick:     "RClick",
	ButtonDpadUp:     "Up",
	ButtonDpadDown:   "Down",
	ButtonDpadLeft:   "Left",
	ButtonDpadRight:  "Right",
}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "UNKNOWN"
}

// | Byte | x01       | x02     | x04        | x08       | x10  | x20        | x40    | x80 |
// |:----:|:---------:|:-------:|:----------:|:---------:|:----:|:----------:|:------:|:---:|
// | 4    | Y         | X       | B          | A         | -    | -          | R Click| Z   |
// | 5    | -         | Start   | -          | -         | Home | Screenshot | Chat   | -   |
// | 6    | Dpad Down | Dpad Up | Dpad Right | Dpad Left | -    | -          | L Click| ZL  |
var buttonMap = [NumButtons]struct {
	offset int
	mask   byte
}{
	ButtonY:          {4, 0x01},
	ButtonX:          {4, 0x02},
	ButtonB:          {4, 0x04},
	ButtonA:          {4, 0x08},
	ButtonRClick:     {4, 0x40},
	ButtonZ:          {4, 0x80},
	ButtonStart:      {5, 0x02},
	ButtonHome:       {5, 0x10},
	ButtonScreenshot: {5, 0x20},
	ButtonChat:       {5, 0x40},
	ButtonDpadDown:   {6, 0x01},
	ButtonDpadUp:     {6, 0x02},
	ButtonDpadRight:  {6, 0x04},
	ButtonDpadLeft:   {6, 0x08},
	ButtonLClick:     {6, 0x40},
	ButtonZL:         {6, 0x80},
}

// ButtonSet is a bitset of pressed buttons indexed by Button.
type ButtonSet uint16

func (s ButtonSet) Pressed(b Button) bool {
	return s&(1<<b) != 0
}

func (s ButtonSet) With(buttons ...Button) ButtonSet {
	for _, b := range buttons {
		s |= 1 << b
	}
	return s
}

// List returns the pressed buttons in Button order.
func (s ButtonSet) List() []Button {
	var out []Button
	for b := Button(0); b < NumButtons; b++ {
		if s.Pressed(b) {
			out = append(out, b)
		}
	}
	return out
}
