package validation

import "fmt"

// Direction is the corrective action suggested to the user.
type Direction int

const (
	// DirectionNone means the document is aligned.
	DirectionNone Direction = iota
	ZoomIn
	ZoomOut
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	// Problem means the geometry could not be evaluated.
	Problem
)

var directionNames = [...]string{
	DirectionNone: "none",
	ZoomIn:        "zoom_in",
	ZoomOut:       "zoom_out",
	MoveLeft:      "move_left",
	MoveRight:     "move_right",
	MoveUp:        "move_up",
	MoveDown:      "move_down",
	Problem:       "problem",
}

func (d Direction) String() string {
	if d >= 0 && int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Feedback returns the user-facing message for the direction. Move
// directions describe how to move the document within the frame.
func (d Direction) Feedback() string {
	switch d {
	case DirectionNone:
		return MsgAligned
	case ZoomIn:
		return `Zoom in on the "DOCUMENT"`
	case ZoomOut:
		return `Zoom out of the "DOCUMENT"`
	case MoveLeft:
		return `Move the "DOCUMENT" to the left`
	case MoveRight:
		return `Move the "DOCUMENT" to the right`
	case MoveUp:
		return `Move the "DOCUMENT" up`
	case MoveDown:
		return `Move the "DOCUMENT" down`
	}
	return MsgProblem
}
