package messaging

import (
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrTruncated is returned when an encoded event ends inside a field.
var ErrTruncated = errors.New("truncated event")

// Field numbers. These are part of the wire contract with other processes and
// must never be renumbered.
//
//	Event          1 logMonoTime  2 valid  10 navModel  11 navInstruction
//	NavModel       1 frameId  2 locationMonoTime  3 modelExecutionTime
//	               4 dspExecutionTime  5 features  6 desirePrediction  7 position
//	Position       1 x  2 y  3 xStd  4 yStd
//	NavInstruction 1 maneuverPrimaryText  2 maneuverType  3 maneuverDistance
//	               4 distanceRemaining  5 timeRemaining  6 speedLimit
const (
	fEventLogMonoTime    protowire.Number = 1
	fEventValid          protowire.Number = 2
	fEventNavModel       protowire.Number = 10
	fEventNavInstruction protowire.Number = 11

	fNavFrameID          protowire.Number = 1
	fNavLocationMonoTime protowire.Number = 2
	fNavModelExecTime    protowire.Number = 3
	fNavDspExecTime      protowire.Number = 4
	fNavFeatures         protowire.Number = 5
	fNavDesire           protowire.Number = 6
	fNavPosition         protowire.Number = 7

	fPosX    protowire.Number = 1
	fPosY    protowire.Number = 2
	fPosXStd protowire.Number = 3
	fPosYStd protowire.Number = 4

	fInstrPrimaryText       protowire.Number = 1
	fInstrManeuverType      protowire.Number = 2
	fInstrManeuverDistance  protowire.Number = 3
	fInstrDistanceRemaining protowire.Number = 4
	fInstrTimeRemaining     protowire.Number = 5
	fInstrSpeedLimit        protowire.Number = 6
)

// Marshal encodes ev in protobuf wire format.
func Marshal(ev *Event) []byte {
	b := make([]byte, 0, 2048)
	b = protowire.AppendTag(b, fEventLogMonoTime, protowire.VarintType)
	b = protowire.AppendVarint(b, ev.LogMonoTime)
	b = protowire.AppendTag(b, fEventValid, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(ev.Valid))

	if ev.NavModel != nil {
		b = protowire.AppendTag(b, fEventNavModel, protowire.BytesType)
		b = protowire.AppendBytes(b, appendNavModel(nil, ev.NavModel))
	}
	if ev.NavInstruction != nil {
		b = protowire.AppendTag(b, fEventNavInstruction, protowire.BytesType)
		b = protowire.AppendBytes(b, appendNavInstruction(nil, ev.NavInstruction))
	}
	return b
}

func appendNavModel(b []byte, m *NavModelData) []byte {
	b = protowire.AppendTag(b, fNavFrameID, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.FrameID))
	b = protowire.AppendTag(b, fNavLocationMonoTime, protowire.VarintType)
	b = protowire.AppendVarint(b, m.LocationMonoTime)
	b = protowire.AppendTag(b, fNavModelExecTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(m.ModelExecutionTime))
	b = protowire.AppendTag(b, fNavDspExecTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(m.DspExecutionTime))
	b = appendPackedFloats(b, fNavFeatures, m.Features[:])
	b = appendPackedFloats(b, fNavDesire, m.DesirePrediction[:])

	var pos []byte
	pos = appendPackedFloats(pos, fPosX, m.Position.X[:])
	pos = appendPackedFloats(pos, fPosY, m.Position.Y[:])
	pos = appendPackedFloats(pos, fPosXStd, m.Position.XStd[:])
	pos = appendPackedFloats(pos, fPosYStd, m.Position.YStd[:])
	b = protowire.AppendTag(b, fNavPosition, protowire.BytesType)
	return protowire.AppendBytes(b, pos)
}

func appendNavInstruction(b []byte, m *NavInstructionData) []byte {
	b = protowire.AppendTag(b, fInstrPrimaryText, protowire.BytesType)
	b = protowire.AppendString(b, m.ManeuverPrimaryText)
	b = protowire.AppendTag(b, fInstrManeuverType, protowire.BytesType)
	b = protowire.AppendString(b, m.ManeuverType)
	b = appendFloat(b, fInstrManeuverDistance, m.ManeuverDistance)
	b = appendFloat(b, fInstrDistanceRemaining, m.DistanceRemaining)
	b = appendFloat(b, fInstrTimeRemaining, m.TimeRemaining)
	return appendFloat(b, fInstrSpeedLimit, m.SpeedLimit)
}

func appendFloat(b []byte, num protowire.Number, v float32) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(v))
}

func appendPackedFloats(b []byte, num protowire.Number, vs []float32) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(4*len(vs)))
	for _, v := range vs {
		b = protowire.AppendFixed32(b, math.Float32bits(v))
	}
	return b
}

// Unmarshal decodes an event produced by Marshal. Unknown fields are skipped so
// newer publishers stay readable.
func Unmarshal(b []byte) (*Event, error) {
	ev := &Event{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fEventLogMonoTime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			ev.LogMonoTime = v
			return n, nil
		case num == fEventValid && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			ev.Valid = protowire.DecodeBool(v)
			return n, nil
		case num == fEventNavModel && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m := &NavModelData{}
			if err := decodeNavModel(v, m); err != nil {
				return 0, fmt.Errorf("navModel: %w", err)
			}
			ev.NavModel = m
			return n, nil
		case num == fEventNavInstruction && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			m := &NavInstructionData{}
			if err := decodeNavInstruction(v, m); err != nil {
				return 0, fmt.Errorf("navInstruction: %w", err)
			}
			ev.NavInstruction = m
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeNavModel(b []byte, m *NavModelData) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fNavFrameID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.FrameID = uint32(v)
			return n, nil
		case num == fNavLocationMonoTime && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			m.LocationMonoTime = v
			return n, nil
		case num == fNavModelExecTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			m.ModelExecutionTime = math.Float64frombits(v)
			return n, nil
		case num == fNavDspExecTime && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			m.DspExecutionTime = math.Float64frombits(v)
			return n, nil
		case num == fNavFeatures && typ == protowire.BytesType:
			return consumePackedFloats(b, m.Features[:], "features")
		case num == fNavDesire && typ == protowire.BytesType:
			return consumePackedFloats(b, m.DesirePrediction[:], "desirePrediction")
		case num == fNavPosition && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			if err := decodePosition(v, &m.Position); err != nil {
				return 0, fmt.Errorf("position: %w", err)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func decodePosition(b []byte, p *XYTrajectory) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if typ == protowire.BytesType {
			switch num {
			case fPosX:
				return consumePackedFloats(b, p.X[:], "x")
			case fPosY:
				return consumePackedFloats(b, p.Y[:], "y")
			case fPosXStd:
				return consumePackedFloats(b, p.XStd[:], "xStd")
			case fPosYStd:
				return consumePackedFloats(b, p.YStd[:], "yStd")
			}
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func decodeNavInstruction(b []byte, m *NavInstructionData) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fInstrPrimaryText && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.ManeuverPrimaryText = v
			return n, nil
		case num == fInstrManeuverType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			m.ManeuverType = v
			return n, nil
		case typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(b)
			f := math.Float32frombits(v)
			switch num {
			case fInstrManeuverDistance:
				m.ManeuverDistance = f
			case fInstrDistanceRemaining:
				m.DistanceRemaining = f
			case fInstrTimeRemaining:
				m.TimeRemaining = f
			case fInstrSpeedLimit:
				m.SpeedLimit = f
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// walkFields iterates the fields of one message. fn receives the bytes after
// the tag and returns how many it consumed; a negative count is a protowire
// parse error.
func walkFields(b []byte, fn func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return wireError(m)
		}
		b = b[m:]
	}
	return nil
}

func consumePackedFloats(b []byte, dst []float32, name string) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, nil
	}
	if len(v) != 4*len(dst) {
		return 0, fmt.Errorf("%s: got %d bytes, want %d values", name, len(v), len(dst))
	}
	for i := range dst {
		u, m := protowire.ConsumeFixed32(v)
		if m < 0 {
			return m, nil
		}
		dst[i] = math.Float32frombits(u)
		v = v[m:]
	}
	return n, nil
}

func wireError(n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
