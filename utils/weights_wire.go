package utils

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the binary snapshot. The layout is protobuf compatible:
//
//	message ModelWeights { string version = 1; string run_id = 2;
//	  string architecture = 3; double learning_rate = 4; int64 epochs = 5;
//	  repeated LayerWeight layers = 6; }
//	message LayerWeight { int64 layer = 1; WeightData weight = 2; WeightData bias = 3; }
//	message WeightData { string name = 1; repeated int64 shape = 2; repeated double data = 3; }
const (
	fieldVersion      protowire.Number = 1
	fieldRunID        protowire.Number = 2
	fieldArchitecture protowire.Number = 3
	fieldLearningRate protowire.Number = 4
	fieldEpochs       protowire.Number = 5
	fieldLayers       protowire.Number = 6

	fieldLayer  protowire.Number = 1
	fieldWeight protowire.Number = 2
	fieldBias   protowire.Number = 3

	fieldName  protowire.Number = 1
	fieldShape protowire.Number = 2
	fieldData  protowire.Number = 3
)

// MarshalWeights encodes a snapshot in the binary wire format.
func MarshalWeights(mw *ModelWeights) []byte {
	var b []byte
	b = appendString(b, fieldVersion, mw.Version)
	b = appendString(b, fieldRunID, mw.RunID)
	b = appendString(b, fieldArchitecture, mw.Architecture)
	b = protowire.AppendTag(b, fieldLearningRate, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(mw.LearningRate))
	b = protowire.AppendTag(b, fieldEpochs, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(mw.Epochs))
	for _, lw := range mw.Layers {
		b = protowire.AppendTag(b, fieldLayers, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalLayer(lw))
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func marshalLayer(lw LayerWeight) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldLayer, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(lw.Layer))
	if lw.Weight != nil {
		b = protowire.AppendTag(b, fieldWeight, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalData(lw.Weight))
	}
	if lw.Bias != nil {
		b = protowire.AppendTag(b, fieldBias, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalData(lw.Bias))
	}
	return b
}

func marshalData(wd *WeightData) []byte {
	var b []byte
	b = appendString(b, fieldName, wd.Name)

	var shape []byte
	for _, d := range wd.Shape {
		shape = protowire.AppendVarint(shape, uint64(d))
	}
	b = protowire.AppendTag(b, fieldShape, protowire.BytesType)
	b = protowire.AppendBytes(b, shape)

	data := make([]byte, 0, 8*len(wd.Data))
	for _, v := range wd.Data {
		data = protowire.AppendFixed64(data, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	return protowire.AppendBytes(b, data)
}

// fields walks the top level of a message, calling fn for every field with
// the raw value bytes. Fields of unexpected wire type are reported to fn with
// their type so it can reject them.
func fields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		size := protowire.ConsumeFieldValue(num, typ, b)
		if size < 0 {
			return protowire.ParseError(size)
		}
		if err := fn(num, typ, b[:size]); err != nil {
			return err
		}
		b = b[size:]
	}
	return nil
}

func wireType(num protowire.Number, got, want protowire.Type) error {
	if got != want {
		return fmt.Errorf("field %d: wire type %d, want %d", num, got, want)
	}
	return nil
}

func consumeBytes(num protowire.Number, typ protowire.Type, v []byte) ([]byte, error) {
	if err := wireType(num, typ, protowire.BytesType); err != nil {
		return nil, err
	}
	s, n := protowire.ConsumeBytes(v)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return s, nil
}

func consumeVarint(num protowire.Number, typ protowire.Type, v []byte) (uint64, error) {
	if err := wireType(num, typ, protowire.VarintType); err != nil {
		return 0, err
	}
	x, n := protowire.ConsumeVarint(v)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return x, nil
}

// UnmarshalWeights decodes a snapshot written by MarshalWeights. Unknown
// fields are skipped.
func UnmarshalWeights(b []byte) (*ModelWeights, error) {
	mw := &ModelWeights{}
	err := fields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case fieldVersion, fieldRunID, fieldArchitecture:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			switch num {
			case fieldVersion:
				mw.Version = string(s)
			case fieldRunID:
				mw.RunID = string(s)
			default:
				mw.Architecture = string(s)
			}
		case fieldLearningRate:
			if err := wireType(num, typ, protowire.Fixed64Type); err != nil {
				return err
			}
			x, n := protowire.ConsumeFixed64(v)
			if n < 0 {
				return protowire.ParseError(n)
			}
			mw.LearningRate = math.Float64frombits(x)
		case fieldEpochs:
			x, err := consumeVarint(num, typ, v)
			if err != nil {
				return err
			}
			mw.Epochs = int(x)
		case fieldLayers:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			lw, err := unmarshalLayer(s)
			if err != nil {
				return fmt.Errorf("layer %d: %w", len(mw.Layers), err)
			}
			mw.Layers = append(mw.Layers, lw)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mw, nil
}

func unmarshalLayer(b []byte) (LayerWeight, error) {
	var lw LayerWeight
	err := fields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case fieldLayer:
			x, err := consumeVarint(num, typ, v)
			if err != nil {
				return err
			}
			lw.Layer = int(x)
		case fieldWeight, fieldBias:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			wd, err := unmarshalData(s)
			if err != nil {
				return err
			}
			if num == fieldWeight {
				lw.Weight = wd
			} else {
				lw.Bias = wd
			}
		}
		return nil
	})
	return lw, err
}

func unmarshalData(b []byte) (*WeightData, error) {
	wd := &WeightData{}
	err := fields(b, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case fieldName:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			wd.Name = string(s)
		case fieldShape:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			for len(s) > 0 {
				x, n := protowire.ConsumeVarint(s)
				if n < 0 {
					return protowire.ParseError(n)
				}
				wd.Shape = append(wd.Shape, int(x))
				s = s[n:]
			}
		case fieldData:
			s, err := consumeBytes(num, typ, v)
			if err != nil {
				return err
			}
			if len(s)%8 != 0 {
				return fmt.Errorf("data field holds %d bytes, not a whole number of doubles", len(s))
			}
			wd.Data = make([]float64, 0, len(s)/8)
			for len(s) > 0 {
				x, n := protowire.ConsumeFixed64(s)
				if n < 0 {
					return protowire.ParseError(n)
				}
				wd.Data = append(wd.Data, math.Float64frombits(x))
				s = s[n:]
			}
		}
		return nil
	})
	return wd, err
}
