package model

import (
	"reflect"
	"testing"
)

func TestRecordRoundTripVersion(t *testing.T) {
	origin := &HummockVersion{
		Levels: []*Level{
			{LevelIdx: 0, TableInfos: []*SstableInfo{
				{Id: 1, KeyRange: kr("a", "m"), FileSize: 128},
				{Id: 2, KeyRange: kr("g", "z"), FileSize: 256},
			}},
			{LevelIdx: 1, TableInfos: []*SstableInfo{
				{Id: 3, KeyRange: kr("a", "z"), FileSize: 512},
			}},
		},
		SafeEpoch: 42,
	}
	data, err := EncodeRecord(origin)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded := &HummockVersion{}
	if err := DecodeRecord(data, decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(origin, decoded) {
		t.Errorf("round trip mismatch: %+v != %+v", origin, decoded)
	}
}

func TestRecordRoundTripTask(t *testing.T) {
	origin := &CompactTask{
		TaskId:      7,
		TargetLevel: 1,
		Watermark:   MaxEpoch,
		InputSsts: []*Level{
			{LevelIdx: 0, TableInfos: []*SstableInfo{{Id: 1, KeyRange: kr("a", "m")}}},
			{LevelIdx: 1},
		},
		Splits: []KeyRange{kr("a", "m")},
		Metrics: &CompactMetrics{
			ReadLevelN:      &TableSetStatistics{LevelIdx: 0},
			ReadLevelNplus1: &TableSetStatistics{LevelIdx: 1},
			Write:           &TableSetStatistics{LevelIdx: 1},
		},
	}
	data, err := EncodeRecord(origin)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded := &CompactTask{}
	if err := DecodeRecord(data, decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(origin, decoded) {
		t.Errorf("round trip mismatch: %+v != %+v", origin, decoded)
	}
}

func TestDecodeRecordCorruption(t *testing.T) {
	data, err := EncodeRecord(NewHummockVersion())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	if err := DecodeRecord(nil, &HummockVersion{}); err != ErrCorruptRecord {
		t.Errorf("nil record: err = %v, want ErrCorruptRecord", err)
	}
	if err := DecodeRecord([]byte{0x7f, 0x01, 0x00}, &HummockVersion{}); err != ErrCorruptRecord {
		t.Errorf("bad format byte: err = %v, want ErrCorruptRecord", err)
	}
	// truncated payload
	if err := DecodeRecord(data[:len(data)-1], &HummockVersion{}); err != ErrCorruptRecord {
		t.Errorf("truncated record: err = %v, want ErrCorruptRecord", err)
	}
}
