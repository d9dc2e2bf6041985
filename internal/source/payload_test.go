package source

import (
	"testing"
	"time"
)

func TestBuildCommand(t *testing.T) {
	now := time.UnixMicro(1700000000123456)
	payload, id, err := buildCommand(3, now)
	if err != nil {
		t.Fatalf("buildCommand: %v", err)
	}
	if want := "1700000000123456"; id != want {
		t.Errorf("id = %q, want %q", id, want)
	}

	var cmd snapCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if cmd.Cmd != "get_new_spectra" {
		t.Errorf("cmd = %q", cmd.Cmd)
	}
	if cmd.Val.Block != "autocorr" {
		t.Errorf("block = %q", cmd.Val.Block)
	}
	if cmd.Val.Kwargs.SignalBlock != 3 {
		t.Errorf("signal_block = %d", cmd.Val.Kwargs.SignalBlock)
	}
	if cmd.ID != id {
		t.Errorf("payload id %q != returned id %q", cmd.ID, id)
	}
	if got, want := cmd.Val.Timestamp, 1700000000.123456; got != want {
		t.Errorf("timestamp = %v, want %v", got, want)
	}
}

func TestMatchResponse(t *testing.T) {
	body := []byte(`{"id":"42","val":{"response":[[1.0,2.0],[3.0,4.0]]}}`)

	rows, ok := matchResponse(body, "42")
	if !ok {
		t.Fatal("matching id rejected")
	}
	if len(rows) != 2 || rows[1][0] != 3.0 {
		t.Errorf("rows = %v", rows)
	}

	if _, ok := matchResponse(body, "43"); ok {
		t.Error("accepted a response for another request")
	}
	if _, ok := matchResponse([]byte(`{"id":"42","val":{"response":[]}}`), "42"); ok {
		t.Error("accepted an empty response")
	}
	if _, ok := matchResponse([]byte(`not json`), "42"); ok {
		t.Error("accepted garbage")
	}
}

func TestSignalBlock(t *testing.T) {
	tests := []struct {
		pola       int64
		block, row int
	}{
		{0, 0, 0},
		{15, 0, 15},
		{16, 1, 0},
		{37, 2, 5},
	}
	for _, tt := range tests {
		info := antInfo{PolA: tt.pola}
		block, row := info.signalBlock()
		if block != tt.block || row != tt.row {
			t.Errorf("pola %d: got block %d row %d, want %d %d",
				tt.pola, block, row, tt.block, tt.row)
		}
	}
}

func TestParseLayoutColumnOriented(t *testing.T) {
	cfg := []byte(`{"lwacfg":{
		"antname":{"0":"LWA-124","1":"LWA-250"},
		"snap2_location":{"0":3,"1":7},
		"pola_fpga_num":{"0":20,"1":41},
		"polb_fpga_num":{"0":21,"1":42}
	}}`)

	layout, err := parseLayout(cfg)
	if err != nil {
		t.Fatalf("parseLayout: %v", err)
	}
	if len(layout) != 2 {
		t.Fatalf("got %d antennas, want 2", len(layout))
	}
	info, ok := layout["LWA-124"]
	if !ok {
		t.Fatal("LWA-124 missing")
	}
	if info.Snap != 3 || info.PolA != 20 || info.PolB != 21 {
		t.Errorf("LWA-124 = %+v", info)
	}
}

func TestParseLayoutRowOriented(t *testing.T) {
	cfg := []byte(`{"lwacfg":{
		"0":{"antname":"LWA-124","snap2_location":3,"pola_fpga_num":20,"polb_fpga_num":21},
		"1":{"antname":"LWA-250","snap2_location":7,"pola_fpga_num":41,"polb_fpga_num":42}
	}}`)

	layout, err := parseLayout(cfg)
	if err != nil {
		t.Fatalf("parseLayout: %v", err)
	}
	info, ok := layout["LWA-250"]
	if !ok {
		t.Fatal("LWA-250 missing")
	}
	if info.Snap != 7 || info.PolA != 41 || info.PolB != 42 {
		t.Errorf("LWA-250 = %+v", info)
	}
}

func TestParseLayoutErrors(t *testing.T) {
	if _, err := parseLayout([]byte(`{}`)); err == nil {
		t.Error("empty config accepted")
	}
	if _, err := parseLayout([]byte(`nope`)); err == nil {
		t.Error("garbage accepted")
	}
}

func TestParseLayoutSkipsNamelessEntries(t *testing.T) {
	cfg := []byte(`{"lwacfg":{
		"0":{"antname":"","snap2_location":1,"pola_fpga_num":2,"polb_fpga_num":3},
		"1":{"antname":"LWA-001","snap2_location":1,"pola_fpga_num":2,"polb_fpga_num":3}
	}}`)
	layout, err := parseLayout(cfg)
	if err != nil {
		t.Fatalf("parseLayout: %v", err)
	}
	if len(layout) != 1 {
		t.Errorf("got %d antennas, want 1", len(layout))
	}
}
