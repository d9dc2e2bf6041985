package source

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// snapCommand is the request the correlator's snap service consumes. The id
// doubles as a sequence number: responses echo it back and anything else on
// the response prefix is ignored.
type snapCommand struct {
	Cmd string         `json:"cmd"`
	Val snapCommandVal `json:"val"`
	ID  string         `json:"id"`
}

type snapCommandVal struct {
	Block     string     `json:"block"`
	Timestamp float64    `json:"timestamp"`
	Kwargs    snapKwargs `json:"kwargs"`
}

type snapKwargs struct {
	SignalBlock int `json:"signal_block"`
}

type snapResponse struct {
	ID  string `json:"id"`
	Val struct {
		Response [][]float64 `json:"response"`
	} `json:"val"`
}

// buildCommand encodes a get_new_spectra request for one signal block and
// returns the payload together with its sequence id.
func buildCommand(signalBlock int, now time.Time) ([]byte, string, error) {
	ts := float64(now.UnixMicro()) * 1e-6
	id := fmt.Sprintf("%d", now.UnixMicro())
	payload, err := json.Marshal(snapCommand{
		Cmd: "get_new_spectra",
		Val: snapCommandVal{
			Block:     "autocorr",
			Timestamp: ts,
			Kwargs:    snapKwargs{SignalBlock: signalBlock},
		},
		ID: id,
	})
	if err != nil {
		return nil, "", fmt.Errorf("encode snap command: %w", err)
	}
	return payload, id, nil
}

// matchResponse decodes a response value and returns its spectra rows when
// the sequence id matches. Values that fail to decode or belong to another
// request report ok=false; the watcher simply keeps waiting.
func matchResponse(value []byte, id string) (rows [][]float64, ok bool) {
	var resp snapResponse
	if err := json.Unmarshal(value, &resp); err != nil {
		return nil, false
	}
	if resp.ID != id || len(resp.Val.Response) == 0 {
		return nil, false
	}
	return resp.Val.Response, true
}

// antInfo locates one antenna's autocorrelations inside the correlator.
type antInfo struct {
	Name string
	// Snap is the snap2 board location; it selects the command key.
	Snap int64
	// PolA and PolB index the board's FPGA signal rows.
	PolA int64
	PolB int64
}

// signalBlock returns the 16-row block holding the antenna's pol A row, and
// the row offset within that block.
func (a antInfo) signalBlock() (block, row int) {
	return int(a.PolA) / rowsPerBlock, int(a.PolA) % rowsPerBlock
}

// parseLayout extracts the antenna layout from the /cfg/system JSON. Two
// shapes exist in the wild: column-oriented (field name -> antenna id ->
// value) and row-oriented (antenna id -> record).
func parseLayout(value []byte) (map[string]antInfo, error) {
	var full struct {
		LWACfg map[string]jsoniter.RawMessage `json:"lwacfg"`
	}
	if err := json.Unmarshal(value, &full); err != nil {
		return nil, fmt.Errorf("parse system config: %w", err)
	}
	if len(full.LWACfg) == 0 {
		return nil, fmt.Errorf("system config has no lwacfg section")
	}

	if _, columnar := full.LWACfg["snap2_location"]; columnar {
		return parseColumnLayout(full.LWACfg)
	}
	return parseRowLayout(full.LWACfg)
}

func parseColumnLayout(cfg map[string]jsoniter.RawMessage) (map[string]antInfo, error) {
	columns := map[string]map[string]jsoniter.RawMessage{}
	for _, field := range []string{"antname", "snap2_location", "pola_fpga_num", "polb_fpga_num"} {
		raw, ok := cfg[field]
		if !ok {
			return nil, fmt.Errorf("system config missing %q column", field)
		}
		var col map[string]jsoniter.RawMessage
		if err := json.Unmarshal(raw, &col); err != nil {
			return nil, fmt.Errorf("parse %q column: %w", field, err)
		}
		columns[field] = col
	}

	out := make(map[string]antInfo, len(columns["antname"]))
	for id := range columns["antname"] {
		info := antInfo{Snap: -1, PolA: -1, PolB: -1}
		_ = json.Unmarshal(columns["antname"][id], &info.Name)
		_ = json.Unmarshal(columns["snap2_location"][id], &info.Snap)
		_ = json.Unmarshal(columns["pola_fpga_num"][id], &info.PolA)
		_ = json.Unmarshal(columns["polb_fpga_num"][id], &info.PolB)
		if info.Name != "" {
			out[info.Name] = info
		}
	}
	return out, nil
}

func parseRowLayout(cfg map[string]jsoniter.RawMessage) (map[string]antInfo, error) {
	out := make(map[string]antInfo, len(cfg))
	for id, raw := range cfg {
		var rec struct {
			Name string `json:"antname"`
			Snap *int64 `json:"snap2_location"`
			PolA *int64 `json:"pola_fpga_num"`
			PolB *int64 `json:"polb_fpga_num"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse antenna record %q: %w", id, err)
		}
		info := antInfo{Name: rec.Name, Snap: -1, PolA: -1, PolB: -1}
		if rec.Snap != nil {
			info.Snap = *rec.Snap
		}
		if rec.PolA != nil {
			info.PolA = *rec.PolA
		}
		if rec.PolB != nil {
			info.PolB = *rec.PolB
		}
		if info.Name != "" {
			out[info.Name] = info
		}
	}
	return out, nil
}
