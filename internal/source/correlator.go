package source

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"spectui/internal/spectra"
)

const (
	systemConfigKey = "/cfg/system"
	respPrefix      = "/resp/snap/"
	cmdRoot         = "/cmd/snap/"

	// Each snap board answers with 16 signal rows of 4096 channels across
	// the 0-98.3 MHz band.
	rowsPerBlock   = 16
	bandTopMHz     = 98.3
	dialTimeout    = 5 * time.Second
	requestTimeout = 20 * time.Second
)

// Correlator fetches live autospectra from the correlator's etcd bus: it
// puts a get_new_spectra command on the antenna's snap board key and watches
// the response prefix for the payload echoing the command's sequence id.
type Correlator struct {
	cli    *clientv3.Client
	layout map[string]antInfo
}

// NewCorrelator connects to the etcd endpoints and loads the antenna layout
// from the system configuration key.
func NewCorrelator(ctx context.Context, endpoints []string) (*Correlator, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
		Context:     ctx,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to correlator store: %w", err)
	}

	resp, err := cli.Get(ctx, systemConfigKey)
	if err != nil {
		cli.Close()
		return nil, fmt.Errorf("read %s: %w", systemConfigKey, err)
	}
	if len(resp.Kvs) == 0 {
		cli.Close()
		return nil, fmt.Errorf("%s not present in correlator store", systemConfigKey)
	}

	layout, err := parseLayout(resp.Kvs[0].Value)
	if err != nil {
		cli.Close()
		return nil, err
	}
	log.WithField("antennas", len(layout)).Info("correlator layout loaded")

	return &Correlator{cli: cli, layout: layout}, nil
}

// Fetch requests a fresh autocorrelation for one antenna and blocks until
// the correlator answers or ctx expires. The returned spectrum is the
// antenna's pol A (XX) row.
func (c *Correlator) Fetch(ctx context.Context, antenna string) (*spectra.Spectrum, error) {
	info, ok := c.layout[antenna]
	if !ok {
		return nil, fmt.Errorf("%q: %w", antenna, ErrAntennaNotFound)
	}
	if info.Snap < 0 || info.PolA < 0 {
		return nil, fmt.Errorf("%q has no snap mapping: %w", antenna, ErrAntennaNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	// Arm the watch before sending the command so the response cannot slip
	// past between put and watch registration.
	wch := c.cli.Watch(ctx, respPrefix, clientv3.WithPrefix())

	payload, id, err := buildCommand(blockOf(info), time.Now())
	if err != nil {
		return nil, err
	}
	if _, err := c.cli.Put(ctx, cmdKey(info.Snap), string(payload)); err != nil {
		return nil, fmt.Errorf("send spectrum request for %s: %w", antenna, ErrUnavailable)
	}

	for {
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, fmt.Errorf("%s: %w", antenna, ErrTimeout)
			}
			return nil, ctx.Err()
		case wresp, open := <-wch:
			if !open {
				return nil, fmt.Errorf("response watch closed for %s: %w", antenna, ErrUnavailable)
			}
			if err := wresp.Err(); err != nil {
				return nil, fmt.Errorf("watch %s: %w", respPrefix, ErrUnavailable)
			}
			for _, ev := range wresp.Events {
				rows, ok := matchResponse(ev.Kv.Value, id)
				if !ok {
					continue
				}
				return spectrumFromRows(antenna, info, rows)
			}
		}
	}
}

// Close releases the etcd client.
func (c *Correlator) Close() error {
	return c.cli.Close()
}

// Antennas reports the names present in the loaded layout, for startup
// validation of the watch list.
func (c *Correlator) Antennas() []string {
	out := make([]string, 0, len(c.layout))
	for name := range c.layout {
		out = append(out, name)
	}
	return out
}

func blockOf(info antInfo) int {
	block, _ := info.signalBlock()
	return block
}

func cmdKey(snap int64) string {
	return fmt.Sprintf("%s%02d", cmdRoot, snap)
}

func spectrumFromRows(antenna string, info antInfo, rows [][]float64) (*spectra.Spectrum, error) {
	_, row := info.signalBlock()
	if row >= len(rows) {
		return nil, fmt.Errorf("%s: response has %d rows, want row %d: %w", antenna, len(rows), row, ErrDecode)
	}
	power := rows[row]
	if len(power) == 0 {
		return nil, fmt.Errorf("%s: empty spectrum row: %w", antenna, ErrDecode)
	}
	spec, err := spectra.New(antenna, spectra.Linspace(0, bandTopMHz, len(power)), power, time.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", antenna, err, ErrDecode)
	}
	return spec, nil
}
