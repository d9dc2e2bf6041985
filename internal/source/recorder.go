package source

import (
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"spectui/internal/spectra"
)

const (
	recorderUser    = "mcsdr"
	recorderSSHPort = "22"
)

// Spectrometer output lands under one of these roots; machines running
// several recorders nest an extra DR directory in the path.
var recorderRoots = []string{
	"/LWA_STORAGE/Internal",
	"/LWA_STORAGE/%s/Internal",
}

// Recorder reads live spectra from a data recorder: it locates the newest
// spectrometer file over sftp and decodes the file's last complete frame.
// The frame's own timestamp becomes the capture time, so an unchanged file
// is naturally discarded by the frame buffer's newer-wins rule.
type Recorder struct {
	host string

	mu     sync.Mutex
	conn   *ssh.Client
	sftp   *sftp.Client
	file   string
	lastTS time.Time
}

// NewRecorder dials the recorder host and authenticates with the given
// private key file.
func NewRecorder(host, identityFile string) (*Recorder, error) {
	key, err := os.ReadFile(identityFile)
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parse identity file: %w", err)
	}

	conn, err := ssh.Dial("tcp", net.JoinHostPort(host, recorderSSHPort), &ssh.ClientConfig{
		User:            recorderUser,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to recorder %s: %w", host, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open sftp to %s: %w", host, err)
	}

	r := &Recorder{host: host, conn: conn, sftp: client}
	if file, err := r.findLatestFile(); err == nil && file != "" {
		r.file = file
		log.WithFields(log.Fields{"recorder": host, "file": path.Base(file)}).Info("reading recorder spectra")
	}
	return r, nil
}

// Fetch decodes the newest frame from the recorder's current spectrometer
// file and labels it with the requested antenna name. When the frame
// timestamp stops advancing the recorder has rotated files, so the search
// for the newest file runs again.
func (r *Recorder) Fetch(ctx context.Context, antenna string) (*spectra.Spectrum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := r.latestFrame()
	if err != nil {
		return nil, err
	}
	if !frame.Timestamp.After(r.lastTS) {
		log.WithField("recorder", r.host).Debug("frame timestamp unchanged, rescanning for new file")
		file, err := r.findLatestFile()
		if err != nil {
			return nil, err
		}
		if file != "" && file != r.file {
			r.file = file
			if frame, err = r.latestFrame(); err != nil {
				return nil, err
			}
		}
	}
	r.lastTS = frame.Timestamp

	// Tuning 1, first linear product. The recorder integrates the whole
	// station beam, so every antenna name maps to the same stream.
	return spectra.New(antenna, frame.Freqs[0], frame.Power[0][0], frame.Timestamp)
}

// Close shuts down the sftp session and the ssh transport.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.sftp.Close(); err != nil {
		r.conn.Close()
		return err
	}
	return r.conn.Close()
}

func (r *Recorder) latestFrame() (*DRFrame, error) {
	if r.file == "" {
		file, err := r.findLatestFile()
		if err != nil {
			return nil, err
		}
		if file == "" {
			return nil, fmt.Errorf("no spectrometer files on %s: %w", r.host, ErrUnavailable)
		}
		r.file = file
	}

	f, err := r.sftp.Open(r.file)
	if err != nil {
		return nil, fmt.Errorf("open remote %s: %w", r.file, ErrUnavailable)
	}
	defer f.Close()

	frame, err := readLastDRFrame(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path.Base(r.file), err)
	}
	return frame, nil
}

// findLatestFile scans the recorder's storage roots for the most recently
// written spectrometer file.
func (r *Recorder) findLatestFile() (string, error) {
	var newest string
	var newestMod time.Time

	for _, root := range recorderRoots {
		dir := root
		if strings.Contains(dir, "%s") {
			dir = fmt.Sprintf(dir, strings.ToUpper(r.host))
		}
		entries, err := r.sftp.ReadDir(dir)
		if err != nil {
			// Only one of the roots exists on any given machine.
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			specDir := path.Join(dir, entry.Name(), "DROS", "Spec")
			files, err := r.sftp.ReadDir(specDir)
			if err != nil {
				continue
			}
			for _, fi := range files {
				if fi.IsDir() || !strings.HasPrefix(fi.Name(), "0") {
					continue
				}
				if fi.ModTime().After(newestMod) {
					newestMod = fi.ModTime()
					newest = path.Join(specDir, fi.Name())
				}
			}
		}
	}
	return newest, nil
}
