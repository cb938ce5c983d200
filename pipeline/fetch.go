package pipeline

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"

	openstopstats "github.com/OPENER-next/OpenStop-stats"
	"github.com/OPENER-next/OpenStop-stats/log"
	"github.com/OPENER-next/OpenStop-stats/queue"
)

// NewDownloadClient returns an http.Client with the timeouts used for
// planet downloads. There is no overall request timeout, the download
// of a full dump runs for hours.
func NewDownloadClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			Dial: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).Dial,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// fetch streams the dump from config.URL onto out in chunks of at
// most config.ChunkSize bytes. The queue is always closed gracefully,
// also on a transport failure: a truncated download is reported but
// must not keep the downstream stages from terminating.
func fetch(config Config, out *queue.Queue) error {
	defer out.Close()

	req, err := http.NewRequest("GET", config.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "request for %s", config.URL)
	}
	req.Header.Set("User-Agent", "OpenStop-stats "+openstopstats.Version)

	resp, err := config.Client.Do(req)
	if err != nil {
		log.Warnf("download failed: %v", err)
		return errors.Wrapf(err, "requesting %s", config.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		log.Warnf("download failed: %s returned %s", config.URL, resp.Status)
		return errors.Errorf("invalid response for %s: %s", config.URL, resp.Status)
	}

	if config.Progress != nil {
		config.Progress.SetTotal(resp.ContentLength)
	}

	buf := make([]byte, config.ChunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			// Blocks while the queue is full, throttling the
			// download to the pace of the slower stages.
			if !out.Push(chunk) {
				return nil
			}
			if config.Progress != nil {
				config.Progress.AddBytes(n)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			log.Warnf("download interrupted: %v", err)
			return errors.Wrapf(err, "reading %s", config.URL)
		}
	}
}
